// Package loader decodes chart documents: the runs selected for a metric, their measurements
// and the display context saved for the chart.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/fredbi/runviz/internal/pkg/config"
	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/go-viper/mapstructure/v2"
)

var (
	// ErrOrphanRow is a measurement row referring to a run which is not part of the chart.
	ErrOrphanRow = errors.New("measurement row for an unknown run")

	// ErrEmptyChart is a chart without any run carrying data.
	ErrEmptyChart = errors.New("chart without data")
)

// Source is the set of charts decoded from one input file.
type Source struct {
	File   string
	Charts []model.Chart
}

// Loader decodes chart documents.
type Loader struct {
	options

	config  *config.Config
	sources []Source
	ids     map[string]struct{}
}

// document is the JSON input of a chart.
//
// Measurements may come embedded in runs, or as flat rows attached to runs by name.
type document struct {
	ID      any               `json:"id"`
	Metric  string            `json:"metric"`
	Runs    []model.RunRecord `json:"data"`
	Rows    []model.MetricRow `json:"rows"`
	Context map[string]any    `json:"context"`
}

// New [Loader] ready to decode chart documents.
func New(cfg *config.Config, opts ...Option) *Loader {
	return &Loader{
		options: optionsWithDefaults(opts),
		config:  cfg,
		ids:     make(map[string]struct{}),
	}
}

// ParseFiles decodes chart documents from files. The file "-" is the standard input.
func (ld *Loader) ParseFiles(files ...string) error {
	for _, file := range files {
		var (
			reader io.ReadCloser
			err    error
		)

		if file == "-" {
			reader = os.Stdin
		} else {
			reader, err = os.Open(file)
			if err != nil {
				return fmt.Errorf("input file %q: %w", file, err)
			}
		}

		charts, err := ld.ParseInput(reader)
		if file != "-" {
			_ = reader.Close()
		}
		if err != nil {
			return fmt.Errorf("input file %q: %w", file, err)
		}

		ld.sources = append(ld.sources, Source{
			File:   file,
			Charts: charts,
		})
	}

	ld.l.Info("chart input parsed", slog.Int("parsed_files", len(files)), slog.Int("charts", len(ld.Charts())))

	return nil
}

// ParseInput decodes a chart document, or an array of chart documents.
func (ld *Loader) ParseInput(r io.Reader) ([]model.Chart, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, nil
	}

	var docs []document
	if content[0] == '[' {
		if err := json.Unmarshal(content, &docs); err != nil {
			return nil, fmt.Errorf("decoding chart documents: %w", err)
		}
	} else {
		var doc document
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("decoding chart document: %w", err)
		}
		docs = append(docs, doc)
	}

	charts := make([]model.Chart, 0, len(docs))
	for _, doc := range docs {
		chart, err := ld.buildChart(doc)
		if err != nil {
			return nil, err
		}

		charts = append(charts, chart)
	}

	return charts, nil
}

// Charts returns all the charts decoded so far, in input order.
func (ld *Loader) Charts() []model.Chart {
	var charts []model.Chart
	for _, source := range ld.sources {
		charts = append(charts, source.Charts...)
	}

	return charts
}

// Sources returns the decoded charts grouped by input file.
func (ld *Loader) Sources() []Source {
	return ld.sources
}

// ApplyContexts attaches saved display contexts to the charts with the same ID.
//
// It returns the number of charts which received a context.
func (ld *Loader) ApplyContexts(contexts []model.ChartContext) int {
	byID := make(map[string]model.ChartContext, len(contexts))
	for _, ctx := range contexts {
		byID[ctx.ID] = ctx
	}

	var applied int
	for i := range ld.sources {
		for j := range ld.sources[i].Charts {
			chart := &ld.sources[i].Charts[j]
			ctx, ok := byID[chart.ID]
			if !ok {
				continue
			}

			restored := ctx.Clone()
			chart.Context = &restored
			applied++
		}
	}

	ld.l.Debug("applied saved contexts", slog.Int("contexts", len(contexts)), slog.Int("applied", applied))

	return applied
}

func (ld *Loader) buildChart(doc document) (model.Chart, error) {
	chart := model.Chart{
		ID:     ld.chartID(doc.ID),
		Metric: doc.Metric,
		Runs:   doc.Runs,
	}
	l := ld.l.With(slog.String("chart", chart.ID))

	if chart.Metric == "" {
		l.Warn("chart without metric label")
	}

	if err := ld.attachRows(&chart, doc.Rows); err != nil {
		return model.Chart{}, err
	}

	if doc.Context != nil {
		ctx, err := DecodeContext(doc.Context)
		if err != nil {
			return model.Chart{}, fmt.Errorf("chart %q: %w", chart.ID, err)
		}

		if ctx.ID == "" {
			ctx.ID = chart.ID
		}
		chart.Context = &ctx
	}

	if !hasData(chart.Runs) {
		if ld.isStrict() {
			l.Error("strict mode: chart without data")

			return model.Chart{}, fmt.Errorf("chart %q: %w", chart.ID, ErrEmptyChart)
		}

		l.Warn("chart without data", slog.Int("runs", len(chart.Runs)))
	}

	return chart, nil
}

func (ld *Loader) attachRows(chart *model.Chart, rows []model.MetricRow) error {
	if len(rows) == 0 {
		return nil
	}

	index := make(map[string]int, len(chart.Runs))
	for i, run := range chart.Runs {
		if _, exists := index[run.Name]; !exists {
			index[run.Name] = i
		}
	}

	for _, row := range rows {
		i, ok := index[row.Name]
		if !ok {
			if ld.isStrict() {
				ld.l.Error("strict mode: orphan measurement row", slog.String("chart", chart.ID), slog.String("run", row.Name))

				return fmt.Errorf("chart %q: %w: %q", chart.ID, ErrOrphanRow, row.Name)
			}

			ld.l.Warn("orphan measurement row ignored", slog.String("chart", chart.ID), slog.String("run", row.Name))

			continue
		}

		chart.Runs[i].Data = append(chart.Runs[i].Data, row.Measurement())
	}

	return nil
}

// chartID resolves the ID of a chart, generating one from the clock when it is missing.
func (ld *Loader) chartID(raw any) string {
	var id string

	switch v := raw.(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatFloat(v, 'f', -1, 64)
	}

	if id == "" {
		id = strconv.FormatInt(ld.now().UnixMilli(), 10)
	}

	unique := id
	for n := 2; ; n++ {
		if _, dup := ld.ids[unique]; !dup {
			break
		}
		unique = id + "-" + strconv.Itoa(n)
	}
	ld.ids[unique] = struct{}{}

	return unique
}

func (ld *Loader) isStrict() bool {
	return ld.config != nil && ld.config.IsStrict
}

// DecodeContext decodes a saved display context.
//
// Values are weakly typed: numbers may be passed as strings.
func DecodeContext(raw map[string]any) (model.ChartContext, error) {
	var ctx model.ChartContext

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &ctx,
	})
	if err != nil {
		return ctx, fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(raw); err != nil {
		return ctx, fmt.Errorf("decoding chart context: %w", err)
	}

	if ctx.Smoothing < 0 || ctx.Smoothing > model.MaxSmoothing {
		return ctx, fmt.Errorf("invalid chart context: smoothing %d (should be in [0,%d])", ctx.Smoothing, model.MaxSmoothing)
	}

	return ctx, nil
}

// ReadContexts reads saved display contexts, as written by [WriteContexts].
func ReadContexts(r io.Reader) ([]model.ChartContext, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("reading chart contexts: %w", err)
	}

	contexts := make([]model.ChartContext, 0, len(raw))
	for _, item := range raw {
		ctx, err := DecodeContext(item)
		if err != nil {
			return nil, err
		}

		contexts = append(contexts, ctx)
	}

	return contexts, nil
}

// WriteContexts saves display contexts as JSON.
func WriteContexts(w io.Writer, contexts []model.ChartContext) error {
	if contexts == nil {
		contexts = []model.ChartContext{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(contexts); err != nil {
		return fmt.Errorf("writing chart contexts: %w", err)
	}

	return nil
}

func hasData(runs []model.RunRecord) bool {
	for _, run := range runs {
		if run.HasData() {
			return true
		}
	}

	return false
}
