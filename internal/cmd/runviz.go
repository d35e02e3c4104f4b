// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/fredbi/runviz/internal/pkg/chart"
	"github.com/fredbi/runviz/internal/pkg/config"
	"github.com/fredbi/runviz/internal/pkg/image"
	"github.com/fredbi/runviz/internal/pkg/loader"
	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/fredbi/runviz/internal/pkg/pipeline"
	"github.com/fredbi/runviz/internal/pkg/session"
	"github.com/samber/lo"
)

const unsetSmoothing = -1

// Command holds command line flags and executes the runviz command.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files.
//
// All other invoked functionalities deal with streams, except the chart loader which may collect several files
// directly.
type Command struct {
	Config         string
	OutputFile     string
	Report         bool
	Png            bool
	GenerateConfig bool
	Strict         bool

	// display settings
	Smoothing    int
	StepMode     string
	StartAtFirst bool
	Monochrome   bool
	Detailed     bool
	Boost        bool
	ShowRuns     string
	Hide         string
	Range        string

	// saved contexts
	ContextFile string
	ExportFile  string

	L *slog.Logger
}

// NewCommand builds a CLI command with registered flags and an injected logger.
func NewCommand() *Command {
	// inject a structured logger
	cli := &Command{
		L: slog.Default().With(slog.String("module", "main")),
	}

	cli.registerFlags()

	return cli
}

// Parse command line flags and arguments.
func (*Command) Parse() error {
	return flag.CommandLine.Parse(os.Args[1:])
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI with flags and extra arguments.
//
// If no argument is passed, command line arguments (i.e. [os.Args]) are used.
func (c *Command) Execute(args ...string) error {
	if args == nil { // passing explicit args allows for testing Execute without altering [os.Args]
		args = c.args()
	}
	if len(args) == 0 { // no file is provided: assume stdin
		args = append(args, "-")
	}

	if c.GenerateConfig {
		return c.generateConfig(args)
	}

	cfg, cleanup, err := c.prepareConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	if c.Report {
		// just want to report about the content of the chart files
		return c.report(cfg, args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 1. load the input charts and build a chart page
	htmlRenderer, err := c.buildPage(cfg, args)
	if err != nil {
		return err
	}

	// 2. render the page as HTML, possibly to stdout, possibly to temp file
	htmlWriter, htmlCloser, err := getWriter(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := htmlRenderer.Render(htmlWriter); err != nil {
		htmlCloser()
		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	if cfg.Outputs.PngFile == "" {
		// html only: we're done
		return nil
	}

	// 3. convert the HTML page to a PNG image, possibly to stdout
	htmlReader, htmlCloser, err := getReader(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}
	defer htmlCloser()

	pngWriter, pngCloser, err := getWriter(cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	r := image.New(image.WithScreenshot(cfg.Render.Screenshot))

	if err = r.Render(ctx, pngWriter, htmlReader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

func (*Command) args() []string {
	return flag.CommandLine.Args()
}

func (c *Command) registerFlags() {
	defaults := Command{
		Config:     "runviz.yaml",
		OutputFile: "-",
		Smoothing:  unsetSmoothing,
	}

	flag.StringVar(&c.Config, "config", defaults.Config, "config file")
	flag.StringVar(&c.Config, "c", defaults.Config, "config file (shorthand)")
	flag.StringVar(&c.OutputFile, "output", defaults.OutputFile, "file output or - for standard output")
	flag.StringVar(&c.OutputFile, "o", defaults.OutputFile, "file output or - for standard output (shorthand)")
	flag.BoolVar(&c.Report, "r", defaults.Report, "report chart contents only, no rendering (shorthand)")
	flag.BoolVar(&c.Report, "report", defaults.Report, "report chart contents only")
	flag.BoolVar(&c.Png, "png", defaults.Png, "enable PNG screenshot output")
	flag.BoolVar(&c.GenerateConfig, "generate", defaults.GenerateConfig, "generate a config file from the input charts, written to the config file path")
	flag.BoolVar(&c.Strict, "strict", defaults.Strict, "fail on input warnings, e.g. charts without data")

	flag.IntVar(&c.Smoothing, "smoothing", defaults.Smoothing, "smoothing weight in percent [0,99]")
	flag.StringVar(&c.StepMode, "step", defaults.StepMode, "x-axis mode: one of Time, EpochMin, EpochMax, EpochMean, EpochMedian")
	flag.BoolVar(&c.StartAtFirst, "start-at-first", defaults.StartAtFirst, "rebase elapsed time on the first sample of each series")
	flag.BoolVar(&c.Monochrome, "monochrome", defaults.Monochrome, "monochrome rendering (up to 5 series)")
	flag.BoolVar(&c.Detailed, "detailed", defaults.Detailed, "detailed tooltips with models, sources and parameters")
	flag.BoolVar(&c.Boost, "boost", defaults.Boost, "no data point markers, for large series")
	flag.StringVar(&c.ShowRuns, "show-runs", defaults.ShowRuns, "comma-separated workloads to expand into individual runs")
	flag.StringVar(&c.Hide, "hide", defaults.Hide, "comma-separated series names to hide")
	flag.StringVar(&c.Range, "range", defaults.Range, "x-axis zoom window as min:max (bounds lower than 1 are unset)")
	flag.StringVar(&c.ContextFile, "context", defaults.ContextFile, "restore chart contexts saved with -export")
	flag.StringVar(&c.ExportFile, "export", defaults.ExportFile, "save chart contexts to a JSON file")
}

func (c *Command) prepareConfig() (cfg *config.Config, cleanup func(), err error) {
	cfg, err = config.Load(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err = c.setConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if cfg.Outputs.IsTemp && !c.Report {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}

		return cfg, cleanup, err
	}

	return cfg, func() {}, err
}

// apply CLI flags overrides to YAML config.
func (c *Command) setConfig(cfg *config.Config) error {
	cfg.IsStrict = c.Strict

	if err := c.setDefaults(cfg); err != nil {
		return err
	}

	if c.ExportFile != "" {
		cfg.Outputs.ContextFile = c.ExportFile
	}

	if c.OutputFile != "" && c.OutputFile != "-" {
		// an outfile is defined: infer the PNG file from the HTML file provided
		cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(cfg.Outputs.HTMLFile)
		}
	}

	if c.Report {
		return nil
	}

	switch {
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "":
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png {
			c.L.Info("set an output file to render a PNG image")
		}
		cfg.Outputs.HTMLFile = "-"
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "runviz.*.html")
		if err != nil {
			return err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	return nil
}

// setDefaults overrides the configured display defaults.
func (c *Command) setDefaults(cfg *config.Config) error {
	if c.Smoothing != unsetSmoothing {
		if c.Smoothing < 0 || c.Smoothing > model.MaxSmoothing {
			return fmt.Errorf("invalid -smoothing: %d (should be in [0,%d])", c.Smoothing, model.MaxSmoothing)
		}
		cfg.Defaults.Smoothing = c.Smoothing
	}

	if c.StepMode != "" {
		mode, err := model.ParseStepMode(c.StepMode)
		if err != nil {
			return fmt.Errorf("invalid -step: %w", err)
		}
		cfg.Defaults.UseStep = mode
	}

	if c.StartAtFirst {
		cfg.Defaults.StartAtFirst = true
	}
	if c.Monochrome {
		cfg.Defaults.Monochrome = true
	}
	if c.Detailed {
		cfg.Defaults.DetailedTooltip = true
	}
	if c.Boost {
		cfg.Render.Boost = true
	}

	return nil
}

// report produces a report that explores the input charts.
func (c *Command) report(cfg *config.Config, args []string) error {
	p := loader.New(cfg)
	t0 := time.Now()
	if err := p.ParseFiles(args...); err != nil {
		return fmt.Errorf("parsing files: %w", err)
	}
	c.L.Info("parsed input charts", slog.Duration("duration", time.Since(t0)))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", " ")

	return enc.Encode(p.Report())
}

// generateConfig writes a configuration scaffold for the metrics found in the input charts.
func (c *Command) generateConfig(args []string) error {
	p := loader.New(&config.Config{})
	if err := p.ParseFiles(args...); err != nil {
		return fmt.Errorf("parsing files: %w", err)
	}

	cfg := config.Generate(config.GenerateInput{
		Metrics: p.Report().Metrics,
	})

	w, closer, err := getWriter(c.Config, "config")
	if err != nil {
		return err
	}
	defer closer()

	if err := cfg.EncodeYAML(w); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	c.L.Info("config generated", slog.String("config", c.Config), slog.Int("metrics", len(cfg.Metrics)))

	return nil
}

// buildPage loads the input charts, opens a session on each of them with the requested settings,
// and builds a page with the resulting charts.
func (c *Command) buildPage(cfg *config.Config, args []string) (*chart.Page, error) {
	// 1. load input charts passed as CLI args
	p := loader.New(cfg)
	if err := p.ParseFiles(args...); err != nil {
		return nil, fmt.Errorf("parsing files: %w", err)
	}

	if c.ContextFile != "" {
		contexts, err := readContexts(c.ContextFile)
		if err != nil {
			return nil, err
		}
		applied := p.ApplyContexts(contexts)
		c.L.Info("restored chart contexts", slog.Int("contexts", len(contexts)), slog.Int("charts", applied))
	}

	// 2. rebuild the series of each chart with its display settings
	charts := p.Charts()
	results := make([]*pipeline.Result, 0, len(charts))
	contexts := make([]model.ChartContext, 0, len(charts))

	for _, input := range charts {
		s, err := c.openSession(cfg, input)
		if err != nil {
			return nil, err
		}

		results = append(results, s.Result())
		contexts = append(contexts, s.Context())
	}

	if cfg.Outputs.ContextFile != "" {
		if err := writeContexts(cfg.Outputs.ContextFile, contexts); err != nil {
			return nil, err
		}
	}

	// 3. build a page with these charts
	builder := chart.New(cfg, results...)
	page := builder.BuildPage()

	return page, nil
}

// openSession opens a session on a chart, then applies the display flags as session commands.
func (c *Command) openSession(cfg *config.Config, input model.Chart) (*session.Session, error) {
	l := c.L.With(slog.String("chart", input.ID))

	s, err := session.New(input, cfg.Settings(),
		session.WithLogger(l),
		session.WithPipelineOptions(pipeline.WithMetricTitle(cfg.MetricTitle)),
		session.WithSync(func(ctx model.ChartContext) {
			l.Debug("chart context changed",
				slog.Int("smoothing", ctx.Smoothing),
				slog.Any("shown_runs", ctx.ShownRuns),
				slog.Any("hidden_series", ctx.HiddenSeries),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening chart %q: %w", input.ID, err)
	}

	if cfg.Defaults.Monochrome && !s.Settings().Monochrome {
		l.Warn("monochrome mode disabled: too many series")
	}

	for _, workload := range splitList(c.ShowRuns) {
		if s.Settings().IsShown(workload) {
			continue
		}
		if _, err := s.ToggleShownRun(workload); err != nil {
			if err = c.sessionError(input.ID, err); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range splitList(c.Hide) {
		if s.Settings().IsHidden(name) {
			continue
		}
		if _, err := s.ToggleSeriesVisibility(name); err != nil {
			if err = c.sessionError(input.ID, err); err != nil {
				return nil, err
			}
		}
	}

	if c.Range != "" {
		r, err := parseRange(c.Range)
		if err != nil {
			return nil, err
		}
		if _, err := s.SetZoomRange(r); err != nil {
			if err = c.sessionError(input.ID, err); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// sessionError tells apart fatal errors from a rejected monochrome mode.
func (c *Command) sessionError(id string, err error) error {
	if errors.Is(err, session.ErrMonochromeRejected) {
		c.L.Warn("monochrome mode disabled: too many series", slog.String("chart", id))

		return nil
	}

	return fmt.Errorf("chart %q: %w", id, err)
}

func readContexts(file string) ([]model.ChartContext, error) {
	rdr, closer, err := getReader(file, "context")
	if err != nil {
		return nil, err
	}
	defer closer()

	return loader.ReadContexts(rdr)
}

func writeContexts(file string, contexts []model.ChartContext) error {
	wrt, closer, err := getWriter(file, "context")
	if err != nil {
		return err
	}
	defer closer()

	return loader.WriteContexts(wrt, contexts)
}

func getReader(file, kind string) (rdr io.Reader, cleanup func(), err error) {
	if file == "-" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}

func getWriter(file, kind string) (wrt io.Writer, cleanup func(), err error) {
	if file == "-" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}

func splitList(list string) []string {
	return lo.FilterMap(strings.Split(list, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)

		return item, item != ""
	})
}

// parseRange parses a zoom window given as "min:max". Either bound may be omitted.
func parseRange(value string) (model.Range, error) {
	lower, upper, found := strings.Cut(value, ":")
	if !found {
		return model.Range{}, fmt.Errorf("invalid -range: %q (should be min:max)", value)
	}

	var (
		r   model.Range
		err error
	)

	if lower = strings.TrimSpace(lower); lower != "" {
		if r.Min, err = strconv.ParseFloat(lower, 64); err != nil {
			return model.Range{}, fmt.Errorf("invalid -range lower bound: %w", err)
		}
	}

	if upper = strings.TrimSpace(upper); upper != "" {
		if r.Max, err = strconv.ParseFloat(upper, 64); err != nil {
			return model.Range{}, fmt.Errorf("invalid -range upper bound: %w", err)
		}
	}

	return r, nil
}

func inferHTMLFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".html"
}

func inferImageFile(base string) string {
	ext := path.Ext(base)
	stem, _ := strings.CutSuffix(base, ext)

	return stem + ".png"
}
