// Package organizer groups raw run records into named series.
package organizer

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/samber/lo"
)

const (
	// PlaceholderTitle is the chart title used when no run carries any data yet.
	PlaceholderTitle = "Loading..."

	ungroupedSuffix = "null"
	shortNameLength = 5
)

// Organizer rearranges run records into series, one per workload unless a workload is
// ungrouped or expanded into its individual runs.
type Organizer struct {
	options
}

// New builds an [Organizer] ready to group run records.
func New(opts ...Option) *Organizer {
	return &Organizer{
		options: optionsWithDefaults(opts),
	}
}

// Build groups runs into series and resolves the chart title.
//
// Runs without a data field are skipped. Measurements of every series are sorted by timestamp.
// The input runs are not modified.
func (o *Organizer) Build(runs []model.RunRecord, shownRuns []string) (title string, series []model.RawSeries) {
	var experiments []string
	seenExperiments := make(map[string]struct{})
	index := make(map[string]int)

	for _, run := range runs {
		if !run.HasData() {
			o.l.Debug("run without data excluded", slog.String("run", run.Name))

			continue
		}

		if _, seen := seenExperiments[run.ExperimentName]; !seen {
			seenExperiments[run.ExperimentName] = struct{}{}
			experiments = append(experiments, run.ExperimentName)
		}

		key := seriesKey(run, shownRuns)
		idx, ok := index[key]
		if !ok {
			idx = len(series)
			index[key] = idx
			series = append(series, model.RawSeries{Name: key})
		}

		s := &series[idx]
		s.Measurements = append(s.Measurements, run.Data...)
		s.Runs = append(s.Runs, run.Meta())
	}

	for i := range series {
		slices.SortStableFunc(series[i].Measurements, func(a, b model.Measurement) int {
			return cmp.Compare(a.Timestamp, b.Timestamp)
		})

		if len(series[i].Runs) == 1 {
			// a group with a single run is shown under the identity of that run
			series[i].Name = series[i].Runs[0].Name
		}
	}

	uniqueNames(series)

	o.l.Debug("built series",
		slog.Int("runs", len(runs)),
		slog.Int("series", len(series)),
		slog.Int("experiments", len(experiments)),
	)

	return chartTitle(experiments), series
}

// ExpandableWorkloads returns the workloads shared by more than one run with data, in order of first appearance.
//
// Only these workloads may usefully be expanded into individual runs.
func ExpandableWorkloads(runs []model.RunRecord) []string {
	withData := lo.Filter(runs, func(run model.RunRecord, _ int) bool {
		return run.HasData()
	})
	workloads := lo.Map(withData, func(run model.RunRecord, _ int) string {
		return run.Workload
	})

	return lo.FindDuplicates(workloads)
}

// IsUngrouped reports whether a run is shown as its own series rather than merged into its workload.
func IsUngrouped(run model.RunRecord, shownRuns []string) bool {
	return run.WorkloadSuffix() == ungroupedSuffix || slices.Contains(shownRuns, run.Workload)
}

func seriesKey(run model.RunRecord, shownRuns []string) string {
	if !IsUngrouped(run, shownRuns) {
		return run.Workload
	}

	short := firstRunes(run.Name, shortNameLength)

	switch {
	case run.Letter == nil:
		return run.WorkloadPrefix() + " (" + short + ")"
	case len([]rune(*run.Letter)) > 1:
		// a free-form tag rather than a variant letter
		return run.Workload + " " + *run.Letter
	default:
		return run.Workload + " " + *run.Letter + " (" + short + ")"
	}
}

func chartTitle(experiments []string) string {
	switch len(experiments) {
	case 0:
		return PlaceholderTitle
	case 1:
		return experiments[0]
	default:
		return fmt.Sprintf("Multiple Experiments (%d)", len(experiments))
	}
}

// uniqueNames disambiguates series names which collide after singleton renames.
func uniqueNames(series []model.RawSeries) {
	seen := make(map[string]struct{}, len(series))

	for i := range series {
		name := series[i].Name
		for n := 2; ; n++ {
			if _, dup := seen[name]; !dup {
				break
			}
			name = series[i].Name + " #" + strconv.Itoa(n)
		}

		seen[name] = struct{}{}
		series[i].Name = name
	}
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
