package loader

import (
	"slices"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/fredbi/runviz/internal/pkg/organizer"
	"github.com/samber/lo"
)

// Report allows to inspect the contents of loaded charts.
type Report struct {
	NumberOfCharts int           `json:"charts"`
	AnalyzedFiles  []string      `json:"analyzed_files"`
	Metrics        []string      `json:"metrics"`
	Experiments    []string      `json:"experiments"`
	Charts         []ChartReport `json:"chart_details"`
}

// ChartReport summarizes the runs and measurements of a chart.
type ChartReport struct {
	ID                  string   `json:"id"`
	Metric              string   `json:"metric"`
	File                string   `json:"origin_file"`
	Runs                int      `json:"runs"`
	RunsWithoutData     []string `json:"runs_without_data,omitempty"`
	Experiments         []string `json:"experiments"`
	Workloads           []string `json:"workloads"`
	ExpandableWorkloads []string `json:"expandable_workloads,omitempty"`
	HasContext          bool     `json:"has_context"`
	Measurements        Span     `json:"measurements"`
}

// Span is the extent of the measurements of a chart.
type Span struct {
	Count          int     `json:"measurements_count"`
	MinValue       float64 `json:"min_value"`
	MaxValue       float64 `json:"max_value"`
	FirstTimestamp int64   `json:"first_timestamp"`
	LastTimestamp  int64   `json:"last_timestamp"`
	MinStep        int64   `json:"min_step"`
	MaxStep        int64   `json:"max_step"`
}

// Report produces a [Report], which allows for closer inspection of the content
// of loaded input.
func (ld *Loader) Report() Report {
	r := Report{
		AnalyzedFiles: make([]string, 0, len(ld.sources)),
	}

	for _, source := range ld.sources {
		r.AnalyzedFiles = append(r.AnalyzedFiles, source.File)

		for _, chart := range source.Charts {
			r.NumberOfCharts++

			cr := reportChart(chart)
			cr.File = source.File
			r.Charts = append(r.Charts, cr)
			r.Experiments = append(r.Experiments, cr.Experiments...)
			r.Metrics = append(r.Metrics, chart.Metric)
		}
	}

	r.AnalyzedFiles = lo.Uniq(r.AnalyzedFiles)
	r.Metrics = lo.Uniq(r.Metrics)
	r.Experiments = lo.Uniq(r.Experiments)
	slices.Sort(r.Metrics)
	slices.Sort(r.Experiments)

	return r
}

func reportChart(chart model.Chart) ChartReport {
	withData := lo.Filter(chart.Runs, func(run model.RunRecord, _ int) bool {
		return run.HasData()
	})

	cr := ChartReport{
		ID:     chart.ID,
		Metric: chart.Metric,
		Runs:   len(chart.Runs),
		RunsWithoutData: lo.FilterMap(chart.Runs, func(run model.RunRecord, _ int) (string, bool) {
			return run.Name, !run.HasData()
		}),
		Experiments: lo.Uniq(lo.Map(withData, func(run model.RunRecord, _ int) string {
			return run.ExperimentName
		})),
		Workloads: lo.Uniq(lo.Map(withData, func(run model.RunRecord, _ int) string {
			return run.Workload
		})),
		ExpandableWorkloads: organizer.ExpandableWorkloads(chart.Runs),
		HasContext:          chart.Context != nil,
	}

	measurements := lo.FlatMap(withData, func(run model.RunRecord, _ int) []model.Measurement {
		return run.Data
	})
	cr.Measurements = span(measurements)

	return cr
}

func span(measurements []model.Measurement) Span {
	if len(measurements) == 0 {
		return Span{}
	}

	first := measurements[0]
	s := Span{
		Count:          len(measurements),
		MinValue:       first.Value,
		MaxValue:       first.Value,
		FirstTimestamp: first.Timestamp,
		LastTimestamp:  first.Timestamp,
		MinStep:        first.Step,
		MaxStep:        first.Step,
	}

	for _, m := range measurements[1:] {
		s.MinValue = min(s.MinValue, m.Value)
		s.MaxValue = max(s.MaxValue, m.Value)
		s.FirstTimestamp = min(s.FirstTimestamp, m.Timestamp)
		s.LastTimestamp = max(s.LastTimestamp, m.Timestamp)
		s.MinStep = min(s.MinStep, m.Step)
		s.MaxStep = max(s.MaxStep, m.Step)
	}

	return s
}
