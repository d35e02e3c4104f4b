package model

import "strings"

// Measurement is a single sample reported by a run.
type Measurement struct {
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	Step      int64   `json:"step"`
	Value     float64 `json:"value"`
}

// RunRecord is the raw input unit: one run with its measurements for one metric.
//
// A nil Data slice means the data field was absent, which is different from an empty
// measurement set: runs without data are excluded from the charts.
type RunRecord struct {
	Name           string        `json:"name"`
	Workload       string        `json:"workload"`
	Letter         *string       `json:"letter"`
	ExperimentName string        `json:"experimentName"`
	StartTime      int64         `json:"startTime"`
	Model          string        `json:"model"`
	Source         string        `json:"source"`
	Params         string        `json:"params"`
	Data           []Measurement `json:"data,omitempty"`
}

// HasData reports whether the run carries a data field at all.
func (r RunRecord) HasData() bool {
	return r.Data != nil
}

// Meta returns the run metadata, stripped of its measurements.
func (r RunRecord) Meta() RunMeta {
	meta := RunMeta{
		Name:           r.Name,
		Workload:       r.Workload,
		ExperimentName: r.ExperimentName,
		StartTime:      r.StartTime,
		Model:          r.Model,
		Source:         r.Source,
		Params:         r.Params,
	}

	if r.Letter != nil {
		letter := *r.Letter
		meta.Letter = &letter
	}

	return meta
}

// WorkloadPrefix returns the part of the workload before the first dash,
// or the whole workload when there is no dash.
func (r RunRecord) WorkloadPrefix() string {
	prefix, _, _ := strings.Cut(r.Workload, "-")

	return prefix
}

// WorkloadSuffix returns the part of the workload after the first dash,
// or the whole workload when there is no dash.
func (r RunRecord) WorkloadSuffix() string {
	_, suffix, found := strings.Cut(r.Workload, "-")
	if !found {
		return r.Workload
	}

	return suffix
}

// Clone returns a deep copy of the run.
func (r RunRecord) Clone() RunRecord {
	c := r
	if r.Letter != nil {
		letter := *r.Letter
		c.Letter = &letter
	}

	if r.Data != nil {
		c.Data = make([]Measurement, len(r.Data))
		copy(c.Data, r.Data)
	}

	return c
}

// RunMeta describes a run contributing to a series. It is used for tooltips.
type RunMeta struct {
	Name           string  `json:"name"`
	Workload       string  `json:"workload"`
	Letter         *string `json:"letter"`
	ExperimentName string  `json:"experimentName"`
	StartTime      int64   `json:"startTime"`
	Model          string  `json:"model"`
	Source         string  `json:"source"`
	Params         string  `json:"params"`
}

// LetterString returns the run letter, or an empty string when the run has none.
func (m RunMeta) LetterString() string {
	if m.Letter == nil {
		return ""
	}

	return *m.Letter
}

// MetricRow is a flat measurement row as returned by a metrics API,
// attached to its run by name.
type MetricRow struct {
	Name      string  `json:"name"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
	Value     float64 `json:"value"`
}

// Measurement converts the row into a [Measurement].
func (r MetricRow) Measurement() Measurement {
	return Measurement{
		Timestamp: r.Timestamp,
		Step:      r.Step,
		Value:     r.Value,
	}
}

// Chart is the input for one chart: the runs selected for a metric and
// an optional previously saved display context.
type Chart struct {
	ID      string        `json:"id"`
	Metric  string        `json:"metric"`
	Runs    []RunRecord   `json:"data"`
	Context *ChartContext `json:"context,omitempty"`
}

// Clone returns a deep copy of the chart input.
func (c Chart) Clone() Chart {
	clone := Chart{
		ID:     c.ID,
		Metric: c.Metric,
	}

	if c.Runs != nil {
		clone.Runs = make([]RunRecord, 0, len(c.Runs))
		for _, run := range c.Runs {
			clone.Runs = append(clone.Runs, run.Clone())
		}
	}

	if c.Context != nil {
		ctx := c.Context.Clone()
		clone.Context = &ctx
	}

	return clone
}
