// Package transform projects raw series on the x-axis and smooths them.
//
// All transforms return new series and leave their input untouched.
package transform

import (
	"fmt"
	"slices"

	"github.com/fredbi/runviz/internal/pkg/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reducer collapses all the values reported for one step into a single value.
type Reducer func(values []float64) float64

// ReducerFor returns the [Reducer] of a step mode.
//
// [model.StepModeTime] has no reducer: it is an error to ask for one, like for any unknown mode.
func ReducerFor(mode model.StepMode) (Reducer, error) {
	switch mode {
	case model.StepModeEpochMin:
		return Min, nil
	case model.StepModeEpochMax:
		return Max, nil
	case model.StepModeEpochMean:
		return Mean, nil
	case model.StepModeEpochMedian:
		return Median, nil
	default:
		return nil, fmt.Errorf("no step reducer: %w: %q", model.ErrUnknownStepMode, mode)
	}
}

// Aggregate projects a raw series on the step axis: one point per distinct step,
// with the values of that step reduced according to mode.
//
// Points are sorted by step.
func Aggregate(raw model.RawSeries, mode model.StepMode) (model.Series, error) {
	reduce, err := ReducerFor(mode)
	if err != nil {
		return model.Series{}, err
	}

	var steps []int64
	buckets := make(map[int64][]float64)

	for _, m := range raw.Measurements {
		if _, seen := buckets[m.Step]; !seen {
			steps = append(steps, m.Step)
		}
		buckets[m.Step] = append(buckets[m.Step], m.Value)
	}

	slices.Sort(steps)

	data := make([]model.Point, 0, len(steps))
	for _, step := range steps {
		data = append(data, model.Point{
			X: float64(step),
			Y: reduce(buckets[step]),
		})
	}

	return model.Series{
		Name: raw.Name,
		Data: data,
		Runs: slices.Clone(raw.Runs),
	}, nil
}

// Min returns the smallest value, or 0 for an empty bucket.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return floats.Min(values)
}

// Max returns the largest value, or 0 for an empty bucket.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return floats.Max(values)
}

// Mean returns the arithmetic mean, or 0 for an empty bucket.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return stat.Mean(values, nil)
}

// Median returns the middle value, or the average of the two middle values for an even count.
//
// An empty bucket yields 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}
