package transform

import (
	"slices"

	"github.com/fredbi/runviz/internal/pkg/model"
)

// Normalize projects a raw series on the elapsed time axis.
//
// Timestamps are rebased on the first sample when startAtFirst is set, or on the earliest
// start time of the contributing runs otherwise. The x values are elapsed milliseconds.
func Normalize(raw model.RawSeries, startAtFirst bool) model.Series {
	data := make([]model.Point, 0, len(raw.Measurements))
	if len(raw.Measurements) == 0 {
		return model.Series{
			Name: raw.Name,
			Data: data,
			Runs: slices.Clone(raw.Runs),
		}
	}

	reference := referenceTime(raw, startAtFirst)
	for _, m := range raw.Measurements {
		data = append(data, model.Point{
			X: float64(m.Timestamp - reference),
			Y: m.Value,
		})
	}

	return model.Series{
		Name: raw.Name,
		Data: data,
		Runs: slices.Clone(raw.Runs),
	}
}

func referenceTime(raw model.RawSeries, startAtFirst bool) int64 {
	if startAtFirst || len(raw.Runs) == 0 {
		return raw.Measurements[0].Timestamp
	}

	earliest := raw.Runs[0].StartTime
	for _, run := range raw.Runs[1:] {
		earliest = min(earliest, run.StartTime)
	}

	return earliest
}
