package transform

import (
	"math"
	"testing"

	"github.com/fredbi/runviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestReducers(t *testing.T) {
	tests := []struct {
		name   string
		reduce Reducer
		values []float64
		want   float64
	}{
		{"median even", Median, []float64{1, 2, 3, 4}, 2.5},
		{"median odd", Median, []float64{1, 2, 3}, 2},
		{"median unsorted", Median, []float64{9, 1, 5}, 5},
		{"median single", Median, []float64{7}, 7},
		{"median empty", Median, nil, 0},
		{"mean", Mean, []float64{1, 2, 3, 4}, 2.5},
		{"mean empty", Mean, nil, 0},
		{"min", Min, []float64{3, -1, 2}, -1},
		{"min empty", Min, nil, 0},
		{"max", Max, []float64{3, -1, 2}, 3},
		{"max empty", Max, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.reduce(tt.values), 1e-12)
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_ = Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestReducerFor(t *testing.T) {
	for _, mode := range []model.StepMode{
		model.StepModeEpochMin, model.StepModeEpochMax, model.StepModeEpochMean, model.StepModeEpochMedian,
	} {
		r, err := ReducerFor(mode)
		require.NoError(t, err)
		assert.NotNil(t, r)
	}

	_, err := ReducerFor(model.StepModeTime)
	require.ErrorIs(t, err, model.ErrUnknownStepMode)

	_, err = ReducerFor("Epoch Average")
	require.ErrorIs(t, err, model.ErrUnknownStepMode)
}

func TestAggregate(t *testing.T) {
	raw := model.RawSeries{
		Name: "w-1",
		Measurements: []model.Measurement{
			{Timestamp: 10, Step: 2, Value: 3},
			{Timestamp: 11, Step: 1, Value: 1},
			{Timestamp: 12, Step: 2, Value: 4},
			{Timestamp: 13, Step: 1, Value: 2},
			{Timestamp: 14, Step: 2, Value: 1},
			{Timestamp: 15, Step: 2, Value: 2},
			{Timestamp: 16, Step: 1, Value: 3},
		},
		Runs: []model.RunMeta{{Name: "a"}, {Name: "b"}},
	}

	tests := []struct {
		mode model.StepMode
		want []model.Point
	}{
		{model.StepModeEpochMedian, []model.Point{{X: 1, Y: 2}, {X: 2, Y: 2.5}}},
		{model.StepModeEpochMean, []model.Point{{X: 1, Y: 2}, {X: 2, Y: 2.5}}},
		{model.StepModeEpochMin, []model.Point{{X: 1, Y: 1}, {X: 2, Y: 1}}},
		{model.StepModeEpochMax, []model.Point{{X: 1, Y: 3}, {X: 2, Y: 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			s, err := Aggregate(raw, tt.mode)
			require.NoError(t, err)

			assert.Equal(t, "w-1", s.Name)
			assert.Equal(t, raw.Runs, s.Runs)
			assert.Equal(t, tt.want, s.Data)
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		_, err := Aggregate(raw, "bogus")
		require.ErrorIs(t, err, model.ErrUnknownStepMode)
	})

	t.Run("empty series", func(t *testing.T) {
		s, err := Aggregate(model.RawSeries{Name: "empty"}, model.StepModeEpochMean)
		require.NoError(t, err)
		assert.Empty(t, s.Data)
	})
}

func TestNormalize(t *testing.T) {
	raw := model.RawSeries{
		Name: "w-1",
		Measurements: []model.Measurement{
			{Timestamp: 1000, Value: 1},
			{Timestamp: 1500, Value: 2},
			{Timestamp: 2000, Value: 3},
		},
		Runs: []model.RunMeta{{Name: "a", StartTime: 1000}},
	}

	t.Run("from run start", func(t *testing.T) {
		s := Normalize(raw, false)
		assert.Equal(t, []float64{0, 500, 1000}, s.Xs())
		assert.Equal(t, []float64{1, 2, 3}, s.Ys())
	})

	t.Run("from first sample", func(t *testing.T) {
		s := Normalize(raw, true)
		assert.Equal(t, []float64{0, 500, 1000}, s.Xs())
	})

	t.Run("first sample after run start", func(t *testing.T) {
		late := raw
		late.Runs = []model.RunMeta{{Name: "a", StartTime: 400}, {Name: "b", StartTime: 700}}

		assert.Equal(t, []float64{600, 1100, 1600}, Normalize(late, false).Xs())
		assert.Equal(t, []float64{0, 500, 1000}, Normalize(late, true).Xs())
	})

	t.Run("empty series", func(t *testing.T) {
		s := Normalize(model.RawSeries{Name: "empty", Runs: raw.Runs}, false)
		assert.Empty(t, s.Data)
		assert.Len(t, s.Runs, 1)
	})
}

func TestSmooth(t *testing.T) {
	series := model.Series{
		Name: "s",
		Data: []model.Point{{X: 0, Y: 10}, {X: 1, Y: 20}, {X: 2, Y: 30}},
	}

	t.Run("zero weight is a no-op", func(t *testing.T) {
		out := Smooth(series, 0)
		assert.Equal(t, series, out)

		out = Smooth(series, -5)
		assert.Equal(t, series, out)
	})

	t.Run("ema", func(t *testing.T) {
		out := Smooth(series, 50)
		// 10, 20*0.5+10*0.5=15, 30*0.5+15*0.5=22.5
		assert.Equal(t, []float64{10, 15, 22.5}, out.Ys())
		assert.Equal(t, series.Xs(), out.Xs(), "x values are not smoothed")
		assert.Equal(t, []float64{10, 20, 30}, series.Ys(), "input is untouched")
	})

	t.Run("rounds to 4 decimals", func(t *testing.T) {
		s := model.Series{Data: []model.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 1}}}
		out := Smooth(s, 33)
		// 0, 0.67, 0.67+0.67*0.33=0.8911
		assert.Equal(t, []float64{0, 0.67, 0.8911}, out.Ys())
	})

	t.Run("constant input stays constant", func(t *testing.T) {
		for _, weight := range []int{1, 25, 50, 75, 99} {
			s := model.Series{}
			for i := range 50 {
				s.Data = append(s.Data, model.Point{X: float64(i), Y: 3.14159})
			}

			out := Smooth(s, weight)
			for _, y := range out.Ys()[1:] {
				assert.InDelta(t, 3.1416, y, 1e-9, "weight %d", weight)
			}
		}
	})

	t.Run("empty series", func(t *testing.T) {
		out := Smooth(model.Series{Name: "e"}, 50)
		assert.Empty(t, out.Data)
	})
}

func TestRoundHalfAway(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.03125, 0.0313},   // exact tie in binary: away from zero
		{-0.03125, -0.0313}, // symmetric for negatives
		{2.00005, 2},        // 2.00005 is stored as 2.0000499999...
		{1.00005, 1.0001},   // 1.00005 is stored as 1.0000500000...1
		{2.71828, 2.7183},
		{-2.71828, -2.7183},
		{12345.678949, 12345.6789},
		{0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundHalfAway(tt.in, 4), "RoundHalfAway(%v)", tt.in)
	}

	assert.True(t, math.IsNaN(RoundHalfAway(math.NaN(), 4)))
	assert.True(t, math.IsInf(RoundHalfAway(math.Inf(-1), 4), -1))
}
