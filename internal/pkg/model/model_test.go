package model

import (
	"testing"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestStepMode(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "EpochMedian", StepModeEpochMedian.String())
	})

	t.Run("IsValid", func(t *testing.T) {
		for _, m := range AllStepModes() {
			assert.True(t, m.IsValid(), "expected %q to be valid", m)
		}

		invalid := []StepMode{"", "Epoch Median", "epochmin", "Steps"}
		for _, m := range invalid {
			assert.False(t, m.IsValid(), "expected %q to be invalid", m)
		}
	})

	t.Run("IsStep", func(t *testing.T) {
		assert.False(t, StepModeTime.IsStep())
		assert.True(t, StepModeEpochMean.IsStep())
		assert.False(t, StepMode("bogus").IsStep())
	})

	t.Run("ParseStepMode", func(t *testing.T) {
		m, err := ParseStepMode("")
		require.NoError(t, err)
		assert.Equal(t, StepModeTime, m)

		m, err = ParseStepMode("EpochMax")
		require.NoError(t, err)
		assert.Equal(t, StepModeEpochMax, m)

		_, err = ParseStepMode("Epoch Average")
		require.Error(t, err)
		require.ErrorIs(t, err, ErrUnknownStepMode)
	})
}

func TestWorkloadParts(t *testing.T) {
	tests := []struct {
		workload   string
		wantPrefix string
		wantSuffix string
	}{
		{"resnet-null", "resnet", "null"},
		{"resnet-a1", "resnet", "a1"},
		{"bert-large-2", "bert", "large-2"},
		{"nodash", "nodash", "nodash"},
		{"null", "null", "null"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.workload, func(t *testing.T) {
			r := RunRecord{Workload: tt.workload}
			assert.Equal(t, tt.wantPrefix, r.WorkloadPrefix())
			assert.Equal(t, tt.wantSuffix, r.WorkloadSuffix())
		})
	}
}

func TestRunRecord(t *testing.T) {
	letter := "A"
	r := RunRecord{
		Name:     "abcdef123",
		Workload: "w-1",
		Letter:   &letter,
		Data:     []Measurement{{Timestamp: 1, Step: 1, Value: 1}},
	}

	t.Run("HasData", func(t *testing.T) {
		assert.True(t, r.HasData())
		assert.False(t, RunRecord{}.HasData())
		assert.True(t, RunRecord{Data: []Measurement{}}.HasData())
	})

	t.Run("Meta does not alias the letter", func(t *testing.T) {
		meta := r.Meta()
		require.NotNil(t, meta.Letter)
		*meta.Letter = "B"
		assert.Equal(t, "A", *r.Letter)
		assert.Equal(t, "", RunMeta{}.LetterString())
	})

	t.Run("Clone is deep", func(t *testing.T) {
		c := r.Clone()
		c.Data[0].Value = 42
		*c.Letter = "Z"
		assert.InDelta(t, 1.0, r.Data[0].Value, 0)
		assert.Equal(t, "A", *r.Letter)
	})
}

func TestRange(t *testing.T) {
	lower, upper := Range{}.Bounds()
	assert.Nil(t, lower)
	assert.Nil(t, upper)
	assert.False(t, Range{Min: 0.5, Max: 0}.IsSet())

	lower, upper = Range{Min: 10, Max: 0.99}.Bounds()
	require.NotNil(t, lower)
	assert.InDelta(t, 10.0, *lower, 0)
	assert.Nil(t, upper)
	assert.True(t, Range{Max: 1}.IsSet())
}

func TestSettings(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultSettings().Validate())
	})

	t.Run("rejects out of range smoothing", func(t *testing.T) {
		s := DefaultSettings()
		s.Smoothing = 100
		require.Error(t, s.Validate())

		s.Smoothing = -1
		require.Error(t, s.Validate())
	})

	t.Run("rejects unknown step mode", func(t *testing.T) {
		s := DefaultSettings()
		s.UseStep = "Epoch Average"
		require.ErrorIs(t, s.Validate(), ErrUnknownStepMode)
	})

	t.Run("membership", func(t *testing.T) {
		s := Settings{ShownRuns: []string{"w-1"}, HiddenSeries: []string{"run-a"}}
		assert.True(t, s.IsShown("w-1"))
		assert.False(t, s.IsShown("w-2"))
		assert.True(t, s.IsHidden("run-a"))
		assert.False(t, s.IsHidden("run-b"))
	})

	t.Run("context round trip", func(t *testing.T) {
		s := DefaultSettings()
		s.Smoothing = 35
		s.ShownRuns = []string{"w-1"}
		s.HiddenSeries = []string{"w-2"}
		s.Range = Range{Min: 100, Max: 5000}
		s.Monochrome = true

		ctx := s.Context("chart-1")
		assert.Equal(t, "chart-1", ctx.ID)

		restored := DefaultSettings().WithContext(ctx)
		assert.Equal(t, s.Smoothing, restored.Smoothing)
		assert.Equal(t, s.ShownRuns, restored.ShownRuns)
		assert.Equal(t, s.HiddenSeries, restored.HiddenSeries)
		assert.Equal(t, s.Range, restored.Range)
		assert.False(t, restored.Monochrome, "monochrome is not part of the saved context")
		assert.True(t, ctx.Equal(restored.Context("chart-1")))
	})

	t.Run("exported context never has nil lists", func(t *testing.T) {
		ctx := DefaultSettings().Context("x")
		assert.NotNil(t, ctx.ShownRuns)
		assert.NotNil(t, ctx.HiddenSeries)
	})

	t.Run("clone is deep", func(t *testing.T) {
		s := Settings{ShownRuns: []string{"a"}}
		c := s.Clone()
		c.ShownRuns[0] = "b"
		assert.Equal(t, "a", s.ShownRuns[0])
	})
}

func TestSeriesAccessors(t *testing.T) {
	s := Series{Data: []Point{{X: 1, Y: 10}, {X: 2, Y: 20}}}
	assert.Equal(t, []float64{1, 2}, s.Xs())
	assert.Equal(t, []float64{10, 20}, s.Ys())
}
