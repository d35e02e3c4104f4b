package organizer

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/fredbi/runviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNew(t *testing.T) {
	o := New()
	require.NotNil(t, o)
	assert.NotNil(t, o.l)

	o = New(WithLogger(nil))
	assert.NotNil(t, o.l, "a nil logger keeps the default")
}

func TestGroupingMergesWorkload(t *testing.T) {
	runs := []model.RunRecord{
		run("run-aaaaaa", "resnet-1", nil, "exp", 1000, 2000, 3000),
		run("run-bbbbbb", "resnet-1", nil, "exp", 1500, 2500),
	}

	title, series := New().Build(runs, nil)
	require.Len(t, series, 1, spew.Sdump(series))

	s := series[0]
	assert.Equal(t, "resnet-1", s.Name)
	assert.Len(t, s.Runs, 2)
	assert.Equal(t, "run-aaaaaa", s.Runs[0].Name)
	assert.Equal(t, "run-bbbbbb", s.Runs[1].Name)
	assert.Len(t, s.Measurements, 5)
	assert.Equal(t, "exp", title)
	assertSortedByTimestamp(t, s)
}

func TestUngroupedNaming(t *testing.T) {
	tests := []struct {
		name      string
		run       model.RunRecord
		shownRuns []string
		want      string
	}{
		{
			name: "null suffix without letter uses prefix and short name",
			run:  run("abcdefgh", "resnet-null", nil, "exp", 1),
			want: "resnet (abcde)",
		},
		{
			name: "null suffix with single letter",
			run:  run("abcdefgh", "resnet-null", ptr("A"), "exp", 1),
			want: "resnet-null A (abcde)",
		},
		{
			name: "null suffix with free-form tag",
			run:  run("abcdefgh", "resnet-null", ptr("baseline"), "exp", 1),
			want: "resnet-null baseline",
		},
		{
			name:      "shown workload with single letter",
			run:       run("abcdefgh", "resnet-1", ptr("B"), "exp", 1),
			shownRuns: []string{"resnet-1"},
			want:      "resnet-1 B (abcde)",
		},
		{
			name:      "shown workload without dash uses whole workload as prefix",
			run:       run("abcdefgh", "resnet", nil, "exp", 1),
			shownRuns: []string{"resnet"},
			want:      "resnet (abcde)",
		},
		{
			name: "name shorter than five characters",
			run:  run("abc", "resnet-null", nil, "exp", 1),
			want: "resnet (abc)",
		},
		{
			name: "multi-byte name is cut on characters",
			run:  run("ééééééé", "w-null", nil, "exp", 1),
			want: "w (ééééé)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// a second run shares the key so that the singleton rename does not apply
			twin := tt.run
			twin.Data = []model.Measurement{{Timestamp: 2}}

			_, series := New().Build([]model.RunRecord{tt.run, twin}, tt.shownRuns)
			require.Len(t, series, 1, spew.Sdump(series))
			assert.Equal(t, tt.want, series[0].Name)
		})
	}
}

func TestShownRunsSplitWorkload(t *testing.T) {
	runs := []model.RunRecord{
		run("run-aaaaaa", "resnet-1", ptr("A"), "exp", 1000),
		run("run-bbbbbb", "resnet-1", ptr("B"), "exp", 1000),
		run("run-cccccc", "bert-1", nil, "exp", 1000),
		run("run-dddddd", "bert-1", nil, "exp", 1000),
	}

	_, series := New().Build(runs, []string{"resnet-1"})
	require.Len(t, series, 3)

	// singletons show the run identity
	assert.Equal(t, "run-aaaaaa", series[0].Name)
	assert.Equal(t, "run-bbbbbb", series[1].Name)
	assert.Equal(t, "bert-1", series[2].Name)
	assert.Len(t, series[2].Runs, 2)
}

func TestSingletonRename(t *testing.T) {
	runs := []model.RunRecord{
		run("run-aaaaaa", "resnet-1", nil, "exp", 1000),
	}

	_, series := New().Build(runs, nil)
	require.Len(t, series, 1)
	assert.Equal(t, "run-aaaaaa", series[0].Name)
}

func TestUniqueNames(t *testing.T) {
	// the singleton run of workload "w-2" is named like the workload "w-1"
	runs := []model.RunRecord{
		run("x1", "w-1", nil, "exp", 1),
		run("x2", "w-1", nil, "exp", 1),
		run("w-1", "w-2", nil, "exp", 1),
	}

	_, series := New().Build(runs, nil)
	require.Len(t, series, 2)
	assert.Equal(t, "w-1", series[0].Name)
	assert.Equal(t, "w-1 #2", series[1].Name)
}

func TestRunsWithoutData(t *testing.T) {
	noData := model.RunRecord{Name: "pending", Workload: "w-1", ExperimentName: "other"}
	runs := []model.RunRecord{
		noData,
		run("run-aaaaaa", "w-1", nil, "exp", 1),
	}

	title, series := New().Build(runs, nil)
	require.Len(t, series, 1)
	assert.Len(t, series[0].Runs, 1)
	assert.Equal(t, "exp", title, "runs without data do not count as experiments")

	t.Run("empty data is kept", func(t *testing.T) {
		empty := model.RunRecord{Name: "empty", Workload: "w-2", Data: []model.Measurement{}}
		_, series := New().Build([]model.RunRecord{empty}, nil)
		require.Len(t, series, 1)
		assert.Empty(t, series[0].Measurements)
		assert.Len(t, series[0].Runs, 1)
	})
}

func TestChartTitle(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		title, series := New().Build(nil, nil)
		assert.Equal(t, PlaceholderTitle, title)
		assert.Empty(t, series)
	})

	t.Run("multiple experiments", func(t *testing.T) {
		runs := []model.RunRecord{
			run("a", "w-1", nil, "exp1", 1),
			run("b", "w-2", nil, "exp2", 1),
			run("c", "w-3", nil, "exp1", 1),
		}

		title, _ := New().Build(runs, nil)
		assert.Equal(t, "Multiple Experiments (2)", title)
	})
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	runs := []model.RunRecord{
		run("a", "w-1", nil, "exp", 3000, 1000, 2000),
		run("b", "w-1", nil, "exp", 500),
	}

	_, series := New().Build(runs, nil)
	require.Len(t, series, 1)
	series[0].Measurements[0].Value = -1

	assert.Equal(t, int64(3000), runs[0].Data[0].Timestamp, "input order is preserved")
	assert.InDelta(t, 0.0, runs[1].Data[0].Value, 0)
}

func TestBuildIsDeterministic(t *testing.T) {
	runs := []model.RunRecord{
		run("a", "w-1", nil, "exp", 2000, 1000),
		run("b", "w-1", nil, "exp", 1000, 2000),
		run("c", "w-null", nil, "exp", 5),
	}

	title1, series1 := New().Build(runs, nil)
	title2, series2 := New().Build(runs, nil)
	assert.Equal(t, title1, title2)
	assert.Equal(t, series1, series2)
}

func TestExpandableWorkloads(t *testing.T) {
	empty := []model.Measurement{}
	runs := []model.RunRecord{
		{Workload: "w-2", Data: empty},
		{Workload: "w-1", Data: empty},
		{Workload: "w-2", Data: empty},
		{Workload: "w-3", Data: empty},
		{Workload: "w-1", Data: empty},
		{Workload: "w-2", Data: empty},
		{Workload: "w-3"}, // no data
	}

	assert.Equal(t, []string{"w-2", "w-1"}, ExpandableWorkloads(runs))
	assert.Empty(t, ExpandableWorkloads(nil))
}

// helpers

func run(name, workload string, letter *string, experiment string, timestamps ...int64) model.RunRecord {
	data := make([]model.Measurement, 0, len(timestamps))
	for i, ts := range timestamps {
		data = append(data, model.Measurement{Timestamp: ts, Step: int64(i), Value: float64(i)})
	}

	return model.RunRecord{
		Name:           name,
		Workload:       workload,
		Letter:         letter,
		ExperimentName: experiment,
		Data:           data,
	}
}

func ptr(s string) *string {
	return &s
}

func assertSortedByTimestamp(t *testing.T, s model.RawSeries) {
	t.Helper()

	for i := 1; i < len(s.Measurements); i++ {
		assert.LessOrEqual(t, s.Measurements[i-1].Timestamp, s.Measurements[i].Timestamp)
	}
}
