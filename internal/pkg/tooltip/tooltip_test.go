package tooltip

import (
	"testing"

	"github.com/fredbi/runviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
)

func TestElapsed(t *testing.T) {
	tests := []struct {
		ms   float64
		want string
	}{
		{0, "00:00:00"},
		{999, "00:00:00"},
		{61_000, "00:01:01"},
		{3_723_000, "01:02:03"},
		{86_399_999, "23:59:59"},
		{86_400_000, "1d 00:00:00"},
		{2*86_400_000 + 3_600_000, "2d 01:00:00"},
		{1500.9, "00:00:01"},
		{-1000, "23:59:59"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Elapsed(tt.ms), "Elapsed(%v)", tt.ms)
	}
}

func TestFormatBase(t *testing.T) {
	series := model.Series{
		Name: "resnet-1",
		Runs: []model.RunMeta{{Name: "a", Model: "resnet50"}},
	}

	t.Run("datetime axis", func(t *testing.T) {
		f := Formatter{XTitle: "Time Elapsed", YTitle: "loss", XType: model.AxisDatetime}
		got := f.Format(series, model.Point{X: 90_061_000, Y: 0.25})
		assert.Equal(t, "resnet-1\n\nloss: 0.25\nTime Elapsed: 1d 01:01:01", got)
	})

	t.Run("linear axis", func(t *testing.T) {
		f := Formatter{XTitle: "Epoch", YTitle: "loss", XType: model.AxisLinear}
		got := f.Format(series, model.Point{X: 12, Y: 3})
		assert.Equal(t, "resnet-1\n\nloss: 3\nEpoch: 12", got)
	})
}

func TestFormatDetailed(t *testing.T) {
	a, b := "A", "B"
	f := Formatter{XTitle: "Epoch", YTitle: "acc", XType: model.AxisLinear, Detailed: true}

	t.Run("single run omits letters", func(t *testing.T) {
		series := model.Series{
			Name: "run-1",
			Runs: []model.RunMeta{{Name: "run-1", Letter: &a, Model: "m1", Source: "s1", Params: "lr=0.1"}},
		}

		got := f.Format(series, model.Point{X: 1, Y: 0.5})
		assert.Equal(t,
			"run-1\n\nacc: 0.5\nEpoch: 1"+
				"\n\nModel(s):\nm1"+
				"\n\nSource(s):\ns1"+
				"\n\nParam(s):\nlr=0.1",
			got,
		)
	})

	t.Run("merged runs list distinct values in order of appearance", func(t *testing.T) {
		series := model.Series{
			Name: "w-1",
			Runs: []model.RunMeta{
				{Name: "r1", Letter: &b, Model: "m2", Source: "s1", Params: "p"},
				{Name: "r2", Letter: &a, Model: "m1", Source: "s1", Params: "p"},
				{Name: "r3", Letter: &b, Model: "m2", Source: "s2", Params: "p"},
				{Name: "r4", Model: "m1", Source: "s1", Params: "p"},
			},
		}

		got := f.Format(series, model.Point{X: 2, Y: 1})
		assert.Equal(t,
			"w-1\n\nacc: 1\nEpoch: 2"+
				"\n\nModel(s):\nm2\nm1"+
				"\n\nSource(s):\ns1\ns2"+
				"\n\nParam(s):\np"+
				"\n\nRun(s):\nB\nA\n",
			got,
		)
	})
}
