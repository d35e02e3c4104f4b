// Package tooltip builds the hover text of data points.
package tooltip

import (
	"strconv"
	"strings"
	"time"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/samber/lo"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Formatter knows how to describe a data point of a series.
//
// The text is plain, with one item per line.
type Formatter struct {
	XTitle   string
	YTitle   string
	XType    model.AxisType
	Detailed bool
}

// Format the hover text of a point of a series.
//
// The detailed text lists the distinct models, sources, parameters of the runs merged in the series,
// and their letters when there is more than one run.
func (f Formatter) Format(series model.Series, point model.Point) string {
	var b strings.Builder

	b.WriteString(series.Name)
	b.WriteString("\n\n")
	b.WriteString(f.YTitle + ": " + formatNumber(point.Y) + "\n")
	b.WriteString(f.XTitle + ": " + f.FormatX(point.X))

	if !f.Detailed {
		return b.String()
	}

	writeBlock(&b, "Model(s)", distinct(series.Runs, func(r model.RunMeta) string { return r.Model }))
	writeBlock(&b, "Source(s)", distinct(series.Runs, func(r model.RunMeta) string { return r.Source }))
	writeBlock(&b, "Param(s)", distinct(series.Runs, func(r model.RunMeta) string { return r.Params }))

	if len(series.Runs) > 1 {
		writeBlock(&b, "Run(s)", distinct(series.Runs, model.RunMeta.LetterString))
	}

	return b.String()
}

// FormatX renders an x value: elapsed time on a datetime axis, the raw step otherwise.
func (f Formatter) FormatX(x float64) string {
	if f.XType == model.AxisDatetime {
		return Elapsed(x)
	}

	return formatNumber(x)
}

// Elapsed renders elapsed milliseconds as "HH:MM:SS", prefixed with "<days>d " after one day.
func Elapsed(ms float64) string {
	millis := int64(ms)
	clock := time.UnixMilli(millis).UTC().Format(time.TimeOnly)

	if days := millis / millisPerDay; days > 0 {
		return strconv.FormatInt(days, 10) + "d " + clock
	}

	return clock
}

func writeBlock(b *strings.Builder, label string, values []string) {
	b.WriteString("\n\n" + label + ":")
	for _, v := range values {
		b.WriteString("\n" + v)
	}
}

func distinct(runs []model.RunMeta, field func(model.RunMeta) string) []string {
	return lo.Uniq(lo.Map(runs, func(r model.RunMeta, _ int) string {
		return field(r)
	}))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
