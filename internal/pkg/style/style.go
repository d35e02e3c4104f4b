// Package style assigns visibility, colours and dash patterns to series.
package style

import (
	"errors"
	"fmt"
	"slices"

	"github.com/fredbi/runviz/internal/pkg/model"
)

// ErrTooManySeries is returned when monochrome mode is requested for more series than its palette holds.
var ErrTooManySeries = errors.New("monochrome mode incompatible with more than 5 series")

// MonochromePalette lists the (dash, colour) pairs assigned by position in monochrome mode.
var MonochromePalette = []model.Style{ //nolint:gochecknoglobals // fixed palette
	{DashStyle: model.DashSolid, Color: "#000000"},
	{DashStyle: model.DashSolid, Color: "#cccccc"},
	{DashStyle: model.DashSolid, Color: "#7f7f7f"},
	{DashStyle: model.DashDot, Color: "#999999"},
	{DashStyle: model.DashLongDash, Color: "#666666"},
}

// CanMonochrome reports whether n series fit in the monochrome palette.
func CanMonochrome(n int) bool {
	return n <= len(MonochromePalette)
}

// Assign sets the visibility and the style of every series, returning new series.
//
// Series listed in hidden are not visible. In monochrome mode, series take their style from
// [MonochromePalette] by position, and more series than the palette holds is an error: series
// are never dropped to fit. Otherwise, series are solid lines with a positional colour index,
// leaving the choice of the actual colour to the renderer.
func Assign(series []model.Series, hidden []string, monochrome bool) ([]model.Series, error) {
	if monochrome && !CanMonochrome(len(series)) {
		return nil, fmt.Errorf("%w: got %d series", ErrTooManySeries, len(series))
	}

	styled := make([]model.Series, 0, len(series))
	for i, s := range series {
		s.Visible = !slices.Contains(hidden, s.Name)

		if monochrome {
			s.Style = MonochromePalette[i]
			s.Style.ColorIndex = i
		} else {
			s.Style = model.Style{
				DashStyle:  model.DashSolid,
				ColorIndex: i,
			}
		}

		styled = append(styled, s)
	}

	return styled, nil
}
