package chart

import (
	"github.com/fredbi/runviz/internal/pkg/config"
	"github.com/fredbi/runviz/internal/pkg/pipeline"
)

// Theme constants from go-echarts.
const (
	ThemeRoma = "roma"
)

const defaultLineWidth = 1

// Option configures a [Chart].
type Option func(*options)

type options struct {
	ID         string
	Title      string
	Subtitle   string
	XAxis      pipeline.Axis
	YAxisLabel string
	Theme      string
	Legend     config.LegendPosition
	LineWidth  float64
	Boost      bool
}

// WithID sets the chart identifier, used to name the chart in the rendered page.
func WithID(id string) Option {
	return func(c *options) {
		c.ID = id
	}
}

// WithTitle sets the chart title.
func WithTitle(title string) Option {
	return func(c *options) {
		c.Title = title
	}
}

// WithSubtitle sets the chart subtitle (typically the metric label).
func WithSubtitle(subtitle string) Option {
	return func(c *options) {
		c.Subtitle = subtitle
	}
}

// WithTheme sets the color theme.
func WithTheme(theme string) Option {
	return func(c *options) {
		c.Theme = theme
	}
}

// WithLegend sets the position of the legend. [config.LegendPositionNone] hides it.
func WithLegend(position config.LegendPosition) Option {
	return func(c *options) {
		c.Legend = position
	}
}

// WithXAxis sets the x-axis title, type and bounds.
func WithXAxis(axis pipeline.Axis) Option {
	return func(c *options) {
		c.XAxis = axis
	}
}

// WithYAxisLabel sets the Y-axis label text.
func WithYAxisLabel(ylabel string) Option {
	return func(c *options) {
		c.YAxisLabel = ylabel
	}
}

// WithLineWidth sets the width of series lines. Non-positive widths are ignored.
func WithLineWidth(width float64) Option {
	return func(c *options) {
		if width <= 0 {
			return
		}

		c.LineWidth = width
	}
}

// WithBoost disables data point markers, which speeds up the rendering of large series.
func WithBoost(enabled bool) Option {
	return func(c *options) {
		c.Boost = enabled
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Theme:     ThemeRoma,
		Legend:    config.LegendPositionBottom,
		LineWidth: defaultLineWidth,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
