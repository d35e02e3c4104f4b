package chart

import (
	"html"
	"strings"

	"github.com/fredbi/runviz/internal/pkg/config"
	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/go-echarts/go-echarts/v2/charts"
	echartsopts "github.com/go-echarts/go-echarts/v2/opts"
)

const (
	defaultFontSize = 12
	axisNameGap     = 28
)

const (
	// tooltips are precomputed for every data point and carried by the point name
	tooltipFormatter = `function (params) { return params.name; }`

	// renders elapsed milliseconds as "[Nd ]HH:MM:SS"
	elapsedFormatter = `function (value) {
	var ms = Math.trunc(value);
	var days = Math.trunc(ms / 86400000);
	var d = new Date(ms);
	var pad = function (n) { return String(n).padStart(2, '0'); };
	var hms = pad(d.getUTCHours()) + ':' + pad(d.getUTCMinutes()) + ':' + pad(d.getUTCSeconds());
	return days >= 1 ? days + 'd ' + hms : hms;
}`
)

// Series represents a named line in a chart.
type Series struct {
	Name    string
	Data    []echartsopts.LineData
	Visible bool
	Style   model.Style
}

// Chart represents a line chart of run measurements.
type Chart struct {
	options

	Series []Series
}

// NewChart creates a new empty chart.
func NewChart(opts ...Option) *Chart {
	return &Chart{
		options: optionsWithDefaults(opts),
	}
}

// AddSeries adds a styled series to the chart.
//
// Every data point carries its own tooltip, built by the tooltip function.
func (c *Chart) AddSeries(series model.Series, tooltip func(model.Series, model.Point) string) {
	data := make([]echartsopts.LineData, 0, len(series.Data))
	for _, point := range series.Data {
		item := echartsopts.LineData{
			Value: []any{point.X, point.Y},
		}
		if tooltip != nil {
			item.Name = TooltipHTML(tooltip(series, point))
		}

		data = append(data, item)
	}

	c.Series = append(c.Series, Series{
		Name:    series.Name,
		Data:    data,
		Visible: series.Visible,
		Style:   series.Style,
	})
}

// Build creates the ECharts line chart from the accumulated configuration.
func (c *Chart) Build() *charts.Line {
	line := charts.NewLine()

	titleOpts := echartsopts.Title{
		Title: c.Title,
	}
	if c.Subtitle != "" {
		titleOpts.Subtitle = c.Subtitle
		titleOpts.SubtitleStyle = &echartsopts.TextStyle{
			FontStyle: "italic",
			FontSize:  defaultFontSize,
		}
	}

	gridOpts := echartsopts.Grid{
		Bottom: "100",
		Top:    "100",
	}

	toolboxOpts := echartsopts.Toolbox{
		Left: "right",
		Feature: &echartsopts.ToolBoxFeature{
			SaveAsImage: &echartsopts.ToolBoxFeatureSaveAsImage{
				Title: "Save as image",
			},
		},
	}

	xAxisOpts, yAxisOpts := c.setAxes()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(echartsopts.Initialization{
			Theme:   c.Theme,
			ChartID: chartID(c.ID),
		}),
		charts.WithToolboxOpts(toolboxOpts),
		charts.WithTitleOpts(titleOpts),
		charts.WithLegendOpts(c.legend()),
		charts.WithGridOpts(gridOpts),
		charts.WithXAxisOpts(xAxisOpts),
		charts.WithYAxisOpts(yAxisOpts),
		charts.WithDataZoomOpts(echartsopts.DataZoom{Type: "inside"}),
		charts.WithTooltipOpts(echartsopts.Tooltip{
			Show:      echartsopts.Bool(true),
			Trigger:   "item",
			Formatter: echartsopts.FuncOpts(tooltipFormatter),
		}),
	)

	for _, s := range c.Series {
		line.AddSeries(s.Name, s.Data, c.seriesOpts(s)...)
	}

	return line
}

func (c *Chart) seriesOpts(s Series) []charts.SeriesOpts {
	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(echartsopts.LineChart{
			ShowSymbol: echartsopts.Bool(!c.Boost),
		}),
		charts.WithLineStyleOpts(echartsopts.LineStyle{
			Color: s.Style.Color,
			Width: float32(c.LineWidth),
			Type:  DashType(s.Style.DashStyle),
		}),
	}

	if s.Style.Color != "" {
		seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(echartsopts.ItemStyle{
			Color: s.Style.Color,
		}))
	}

	return seriesOpts
}

func (c *Chart) legend() echartsopts.Legend {
	if c.Legend == config.LegendPositionNone {
		return echartsopts.Legend{
			Show: echartsopts.Bool(false),
		}
	}

	selected := make(map[string]bool, len(c.Series))
	for _, s := range c.Series {
		selected[s.Name] = s.Visible
	}

	legendOpts := echartsopts.Legend{
		Show:     echartsopts.Bool(true),
		Type:     "scroll",
		Selected: selected,
	}

	switch c.Legend {
	case config.LegendPositionTop:
		legendOpts.Top = "30"
	case config.LegendPositionLeft:
		legendOpts.Left = "left"
		legendOpts.Orient = "vertical"
	case config.LegendPositionRight:
		legendOpts.Left = "right"
		legendOpts.Orient = "vertical"
	default:
		legendOpts.Bottom = "0"
	}

	return legendOpts
}

func (c *Chart) setAxes() (echartsopts.XAxis, echartsopts.YAxis) {
	const valueType = "value"

	xAxisOpts := echartsopts.XAxis{
		Name:         c.XAxis.Title,
		Type:         valueType,
		NameLocation: "middle",
		NameGap:      axisNameGap,
		Min:          bound(c.XAxis.Min),
		Max:          bound(c.XAxis.Max),
		Scale:        echartsopts.Bool(true),
	}

	if c.XAxis.Type == model.AxisDatetime {
		xAxisOpts.AxisLabel = &echartsopts.AxisLabel{
			Formatter: echartsopts.FuncOpts(elapsedFormatter),
		}
	}

	yAxisOpts := echartsopts.YAxis{
		Name:  c.YAxisLabel,
		Type:  valueType,
		Scale: echartsopts.Bool(true),
	}

	return xAxisOpts, yAxisOpts
}

// DashType maps a dash style to an ECharts line type.
func DashType(dash model.DashStyle) string {
	switch dash {
	case model.DashDot:
		return "dotted"
	case model.DashLongDash:
		return "dashed"
	default:
		return "solid"
	}
}

// TooltipHTML converts plain tooltip text into HTML, one line per item.
func TooltipHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br/>")
}

func bound(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}

// chartID turns an identifier into a valid JavaScript identifier fragment.
func chartID(id string) string {
	if id == "" {
		return ""
	}

	return "chart_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, id)
}
