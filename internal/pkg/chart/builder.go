package chart

import (
	"io"
	"log/slog"

	"github.com/fredbi/runviz/internal/pkg/config"
	"github.com/fredbi/runviz/internal/pkg/pipeline"
	"github.com/go-echarts/go-echarts/v2/components"
)

// Builder constructs charts from rebuilt chart results.
type Builder struct {
	cfg     *config.Config
	results []*pipeline.Result
	l       *slog.Logger
}

// New creates a new chart [Builder], given a [config.Config] and the results of the pipeline.
//
// The builder embeds a [slog.Logger] to croak about warnings and issues.
func New(cfg *config.Config, results ...*pipeline.Result) *Builder {
	return &Builder{
		cfg:     cfg,
		results: results,
		l:       slog.Default().With(slog.String("module", "chart")),
	}
}

// BuildPage creates a page with one chart per result.
//
// Results without any series are skipped.
func (b *Builder) BuildPage() *Page {
	page := NewPage(b.pageTitle())

	for _, result := range b.results {
		if result == nil || len(result.Series) == 0 {
			b.l.Warn("empty chart skipped", slog.String("chart_id", chartIDOf(result)))

			continue
		}

		page.AddChart(b.BuildChart(result))
		b.l.Info("added chart", slog.String("chart_id", result.ID), slog.Int("series", len(result.Series)))
	}

	b.l.Info("added charts", slog.Int("charts", len(page.Charts)))

	return page
}

// BuildChart creates the line chart of a single result.
func (b *Builder) BuildChart(result *pipeline.Result) *Chart {
	lineWidth := result.Display.LineWidth
	if lineWidth <= 0 {
		lineWidth = b.cfg.Render.LineWidth
	}

	subtitle := result.Metric
	for _, warning := range result.Warnings {
		subtitle += " | " + warning
	}

	chart := NewChart(
		WithID(result.ID),
		WithTitle(result.Title),
		WithSubtitle(subtitle),
		WithTheme(b.theme()),
		WithLegend(b.cfg.Render.Legend),
		WithXAxis(result.XAxis),
		WithYAxisLabel(result.YAxis.Title),
		WithLineWidth(lineWidth),
		WithBoost(result.Display.Boost),
	)

	for _, series := range result.Series {
		chart.AddSeries(series, result.TooltipFor)

		b.l.Debug("added series",
			slog.String("chart_id", result.ID),
			slog.String("series", series.Name),
			slog.Int("points", len(series.Data)),
		)
	}

	return chart
}

func (b *Builder) pageTitle() string {
	if b.cfg.Render.Title != "" {
		return b.cfg.Render.Title
	}

	return b.cfg.Name
}

func (b *Builder) theme() string {
	if b.cfg.Render.Theme != "" {
		return b.cfg.Render.Theme
	}

	return ThemeRoma
}

func chartIDOf(result *pipeline.Result) string {
	if result == nil {
		return ""
	}

	return result.ID
}

// Page represents a page containing multiple charts.
//
// A [Page] knows how to [Page.Render] as HTML.
type Page struct {
	Title  string
	Charts []*Chart
}

// NewPage creates a new page with the given title.
func NewPage(title string) *Page {
	return &Page{
		Title: title,
	}
}

// AddChart adds a chart to the page.
func (p *Page) AddChart(c *Chart) {
	p.Charts = append(p.Charts, c)
}

// Render writes the page HTML to the given writer.
//
// A single chart is centered, several charts flow in a flex layout.
func (p *Page) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(p.Title)

	if len(p.Charts) > 1 {
		page.SetLayout(components.PageFlexLayout)
	} else {
		page.SetLayout(components.PageCenterLayout)
	}

	for _, c := range p.Charts {
		page.AddCharts(c.Build())
	}

	return page.Render(w)
}
