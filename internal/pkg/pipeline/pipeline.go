// Package pipeline turns the run records of a chart and its display settings into
// fully styled series, ready to render.
//
// A rebuild is pure: it does not retain nor modify its inputs, and always recomputes everything
// from scratch.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/fredbi/runviz/internal/pkg/organizer"
	"github.com/fredbi/runviz/internal/pkg/style"
	"github.com/fredbi/runviz/internal/pkg/tooltip"
	"github.com/fredbi/runviz/internal/pkg/transform"
)

// Axis titles.
const (
	TimeAxisTitle = "Time Elapsed"
	StepAxisTitle = "Epoch"
)

// Axis describes a chart axis. Nil bounds are left to the renderer.
type Axis struct {
	Title string
	Type  model.AxisType
	Min   *float64
	Max   *float64
}

// Result is the outcome of a rebuild.
type Result struct {
	ID      string
	Metric  string
	Title   string
	XAxis   Axis
	YAxis   Axis
	Series  []model.Series
	Tooltip tooltip.Formatter

	// Display holds the cosmetic settings, passed through to the renderer.
	Display model.Display

	// ExpandableWorkloads are the workloads which may be expanded into individual runs.
	ExpandableWorkloads []string

	// MonochromeRejected is set when monochrome mode was requested for too many series.
	// The series are then styled as if monochrome were off.
	MonochromeRejected bool
	Warnings           []string
}

// TooltipFor returns the hover text of a point of a series of this result.
func (r *Result) TooltipFor(series model.Series, point model.Point) string {
	return r.Tooltip.Format(series, point)
}

// Rebuild builds the series of a chart for the given settings.
//
// Settings are validated first: an unknown step mode is an error.
func Rebuild(chart model.Chart, settings model.Settings, opts ...Option) (*Result, error) {
	o := optionsWithDefaults(opts)
	l := o.l.With(slog.String("chart", chart.ID))

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("rebuilding chart %q: %w", chart.ID, err)
	}

	input := chart.Clone()
	s := settings.Clone()

	title, raws := organizer.New(organizer.WithLogger(l)).Build(input.Runs, s.ShownRuns)

	series := make([]model.Series, 0, len(raws))
	for _, raw := range raws {
		if !s.UseStep.IsStep() {
			series = append(series, transform.Normalize(raw, s.StartAtFirst))

			continue
		}

		aggregated, err := transform.Aggregate(raw, s.UseStep)
		if err != nil {
			return nil, fmt.Errorf("rebuilding chart %q: series %q: %w", chart.ID, raw.Name, err)
		}

		series = append(series, aggregated)
	}

	result := &Result{
		ID:                  input.ID,
		Metric:              input.Metric,
		Title:               title,
		XAxis:               xAxis(s),
		YAxis:               Axis{Title: o.metricTitle(input.Metric)},
		Tooltip:             tooltip.Formatter{Detailed: s.Display.DetailedTooltip},
		Display:             s.Display,
		ExpandableWorkloads: organizer.ExpandableWorkloads(input.Runs),
	}
	result.Tooltip.XTitle = result.XAxis.Title
	result.Tooltip.XType = result.XAxis.Type
	result.Tooltip.YTitle = result.YAxis.Title

	styled, err := style.Assign(series, s.HiddenSeries, s.Monochrome)
	if errors.Is(err, style.ErrTooManySeries) {
		l.Warn("monochrome mode rejected", slog.Int("series", len(series)))
		result.MonochromeRejected = true
		result.Warnings = append(result.Warnings, err.Error())

		styled, err = style.Assign(series, s.HiddenSeries, false)
	}
	if err != nil {
		return nil, fmt.Errorf("rebuilding chart %q: %w", chart.ID, err)
	}

	for i := range styled {
		styled[i] = transform.Smooth(styled[i], s.Smoothing)
	}
	result.Series = styled

	l.Debug("rebuilt chart",
		slog.Int("series", len(result.Series)),
		slog.String("step_mode", s.UseStep.String()),
		slog.Int("smoothing", s.Smoothing),
	)

	return result, nil
}

func xAxis(s model.Settings) Axis {
	lower, upper := s.Range.Bounds()
	axis := Axis{
		Type: model.AxisTypeFor(s.UseStep),
		Min:  lower,
		Max:  upper,
	}

	if axis.Type == model.AxisLinear {
		axis.Title = StepAxisTitle
	} else {
		axis.Title = TimeAxisTitle
	}

	return axis
}
