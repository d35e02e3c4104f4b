// Package session holds the display state of a chart and applies user commands to it.
//
// Every command produces new settings and triggers exactly one full rebuild of the chart.
// Rebuilds run outside of the session lock. When commands overlap, the last issued command wins:
// the result of an earlier rebuild completing later is discarded.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/fredbi/runviz/internal/pkg/model"
	"github.com/fredbi/runviz/internal/pkg/pipeline"
	"github.com/samber/lo"
)

var (
	// ErrMonochromeRejected is returned along with the result when monochrome mode is requested
	// for more series than the monochrome palette holds. Monochrome mode is then switched off.
	ErrMonochromeRejected = errors.New("monochrome mode rejected: too many series")

	// ErrSuperseded is returned when a rebuild completes after a more recent command was issued.
	ErrSuperseded = errors.New("rebuild superseded by a more recent change")
)

// Session owns the settings of a chart and its latest rebuilt result.
type Session struct {
	options

	mx         sync.Mutex
	chart      model.Chart
	settings   model.Settings
	generation uint64
	result     *pipeline.Result
	synced     model.ChartContext
}

// New opens a session on a chart.
//
// A context saved with the chart is restored on top of the provided settings.
// The chart is rebuilt once before returning.
func New(chart model.Chart, settings model.Settings, opts ...Option) (*Session, error) {
	s := &Session{
		options:  optionsWithDefaults(opts),
		chart:    chart.Clone(),
		settings: settings.Clone(),
	}

	if chart.Context != nil {
		s.settings = s.settings.WithContext(*chart.Context)
		s.l.Debug("restored chart context", slog.String("chart", chart.ID))
	}

	if err := s.settings.Validate(); err != nil {
		return nil, fmt.Errorf("opening session on chart %q: %w", chart.ID, err)
	}

	s.synced = s.settings.Context(s.chart.ID)

	result, err := s.rebuild(s.chart.Clone(), s.settings.Clone())
	if err != nil {
		return nil, fmt.Errorf("opening session on chart %q: %w", chart.ID, err)
	}

	s.result = result
	if result.MonochromeRejected {
		s.settings.Monochrome = false
		s.l.Warn("monochrome mode switched off", slog.String("chart", chart.ID), slog.Int("series", len(result.Series)))
	}

	return s, nil
}

// Result returns the latest committed rebuild.
func (s *Session) Result() *pipeline.Result {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.result
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() model.Settings {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.settings.Clone()
}

// Context returns the persistable display state of the chart.
func (s *Session) Context() model.ChartContext {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.settings.Context(s.chart.ID)
}

// Chart returns a copy of the chart input.
func (s *Session) Chart() model.Chart {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.chart.Clone()
}

// SetSmoothing sets the smoothing weight, in percent.
func (s *Session) SetSmoothing(weight int) (*pipeline.Result, error) {
	return s.apply("smoothing", func(st *model.Settings) error {
		if weight < 0 || weight > model.MaxSmoothing {
			return fmt.Errorf("invalid smoothing: %d (should be in [0,%d])", weight, model.MaxSmoothing)
		}
		st.Smoothing = weight

		return nil
	})
}

// ToggleShownRun expands a workload into its individual runs, or collapses it back.
func (s *Session) ToggleShownRun(workload string) (*pipeline.Result, error) {
	return s.apply("shown runs", func(st *model.Settings) error {
		st.ShownRuns = toggle(st.ShownRuns, workload)

		return nil
	})
}

// ToggleSeriesVisibility hides a series, or shows it back.
func (s *Session) ToggleSeriesVisibility(name string) (*pipeline.Result, error) {
	return s.apply("hidden series", func(st *model.Settings) error {
		st.HiddenSeries = toggle(st.HiddenSeries, name)

		return nil
	})
}

// SetZoomRange sets the zoom window of the x-axis. Bounds lower than 1 are unset.
func (s *Session) SetZoomRange(r model.Range) (*pipeline.Result, error) {
	return s.apply("range", func(st *model.Settings) error {
		st.Range = r

		return nil
	})
}

// SetBoost turns data point markers off for large series.
func (s *Session) SetBoost(enabled bool) (*pipeline.Result, error) {
	return s.apply("boost", func(st *model.Settings) error {
		st.Display.Boost = enabled

		return nil
	})
}

// SetLineWidth sets the width of series lines.
func (s *Session) SetLineWidth(width float64) (*pipeline.Result, error) {
	return s.apply("line width", func(st *model.Settings) error {
		if width < 0 {
			return fmt.Errorf("invalid line width: %v", width)
		}
		st.Display.LineWidth = width

		return nil
	})
}

// SetMonochrome switches monochrome mode.
//
// When the chart holds more series than the monochrome palette, the result is returned
// with [ErrMonochromeRejected] and monochrome mode remains off.
func (s *Session) SetMonochrome(enabled bool) (*pipeline.Result, error) {
	return s.apply("monochrome", func(st *model.Settings) error {
		st.Monochrome = enabled

		return nil
	})
}

// SetStartAtFirst rebases elapsed times on the first sample of each series rather than on run start times.
func (s *Session) SetStartAtFirst(enabled bool) (*pipeline.Result, error) {
	return s.apply("start at first", func(st *model.Settings) error {
		st.StartAtFirst = enabled

		return nil
	})
}

// SetStepMode switches the x-axis between elapsed time and steps. The zoom range is reset.
func (s *Session) SetStepMode(mode model.StepMode) (*pipeline.Result, error) {
	return s.apply("step mode", func(st *model.Settings) error {
		if !mode.IsValid() {
			return fmt.Errorf("%w: %q", model.ErrUnknownStepMode, mode)
		}
		st.UseStep = mode
		st.Range = model.Range{}

		return nil
	})
}

// SetDetailedTooltip adds models, sources, parameters and run letters to tooltips.
func (s *Session) SetDetailedTooltip(enabled bool) (*pipeline.Result, error) {
	return s.apply("detailed tooltip", func(st *model.Settings) error {
		st.Display.DetailedTooltip = enabled

		return nil
	})
}

// ReplaceChart replaces the run records of the session, keeping the current settings.
func (s *Session) ReplaceChart(chart model.Chart) (*pipeline.Result, error) {
	s.mx.Lock()
	s.chart = chart.Clone()
	s.mx.Unlock()

	return s.apply("chart", func(*model.Settings) error { return nil })
}

func (s *Session) apply(change string, mutate func(*model.Settings) error) (*pipeline.Result, error) {
	s.mx.Lock()
	next := s.settings.Clone()
	if err := mutate(&next); err != nil {
		s.mx.Unlock()

		return nil, fmt.Errorf("changing %s: %w", change, err)
	}

	previous := s.settings
	s.settings = next
	s.generation++
	generation := s.generation
	chart := s.chart.Clone()
	s.mx.Unlock()

	result, err := s.rebuild(chart, next.Clone())

	s.mx.Lock()
	if generation != s.generation {
		s.mx.Unlock()
		s.l.Debug("discarded superseded rebuild", slog.String("change", change), slog.Uint64("generation", generation))

		return nil, ErrSuperseded
	}

	if err != nil {
		s.settings = previous
		s.mx.Unlock()

		return nil, fmt.Errorf("changing %s: %w", change, err)
	}

	s.result = result

	var rejected error
	if result.MonochromeRejected {
		s.settings.Monochrome = false
		rejected = ErrMonochromeRejected
		s.l.Warn("monochrome mode switched off", slog.String("chart", chart.ID), slog.Int("series", len(result.Series)))
	}

	ctx := s.settings.Context(s.chart.ID)
	changed := !ctx.Equal(s.synced)
	if changed {
		s.synced = ctx
	}
	s.mx.Unlock()

	if changed && s.sync != nil {
		s.sync(ctx.Clone())
	}

	return result, rejected
}

func toggle(list []string, item string) []string {
	if slices.Contains(list, item) {
		return lo.Without(list, item)
	}

	return append(slices.Clone(list), item)
}
