package model

import (
	"fmt"
	"slices"
)

// MaxSmoothing is the highest smoothing weight, in percent.
const MaxSmoothing = 99

// Range is a zoom window on the x-axis. A bound lower than 1 is unset.
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// Bounds returns the range bounds, with nil for unset bounds.
func (r Range) Bounds() (lower, upper *float64) {
	if r.Min >= 1 {
		v := r.Min
		lower = &v
	}

	if r.Max >= 1 {
		v := r.Max
		upper = &v
	}

	return lower, upper
}

// IsSet reports whether any bound of the range is set.
func (r Range) IsSet() bool {
	lower, upper := r.Bounds()

	return lower != nil || upper != nil
}

// Display holds cosmetic session state, passed through to the renderer.
type Display struct {
	DetailedTooltip bool
	Boost           bool
	LineWidth       float64
}

// Settings are the per-chart display controls.
//
// Settings are handled as values: every change produces a new [Settings] and triggers a full rebuild of the series.
type Settings struct {
	Smoothing    int
	ShownRuns    []string // workloads expanded into individual runs
	HiddenSeries []string // series names toggled off
	Range        Range
	Monochrome   bool
	StartAtFirst bool
	UseStep      StepMode
	Display      Display
}

// DefaultSettings returns the settings of a freshly opened chart.
func DefaultSettings() Settings {
	return Settings{
		UseStep: StepModeTime,
	}
}

// Validate the settings.
func (s Settings) Validate() error {
	if s.Smoothing < 0 || s.Smoothing > MaxSmoothing {
		return fmt.Errorf("invalid smoothing: %d (should be in [0,%d])", s.Smoothing, MaxSmoothing)
	}

	if !s.UseStep.IsValid() {
		return fmt.Errorf("invalid settings: %w: %q", ErrUnknownStepMode, s.UseStep)
	}

	return nil
}

// IsShown reports whether the workload has been expanded into individual runs.
func (s Settings) IsShown(workload string) bool {
	return slices.Contains(s.ShownRuns, workload)
}

// IsHidden reports whether the series has been toggled off.
func (s Settings) IsHidden(name string) bool {
	return slices.Contains(s.HiddenSeries, name)
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	c := s
	c.ShownRuns = slices.Clone(s.ShownRuns)
	c.HiddenSeries = slices.Clone(s.HiddenSeries)

	return c
}

// Context exports the persistable part of the settings.
func (s Settings) Context(id string) ChartContext {
	return ChartContext{
		ID:           id,
		Smoothing:    s.Smoothing,
		ShownRuns:    nonNil(s.ShownRuns),
		HiddenSeries: nonNil(s.HiddenSeries),
		Range:        s.Range,
	}
}

// WithContext restores a previously saved context on top of the settings.
func (s Settings) WithContext(ctx ChartContext) Settings {
	c := s.Clone()
	c.Smoothing = ctx.Smoothing
	c.ShownRuns = slices.Clone(ctx.ShownRuns)
	c.HiddenSeries = slices.Clone(ctx.HiddenSeries)
	c.Range = ctx.Range

	return c
}

// ChartContext is the display state saved for a chart, which allows a re-opened chart
// to restore its smoothing, grouping, visibility and zoom.
type ChartContext struct {
	ID           string   `json:"id,omitempty" mapstructure:"id"`
	Smoothing    int      `json:"smoothing" mapstructure:"smoothing"`
	ShownRuns    []string `json:"shownRuns" mapstructure:"shownRuns"`
	HiddenSeries []string `json:"hiddenSeries" mapstructure:"hiddenSeries"`
	Range        Range    `json:"range" mapstructure:"range"`
}

// Clone returns a deep copy of the context.
func (c ChartContext) Clone() ChartContext {
	clone := c
	clone.ShownRuns = slices.Clone(c.ShownRuns)
	clone.HiddenSeries = slices.Clone(c.HiddenSeries)

	return clone
}

// Equal reports whether two contexts carry the same display state.
func (c ChartContext) Equal(other ChartContext) bool {
	return c.ID == other.ID &&
		c.Smoothing == other.Smoothing &&
		c.Range == other.Range &&
		slices.Equal(c.ShownRuns, other.ShownRuns) &&
		slices.Equal(c.HiddenSeries, other.HiddenSeries)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}

	return slices.Clone(in)
}
