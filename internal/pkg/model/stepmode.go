package model

import (
	"errors"
	"fmt"
)

// ErrUnknownStepMode is returned when an x-axis mode is not one of the supported [StepMode] values.
var ErrUnknownStepMode = errors.New("unknown step mode")

// StepMode selects the x-axis domain: elapsed time, or the step index with a reducer
// collapsing all values reported for the same step.
type StepMode string

// Supported x-axis modes.
const (
	StepModeTime        StepMode = "Time"
	StepModeEpochMin    StepMode = "EpochMin"
	StepModeEpochMax    StepMode = "EpochMax"
	StepModeEpochMean   StepMode = "EpochMean"
	StepModeEpochMedian StepMode = "EpochMedian"
)

// String returns the step mode as a plain string.
func (m StepMode) String() string {
	return string(m)
}

// IsValid reports whether the step mode is one of the known modes.
func (m StepMode) IsValid() bool {
	switch m {
	case StepModeTime, StepModeEpochMin, StepModeEpochMax, StepModeEpochMean, StepModeEpochMedian:
		return true
	default:
		return false
	}
}

// IsStep reports whether the x-axis is a step index rather than elapsed time.
func (m StepMode) IsStep() bool {
	return m.IsValid() && m != StepModeTime
}

// AllStepModes returns all known step modes.
func AllStepModes() []StepMode {
	return []StepMode{
		StepModeTime,
		StepModeEpochMin,
		StepModeEpochMax,
		StepModeEpochMean,
		StepModeEpochMedian,
	}
}

// ParseStepMode resolves a step mode from its name.
//
// An empty name resolves to [StepModeTime]. Anything else which is not a known mode is rejected.
func ParseStepMode(name string) (StepMode, error) {
	if name == "" {
		return StepModeTime, nil
	}

	m := StepMode(name)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q (should be one of %v)", ErrUnknownStepMode, name, AllStepModes())
	}

	return m, nil
}
