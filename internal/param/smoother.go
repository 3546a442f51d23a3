// SPDX-License-Identifier: MIT
package param

import (
	"fmt"
	"math"
	"strings"
)

// SmoothingStyle selects how a Smoother travels toward a new target.
type SmoothingStyle int

const (
	// NoSmoothing jumps straight to the target.
	NoSmoothing SmoothingStyle = iota
	// LinearSmoothing moves by a constant step.
	LinearSmoothing
	// LogarithmicSmoothing moves by a constant ratio, which sounds even for
	// gain-like values.
	LogarithmicSmoothing
)

// minLogValue stands in for zero when smoothing in log space.
const minLogValue = 1e-3

// ParseSmoothingStyle converts a name (case-insensitive) to a SmoothingStyle.
func ParseSmoothingStyle(name string) (SmoothingStyle, error) {
	switch strings.ToLower(name) {
	case "none", "off":
		return NoSmoothing, nil
	case "linear":
		return LinearSmoothing, nil
	case "log", "logarithmic":
		return LogarithmicSmoothing, nil
	default:
		return LogarithmicSmoothing, fmt.Errorf("unknown smoothing style: '%s'", name)
	}
}

// Smoother glides a parameter value toward its target over a fixed duration.
// It is owned by the audio thread and is not safe for concurrent use.
type Smoother struct {
	style      SmoothingStyle
	durationMs float64
	totalSteps int

	current   float32
	target    float32
	step      float32 // Additive for linear, multiplicative for logarithmic
	stepsLeft int
}

// NewSmoother returns a smoother of the given style taking durationMs to
// reach a new target once a sample rate has been set.
func NewSmoother(style SmoothingStyle, durationMs float64) *Smoother {
	return &Smoother{
		style:      style,
		durationMs: durationMs,
	}
}

// SetSampleRate sets how many calls to Next a full glide takes.
func (s *Smoother) SetSampleRate(sampleRate float64) {
	steps := int(math.Round(sampleRate * s.durationMs / 1000.0))
	if steps < 0 {
		steps = 0
	}
	s.totalSteps = steps
}

// Reset jumps to value with no glide in progress.
func (s *Smoother) Reset(value float32) {
	s.current = value
	s.target = value
	s.stepsLeft = 0
}

// SetTarget starts a glide from the current value to target.
func (s *Smoother) SetTarget(target float32) {
	s.target = target
	if s.style == NoSmoothing || s.totalSteps == 0 || target == s.current {
		s.current = target
		s.stepsLeft = 0
		return
	}

	s.stepsLeft = s.totalSteps
	switch s.style {
	case LinearSmoothing:
		s.step = (target - s.current) / float32(s.totalSteps)
	case LogarithmicSmoothing:
		from := math.Max(float64(s.current), minLogValue)
		to := math.Max(float64(target), minLogValue)
		s.current = float32(from)
		s.step = float32(math.Pow(to/from, 1/float64(s.totalSteps)))
	}
}

// Target returns the value the smoother is heading to.
func (s *Smoother) Target() float32 {
	return s.target
}

// Current returns the last value produced without advancing.
func (s *Smoother) Current() float32 {
	return s.current
}

// IsSmoothing reports whether a glide is in progress.
func (s *Smoother) IsSmoothing() bool {
	return s.stepsLeft > 0
}

// Next advances one step and returns the new value. The final step lands
// exactly on the target.
func (s *Smoother) Next() float32 {
	if s.stepsLeft == 0 {
		return s.current
	}

	s.stepsLeft--
	if s.stepsLeft == 0 {
		s.current = s.target
		return s.current
	}

	switch s.style {
	case LinearSmoothing:
		s.current += s.step
	case LogarithmicSmoothing:
		s.current *= s.step
	}
	return s.current
}
