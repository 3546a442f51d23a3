// SPDX-License-Identifier: MIT
/*
Package param owns the effect's three user parameters: output gain,
skrunkle (distortion drive) and threshold (gate RMS).

Threading model:
- The control plane (CLI, WebSocket clients, TUI) writes targets with Set,
  SetNormalized or Parse. Targets are stored atomically.
- The audio thread reads with the Next* methods, which pick up the latest
  target and advance that parameter's smoother by one step.
- One writer and one reader per parameter need no further locking.
*/
package param

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ID identifies a parameter across config, transports and UIs.
type ID string

const (
	OutputGain ID = "output_gain"
	Skrunkle   ID = "skrunkle"
	Threshold  ID = "threshold"
)

// ErrUnknownParam is returned when looking up an ID that does not exist.
var ErrUnknownParam = errors.New("unknown parameter")

// Param is a single automatable value with a range, display formatting and a
// smoother.
type Param struct {
	ID      ID
	Name    string
	Unit    string
	Range   Range
	Default float32

	format func(float32) string
	parse  func(string) (float32, error)

	target   atomic.Uint32 // math.Float32bits of the plain target value
	smoother *Smoother     // Audio thread only
}

// Option configures a Param at construction.
type Option func(*Param)

// WithUnit sets the display unit.
func WithUnit(unit string) Option {
	return func(p *Param) { p.Unit = unit }
}

// WithFormatter sets value-to-string and string-to-value conversion.
func WithFormatter(format func(float32) string, parse func(string) (float32, error)) Option {
	return func(p *Param) {
		p.format = format
		p.parse = parse
	}
}

// WithSmoother replaces the default logarithmic 50ms smoother.
func WithSmoother(style SmoothingStyle, durationMs float64) Option {
	return func(p *Param) { p.smoother = NewSmoother(style, durationMs) }
}

// New creates a parameter set to its default value.
func New(id ID, name string, def float32, r Range, opts ...Option) *Param {
	p := &Param{
		ID:       id,
		Name:     name,
		Range:    r,
		Default:  r.Clamp(def),
		format:   FloatFormatter(2),
		parse:    FloatParser,
		smoother: NewSmoother(LogarithmicSmoothing, 50),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.target.Store(math.Float32bits(p.Default))
	p.smoother.Reset(p.Default)
	return p
}

// Set stores a new plain target, clamped to the parameter range. NaN is
// ignored.
func (p *Param) Set(value float32) {
	if value != value {
		return
	}
	p.target.Store(math.Float32bits(p.Range.Clamp(value)))
}

// SetNormalized stores a new target given in [0, 1].
func (p *Param) SetNormalized(normalized float32) {
	p.Set(p.Range.Unnormalize(normalized))
}

// Parse sets the target from its display string, e.g. "-6 dB".
func (p *Param) Parse(s string) error {
	v, err := p.parse(s)
	if err != nil {
		return fmt.Errorf("%s: %w", p.ID, err)
	}
	p.Set(v)
	return nil
}

// Value returns the current plain target.
func (p *Param) Value() float32 {
	return math.Float32frombits(p.target.Load())
}

// Normalized returns the current target in [0, 1].
func (p *Param) Normalized() float32 {
	return p.Range.Normalize(p.Value())
}

// String formats the current target for display, including the unit.
func (p *Param) String() string {
	return p.Format(p.Value())
}

// Format formats an arbitrary plain value the way this parameter displays it.
func (p *Param) Format(v float32) string {
	s := p.format(v)
	if p.Unit != "" {
		s += p.Unit
	}
	return s
}

// SetSampleRate sets how many Next calls a glide takes. Call it only while
// the audio thread is stopped.
func (p *Param) SetSampleRate(sampleRate float64) {
	p.smoother.SetSampleRate(sampleRate)
}

// Next picks up the latest target and returns the next smoothed value.
// Audio thread only.
func (p *Param) Next() float32 {
	if t := p.Value(); t != p.smoother.Target() {
		p.smoother.SetTarget(t)
	}
	return p.smoother.Next()
}

// Settle jumps the smoother to the current target. Call it only while the
// audio thread is stopped.
func (p *Param) Settle() {
	p.smoother.Reset(p.Value())
}
