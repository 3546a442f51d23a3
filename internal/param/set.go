// SPDX-License-Identifier: MIT
package param

import "fmt"

// Defaults holds the starting values of a Set, in plain units except for the
// output gain which is given in decibels.
type Defaults struct {
	OutputGainDB float32
	Skrunkle     float32
	Threshold    float32
	Style        SmoothingStyle
	SmoothingMs  float64
}

// DefaultDefaults are the values the effect ships with.
var DefaultDefaults = Defaults{
	OutputGainDB: 0,
	Skrunkle:     1,
	Threshold:    0,
	Style:        LogarithmicSmoothing,
	SmoothingMs:  50,
}

// Snapshot is a by-value copy of the three parameter values.
type Snapshot struct {
	OutputGain float32 `json:"output_gain"`
	Skrunkle   float32 `json:"skrunkle"`
	Threshold  float32 `json:"threshold"`
}

// Set is the effect's parameter set. The Next* methods satisfy
// effect.Params.
type Set struct {
	outputGain *Param
	skrunkle   *Param
	threshold  *Param

	order []*Param
}

// NewSet builds the parameter set from d.
func NewSet(d Defaults) *Set {
	smoothing := WithSmoother(d.Style, d.SmoothingMs)

	s := &Set{
		outputGain: New(OutputGain, "output gain", DBToGain(d.OutputGainDB),
			Skewed(DBToGain(-30), DBToGain(30), GainSkewFactor(-30, 30)),
			smoothing,
			WithUnit(" dB"),
			WithFormatter(GainToDBFormatter(2), DBToGainParser)),
		skrunkle: New(Skrunkle, "skrunkle", d.Skrunkle,
			Skewed(0, 10, GainSkewFactor(0, 10)),
			smoothing),
		threshold: New(Threshold, "threshold", d.Threshold,
			Skewed(0, 1, GainSkewFactor(0, 1)),
			smoothing,
			WithFormatter(FloatFormatter(3), FloatParser)),
	}
	s.order = []*Param{s.outputGain, s.skrunkle, s.threshold}
	return s
}

// All returns the parameters in display order.
func (s *Set) All() []*Param {
	return s.order
}

// Get looks a parameter up by ID.
func (s *Set) Get(id ID) (*Param, error) {
	for _, p := range s.order {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknownParam, id)
}

// OutputGain returns the output gain parameter.
func (s *Set) OutputGain() *Param { return s.outputGain }

// Skrunkle returns the distortion drive parameter.
func (s *Set) Skrunkle() *Param { return s.skrunkle }

// Threshold returns the gate threshold parameter.
func (s *Set) Threshold() *Param { return s.threshold }

// Snapshot returns the current targets.
func (s *Set) Snapshot() Snapshot {
	return Snapshot{
		OutputGain: s.outputGain.Value(),
		Skrunkle:   s.skrunkle.Value(),
		Threshold:  s.threshold.Value(),
	}
}

// Apply sets every target from snap.
func (s *Set) Apply(snap Snapshot) {
	s.outputGain.Set(snap.OutputGain)
	s.skrunkle.Set(snap.Skrunkle)
	s.threshold.Set(snap.Threshold)
}

// SetSampleRate configures every smoother for the given step rate.
func (s *Set) SetSampleRate(sampleRate float64) {
	for _, p := range s.order {
		p.SetSampleRate(sampleRate)
	}
}

// Settle jumps every smoother to its target.
func (s *Set) Settle() {
	for _, p := range s.order {
		p.Settle()
	}
}

// NextOutputGain advances and returns the smoothed output gain.
func (s *Set) NextOutputGain() float32 { return s.outputGain.Next() }

// NextSkrunkle advances and returns the smoothed drive.
func (s *Set) NextSkrunkle() float32 { return s.skrunkle.Next() }

// NextThreshold advances and returns the smoothed threshold.
func (s *Set) NextThreshold() float32 { return s.threshold.Next() }

// NextOutputGain returns the snapshot's output gain.
func (s *Snapshot) NextOutputGain() float32 { return s.OutputGain }

// NextSkrunkle returns the snapshot's drive.
func (s *Snapshot) NextSkrunkle() float32 { return s.Skrunkle }

// NextThreshold returns the snapshot's threshold.
func (s *Snapshot) NextThreshold() float32 { return s.Threshold }
