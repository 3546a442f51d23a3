// SPDX-License-Identifier: MIT
package dsp

// gateCoeff is the fraction of the remaining distance gateMult moves toward
// its target on every sample. It is fixed per sample, so the gate's attack
// and release times in seconds scale with 1/sampleRate.
const gateCoeff = 0.5

// ClipGate is a hard clipper followed by a gate whose gain follows a binary
// target (closed=0, open=1) with one-pole smoothing.
//
// The target is chosen on every sample by comparing the block RMS against the
// configured threshold. A tie holds the previous target.
type ClipGate struct {
	mult     float32 // Distortion multiplier applied before clipping
	gateRMS  float32 // RMS threshold compared against the block RMS
	gateMult float32 // Current smoothed gate gain
	target   float32 // 0.0 (closed) or 1.0 (open)
}

// NewClipGate returns a ClipGate with unity drive, a zero threshold, a fully
// open gain and a closed target.
func NewClipGate() *ClipGate {
	return &ClipGate{
		mult:     1.0,
		gateRMS:  0.0,
		gateMult: 1.0,
		target:   0.0,
	}
}

// SetMult sets the distortion multiplier. Any value is accepted, including
// negative ones.
func (g *ClipGate) SetMult(mult float32) {
	g.mult = mult
}

// SetGate sets the RMS threshold of the gate.
func (g *ClipGate) SetGate(gate float32) {
	g.gateRMS = gate
}

// Mult returns the distortion multiplier.
func (g *ClipGate) Mult() float32 {
	return g.mult
}

// Gate returns the RMS threshold.
func (g *ClipGate) Gate() float32 {
	return g.gateRMS
}

// GateMult returns the current smoothed gate gain.
func (g *ClipGate) GateMult() float32 {
	return g.gateMult
}

// Target returns the gain the gate is moving toward, 0 or 1.
func (g *ClipGate) Target() float32 {
	return g.target
}

// Open reports whether the gate is currently moving toward fully open.
func (g *ClipGate) Open() bool {
	return g.target == 1.0
}

// ProcessSample drives, clips and gates one sample. rms is the level of the
// block the sample belongs to.
func (g *ClipGate) ProcessSample(input, rms float32) float32 {
	clipped := HardClip(input * g.mult)

	if rms < g.gateRMS {
		g.target = 0.0
	}
	if rms > g.gateRMS {
		g.target = 1.0
	}

	g.gateMult += (g.target - g.gateMult) * gateCoeff

	return clipped * g.gateMult
}

// HardClip pins x to [-1, 1]. NaN passes through unchanged.
func HardClip(x float32) float32 {
	if x > 1.0 {
		return 1.0
	}
	if x < -1.0 {
		return -1.0
	}
	return x
}
