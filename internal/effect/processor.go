// SPDX-License-Identifier: MIT
/*
Package effect binds the clip/gate core to a block of audio.

One call to Process handles one host callback:
 1. The RMS of every sample of every channel is computed once.
 2. For each channel, output gain, skrunkle and threshold are read once.
 3. Skrunkle and threshold are pushed into the channel's ClipGate.
 4. Every sample of the channel is clipped, gated against the block RMS and
    scaled by the output gain.

The processor is owned by a single real-time thread. It does not lock and
does not allocate once constructed.
*/
package effect

import (
	"fmt"
	"strings"

	"bass/internal/dsp"
	"bass/internal/param"
)

// Params is the by-value parameter feed read once per channel per block.
// Each call may advance a smoother.
type Params interface {
	NextOutputGain() float32
	NextSkrunkle() float32
	NextThreshold() float32
}

// Transform is the host-independent shape of the effect: a fixed parameter
// snapshot applied to an input block, written to an output block.
type Transform func(snapshot param.Snapshot, in, out [][]float32)

// GateScope decides which ClipGate a channel is processed with.
type GateScope int

const (
	// ScopeShared runs every channel through one ClipGate in channel order,
	// so later channels see the gate gain left by earlier ones.
	ScopeShared GateScope = iota
	// ScopePerChannel gives every channel index its own ClipGate.
	ScopePerChannel
)

// String returns the config name of the scope.
func (s GateScope) String() string {
	switch s {
	case ScopeShared:
		return "shared"
	case ScopePerChannel:
		return "per_channel"
	default:
		return "unknown"
	}
}

// ParseGateScope converts a config name (case-insensitive) to a GateScope.
func ParseGateScope(name string) (GateScope, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "shared", "":
		return ScopeShared, nil
	case "per_channel", "perchannel":
		return ScopePerChannel, nil
	default:
		return ScopeShared, fmt.Errorf("unknown gate scope: '%s'", name)
	}
}

// BlockStats describes the most recently processed block.
type BlockStats struct {
	InputRMS  float32
	OutputRMS float32
	GateMult  float32 // Gate gain after the last sample of the last channel
	Open      bool    // Whether that gate was heading open
	Frames    int
	Channels  int
}

// Processor is the block-level driver of the clip/gate core.
type Processor struct {
	scope GateScope
	gates []*dsp.ClipGate // One entry for ScopeShared, maxChannels for ScopePerChannel

	static param.Snapshot // Backing store for ProcessSnapshot
	last   BlockStats
}

// ParamRate is how many times per second Process reads each parameter when
// fed blocks of framesPerBuffer frames at sampleRate. Smoothers sized with it
// glide in wall-clock time.
func ParamRate(sampleRate float64, channels, framesPerBuffer int) float64 {
	if channels <= 0 || framesPerBuffer <= 0 {
		return 0
	}
	return sampleRate * float64(channels) / float64(framesPerBuffer)
}

// NewProcessor returns a Processor with freshly initialized gate state.
// maxChannels sizes the per-channel gates and is ignored for ScopeShared.
func NewProcessor(scope GateScope, maxChannels int) *Processor {
	p := &Processor{scope: scope}
	p.allocate(maxChannels)
	return p
}

func (p *Processor) allocate(maxChannels int) {
	n := 1
	if p.scope == ScopePerChannel && maxChannels > 1 {
		n = maxChannels
	}
	p.gates = make([]*dsp.ClipGate, n)
	for i := range p.gates {
		p.gates[i] = dsp.NewClipGate()
	}
	p.last = BlockStats{}
}

// Reset discards all gate state, as if the processor had just been built.
// Not safe to call while Process may be running.
func (p *Processor) Reset() {
	p.allocate(len(p.gates))
}

// Scope returns the configured gate scope.
func (p *Processor) Scope() GateScope {
	return p.scope
}

// Gate returns the ClipGate used for channel ch.
func (p *Processor) Gate(ch int) *dsp.ClipGate {
	if ch >= len(p.gates) {
		ch = len(p.gates) - 1
	}
	if ch < 0 {
		ch = 0
	}
	return p.gates[ch]
}

// LastBlock returns statistics for the last non-empty block. Same thread as
// Process only.
func (p *Processor) LastBlock() BlockStats {
	return p.last
}

// Process runs one block from in to out. Both are channel-major and out must
// have at least as many channels and frames as in. in and out may be the
// same slices. Blocks without samples are ignored.
func (p *Processor) Process(params Params, in, out [][]float32) {
	rms := dsp.ComputeBlockRMS(in)

	frames := 0
	for ch, input := range in {
		if len(input) == 0 {
			continue
		}
		frames = len(input)

		gain := params.NextOutputGain()
		skrunkle := params.NextSkrunkle()
		threshold := params.NextThreshold()

		gate := p.Gate(ch)
		gate.SetMult(skrunkle)
		gate.SetGate(threshold)

		output := out[ch][:len(input)]
		for i, sample := range input {
			output[i] = gate.ProcessSample(sample, rms) * gain
		}
	}
	if frames == 0 {
		return
	}

	lastGate := p.Gate(len(in) - 1)
	p.last = BlockStats{
		InputRMS:  rms,
		OutputRMS: dsp.ComputeBlockRMS(out[:len(in)]),
		GateMult:  lastGate.GateMult(),
		Open:      lastGate.Open(),
		Frames:    frames,
		Channels:  len(in),
	}
}

// ProcessSnapshot runs one block with fixed parameter values. It has the
// signature of a Transform.
func (p *Processor) ProcessSnapshot(snapshot param.Snapshot, in, out [][]float32) {
	p.static = snapshot
	p.Process(&p.static, in, out)
}

var _ Transform = (*Processor)(nil).ProcessSnapshot
