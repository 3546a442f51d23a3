// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"sync/atomic"

	"bass/internal/effect"
)

// MeterReading is a consistent-enough copy of the meter values. Fields are
// updated independently, so a reading may mix two adjacent blocks.
type MeterReading struct {
	InputRMS  float32 `json:"input_rms"`
	OutputRMS float32 `json:"output_rms"`
	Gate      float32 `json:"gate"`
	Open      bool    `json:"open"`
	Blocks    uint64  `json:"blocks"`
}

// Meter carries block statistics from the audio thread to readers.
type Meter struct {
	inputRMS  atomic.Uint32
	outputRMS atomic.Uint32
	gate      atomic.Uint32
	open      atomic.Bool
	blocks    atomic.Uint64
}

// NewMeter returns a meter reporting a fully open gate and silence.
func NewMeter() *Meter {
	m := &Meter{}
	m.gate.Store(math.Float32bits(1))
	return m
}

// Update stores the statistics of one block. Audio thread only.
func (m *Meter) Update(stats effect.BlockStats) {
	m.inputRMS.Store(math.Float32bits(stats.InputRMS))
	m.outputRMS.Store(math.Float32bits(stats.OutputRMS))
	m.gate.Store(math.Float32bits(stats.GateMult))
	m.open.Store(stats.Open)
	m.blocks.Add(1)
}

// Read returns the latest values. Safe from any goroutine.
func (m *Meter) Read() MeterReading {
	return MeterReading{
		InputRMS:  math.Float32frombits(m.inputRMS.Load()),
		OutputRMS: math.Float32frombits(m.outputRMS.Load()),
		Gate:      math.Float32frombits(m.gate.Load()),
		Open:      m.open.Load(),
		Blocks:    m.blocks.Load(),
	}
}
