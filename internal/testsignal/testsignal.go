// SPDX-License-Identifier: MIT
// Package testsignal generates deterministic float32 signals for tests and
// benchmarks.
package testsignal

import (
	"math"
	"math/rand"
)

// Sine returns size samples of a sine wave at frequency Hz scaled by amplitude.
func Sine(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

// Complex returns a 440Hz fundamental plus two harmonics, peaking below 0.9.
func Complex(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// Constant returns size copies of value.
func Constant(size int, value float32) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = value
	}
	return buffer
}

// Noise returns uniform noise in [-amplitude, amplitude) from a fixed seed.
func Noise(size int, amplitude float32, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = (rng.Float32()*2 - 1) * amplitude
	}
	return buffer
}

// Interleave merges equally sized channels frame by frame.
func Interleave(channels ...[]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float32, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

// Block builds a channel-major block from the given channels, copying them so
// tests can process in place without touching the fixtures.
func Block(channels ...[]float32) [][]float32 {
	block := make([][]float32, len(channels))
	for i, ch := range channels {
		block[i] = append([]float32(nil), ch...)
	}
	return block
}
