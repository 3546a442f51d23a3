// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"bass/internal/testsignal"

	"gonum.org/v1/gonum/floats/scalar"
)

const rmsTolerance = 1e-5

func TestComputeRMS(t *testing.T) {
	tests := []struct {
		desc    string
		samples []float32
		want    float64
	}{
		{"Empty", []float32{}, 0},
		{"Nil", nil, 0},
		{"Silence", []float32{0, 0, 0, 0}, 0},
		{"Single positive", []float32{0.5}, 0.5},
		{"Single negative", []float32{-0.25}, 0.25},
		{"Single large", []float32{3}, 3},
		{"Constant", []float32{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"Alternating", []float32{1, -1, 1, -1}, 1},
		{"Mixed", []float32{1, 0, 0, 0}, 0.5},
		{"Pythagorean", []float32{3, 4}, math.Sqrt(12.5)},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := ComputeRMS(tt.samples)
			if !scalar.EqualWithinAbs(float64(got), tt.want, rmsTolerance) {
				t.Errorf("ComputeRMS(%v) = %v, want %v", tt.samples, got, tt.want)
			}
		})
	}
}

func TestComputeRMSSingleSampleIsAbs(t *testing.T) {
	for _, a := range []float32{-7.5, -1, -0.125, 0, 0.001, 0.3, 1, 2, 100} {
		got := ComputeRMS([]float32{a})
		want := math.Abs(float64(a))
		if !scalar.EqualWithinAbsOrRel(float64(got), want, rmsTolerance, rmsTolerance) {
			t.Errorf("ComputeRMS([%v]) = %v, want %v", a, got, want)
		}
	}

	// Squares outside the float32 range.
	for _, a := range []float32{1e-30, -1e-30, 1e20, -1e20} {
		got := ComputeRMS([]float32{a})
		want := math.Abs(float64(a))
		if !scalar.EqualWithinRel(float64(got), want, 1e-6) {
			t.Errorf("ComputeRMS([%v]) = %v, want %v", a, got, want)
		}
		if block := ComputeBlockRMS([][]float32{{a}}); block != got {
			t.Errorf("ComputeBlockRMS([[%v]]) = %v, want %v", a, block, got)
		}
	}
}

func TestComputeRMSZeroOnlyForSilence(t *testing.T) {
	silence := make([]float32, 256)
	if got := ComputeRMS(silence); got != 0 {
		t.Errorf("silence RMS = %v, want 0", got)
	}

	for i := range silence {
		signal := make([]float32, len(silence))
		signal[i] = 0.01
		if got := ComputeRMS(signal); got <= 0 {
			t.Fatalf("RMS with non-zero sample at %d = %v, want > 0", i, got)
		}
	}

	for _, a := range []float32{1e-30, -1e-30, 1e-40} {
		if got := ComputeRMS([]float32{a}); got <= 0 {
			t.Errorf("ComputeRMS([%v]) = %v, want > 0", a, got)
		}
		if got := ComputeBlockRMS([][]float32{{0, a}, {0}}); got <= 0 {
			t.Errorf("ComputeBlockRMS with %v = %v, want > 0", a, got)
		}
	}
}

func TestComputeBlockRMSMatchesFlattened(t *testing.T) {
	left := testsignal.Sine(512, 44100, 440, 0.8)
	right := testsignal.Sine(512, 44100, 110, 0.3)

	flat := append(append([]float32{}, left...), right...)
	want := ComputeRMS(flat)

	tests := []struct {
		desc  string
		block [][]float32
	}{
		{"Channel order", [][]float32{left, right}},
		{"Reversed channels", [][]float32{right, left}},
		{"Interleaved", [][]float32{testsignal.Interleave(left, right)}},
		{"With empty channel", [][]float32{left, {}, right}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := ComputeBlockRMS(tt.block)
			if !scalar.EqualWithinAbs(float64(got), float64(want), rmsTolerance) {
				t.Errorf("ComputeBlockRMS = %v, want %v", got, want)
			}
		})
	}
}

func TestComputeBlockRMSEmpty(t *testing.T) {
	blocks := [][][]float32{
		nil,
		{},
		{{}, {}},
	}
	for _, block := range blocks {
		if got := ComputeBlockRMS(block); got != 0 {
			t.Errorf("ComputeBlockRMS(%v) = %v, want 0", block, got)
		}
	}
}

func TestComputeRMSNoAllocsHotPath(t *testing.T) {
	block := [][]float32{
		testsignal.Sine(1024, 48000, 440, 0.5),
		testsignal.Sine(1024, 48000, 220, 0.5),
	}

	allocs := testing.AllocsPerRun(100, func() {
		_ = ComputeRMS(block[0])
		_ = ComputeBlockRMS(block)
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations in RMS hot path, got %.1f", allocs)
	}
}

func BenchmarkComputeBlockRMS(b *testing.B) {
	benchmarks := []struct {
		name     string
		frames   int
		channels int
	}{
		{"Mono/256", 256, 1},
		{"Stereo/512", 512, 2},
		{"Stereo/4096", 4096, 2},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			block := make([][]float32, bm.channels)
			for ch := range block {
				block[ch] = testsignal.Complex(bm.frames, 48000)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				_ = ComputeBlockRMS(block)
			}
		})
	}
}
