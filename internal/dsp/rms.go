// SPDX-License-Identifier: MIT
/*
Package dsp holds the per-sample processing core of the effect: block
loudness analysis and the clip/gate stage.

Everything in this package is real-time safe:
- No allocations
- No locks or blocking calls
- Deterministic, O(n) in the number of samples

An empty sample sequence has an RMS of 0.0. This keeps NaN out of the gate,
where it would otherwise poison the smoothed gain for the rest of the stream.
*/
package dsp

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// ComputeRMS returns the root-mean-square level of samples, or 0 when
// samples is empty.
func ComputeRMS(samples []float32) float32 {
	n := len(samples)
	if n == 0 {
		return 0
	}

	return float32(math.Sqrt(squareSum(samples) / float64(n)))
}

// ComputeBlockRMS returns the RMS of every sample of every channel in block,
// as if the channels had been concatenated. It does not allocate. A block
// with no samples has an RMS of 0.
func ComputeBlockRMS(block [][]float32) float32 {
	var sum float64
	var n int
	for _, channel := range block {
		if len(channel) == 0 {
			continue
		}
		sum += squareSum(channel)
		n += len(channel)
	}
	if n == 0 {
		return 0
	}

	return float32(math.Sqrt(sum / float64(n)))
}

// squareSum is Σ xᵢ², computed as the dot product of x with itself. It
// accumulates in float64 so tiny samples do not underflow to zero and large
// ones do not overflow to +Inf.
func squareSum(x []float32) float64 {
	v := blas32.Vector{N: len(x), Data: x, Inc: 1}
	return blas32.DDot(v, v)
}
