// SPDX-License-Identifier: MIT
package param

import "math"

// Range maps plain parameter values to the normalized [0, 1] domain used by
// hosts and UIs. A Factor of 1 is linear. Factors below 1 spend more of the
// normalized travel near Min.
type Range struct {
	Min    float32
	Max    float32
	Factor float32
}

// Linear returns an unskewed range.
func Linear(min, max float32) Range {
	return Range{Min: min, Max: max, Factor: 1}
}

// Skewed returns a range with the given skew factor.
func Skewed(min, max, factor float32) Range {
	return Range{Min: min, Max: max, Factor: factor}
}

// GainSkewFactor returns the skew factor that puts the midpoint between
// minDB and maxDB, converted to gain, at the middle of the normalized range.
func GainSkewFactor(minDB, maxDB float32) float32 {
	minGain := float64(DBToGain(minDB))
	maxGain := float64(DBToGain(maxDB))
	middleGain := float64(DBToGain((maxDB + minDB) / 2))

	return float32(math.Log(0.5) / math.Log((middleGain-minGain)/(maxGain-minGain)))
}

// Clamp pins v to [Min, Max].
func (r Range) Clamp(v float32) float32 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Normalize converts a plain value to [0, 1].
func (r Range) Normalize(plain float32) float32 {
	if r.Max <= r.Min {
		return 0
	}
	n := float64((r.Clamp(plain) - r.Min) / (r.Max - r.Min))
	if r.Factor != 1 {
		n = math.Pow(n, float64(r.Factor))
	}
	return float32(n)
}

// Unnormalize converts a [0, 1] value back to the plain domain.
func (r Range) Unnormalize(normalized float32) float32 {
	n := float64(normalized)
	if n < 0 {
		n = 0
	}
	if n > 1 {
		n = 1
	}
	if r.Factor != 1 && n > 0 {
		n = math.Pow(n, 1/float64(r.Factor))
	}
	return r.Clamp(r.Min + float32(n)*(r.Max-r.Min))
}
