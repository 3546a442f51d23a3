// SPDX-License-Identifier: MIT
package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinusInfinityDB is the level shown as -inf. Gains at or below
// MinusInfinityGain format as -inf and parse back to zero.
const (
	MinusInfinityDB   = -100.0
	MinusInfinityGain = 1e-5
)

// DBToGain converts decibels to linear gain.
func DBToGain(db float32) float32 {
	if db <= MinusInfinityDB {
		return 0
	}
	return float32(math.Pow(10, float64(db)/20))
}

// GainToDB converts linear gain to decibels, flooring at MinusInfinityDB.
func GainToDB(gain float32) float32 {
	g := math.Max(float64(gain), MinusInfinityGain)
	return float32(math.Log10(g) * 20)
}

// GainToDBFormatter formats a linear gain as decibels with the given number
// of digits.
func GainToDBFormatter(digits int) func(float32) string {
	return func(gain float32) string {
		if gain < MinusInfinityGain {
			return "-inf"
		}
		return strconv.FormatFloat(float64(GainToDB(gain)), 'f', digits, 32)
	}
}

// DBToGainParser parses "-6", "-6 dB", "-6dB" or "-inf" into a linear gain.
func DBToGainParser(s string) (float32, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "db"))
	if s == "-inf" || s == "-∞" {
		return 0, nil
	}
	db, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid decibel value '%s': %w", s, err)
	}
	return DBToGain(float32(db)), nil
}

// FloatFormatter formats a plain value with a fixed number of digits.
func FloatFormatter(digits int) func(float32) string {
	return func(v float32) string {
		return strconv.FormatFloat(float64(v), 'f', digits, 32)
	}
}

// FloatParser parses a plain value, ignoring surrounding whitespace.
func FloatParser(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value '%s': %w", s, err)
	}
	return float32(v), nil
}
