// SPDX-License-Identifier: MIT
package render

import (
	"fmt"
	"strings"

	"bass/internal/wavfile"

	"github.com/dh1tw/gosamplerate"
)

const (
	resampleMaxRatio = 16.0
	resampleMinRatio = 1.0 / 16
)

// ParseConverter maps a converter name to a libsamplerate converter type.
func ParseConverter(name string) (int, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "best", "sinc_best":
		return gosamplerate.SRC_SINC_BEST_QUALITY, nil
	case "medium", "sinc_medium", "":
		return gosamplerate.SRC_SINC_MEDIUM_QUALITY, nil
	case "fastest", "sinc_fastest":
		return gosamplerate.SRC_SINC_FASTEST, nil
	case "zoh", "zero_order_hold":
		return gosamplerate.SRC_ZERO_ORDER_HOLD, nil
	case "linear":
		return gosamplerate.SRC_LINEAR, nil
	default:
		return 0, fmt.Errorf("unknown resampler: '%s'", name)
	}
}

func isValidRatio(ratio float64) bool {
	if !gosamplerate.IsValidRatio(ratio) {
		return false
	}
	return ratio >= resampleMinRatio && ratio <= resampleMaxRatio
}

// Resample converts a to sampleRate. Audio already at that rate is returned
// unchanged.
func Resample(a *wavfile.Audio, sampleRate, converterType int) (*wavfile.Audio, error) {
	if sampleRate <= 0 || a.SampleRate == sampleRate {
		return a, nil
	}
	channels := len(a.Data)
	frames := a.Frames()
	if channels == 0 || frames == 0 {
		return &wavfile.Audio{SampleRate: sampleRate, BitDepth: a.BitDepth, Data: a.Data}, nil
	}

	ratio := float64(sampleRate) / float64(a.SampleRate)
	if !isValidRatio(ratio) {
		return nil, fmt.Errorf("cannot resample %d Hz to %d Hz: ratio %f out of range", a.SampleRate, sampleRate, ratio)
	}

	interleaved := make([]float32, frames*channels)
	for i := range frames {
		for c := range channels {
			interleaved[i*channels+c] = a.Data[c][i]
		}
	}

	resampled, err := gosamplerate.Simple(interleaved, ratio, channels, converterType)
	if err != nil {
		return nil, fmt.Errorf("resampling failed: %w", err)
	}

	outFrames := len(resampled) / channels
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, outFrames)
	}
	for i := range outFrames {
		for c := range channels {
			data[c][i] = resampled[i*channels+c]
		}
	}
	logger.Debugf("Resampled %d frames at %d Hz to %d frames at %d Hz", frames, a.SampleRate, outFrames, sampleRate)

	return &wavfile.Audio{SampleRate: sampleRate, BitDepth: a.BitDepth, Data: data}, nil
}
