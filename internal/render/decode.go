// SPDX-License-Identifier: MIT
package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bass/internal/wavfile"

	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for input files that are neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// mp3Channels is fixed by go-mp3, which always decodes to 16-bit LE stereo.
const mp3Channels = 2

// Format identifies an input container.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// DetectFormat picks the decoder from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode reads a whole WAV or MP3 file into memory.
func Decode(path string) (*wavfile.Audio, Format, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, format, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	var a *wavfile.Audio
	switch format {
	case FormatWAV:
		a, err = wavfile.Read(f)
	case FormatMP3:
		a, err = DecodeMP3(f)
	}
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode '%s': %w", path, err)
	}
	return a, format, nil
}

// DecodeMP3 decodes an MP3 stream to stereo float samples.
func DecodeMP3(r io.Reader) (*wavfile.Audio, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	return &wavfile.Audio{
		SampleRate: dec.SampleRate(),
		BitDepth:   16,
		Data:       pcm16ToFloat(pcm, mp3Channels),
	}, nil
}

// pcm16ToFloat deinterleaves little-endian 16-bit PCM. A trailing partial
// frame is dropped.
func pcm16ToFloat(pcm []byte, channels int) [][]float32 {
	frameBytes := 2 * channels
	frames := len(pcm) / frameBytes

	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
	}
	for i := range frames {
		for c := range channels {
			off := i*frameBytes + 2*c
			data[c][i] = float32(int16(binary.LittleEndian.Uint16(pcm[off:]))) / 32768
		}
	}
	return data
}
