// SPDX-License-Identifier: MIT
/*
Package wavfile converts between channel-major float32 blocks and PCM WAV
files using go-audio/wav.

Float samples are clamped to [-1, 1] and scaled to the full integer range of
the bit depth on write. On read, integers are scaled back by 2^(depth-1).
*/
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

var (
	// ErrInvalidFile is returned for files that are not readable WAV files.
	ErrInvalidFile = errors.New("not a valid WAV file")
	// ErrBitDepth is returned for unsupported bit depths.
	ErrBitDepth = errors.New("unsupported bit depth")
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("wav writer closed")
)

// fullScale returns the largest positive sample value of a bit depth.
func fullScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32767, nil
	case 24:
		return 8388607, nil
	case 32:
		return 2147483647, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
}

// Writer encodes float blocks to a PCM WAV file. Write and Close may be
// called from different goroutines.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *wav.Encoder
	buf      *audio.IntBuffer
	scale    float32
	channels int
	frames   int64
	closed   bool
	path     string
}

// Create opens path for writing. maxFrames sizes the conversion buffer; blocks
// larger than that are written in several chunks.
func Create(path string, sampleRate, channels, bitDepth, maxFrames int) (*Writer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channels must be positive, got %d", channels)
	}
	if maxFrames <= 0 {
		maxFrames = 1024
	}
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create '%s': %w", path, err)
	}

	return &Writer{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:           make([]int, maxFrames*channels),
			SourceBitDepth: bitDepth,
		},
		scale:    scale,
		channels: channels,
		path:     path,
	}, nil
}

// Write interleaves block and appends it to the file. Missing channels are
// written as silence and extra channels are ignored.
func (w *Writer) Write(block [][]float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	frames := 0
	for _, ch := range block {
		frames = max(frames, len(ch))
	}

	chunk := len(w.buf.Data) / w.channels
	for start := 0; start < frames; start += chunk {
		end := min(start+chunk, frames)
		data := w.buf.Data[:(end-start)*w.channels]
		for i := start; i < end; i++ {
			base := (i - start) * w.channels
			for c := range w.channels {
				var s float32
				if c < len(block) && i < len(block[c]) {
					s = block[c][i]
				}
				data[base+c] = w.toInt(s)
			}
		}

		full := w.buf.Data
		w.buf.Data = data
		err := w.encoder.Write(w.buf)
		w.buf.Data = full
		if err != nil {
			return fmt.Errorf("failed to write WAV data: %w", err)
		}
	}
	w.frames += int64(frames)
	return nil
}

func (w *Writer) toInt(s float32) int {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	} else if s != s {
		s = 0
	}
	return int(s * w.scale)
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Path returns the file path.
func (w *Writer) Path() string { return w.path }

// Close finalizes the WAV header and closes the file. Safe to call twice.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	encErr := w.encoder.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close WAV file: %w", fileErr)
	}
	return nil
}

// Audio is a decoded file held in memory.
type Audio struct {
	SampleRate int
	BitDepth   int
	Data       [][]float32 // Channel-major samples
}

// Frames returns the number of frames per channel.
func (a *Audio) Frames() int {
	if len(a.Data) == 0 {
		return 0
	}
	return len(a.Data[0])
}

// Read decodes a whole PCM WAV stream into memory.
func Read(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d is not PCM", ErrInvalidFile, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFile, channels)
	}

	frames := len(buf.Data) / channels
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
	}
	inv := 1 / (scale + 1)
	for i := range frames {
		for c := range channels {
			data[c][i] = float32(buf.Data[i*channels+c]) * inv
		}
	}

	return &Audio{SampleRate: buf.Format.SampleRate, BitDepth: bitDepth, Data: data}, nil
}

// ReadFile opens and decodes path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
