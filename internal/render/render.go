// SPDX-License-Identifier: MIT
/*
Package render runs the effect over audio files instead of a live stream.

A file is decoded fully into memory (WAV through go-audio, MP3 through
go-mp3), optionally resampled with libsamplerate, cut into blocks of the
configured callback size and processed exactly as the live engine would
process them. The result is written as PCM WAV.

A Renderer resets its gate state and settles its parameter smoothers before
every file, so files never influence each other.
*/
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bass/internal/analysis"
	"bass/internal/config"
	"bass/internal/dsp"
	"bass/internal/effect"
	applog "bass/internal/log"
	"bass/internal/param"
	"bass/internal/wavfile"
)

var logger = applog.Component("Render")

// Options controls how files are rendered.
type Options struct {
	SampleRate      int // Processing and output rate; 0 keeps the input rate.
	BitDepth        int // Output bit depth: 16, 24 or 32.
	FramesPerBuffer int // Block size handed to the processor.
	Converter       int // libsamplerate converter type.
	Scope           effect.GateScope
}

// NewOptions derives render options from the engine configuration. The
// processing rate is left at 0 so inputs keep their own rate.
func NewOptions(cfg *config.Config) Options {
	converter, _ := ParseConverter("")
	return Options{
		BitDepth:        cfg.Recording.BitDepth,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		Converter:       converter,
		Scope:           cfg.Scope(),
	}
}

// Result describes one rendered file.
type Result struct {
	Input      string
	Output     string
	Format     Format
	InputRate  int
	SampleRate int
	Channels   int
	Frames     int
	Blocks     int
	InputRMS   float32 // Over the whole (resampled) input
	OutputRMS  float32
	GateOpens  uint64
	GateCloses uint64
	Elapsed    time.Duration
}

// Duration returns the rendered length of the audio.
func (r Result) Duration() time.Duration {
	if r.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(r.Frames) / float64(r.SampleRate) * float64(time.Second))
}

// Renderer processes files one after another. Not safe for concurrent use.
type Renderer struct {
	opts      Options
	params    *param.Set
	processor *effect.Processor
}

// NewRenderer returns a Renderer reading its parameters from params.
func NewRenderer(opts Options, params *param.Set) (*Renderer, error) {
	if params == nil {
		return nil, errors.New("render: params cannot be nil")
	}
	if opts.FramesPerBuffer <= 0 {
		opts.FramesPerBuffer = config.DefaultFramesPerBuffer
	}
	if opts.BitDepth == 0 {
		opts.BitDepth = config.DefaultBitDepth
	}
	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("render: invalid sample rate %d", opts.SampleRate)
	}

	return &Renderer{
		opts:      opts,
		params:    params,
		processor: effect.NewProcessor(opts.Scope, config.MaxChannels),
	}, nil
}

// RenderFile decodes in, processes it and writes the result to out. It stops
// between blocks when ctx is cancelled; the partial output is kept.
func (r *Renderer) RenderFile(ctx context.Context, in, out string) (Result, error) {
	start := time.Now()

	src, format, err := Decode(in)
	if err != nil {
		return Result{}, err
	}
	inputRate := src.SampleRate

	src, err = Resample(src, r.opts.SampleRate, r.opts.Converter)
	if err != nil {
		return Result{}, err
	}
	if len(src.Data) > config.MaxChannels {
		return Result{}, fmt.Errorf("render: %d channels exceed the limit of %d", len(src.Data), config.MaxChannels)
	}

	res := Result{
		Input:      in,
		Output:     out,
		Format:     format,
		InputRate:  inputRate,
		SampleRate: src.SampleRate,
		Channels:   len(src.Data),
		Frames:     src.Frames(),
	}
	logger.Infof("Rendering '%s' (%s, %d ch @ %d Hz, %d frames) to '%s'",
		in, format, res.Channels, inputRate, res.Frames, out)

	w, err := wavfile.Create(out, src.SampleRate, res.Channels, r.opts.BitDepth, r.opts.FramesPerBuffer)
	if err != nil {
		return Result{}, err
	}

	processed, err := r.process(ctx, src, w, &res)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return res, err
	}

	res.InputRMS = dsp.ComputeBlockRMS(src.Data)
	res.OutputRMS = dsp.ComputeBlockRMS(processed)
	res.Elapsed = time.Since(start)
	logger.Infof("Rendered %v of audio in %v (%d blocks, gate opened %d / closed %d times)",
		res.Duration().Round(time.Millisecond), res.Elapsed.Round(time.Millisecond),
		res.Blocks, res.GateOpens, res.GateCloses)
	return res, nil
}

// process runs src through the effect block by block and streams the output
// to w. It returns the processed audio.
func (r *Renderer) process(ctx context.Context, src *wavfile.Audio, w *wavfile.Writer, res *Result) ([][]float32, error) {
	channels := len(src.Data)
	r.params.SetSampleRate(effect.ParamRate(float64(src.SampleRate), channels, r.opts.FramesPerBuffer))
	r.params.Settle()
	r.processor.Reset()

	frames := src.Frames()
	dst := make([][]float32, channels)
	for c := range dst {
		dst[c] = make([]float32, frames)
	}

	inBlock := make([][]float32, channels)
	outBlock := make([][]float32, channels)
	var watcher analysis.GateWatcher

	for pos := 0; pos < frames; pos += r.opts.FramesPerBuffer {
		if err := ctx.Err(); err != nil {
			return dst, fmt.Errorf("render cancelled after %d frames: %w", pos, err)
		}

		end := min(pos+r.opts.FramesPerBuffer, frames)
		for c := range channels {
			inBlock[c] = src.Data[c][pos:end]
			outBlock[c] = dst[c][pos:end]
		}

		r.processor.Process(r.params, inBlock, outBlock)
		watcher.Observe(r.processor.LastBlock().Open)

		if err := w.Write(outBlock); err != nil {
			return dst, err
		}
		res.Blocks++
	}

	res.GateOpens, res.GateCloses = watcher.Counts()
	return dst, nil
}
