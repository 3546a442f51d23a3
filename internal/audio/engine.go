// SPDX-License-Identifier: MIT
/*
Package audio runs the effect on live audio through a PortAudio duplex stream:
- Non-interleaved float32 callback, processed in place by effect.Processor
- Parameters read from a param.Set written by the control plane
- Meter and spectrum updates for the transports and the TUI
- WAV recording of the processed output with atomic state management

Thread Safety:
- The callback locks its OS thread and only touches preallocated state
- Bypass and recording state are atomics
- Parameter targets cross threads inside param.Set
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"bass/internal/analysis"
	"bass/internal/config"
	"bass/internal/dsp"
	"bass/internal/effect"
	applog "bass/internal/log"
	"bass/internal/param"
	"bass/internal/wavfile"

	"github.com/gordonklaus/portaudio"
)

var logger = applog.Component("Engine")

// ErrNotRunning is returned when stopping an engine that was never started.
var ErrNotRunning = errors.New("engine not running")

type Engine struct {
	config *config.Config

	// Devices and stream.
	inputDevice   *portaudio.DeviceInfo
	outputDevice  *portaudio.DeviceInfo
	inputLatency  time.Duration
	outputLatency time.Duration
	stream        *portaudio.Stream

	// Effect.
	params    *param.Set
	processor *effect.Processor
	bypass    atomic.Bool

	// Analysis, read by the publisher and TUI.
	meter    *analysis.Meter
	spectrum *analysis.SpectrumProcessor

	// Recording state.
	recorder  atomic.Pointer[wavfile.Writer]
	recordErr atomic.Uint64 // Failed block writes since recording started

	callbacks atomic.Uint64
}

// NewEngine resolves the configured devices and builds the processing chain.
// PortAudio must be initialized. params is shared with the control plane.
func NewEngine(cfg *config.Config, params *param.Set) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	outputDevice, err := OutputDevice(cfg.Audio.OutputDevice)
	if err != nil {
		return nil, err
	}
	if ch := cfg.Audio.Channels; ch > inputDevice.MaxInputChannels || ch > outputDevice.MaxOutputChannels {
		return nil, fmt.Errorf("%d channels requested, devices offer %d in / %d out",
			ch, inputDevice.MaxInputChannels, outputDevice.MaxOutputChannels)
	}

	e, err := newEngine(cfg, params)
	if err != nil {
		return nil, err
	}
	e.inputDevice = inputDevice
	e.outputDevice = outputDevice

	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
		e.outputLatency = outputDevice.DefaultLowOutputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
		e.outputLatency = outputDevice.DefaultHighOutputLatency
	}

	logger.Infof("In '%s' (%v), out '%s' (%v), %d ch @ %.0f Hz, %d frames, gate scope %s",
		inputDevice.Name, e.inputLatency, outputDevice.Name, e.outputLatency,
		cfg.Audio.Channels, cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer, e.processor.Scope())
	return e, nil
}

// newEngine builds everything except the devices.
func newEngine(cfg *config.Config, params *param.Set) (*Engine, error) {
	windowType, err := analysis.ParseWindowFunc(cfg.Audio.FFTWindow)
	if err != nil {
		return nil, err
	}
	fftSize := analysis.SpectrumSize(cfg.Audio.FFTSize, cfg.Audio.FramesPerBuffer)
	spectrum, err := analysis.NewSpectrumProcessor(fftSize, cfg.Audio.SampleRate, windowType)
	if err != nil {
		return nil, err
	}

	params.SetSampleRate(effect.ParamRate(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.FramesPerBuffer))
	params.Settle()

	return &Engine{
		config:    cfg,
		params:    params,
		processor: effect.NewProcessor(cfg.Scope(), cfg.Audio.Channels),
		meter:     analysis.NewMeter(),
		spectrum:  spectrum,
	}, nil
}

// Start opens and starts the duplex stream. The callback starts running
// before Start returns.
func (e *Engine) Start() error {
	if e.stream != nil {
		return errors.New("engine already running")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   e.inputDevice,
			Channels: e.config.Audio.Channels,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Device:   e.outputDevice,
			Channels: e.config.Audio.Channels,
			Latency:  e.outputLatency,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processStream)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start stream: %w", err)
	}
	e.stream = stream

	if info := stream.Info(); info != nil {
		logger.Infof("Stream started (latency in %v, out %v)", info.InputLatency, info.OutputLatency)
	}
	return nil
}

// Stop stops and closes the stream.
func (e *Engine) Stop() error {
	if e.stream == nil {
		return ErrNotRunning
	}
	stream := e.stream
	e.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	logger.Infof("Stream stopped after %d callbacks", e.callbacks.Load())
	return nil
}

// Close stops recording and the stream, then releases the analysis.
func (e *Engine) Close() error {
	var errs []error
	if err := e.StopRecording(); err != nil {
		errs = append(errs, err)
	}
	if err := e.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		errs = append(errs, err)
	}
	var closer analysis.ClosableProcessor = e.spectrum
	if err := closer.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// processStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (e *Engine) processStream(in, out [][]float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.process(in, out)
}

// process runs one block through the effect, the analysis and the recorder.
func (e *Engine) process(in, out [][]float32) {
	e.callbacks.Add(1)

	if e.bypass.Load() {
		for ch := range out {
			if ch < len(in) {
				copy(out[ch], in[ch])
			} else {
				clear(out[ch])
			}
		}
		rms := dsp.ComputeBlockRMS(in)
		e.meter.Update(effect.BlockStats{InputRMS: rms, OutputRMS: rms, GateMult: 1, Open: true})
	} else {
		e.processor.Process(e.params, in, out)
		e.meter.Update(e.processor.LastBlock())
	}

	e.spectrum.Process(out)

	if rec := e.recorder.Load(); rec != nil {
		if err := rec.Write(out); err != nil && !errors.Is(err, wavfile.ErrClosed) && e.recordErr.Add(1) == 1 {
			logger.Errorf("Error writing to WAV file: %v", err)
		}
	}
}

// Params returns the live parameter set.
func (e *Engine) Params() *param.Set { return e.params }

// Meter returns the block meter.
func (e *Engine) Meter() *analysis.Meter { return e.meter }

// Spectrum returns the spectrum of the processed output.
func (e *Engine) Spectrum() *analysis.SpectrumProcessor { return e.spectrum }

// Callbacks returns the number of processed blocks.
func (e *Engine) Callbacks() uint64 { return e.callbacks.Load() }
