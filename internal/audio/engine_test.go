// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bass/internal/config"
	"bass/internal/param"
	"bass/internal/testsignal"
	"bass/internal/wavfile"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	testSampleRate = 48000
	testFrameSize  = 256
)

func newTestEngine(t testing.TB, mutate ...func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Audio.SampleRate = testSampleRate
	cfg.Audio.FramesPerBuffer = testFrameSize
	cfg.Audio.FFTSize = 0
	for _, m := range mutate {
		m(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	e, err := newEngine(cfg, param.NewSet(cfg.ParamDefaults()))
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	return e
}

func stereoBlock(frames int, value float32) ([][]float32, [][]float32) {
	in := testsignal.Block(testsignal.Constant(frames, value), testsignal.Constant(frames, value))
	out := [][]float32{make([]float32, frames), make([]float32, frames)}
	return in, out
}

func TestNewEngineSizesSpectrumFromFrames(t *testing.T) {
	e := newTestEngine(t)
	if got := e.Spectrum().GetFFTSize(); got != testFrameSize {
		t.Errorf("FFT size = %d, want %d", got, testFrameSize)
	}
}

func TestNewEngineRejectsUnknownWindow(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Audio.FFTWindow = "triangle"
	if _, err := newEngine(cfg, param.NewSet(param.DefaultDefaults)); err == nil {
		t.Error("expected error for unknown window")
	}
}

func TestProcessAppliesEffect(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Effect.OutputGainDB = -6
		c.Effect.Skrunkle = 4
	})
	in, out := stereoBlock(testFrameSize, 0.5)

	e.process(in, out)

	// 0.5 * 4 clips to 1, the gate stays open, -6 dB scales the result.
	want := float64(param.DBToGain(-6))
	for ch := range out {
		for i, v := range out[ch] {
			if !scalar.EqualWithinAbs(float64(v), want, 1e-5) {
				t.Fatalf("out[%d][%d] = %v, want %v", ch, i, v, want)
			}
		}
	}

	m := e.Meter().Read()
	if m.InputRMS != 0.5 || !m.Open || m.Blocks != 1 {
		t.Errorf("meter = %+v", m)
	}
	if !scalar.EqualWithinAbs(float64(m.OutputRMS), want, 1e-5) {
		t.Errorf("OutputRMS = %v, want %v", m.OutputRMS, want)
	}
	if e.Callbacks() != 1 {
		t.Errorf("Callbacks() = %d, want 1", e.Callbacks())
	}
}

func TestProcessFollowsParamChanges(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Effect.Smoothing = "none" })
	e.Params().Threshold().Set(0.9)

	in, out := stereoBlock(testFrameSize, 0.1)
	e.process(in, out)

	if m := e.Meter().Read(); m.Open || m.Gate > 0.01 {
		t.Errorf("gate should have closed: %+v", m)
	}
}

func TestProcessGlidesWithinSmoothingTime(t *testing.T) {
	e := newTestEngine(t)
	e.Params().Skrunkle().Set(4)

	// 50 ms at 48 kHz is 9.4 blocks of 256 frames.
	const maxBlocks = 10
	in, out := stereoBlock(testFrameSize, 0.1)
	for range maxBlocks {
		e.process(in, out)
	}
	if got := e.processor.Gate(0).Mult(); got != 4 {
		t.Errorf("skrunkle after %d blocks = %v, want 4", maxBlocks, got)
	}
}

func TestBypass(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Effect.Skrunkle = 10 })
	e.SetBypass(true)
	if !e.Bypassed() {
		t.Fatal("Bypassed() = false")
	}

	in, out := stereoBlock(testFrameSize, 0.3)
	e.process(in, out)

	for ch := range out {
		for i, v := range out[ch] {
			if v != 0.3 {
				t.Fatalf("out[%d][%d] = %v, want dry 0.3", ch, i, v)
			}
		}
	}
	if m := e.Meter().Read(); m.InputRMS != 0.3 || m.OutputRMS != 0.3 {
		t.Errorf("meter = %+v", m)
	}

	e.SetBypass(false)
	e.process(in, out)
	if out[0][0] != 1 {
		t.Errorf("after bypass off out[0][0] = %v, want clipped 1", out[0][0])
	}
}

func TestProcessFeedsSpectrum(t *testing.T) {
	e := newTestEngine(t)
	sine := testsignal.Sine(testFrameSize, testSampleRate, 40*testSampleRate/testFrameSize, 0.5)
	in := testsignal.Block(sine, sine)
	out := [][]float32{make([]float32, testFrameSize), make([]float32, testFrameSize)}

	e.process(in, out)

	mags := e.Spectrum().GetMagnitudes()
	peak := 0
	for i := range mags {
		if mags[i] > mags[peak] {
			peak = i
		}
	}
	if peak != 40 {
		t.Errorf("spectrum peak at bin %d, want 40", peak)
	}
}

func TestRecording(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Recording.BitDepth = 24 })
	path := filepath.Join(t.TempDir(), "take.wav")

	got, err := e.StartRecording(path)
	if err != nil || got != path {
		t.Fatalf("StartRecording = %q, %v", got, err)
	}
	if !e.IsRecording() {
		t.Fatal("IsRecording() = false")
	}
	if _, err := e.StartRecording(path); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording = %v, want ErrAlreadyRecording", err)
	}

	in, out := stereoBlock(testFrameSize, 0.25)
	for range 4 {
		e.process(in, out)
	}

	if err := e.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if e.IsRecording() {
		t.Error("IsRecording() after stop")
	}
	if err := e.StopRecording(); err != nil {
		t.Errorf("StopRecording when idle: %v", err)
	}

	a, err := wavfile.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if a.BitDepth != 24 || len(a.Data) != 2 || a.Frames() != 4*testFrameSize {
		t.Fatalf("recorded depth=%d channels=%d frames=%d", a.BitDepth, len(a.Data), a.Frames())
	}
	if !scalar.EqualWithinAbs(float64(a.Data[1][10]), float64(out[1][10]), 1e-5) {
		t.Errorf("recorded %v, processed %v", a.Data[1][10], out[1][10])
	}
}

func TestRecordingFilename(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	if got := RecordingFilename("out", now); got != filepath.Join("out", "bass-20250102-150405.wav") {
		t.Errorf("RecordingFilename = %q", got)
	}
}

func TestCloseWithoutStream(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() = %v, want ErrNotRunning", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestProcessHotPath(t *testing.T) {
	e := newTestEngine(t)
	in := testsignal.Block(testsignal.Complex(testFrameSize, testSampleRate), testsignal.Complex(testFrameSize, testSampleRate))
	out := [][]float32{make([]float32, testFrameSize), make([]float32, testFrameSize)}

	e.process(in, out)
	allocs := testing.AllocsPerRun(100, func() {
		e.process(in, out)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in engine process hot path, got %.1f", allocs)
	}
}

func BenchmarkProcess(b *testing.B) {
	e := newTestEngine(b)
	in := testsignal.Block(testsignal.Complex(testFrameSize, testSampleRate), testsignal.Complex(testFrameSize, testSampleRate))
	out := [][]float32{make([]float32, testFrameSize), make([]float32, testFrameSize)}

	b.ReportAllocs()
	for b.Loop() {
		e.process(in, out)
	}
}
