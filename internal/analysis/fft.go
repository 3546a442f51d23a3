// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	applog "bass/internal/log"
	"bass/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied before the FFT.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// String returns the config name of the window.
func (w WindowFunc) String() string {
	switch w {
	case BartlettHann:
		return "BartlettHann"
	case Blackman:
		return "Blackman"
	case BlackmanNuttall:
		return "BlackmanNuttall"
	case Hann:
		return "Hann"
	case Hamming:
		return "Hamming"
	case Lanczos:
		return "Lanczos"
	case Nuttall:
		return "Nuttall"
	default:
		return "unknown"
	}
}

// Pre-allocated buffers for FFT calculations.
type fftWorkspace struct {
	history   []float64    // Ring of the last fftSize mono samples.
	pos       int          // Next write position in history.
	input     []float64    // Windowed, time-ordered copy of history.
	fftOutput []complex128 // FFT complex results.
	magnitude []float64    // Latest magnitudes, guarded by mu.
	window    []float64    // Pre-calculated window coefficients.
	mu        sync.RWMutex
}

// SpectrumProcessor computes the magnitude spectrum of the processed signal.
// Channels are mixed down to mono, and every block is pushed into a sliding
// window of fftSize samples, so block sizes smaller than the FFT still give a
// full-resolution spectrum.
type SpectrumProcessor struct {
	fftCalculator *fourier.FFT
	fftSize       int
	sampleRate    float64
	windowType    WindowFunc
	skipped       uint64 // Blocks dropped because a reader held the lock.
	workspace     fftWorkspace
}

var _ AudioProcessor = (*SpectrumProcessor)(nil)
var _ FFTResultProvider = (*SpectrumProcessor)(nil)
var _ ClosableProcessor = (*SpectrumProcessor)(nil)

// SpectrumSize resolves a configured FFT size. Zero sizes the FFT from the
// callback length, rounded up to a power of 2.
func SpectrumSize(configured, framesPerBuffer int) int {
	if configured > 0 {
		return configured
	}
	return bitint.NextPowerOfTwo(framesPerBuffer)
}

// NewSpectrumProcessor allocates all buffers for an FFT of fftSize points.
// fftSize must be a power of 2 and at least 2.
func NewSpectrumProcessor(fftSize int, sampleRate float64, windowType WindowFunc) (*SpectrumProcessor, error) {
	if !bitint.IsPowerOfTwo(fftSize) || fftSize < 2 {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)

	// FFT output size for real input is N/2 + 1 complex values.
	magnitudeSize := fftSize/2 + 1

	applog.Infof("Analysis: Initializing SpectrumProcessor (Size: %d, SampleRate: %.1f Hz, Window: %v)", fftSize, sampleRate, windowType)

	return &SpectrumProcessor{
		fftCalculator: fourier.NewFFT(fftSize),
		fftSize:       fftSize,
		sampleRate:    sampleRate,
		windowType:    windowType,
		workspace: fftWorkspace{
			history:   make([]float64, fftSize),
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, magnitudeSize),
			magnitude: make([]float64, magnitudeSize),
			window:    windowCoeffs,
		},
	}, nil
}

// Process mixes the block down to mono, appends it to the sliding window and
// recomputes the spectrum. If a reader currently holds the magnitudes the
// FFT is skipped for this block; the samples are still recorded.
func (p *SpectrumProcessor) Process(block [][]float32) {
	ws := &p.workspace
	channels := 0
	frames := 0
	for _, ch := range block {
		if len(ch) > 0 {
			channels++
			frames = max(frames, len(ch))
		}
	}
	if channels == 0 {
		return
	}

	// --- 1. Mix down into the history ring ---
	scale := 1 / float64(channels)
	for i := range frames {
		var sum float64
		for _, ch := range block {
			if i < len(ch) {
				sum += float64(ch[i])
			}
		}
		ws.history[ws.pos] = sum * scale
		ws.pos++
		if ws.pos == p.fftSize {
			ws.pos = 0
		}
	}

	if !ws.mu.TryLock() {
		p.skipped++
		return
	}
	defer ws.mu.Unlock()

	// --- 2. Unroll and window, oldest sample first ---
	n := copy(ws.input, ws.history[ws.pos:])
	copy(ws.input[n:], ws.history[:ws.pos])
	for i := range ws.input {
		ws.input[i] *= ws.window[i]
	}

	// --- 3. FFT and magnitudes ---
	p.fftCalculator.Coefficients(ws.fftOutput, ws.input)
	for i, c := range ws.fftOutput {
		ws.magnitude[i] = cmplx.Abs(c)
	}
}

// GetMagnitudes returns a copy of the latest magnitudes. It allocates; use
// GetMagnitudesInto on hot paths.
func (p *SpectrumProcessor) GetMagnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	magCopy := make([]float64, len(p.workspace.magnitude))
	copy(magCopy, p.workspace.magnitude)
	return magCopy
}

// GetMagnitudesInto copies the latest magnitudes into dest, which must have
// exactly Bins() elements.
func (p *SpectrumProcessor) GetMagnitudesInto(dest []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dest) != len(p.workspace.magnitude) {
		return fmt.Errorf("destination slice length %d does not match required length %d", len(dest), len(p.workspace.magnitude))
	}
	copy(dest, p.workspace.magnitude)
	return nil
}

// GetFrequencyForBin returns the center frequency (Hz) of binIndex, or 0 when
// the index is out of range.
func (p *SpectrumProcessor) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(p.workspace.fftOutput) {
		return 0.0
	}
	return float64(binIndex) * (p.sampleRate / float64(p.fftSize))
}

func (p *SpectrumProcessor) GetFFTSize() int        { return p.fftSize }
func (p *SpectrumProcessor) GetSampleRate() float64 { return p.sampleRate }
func (p *SpectrumProcessor) Bins() int              { return len(p.workspace.magnitude) }

// Skipped returns how many blocks were not transformed because of reader
// contention. Audio thread only.
func (p *SpectrumProcessor) Skipped() uint64 { return p.skipped }

// Close releases nothing; it exists so the engine can treat every processor alike.
func (p *SpectrumProcessor) Close() error {
	applog.Debugf("Analysis: Closing SpectrumProcessor")
	return nil
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the window's coefficients. Unknown types get Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// The gonum window functions scale their input in place.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("Analysis: Unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
