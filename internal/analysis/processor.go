// SPDX-License-Identifier: MIT
/*
Package analysis turns processed audio into values for displays and remote
clients: block meters, a magnitude spectrum, per-band levels and gate
open/close events.

Process methods run on the audio thread and never allocate. Readers run on
the publisher goroutine and see the latest values through atomics or a
mutex-guarded workspace.
*/
package analysis

// AudioProcessor analyzes one channel-major block. Implementations are called
// from the real-time audio callback.
type AudioProcessor interface {
	Process(block [][]float32)
}

// ClosableProcessor combines AudioProcessor with a Close method for resource cleanup.
type ClosableProcessor interface {
	AudioProcessor
	Close() error
}

// FFTResultProvider gives read access to the most recent spectrum. It lets
// band analysis and transports consume FFT data without depending on the
// concrete processor.
type FFTResultProvider interface {
	GetMagnitudesInto(dest []float64) error  // Copies the latest magnitudes, len must equal Bins().
	GetFrequencyForBin(binIndex int) float64 // Center frequency (Hz) of a bin.
	GetFFTSize() int                         // Number of FFT points.
	GetSampleRate() float64                  // Sample rate of the analyzed audio.
	Bins() int                               // Number of magnitude bins (GetFFTSize()/2 + 1).
}
