// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"bass/internal/wavfile"
)

// ErrAlreadyRecording is returned by StartRecording while a recording runs.
var ErrAlreadyRecording = errors.New("already recording")

// RecordingFilename returns the file name used when no output file is
// configured, e.g. "bass-20250102-150405.wav".
func RecordingFilename(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("bass-%s.wav", now.Format("20060102-150405")))
}

// StartRecording starts writing the processed output to filename at the
// configured bit depth. An empty filename is replaced by RecordingFilename.
// It returns the path actually used.
func (e *Engine) StartRecording(filename string) (string, error) {
	if e.recorder.Load() != nil {
		return "", ErrAlreadyRecording
	}
	if filename == "" {
		filename = RecordingFilename(".", time.Now())
	}

	rec, err := wavfile.Create(filename,
		int(e.config.Audio.SampleRate),
		e.config.Audio.Channels,
		e.config.Recording.BitDepth,
		e.config.Audio.FramesPerBuffer)
	if err != nil {
		return "", err
	}

	e.recordErr.Store(0)
	if !e.recorder.CompareAndSwap(nil, rec) {
		rec.Close()
		return "", ErrAlreadyRecording
	}
	logger.Infof("Recording to %s (%d-bit)", filename, e.config.Recording.BitDepth)
	return filename, nil
}

// StopRecording finalizes the current recording. It is a no-op when not recording.
func (e *Engine) StopRecording() error {
	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	// The callback may still hold rec for one block; Close waits for it.
	if err := rec.Close(); err != nil {
		return err
	}
	logger.Infof("Recording saved to %s (%d frames, %d write errors)", rec.Path(), rec.Frames(), e.recordErr.Load())
	return nil
}

// IsRecording reports whether a recording is in progress.
func (e *Engine) IsRecording() bool {
	return e.recorder.Load() != nil
}
