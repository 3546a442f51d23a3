// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the audio engine and the effect.
const (
	// Audio defaults
	DefaultChannels        = 2           // Stereo in and out
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFFTWindow       = "Hann"      // Spectrum analysis window
	DefaultFFTSize         = 1024        // Spectrum analysis size (power of 2)

	// Effect defaults
	DefaultOutputGainDB = 0.0      // Unity output
	DefaultSkrunkle     = 1.0      // No extra drive
	DefaultThreshold    = 0.0      // Gate open for any signal
	DefaultSmoothing    = "log"    // Logarithmic parameter smoothing
	DefaultSmoothingMs  = 50.0     // Parameter glide time
	DefaultGateScope    = "shared" // One gate across all channels

	// Recording defaults
	DefaultRecordInputStream = false // Don't record by default
	DefaultFormat            = "wav" // WAV file format for recordings
	DefaultBitDepth          = 16    // 16-bit PCM
	DefaultOutputFile        = ""    // Auto-generated filename

	// Transport defaults
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultWSAddress        = ":8080"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxChannels     = 32     // Maximum channels processed per block
)

// Config represents the main application configuration, loaded from YAML and
// overridden by environment variables and command line flags.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command   string          `yaml:"command,omitempty"` // One-off command instead of running the engine.
	TUIMode   bool            `yaml:"tui"`               // Show the terminal monitor while running.
	Audio     AudioConfig     `yaml:"audio"`             // Device and stream settings.
	Effect    EffectConfig    `yaml:"effect"`            // Clip/gate parameter defaults.
	Recording RecordingConfig `yaml:"recording"`         // Recording of the processed stream.
	Transport TransportConfig `yaml:"transport"`         // Meter publishing and remote control.
}

// AudioConfig holds settings related to audio input/output.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for input (-1 for default).
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index for output (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per processing callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	Channels        int     `yaml:"channels"`          // Channels processed (same count in and out).
	FFTWindow       string  `yaml:"fft_window"`        // Window function for spectrum metering.
	FFTSize         int     `yaml:"fft_size"`          // Spectrum size, power of 2 (0 sizes from frames_per_buffer).
}

// EffectConfig holds the starting parameter values and processing options.
type EffectConfig struct {
	OutputGainDB float64 `yaml:"output_gain_db"` // Output gain in dB (-30..30).
	Skrunkle     float64 `yaml:"skrunkle"`       // Distortion drive multiplier (0..10).
	Threshold    float64 `yaml:"threshold"`      // Gate RMS threshold (0..1).
	Smoothing    string  `yaml:"smoothing"`      // Parameter smoothing style ("none", "linear", "log").
	SmoothingMs  float64 `yaml:"smoothing_ms"`   // Parameter glide time in milliseconds.
	GateScope    string  `yaml:"gate_scope"`     // "shared" or "per_channel".
}

// RecordingConfig holds settings for recording the processed output.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record the processed stream to file.
	OutputFile string `yaml:"output_file"` // Output path; generated when empty.
	Format     string `yaml:"format"`      // File format ("wav").
	BitDepth   int    `yaml:"bit_depth"`   // 16, 24 or 32.
}

// TransportConfig holds settings for sending meters and receiving
// parameter changes over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send meter packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target "host:port" for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between meter packets.
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve meters and control over WebSocket.
	WSAddress        string        `yaml:"ws_address"`         // Listen address for the WebSocket server.
}

// NewConfig returns a Config populated with built-in defaults. It is the
// base that config files, environment variables and flags are applied to.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Channels:        DefaultChannels,
			FFTWindow:       DefaultFFTWindow,
			FFTSize:         DefaultFFTSize,
		},
		Effect: EffectConfig{
			OutputGainDB: DefaultOutputGainDB,
			Skrunkle:     DefaultSkrunkle,
			Threshold:    DefaultThreshold,
			Smoothing:    DefaultSmoothing,
			SmoothingMs:  DefaultSmoothingMs,
			GateScope:    DefaultGateScope,
		},
		Recording: RecordingConfig{
			Enabled:    DefaultRecordInputStream,
			OutputFile: DefaultOutputFile,
			Format:     DefaultFormat,
			BitDepth:   DefaultBitDepth,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WSAddress:        DefaultWSAddress,
		},
	}
}
