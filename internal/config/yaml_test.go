// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bass/internal/effect"
	"bass/internal/param"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "bass.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate || cfg.Effect.GateScope != DefaultGateScope {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
audio:
  sample_rate: 48000
  channels: 1
effect:
  skrunkle: 4
  gate_scope: per_channel
transport:
  udp_send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Audio.SampleRate != 48000 || cfg.Audio.Channels != 1 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames_per_buffer = %d, want default %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
	if cfg.Effect.Skrunkle != 4 || cfg.Effect.Threshold != DefaultThreshold {
		t.Errorf("effect = %+v", cfg.Effect)
	}
	if cfg.Scope() != effect.ScopePerChannel {
		t.Errorf("Scope() = %v, want per_channel", cfg.Scope())
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("udp_send_interval = %v", cfg.Transport.UDPSendInterval)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "transport:\n  udp_enabled: false\n")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.2:7000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "100ms")
	t.Setenv("ENV_WS_ENABLED", "1")
	t.Setenv("ENV_WS_ADDRESS", "127.0.0.1:9999")
	t.Setenv("ENV_GATE_SCOPE", "per-channel")
	t.Setenv("ENV_DEBUG", "not-a-bool")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "10.0.0.2:7000" || tr.UDPSendInterval != 100*time.Millisecond {
		t.Errorf("udp overrides not applied: %+v", tr)
	}
	if !tr.WSEnabled || tr.WSAddress != "127.0.0.1:9999" {
		t.Errorf("ws overrides not applied: %+v", tr)
	}
	if cfg.Scope() != effect.ScopePerChannel {
		t.Errorf("gate scope override not applied: %q", cfg.Effect.GateScope)
	}
	if cfg.Debug {
		t.Error("unparseable ENV_DEBUG should be ignored")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		desc   string
		mutate func(*Config)
		errSub string
	}{
		{"Defaults", func(*Config) {}, ""},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 100 }, "sample_rate"},
		{"Zero frames", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "frames_per_buffer"},
		{"Too many channels", func(c *Config) { c.Audio.Channels = MaxChannels + 1 }, "channels"},
		{"Bad device", func(c *Config) { c.Audio.InputDevice = -2 }, "device"},
		{"FFT not power of 2", func(c *Config) { c.Audio.FFTSize = 1000 }, "fft_size"},
		{"Gain out of range", func(c *Config) { c.Effect.OutputGainDB = 31 }, "output_gain_db"},
		{"Skrunkle out of range", func(c *Config) { c.Effect.Skrunkle = -1 }, "skrunkle"},
		{"Threshold out of range", func(c *Config) { c.Effect.Threshold = 1.5 }, "threshold"},
		{"Bad smoothing", func(c *Config) { c.Effect.Smoothing = "cubic" }, "smoothing"},
		{"Bad scope", func(c *Config) { c.Effect.GateScope = "mid_side" }, "gate_scope"},
		{"Bad bit depth", func(c *Config) { c.Recording.BitDepth = 8 }, "bit_depth"},
		{"Bad format", func(c *Config) { c.Recording.Format = "flac" }, "format"},
		{"UDP missing port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "udp_target_address"},
		{"WS without address", func(c *Config) {
			c.Transport.WSEnabled = true
			c.Transport.WSAddress = ""
		}, "ws_address"},
		{"Bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errSub == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errSub)
			}
		})
	}
}

func TestParamDefaults(t *testing.T) {
	cfg := NewConfig()
	cfg.Effect.OutputGainDB = -6
	cfg.Effect.Skrunkle = 2.5
	cfg.Effect.Threshold = 0.1
	cfg.Effect.Smoothing = "linear"
	cfg.Effect.SmoothingMs = 10

	d := cfg.ParamDefaults()
	want := param.Defaults{
		OutputGainDB: -6,
		Skrunkle:     2.5,
		Threshold:    0.1,
		Style:        param.LinearSmoothing,
		SmoothingMs:  10,
	}
	if d != want {
		t.Errorf("ParamDefaults() = %+v, want %+v", d, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := ExpandPath("~")
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/bass.yaml")
	if err != nil || got != filepath.Join(home, "bass.yaml") {
		t.Errorf("ExpandPath = %q, %v", got, err)
	}
	if got, _ := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}
