// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bass/internal/effect"
	applog "bass/internal/log"
	"bass/internal/param"
	"bass/pkg/bitint"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// SearchPaths are the locations tried, in order, when no config path is given.
var SearchPaths = []string{
	"bass.yaml",
	"~/.config/bass/bass.yaml",
}

// LoadConfig loads configuration from the YAML file at path. If path is empty,
// SearchPaths are tried and built-in defaults are used when none exist. After
// loading, environment variable overrides are applied and the result is
// validated. A leading "~" in path is expanded to the user's home directory.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = findConfigFile()
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path '%s': %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applog.Debugf("Config: Loaded %s", expanded)

	// Environment overrides apply AFTER the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing entry of SearchPaths, or "".
func findConfigFile() string {
	for _, candidate := range SearchPaths {
		expanded, err := homedir.Expand(candidate)
		if err != nil {
			continue
		}
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}
	return ""
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// Validate checks the configuration against the engine limits.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level '%s' is not a known level", c.LogLevel)
	}

	// Audio
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside [1, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.Channels <= 0 || c.Audio.Channels > MaxChannels {
		return fmt.Errorf("audio.channels %d outside [1, %d]", c.Audio.Channels, MaxChannels)
	}
	if c.Audio.InputDevice < MinDeviceID || c.Audio.OutputDevice < MinDeviceID {
		return fmt.Errorf("audio device IDs must be >= %d", MinDeviceID)
	}
	if n := c.Audio.FFTSize; n != 0 && !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("audio.fft_size must be a power of 2 (or 0 for auto), got %d", n)
	}

	// Effect
	if c.Effect.OutputGainDB < -30 || c.Effect.OutputGainDB > 30 {
		return fmt.Errorf("effect.output_gain_db %.2f outside [-30, 30]", c.Effect.OutputGainDB)
	}
	if c.Effect.Skrunkle < 0 || c.Effect.Skrunkle > 10 {
		return fmt.Errorf("effect.skrunkle %.2f outside [0, 10]", c.Effect.Skrunkle)
	}
	if c.Effect.Threshold < 0 || c.Effect.Threshold > 1 {
		return fmt.Errorf("effect.threshold %.3f outside [0, 1]", c.Effect.Threshold)
	}
	if c.Effect.SmoothingMs < 0 {
		return fmt.Errorf("effect.smoothing_ms must not be negative")
	}
	if _, err := param.ParseSmoothingStyle(c.Effect.Smoothing); err != nil {
		return fmt.Errorf("effect.smoothing: %w", err)
	}
	if _, err := effect.ParseGateScope(c.Effect.GateScope); err != nil {
		return fmt.Errorf("effect.gate_scope: %w", err)
	}

	// Recording
	if !strings.EqualFold(c.Recording.Format, "wav") {
		return fmt.Errorf("recording.format '%s' is not supported", c.Recording.Format)
	}
	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth)
	}

	// Transport
	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled && c.Transport.WSAddress == "" {
		return fmt.Errorf("transport.ws_address must be set when WebSocket is enabled")
	}

	return nil
}

// ParamDefaults converts the effect section into parameter set defaults.
// Call it on a validated Config.
func (c *Config) ParamDefaults() param.Defaults {
	style, _ := param.ParseSmoothingStyle(c.Effect.Smoothing)
	return param.Defaults{
		OutputGainDB: float32(c.Effect.OutputGainDB),
		Skrunkle:     float32(c.Effect.Skrunkle),
		Threshold:    float32(c.Effect.Threshold),
		Style:        style,
		SmoothingMs:  c.Effect.SmoothingMs,
	}
}

// Scope returns the parsed gate scope. Call it on a validated Config.
func (c *Config) Scope() effect.GateScope {
	scope, _ := effect.ParseGateScope(c.Effect.GateScope)
	return scope
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Infof("Config: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Infof("Config: Overriding log_level from env: %s", val)
	}
	// ENV_GATE_SCOPE
	if val, ok := os.LookupEnv("ENV_GATE_SCOPE"); ok {
		c.Effect.GateScope = val
		applog.Infof("Config: Overriding effect.gate_scope from env: %s", val)
	}

	// ENV_UDP_{...}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Infof("Config: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Infof("Config: Overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Infof("Config: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}

	// ENV_WS_{...}
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = bVal
			applog.Infof("Config: Overriding transport.ws_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WSAddress = val
		applog.Infof("Config: Overriding transport.ws_address from env: %s", val)
	}
}
