// Package config provides the configuration schema and loader for the vocap
// recording engine.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vocap/vocap/pkg/capture"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps time.Duration with YAML decoding from strings like "2s" or
// "150ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure for vocap.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Capture  CaptureConfig  `yaml:"capture"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	Feedback FeedbackConfig `yaml:"feedback"`
}

// ServerConfig holds logging and telemetry settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// CaptureConfig holds the recording-engine parameters.
type CaptureConfig struct {
	// DeviceSampleRate is the native microphone capture rate in Hz.
	// Capture is resampled to the fixed 16 kHz engine output regardless.
	DeviceSampleRate float64 `yaml:"device_sample_rate"`

	// FramesPerBuffer is the number of samples per delivered frame.
	FramesPerBuffer int `yaml:"frames_per_buffer"`

	// SilenceThreshold is the loudness floor in [0, 1] below which a frame
	// counts as silence.
	SilenceThreshold float64 `yaml:"silence_threshold"`

	// SilenceHold is the continuous silence required before a recording
	// stops on its own.
	SilenceHold Duration `yaml:"silence_hold"`

	// MaxDuration is the hard recording ceiling.
	MaxDuration Duration `yaml:"max_duration"`
}

// SessionConfig converts the capture section into the engine's per-session
// parameters.
func (c CaptureConfig) SessionConfig() capture.Config {
	return capture.Config{
		SilenceThreshold: c.SilenceThreshold,
		SilenceHold:      c.SilenceHold.Std(),
		MaxDuration:      c.MaxDuration.Std(),
	}
}

// WhisperConfig holds the local whisper.cpp transcription settings.
type WhisperConfig struct {
	// ModelPath is the path to a ggml whisper model file.
	ModelPath string `yaml:"model_path"`

	// Language is an ISO 639-1 code, or "auto" to detect per phrase.
	Language string `yaml:"language"`

	// Threads is the CPU thread count per inference. Zero lets whisper.cpp
	// pick.
	Threads int `yaml:"threads"`
}

// FeedbackConfig controls the built-in session boundary side effects.
type FeedbackConfig struct {
	// TerminalBell rings the terminal bell when recording starts and stops.
	TerminalBell bool `yaml:"terminal_bell"`
}
