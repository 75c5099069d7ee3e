package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vocap/vocap/pkg/transcribe"
)

// Defaults applied by [LoadFromReader] for unset fields.
const (
	DefaultDeviceSampleRate = 44100.0
	DefaultFramesPerBuffer  = 1024
	DefaultSilenceThreshold = 0.01
	DefaultSilenceHold      = 2 * time.Second
	DefaultMaxDuration      = 30 * time.Second
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Capture.DeviceSampleRate == 0 {
		cfg.Capture.DeviceSampleRate = DefaultDeviceSampleRate
	}
	if cfg.Capture.FramesPerBuffer == 0 {
		cfg.Capture.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if cfg.Capture.SilenceThreshold == 0 {
		cfg.Capture.SilenceThreshold = DefaultSilenceThreshold
	}
	if cfg.Capture.SilenceHold == 0 {
		cfg.Capture.SilenceHold = Duration(DefaultSilenceHold)
	}
	if cfg.Capture.MaxDuration == 0 {
		cfg.Capture.MaxDuration = Duration(DefaultMaxDuration)
	}
	if cfg.Whisper.Language == "" {
		cfg.Whisper.Language = transcribe.LanguageAuto
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Capture
	if cfg.Capture.DeviceSampleRate < 0 {
		errs = append(errs, fmt.Errorf("capture.device_sample_rate %v must be positive", cfg.Capture.DeviceSampleRate))
	}
	if cfg.Capture.FramesPerBuffer < 0 {
		errs = append(errs, fmt.Errorf("capture.frames_per_buffer %d must be positive", cfg.Capture.FramesPerBuffer))
	}
	if err := cfg.Capture.SessionConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("capture: %w", err))
	}
	if cfg.Capture.SilenceHold.Std() >= cfg.Capture.MaxDuration.Std() {
		slog.Warn("capture.silence_hold is not shorter than capture.max_duration; recordings will always end via the timeout",
			"silence_hold", cfg.Capture.SilenceHold.Std(),
			"max_duration", cfg.Capture.MaxDuration.Std(),
		)
	}

	// Whisper
	if cfg.Whisper.ModelPath == "" {
		errs = append(errs, errors.New("whisper.model_path is required"))
	}
	if lang := cfg.Whisper.Language; lang != transcribe.LanguageAuto && len(lang) != 2 {
		slog.Warn("whisper.language does not look like an ISO 639-1 code",
			"language", lang,
		)
	}
	if cfg.Whisper.Threads < 0 {
		errs = append(errs, fmt.Errorf("whisper.threads %d must not be negative", cfg.Whisper.Threads))
	}

	return errors.Join(errs...)
}
