// Command vocap is a voice-activated dictation tool: it listens on the
// default microphone, records until you stop talking, transcribes the phrase
// with a local whisper model, and prints the text to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vocap/vocap/internal/app"
	"github.com/vocap/vocap/internal/config"
	"github.com/vocap/vocap/internal/observe"
	"github.com/vocap/vocap/pkg/capture"
	"github.com/vocap/vocap/pkg/capture/portaudio"
	"github.com/vocap/vocap/pkg/transcribe/whisper"
)

// version is set via -ldflags at release build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Environment ───────────────────────────────────────────────────────────
	// Optional .env next to the binary; real environment wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "vocap: load .env: %v\n", err)
		return 1
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vocap: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vocap: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vocap starting",
		"version", version,
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "vocap",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Capture device ────────────────────────────────────────────────────────
	device, err := portaudio.New(cfg.Capture.DeviceSampleRate, cfg.Capture.FramesPerBuffer)
	if err != nil {
		slog.Error("failed to open input device", "err", err)
		return 1
	}
	defer func() {
		if err := device.Close(); err != nil {
			slog.Warn("device close error", "err", err)
		}
	}()

	// ── Transcriber ───────────────────────────────────────────────────────────
	var whisperOpts []whisper.Option
	if cfg.Whisper.Language != "" {
		whisperOpts = append(whisperOpts, whisper.WithLanguage(cfg.Whisper.Language))
	}
	if cfg.Whisper.Threads > 0 {
		whisperOpts = append(whisperOpts, whisper.WithThreads(cfg.Whisper.Threads))
	}
	transcriber, err := whisper.New(cfg.Whisper.ModelPath, whisperOpts...)
	if err != nil {
		slog.Error("failed to load whisper model", "path", cfg.Whisper.ModelPath, "err", err)
		return 1
	}
	defer func() {
		if err := transcriber.Close(); err != nil {
			slog.Warn("whisper close error", "err", err)
		}
	}()

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(cfg, device, transcriber,
		app.WithFeedback(newFeedback(cfg.Feedback)),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	printStartupSummary(cfg)
	slog.Info("listening — press Ctrl+C to quit")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// newFeedback builds the user-feedback hooks from config. The terminal bell is
// written to stderr so it never mixes with transcribed text on stdout.
func newFeedback(cfg config.FeedbackConfig) capture.Feedback {
	if !cfg.TerminalBell {
		return capture.Feedback{}
	}
	bell := func() { fmt.Fprint(os.Stderr, "\a") }
	return capture.Feedback{OnStart: bell, OnStop: bell}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Fprintln(os.Stderr, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(os.Stderr, "║          Vocap — startup summary      ║")
	fmt.Fprintln(os.Stderr, "╠═══════════════════════════════════════╣")
	printRow("Model", cfg.Whisper.ModelPath)
	printRow("Language", cfg.Whisper.Language)
	printRow("Device rate", fmt.Sprintf("%.0f Hz", cfg.Capture.DeviceSampleRate))
	printRow("Silence hold", cfg.Capture.SilenceHold.Std().String())
	printRow("Max duration", cfg.Capture.MaxDuration.Std().String())
	if cfg.Server.MetricsAddr != "" {
		printRow("Metrics", cfg.Server.MetricsAddr)
	} else {
		printRow("Metrics", "(disabled)")
	}
	fmt.Fprintln(os.Stderr, "╚═══════════════════════════════════════╝")
}

func printRow(key, value string) {
	if value == "" {
		value = "(not set)"
	}
	if len([]rune(value)) > 19 {
		r := []rune(value)
		value = string(r[:16]) + "…"
	}
	fmt.Fprintf(os.Stderr, "║  %-15s : %-19s ║\n", key, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
