// Package app wires all Vocap subsystems into a running application.
//
// The App struct owns the full pipeline: an input device feeding
// voice-activated recording sessions, a transcriber turning captured phrases
// into text, and the observability plumbing around both. Run executes the
// dictation loop and serves the metrics endpoint until the context is
// cancelled.
//
// For testing, inject mock implementations via functional options
// (WithMetrics, WithOutput, etc.). When an option is not provided, New uses
// production defaults.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vocap/vocap/internal/config"
	"github.com/vocap/vocap/internal/health"
	"github.com/vocap/vocap/internal/observe"
	"github.com/vocap/vocap/pkg/capture"
	"github.com/vocap/vocap/pkg/transcribe"
)

// App owns the capture device, the transcriber, and the dictation loop that
// connects them.
type App struct {
	cfg         *config.Config
	device      capture.InputDevice
	transcriber transcribe.Transcriber

	metrics  *observe.Metrics
	feedback capture.Feedback
	out      io.Writer
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics injects a metrics instance instead of using the package-level
// default. Tests should always provide one to avoid global meter state.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithFeedback sets the user-feedback hooks fired at recording start and stop.
func WithFeedback(fb capture.Feedback) Option {
	return func(a *App) { a.feedback = fb }
}

// WithOutput redirects transcribed text away from stdout.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// New creates an App from an already-validated config, a capture device, and
// a transcriber. Use Option functions to inject test doubles.
func New(cfg *config.Config, device capture.InputDevice, tr transcribe.Transcriber, opts ...Option) (*App, error) {
	if device == nil {
		return nil, errors.New("app: nil capture device")
	}
	if tr == nil {
		return nil, errors.New("app: nil transcriber")
	}

	a := &App{
		cfg:         cfg,
		device:      device,
		transcriber: tr,
		out:         os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a, nil
}

// RecordPhrase runs one full voice-activated capture followed by
// transcription. It blocks until the recording ends (trailing silence, the
// configured maximum duration, or ctx cancellation) and the captured audio
// has been transcribed.
//
// A capture that ends with no audio returns [capture.ErrEmptyCapture] without
// ever reaching the transcriber.
func (a *App) RecordPhrase(ctx context.Context) (transcribe.Result, error) {
	ctx, span := observe.StartSpan(ctx, "record_phrase")
	defer span.End()

	a.metrics.ActiveSessions.Add(ctx, 1)
	defer a.metrics.ActiveSessions.Add(ctx, -1)

	sess := capture.NewSession(a.device, a.cfg.Capture.SessionConfig(),
		capture.WithFeedback(a.feedback),
	)
	if err := sess.Start(); err != nil {
		return transcribe.Result{}, fmt.Errorf("app: start capture: %w", err)
	}
	started := time.Now()

	samples, err := sess.Wait(ctx)
	a.metrics.RecordStop(ctx, sess.StopCause().String(), time.Since(started).Seconds())
	if err != nil {
		return transcribe.Result{}, fmt.Errorf("app: capture: %w", err)
	}

	observe.Logger(ctx).Debug("capture finished",
		"cause", sess.StopCause().String(),
		"samples", len(samples),
	)

	sttStarted := time.Now()
	res, err := a.transcriber.Transcribe(ctx, samples, a.cfg.Whisper.Language)
	a.metrics.RecordSTT(ctx, time.Since(sttStarted).Seconds(), err)
	if err != nil {
		return transcribe.Result{}, fmt.Errorf("app: transcribe: %w", err)
	}
	return res, nil
}

// Run executes the dictation loop until ctx is cancelled: record a phrase,
// transcribe it, write the text to the configured output, repeat. When a
// metrics address is configured, Run also serves /metrics plus health
// endpoints on it.
//
// Run returns nil on a clean ctx-driven shutdown.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		g.Go(func() error { return a.serveMetrics(gctx, addr) })
	}

	g.Go(func() error { return a.loop(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loop is the dictation loop body. Phrase-level failures (no speech, empty
// capture) are logged and skipped; device and transcriber failures abort.
func (a *App) loop(ctx context.Context) error {
	for {
		res, err := a.RecordPhrase(ctx)
		switch {
		case err == nil:
			fmt.Fprintln(a.out, res.Text)
		case errors.Is(err, capture.ErrCancelled) || errors.Is(err, context.Canceled):
			return ctx.Err()
		case errors.Is(err, capture.ErrEmptyCapture) || errors.Is(err, transcribe.ErrNoSpeech):
			observe.Logger(ctx).Debug("nothing to transcribe", "err", err)
		default:
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// serveMetrics hosts the Prometheus scrape endpoint and the health probes
// until ctx is cancelled.
func (a *App) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(a.healthCheckers()...).Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app: metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

// healthCheckers builds the readiness checks for the metrics server.
func (a *App) healthCheckers() []health.Checker {
	return []health.Checker{
		{
			Name: "device",
			Check: func(context.Context) error {
				f := a.device.Format()
				if f.SampleRate <= 0 {
					return capture.ErrDeviceUnavailable
				}
				return nil
			},
		},
		{
			Name: "model",
			Check: func(context.Context) error {
				if _, err := os.Stat(a.cfg.Whisper.ModelPath); err != nil {
					return fmt.Errorf("model file: %w", err)
				}
				return nil
			},
		},
	}
}
