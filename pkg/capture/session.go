package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vocap/vocap/pkg/audio"
)

// Config holds the parameters governing one recording attempt. It is
// immutable for the duration of a session.
type Config struct {
	// SilenceThreshold is the loudness floor in [0, 1]. Levels strictly
	// below it count as silence; a level exactly at the threshold is speech.
	SilenceThreshold float64

	// SilenceHold is the continuous silence required before the session
	// stops on its own.
	SilenceHold time.Duration

	// MaxDuration is the hard recording ceiling. Once it elapses the
	// session stops unconditionally, whatever the current audio level.
	MaxDuration time.Duration
}

// Validate reports all problems with c as a joined error.
func (c Config) Validate() error {
	var errs []error
	if c.SilenceThreshold < 0 || c.SilenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("silence threshold %.3f is out of range [0, 1]", c.SilenceThreshold))
	}
	if c.SilenceHold <= 0 {
		errs = append(errs, fmt.Errorf("silence hold %v must be positive", c.SilenceHold))
	}
	if c.MaxDuration <= 0 {
		errs = append(errs, fmt.Errorf("max duration %v must be positive", c.MaxDuration))
	}
	return errors.Join(errs...)
}

// Cause identifies which trigger terminated a session. It is observable for
// logging and telemetry; the Wait result does not distinguish silence from
// timeout.
type Cause int

const (
	// CauseNone means the session has not terminated.
	CauseNone Cause = iota

	// CauseSilence is a stop triggered by the silence detector.
	CauseSilence

	// CauseTimeout is a stop triggered by the max-duration watchdog.
	CauseTimeout

	// CauseCancel is a stop triggered by Cancel or context cancellation.
	CauseCancel
)

// String returns the telemetry label for the cause.
func (c Cause) String() string {
	switch c {
	case CauseSilence:
		return "silence"
	case CauseTimeout:
		return "timeout"
	case CauseCancel:
		return "cancel"
	default:
		return "none"
	}
}

// Session states. A session moves Idle → Starting → Active → Stopping →
// Terminated; the terminal state is reached exactly once and the only
// cross-goroutine transition, Active → Stopping, is an atomic claim.
const (
	stateIdle int32 = iota
	stateStarting
	stateActive
	stateStopping
	stateTerminated
)

// Session is one cancellable, timeout-bounded "record a phrase" operation.
// It owns the capture lifecycle: it wires the device callback to the level
// meter and silence detector, races the three completion triggers (silence,
// timeout, cancel), and resolves exactly one outcome through [Session.Wait].
//
// A Session is single-use. Start may be called once; after termination a new
// session must be constructed to record again. Wait and Cancel are safe to
// call from any goroutine.
type Session struct {
	dev      InputDevice
	cfg      Config
	feedback Feedback
	onLevel  func(float64)

	format  audio.Format
	buf     *audio.Buffer
	det     *SilenceDetector
	started time.Time

	state atomic.Int32

	// cause is written exactly once, by the trigger that wins the claim,
	// before claimed is closed.
	cause   Cause
	claimed chan struct{}
	done    chan struct{}

	// outcome, published before done is closed.
	samples []float32
	err     error
}

// Option configures a Session.
type Option func(*Session)

// WithFeedback installs the caller's start/stop side-effect hooks.
func WithFeedback(f Feedback) Option {
	return func(s *Session) { s.feedback = f }
}

// WithLevelFunc installs a per-frame loudness callback, e.g. to drive a
// level meter. It runs on the device delivery goroutine and must not block.
func WithLevelFunc(fn func(float64)) Option {
	return func(s *Session) { s.onLevel = fn }
}

// NewSession creates a session over dev. The device must not be shared with
// another active session.
func NewSession(dev InputDevice, cfg Config, opts ...Option) *Session {
	s := &Session{
		dev:     dev,
		cfg:     cfg,
		claimed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start validates the device format, installs the frame callback, and arms
// the max-duration watchdog. On any failure the session remains Idle, no
// callback is installed, and the returned error wraps [ErrDeviceUnavailable]
// (or reports the config problem). Start does not block on capture; use
// [Session.Wait] to obtain the outcome.
func (s *Session) Start() error {
	if err := s.cfg.Validate(); err != nil {
		return fmt.Errorf("capture: invalid config: %w", err)
	}
	if !s.state.CompareAndSwap(stateIdle, stateStarting) {
		return errors.New("capture: session already started")
	}

	f := s.dev.Format()
	if f.SampleRate <= 0 {
		s.state.Store(stateIdle)
		return fmt.Errorf("%w: invalid sample rate %v Hz", ErrDeviceUnavailable, f.SampleRate)
	}
	if f.Channels > 1 {
		s.state.Store(stateIdle)
		return fmt.Errorf("%w: %d channels, engine requires mono input", ErrDeviceUnavailable, f.Channels)
	}

	s.format = f
	s.buf = audio.NewBuffer(f.SampleRate)
	s.det = NewSilenceDetector(s.cfg.SilenceThreshold, s.cfg.SilenceHold)
	s.started = time.Now()

	if err := s.dev.Start(s.onFrame); err != nil {
		s.state.Store(stateIdle)
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s.state.Store(stateActive)
	s.feedback.start()

	// The watchdog is armed only after the session is claimable, so a fire
	// can never be lost between AfterFunc and the Active transition.
	timer := time.AfterFunc(s.cfg.MaxDuration, func() { s.claim(CauseTimeout) })
	go s.finish(timer)

	slog.Debug("capture session started",
		"sample_rate", f.SampleRate,
		"silence_threshold", s.cfg.SilenceThreshold,
		"silence_hold", s.cfg.SilenceHold,
		"max_duration", s.cfg.MaxDuration,
	)
	return nil
}

// onFrame is the device callback: append, meter, update the silence
// detector. It runs on the device delivery goroutine.
func (s *Session) onFrame(f audio.Frame) {
	st := s.state.Load()
	if st != stateStarting && st != stateActive {
		return
	}

	s.buf.Append(f.Samples)

	level := audio.Level(f.Samples)
	if s.onLevel != nil {
		s.onLevel(level)
	}
	if s.det.Observe(level, time.Now()) {
		s.claim(CauseSilence)
	}
}

// claim attempts the one-shot Active → Stopping transition on behalf of
// cause. Only the first trigger to observe Active wins; everyone else is a
// no-op. The winner records the cause and wakes the finisher.
func (s *Session) claim(cause Cause) bool {
	if !s.state.CompareAndSwap(stateActive, stateStopping) {
		return false
	}
	s.cause = cause
	close(s.claimed)
	return true
}

// finish is the single-owner stop path. It waits for a trigger to win the
// claim, then performs the stop side effects exactly once: disarm the
// watchdog, stop the device (synchronously uninstalling the callback),
// snapshot, resample, publish the outcome.
func (s *Session) finish(timer *time.Timer) {
	<-s.claimed
	timer.Stop()

	if err := s.dev.Stop(); err != nil {
		slog.Warn("input device stop failed", "err", err)
	}

	// The device is stopped: no append can race the snapshot below.
	switch s.cause {
	case CauseCancel:
		s.buf.Clear()
		s.err = ErrCancelled
	default:
		raw := s.buf.Snapshot()
		s.buf.Clear()
		if len(raw) == 0 {
			s.err = ErrEmptyCapture
		} else {
			s.samples = audio.Resample(raw, s.format.SampleRate, TargetSampleRate)
		}
		s.feedback.stop()
	}

	slog.Debug("capture session terminated",
		"cause", s.cause,
		"elapsed", time.Since(s.started),
		"samples", len(s.samples),
	)

	s.state.Store(stateTerminated)
	close(s.done)
}

// Wait suspends the caller until exactly one of the three triggers resolves
// the session, and returns the outcome: the captured samples resampled to
// [TargetSampleRate], or [ErrCancelled], [ErrEmptyCapture], or — when Start
// never succeeded — [ErrDeviceUnavailable].
//
// Cancelling ctx cancels the session; if another trigger has already claimed
// the stop by then, that trigger's outcome is returned instead.
func (s *Session) Wait(ctx context.Context) ([]float32, error) {
	if s.state.Load() == stateIdle {
		return nil, fmt.Errorf("%w: session was never started", ErrDeviceUnavailable)
	}

	select {
	case <-ctx.Done():
		s.claim(CauseCancel)
		<-s.done
	case <-s.done:
	}
	return s.samples, s.err
}

// Cancel requests deliberate termination. It is idempotent: if the session
// is Active it claims the stop and the pending Wait resolves with
// [ErrCancelled]; if the session is Idle, already stopping, or terminated it
// does nothing.
func (s *Session) Cancel() {
	s.claim(CauseCancel)
}

// StopCause reports which trigger terminated the session, or [CauseNone]
// while the session has not yet terminated.
func (s *Session) StopCause() Cause {
	if s.state.Load() != stateTerminated {
		return CauseNone
	}
	return s.cause
}
