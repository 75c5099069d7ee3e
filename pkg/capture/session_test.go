package capture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vocap/vocap/pkg/audio"
	"github.com/vocap/vocap/pkg/capture"
	"github.com/vocap/vocap/pkg/capture/mock"
)

// constFrame returns n samples at a constant amplitude. An amplitude of 0.2
// meters to a level of 1.0 (after gain and clamp); zero meters to 0.
func constFrame(amplitude float32, n int) []float32 {
	f := make([]float32, n)
	for i := range f {
		f[i] = amplitude
	}
	return f
}

// repeat returns count copies of frame.
func repeat(frame []float32, count int) [][]float32 {
	out := make([][]float32, count)
	for i := range out {
		out[i] = frame
	}
	return out
}

func testConfig() capture.Config {
	return capture.Config{
		SilenceThreshold: 0.01,
		SilenceHold:      40 * time.Millisecond,
		MaxDuration:      5 * time.Second,
	}
}

func TestSession_SilenceStop(t *testing.T) {
	loud := constFrame(0.2, 320)
	quiet := constFrame(0, 320)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 32000, Channels: 1},
		Frames:   append(repeat(loud, 3), repeat(quiet, 500)...),
		Interval: 2 * time.Millisecond,
	}

	sess := capture.NewSession(dev, testConfig())
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	samples, err := sess.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("expected captured samples, got none")
	}
	if got := sess.StopCause(); got != capture.CauseSilence {
		t.Errorf("StopCause = %v, want silence", got)
	}
	if dev.CallCountStop == 0 {
		t.Error("device was never stopped")
	}
}

func TestSession_TimeoutStop(t *testing.T) {
	loud := constFrame(0.2, 160)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   [][]float32{loud},
		Loop:     true,
		Interval: 2 * time.Millisecond,
	}

	cfg := testConfig()
	cfg.SilenceHold = time.Second // never reached: the input stays loud
	cfg.MaxDuration = 60 * time.Millisecond

	sess := capture.NewSession(dev, cfg)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	samples, err := sess.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("expected captured samples, got none")
	}
	if got := sess.StopCause(); got != capture.CauseTimeout {
		t.Errorf("StopCause = %v, want timeout", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout stop took %v, want ≈60ms", elapsed)
	}
}

func TestSession_TimeoutStop_KeepsTargetRateOutput(t *testing.T) {
	// 32 kHz capture resampled 2:1 — the output must be at the target rate,
	// i.e. roughly half the raw sample count.
	loud := constFrame(0.2, 320)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 32000, Channels: 1},
		Frames:   [][]float32{loud},
		Loop:     true,
		Interval: 2 * time.Millisecond,
	}

	cfg := testConfig()
	cfg.SilenceHold = time.Second
	cfg.MaxDuration = 50 * time.Millisecond

	sess := capture.NewSession(dev, cfg)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	samples, err := sess.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// Raw frames are 320 samples each, so the resampled output must be a
	// multiple of 160 (ratio exactly 2).
	if len(samples) == 0 || len(samples)%160 != 0 {
		t.Errorf("resampled length = %d, want a positive multiple of 160", len(samples))
	}
}

func TestSession_Cancel(t *testing.T) {
	loud := constFrame(0.2, 160)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   [][]float32{loud},
		Loop:     true,
		Interval: 2 * time.Millisecond,
	}

	var stops int
	sess := capture.NewSession(dev, testConfig(),
		capture.WithFeedback(capture.Feedback{OnStop: func() { stops++ }}),
	)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.AfterFunc(20*time.Millisecond, sess.Cancel)

	samples, err := sess.Wait(context.Background())
	if !errors.Is(err, capture.ErrCancelled) {
		t.Fatalf("Wait error = %v, want ErrCancelled", err)
	}
	if len(samples) != 0 {
		t.Errorf("cancelled session returned %d samples, want none", len(samples))
	}
	if got := sess.StopCause(); got != capture.CauseCancel {
		t.Errorf("StopCause = %v, want cancel", got)
	}
	if stops != 0 {
		t.Errorf("OnStop ran %d times on cancel, want 0", stops)
	}
}

func TestSession_CancelViaContext(t *testing.T) {
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   [][]float32{constFrame(0.2, 160)},
		Loop:     true,
		Interval: 2 * time.Millisecond,
	}

	sess := capture.NewSession(dev, testConfig())
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sess.Wait(ctx)
	if !errors.Is(err, capture.ErrCancelled) {
		t.Fatalf("Wait error = %v, want ErrCancelled", err)
	}
}

func TestSession_CancelIsIdempotent(t *testing.T) {
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   [][]float32{constFrame(0.2, 160)},
		Loop:     true,
		Interval: 2 * time.Millisecond,
	}

	sess := capture.NewSession(dev, testConfig())
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sess.Cancel()
	sess.Cancel()

	_, err := sess.Wait(context.Background())
	if !errors.Is(err, capture.ErrCancelled) {
		t.Fatalf("Wait error = %v, want ErrCancelled", err)
	}
	if got := sess.StopCause(); got != capture.CauseCancel {
		t.Errorf("StopCause = %v, want cancel", got)
	}

	// Cancelling after termination is inert.
	sess.Cancel()
	if got := sess.StopCause(); got != capture.CauseCancel {
		t.Errorf("StopCause after late Cancel = %v, want cancel", got)
	}
}

func TestSession_CancelAfterNaturalStopIsInert(t *testing.T) {
	loud := constFrame(0.2, 320)
	quiet := constFrame(0, 320)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   append(repeat(loud, 3), repeat(quiet, 500)...),
		Interval: 2 * time.Millisecond,
	}

	sess := capture.NewSession(dev, testConfig())
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	samples, err := sess.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	sess.Cancel()
	if got := sess.StopCause(); got != capture.CauseSilence {
		t.Errorf("StopCause after late Cancel = %v, want silence", got)
	}
	if len(samples) == 0 {
		t.Error("silence stop lost its samples")
	}
}

func TestSession_DeviceReportsZeroRate(t *testing.T) {
	dev := &mock.Device{Fmt: audio.Format{SampleRate: 0, Channels: 1}}

	sess := capture.NewSession(dev, testConfig())
	err := sess.Start()
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("Start error = %v, want ErrDeviceUnavailable", err)
	}
	if dev.CallCountStart != 0 {
		t.Errorf("callback was installed on a broken device (Start called %d times)", dev.CallCountStart)
	}

	// The session stayed Idle, so Wait reports the device failure too.
	_, err = sess.Wait(context.Background())
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("Wait error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestSession_DeviceStartFailure(t *testing.T) {
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		StartErr: errors.New("device is busy"),
	}

	var starts int
	sess := capture.NewSession(dev, testConfig(),
		capture.WithFeedback(capture.Feedback{OnStart: func() { starts++ }}),
	)
	if err := sess.Start(); !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("Start error = %v, want ErrDeviceUnavailable", err)
	}
	if starts != 0 {
		t.Errorf("OnStart ran %d times on a failed start, want 0", starts)
	}
}

func TestSession_WaitWithoutStart(t *testing.T) {
	dev := &mock.Device{Fmt: audio.Format{SampleRate: 16000, Channels: 1}}
	sess := capture.NewSession(dev, testConfig())

	_, err := sess.Wait(context.Background())
	if !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Fatalf("Wait error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestSession_StartTwice(t *testing.T) {
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   [][]float32{constFrame(0.2, 160)},
		Loop:     true,
		Interval: 2 * time.Millisecond,
	}
	sess := capture.NewSession(dev, testConfig())
	if err := sess.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := sess.Start(); err == nil {
		t.Fatal("second Start succeeded, want error")
	}
	sess.Cancel()
	sess.Wait(context.Background())
}

func TestSession_EmptyCapture(t *testing.T) {
	// A device that delivers nothing: the watchdog fires with an empty buffer.
	dev := &mock.Device{Fmt: audio.Format{SampleRate: 16000, Channels: 1}}

	cfg := testConfig()
	cfg.MaxDuration = 40 * time.Millisecond

	sess := capture.NewSession(dev, cfg)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := sess.Wait(context.Background())
	if !errors.Is(err, capture.ErrEmptyCapture) {
		t.Fatalf("Wait error = %v, want ErrEmptyCapture", err)
	}
	if got := sess.StopCause(); got != capture.CauseTimeout {
		t.Errorf("StopCause = %v, want timeout", got)
	}
}

func TestSession_InvalidConfig(t *testing.T) {
	dev := &mock.Device{Fmt: audio.Format{SampleRate: 16000, Channels: 1}}
	sess := capture.NewSession(dev, capture.Config{
		SilenceThreshold: 2,
		SilenceHold:      -time.Second,
		MaxDuration:      0,
	})
	if err := sess.Start(); err == nil {
		t.Fatal("Start accepted an invalid config")
	}
}

func TestSession_FeedbackHooks(t *testing.T) {
	loud := constFrame(0.2, 320)
	quiet := constFrame(0, 320)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   append(repeat(loud, 3), repeat(quiet, 500)...),
		Interval: 2 * time.Millisecond,
	}

	var starts, stops int
	sess := capture.NewSession(dev, testConfig(),
		capture.WithFeedback(capture.Feedback{
			OnStart: func() { starts++ },
			OnStop:  func() { stops++ },
		}),
	)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if starts != 1 {
		t.Errorf("OnStart ran %d times after Start, want 1", starts)
	}

	if _, err := sess.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if stops != 1 {
		t.Errorf("OnStop ran %d times after a natural stop, want 1", stops)
	}
}

func TestSession_FeedbackPanicIsSwallowed(t *testing.T) {
	loud := constFrame(0.2, 320)
	quiet := constFrame(0, 320)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   append(repeat(loud, 3), repeat(quiet, 500)...),
		Interval: 2 * time.Millisecond,
	}

	sess := capture.NewSession(dev, testConfig(),
		capture.WithFeedback(capture.Feedback{
			OnStart: func() { panic("tone player exploded") },
			OnStop:  func() { panic("tone player exploded again") },
		}),
	)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := sess.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSession_LevelFunc(t *testing.T) {
	loud := constFrame(0.2, 320)
	quiet := constFrame(0, 320)
	dev := &mock.Device{
		Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
		Frames:   append(repeat(loud, 3), repeat(quiet, 500)...),
		Interval: 2 * time.Millisecond,
	}

	var calls int
	var outOfRange bool
	sess := capture.NewSession(dev, testConfig(),
		capture.WithLevelFunc(func(level float64) {
			calls++
			if level < 0 || level > 1 {
				outOfRange = true
			}
		}),
	)
	if err := sess.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := sess.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if calls == 0 {
		t.Error("level callback never ran")
	}
	if outOfRange {
		t.Error("level callback saw a value outside [0, 1]")
	}
}

// TestSession_RaceSilenceVersusTimeout arranges the silence hold and the
// max-duration watchdog to fire at effectively the same instant and checks
// that exactly one trigger resolves the session: the outcome is a normal
// capture with a single, coherent stop cause, never a hang, a double stop,
// or a lost result.
func TestSession_RaceSilenceVersusTimeout(t *testing.T) {
	loud := constFrame(0.2, 320)
	quiet := constFrame(0, 320)

	for trial := 0; trial < 20; trial++ {
		dev := &mock.Device{
			Fmt:      audio.Format{SampleRate: 16000, Channels: 1},
			Frames:   append(repeat(loud, 3), repeat(quiet, 500)...),
			Interval: 2 * time.Millisecond,
		}
		cfg := capture.Config{
			SilenceThreshold: 0.01,
			SilenceHold:      34 * time.Millisecond,
			MaxDuration:      40 * time.Millisecond,
		}

		sess := capture.NewSession(dev, cfg)
		if err := sess.Start(); err != nil {
			t.Fatalf("trial %d: Start: %v", trial, err)
		}

		samples, err := sess.Wait(context.Background())
		if err != nil {
			t.Fatalf("trial %d: Wait: %v", trial, err)
		}
		if len(samples) == 0 {
			t.Fatalf("trial %d: buffer was never read", trial)
		}
		cause := sess.StopCause()
		if cause != capture.CauseSilence && cause != capture.CauseTimeout {
			t.Fatalf("trial %d: StopCause = %v, want silence or timeout", trial, cause)
		}
	}
}
