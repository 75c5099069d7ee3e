// Package capture implements the voice-activated recording engine: silence
// endpoint detection and the session coordinator that races it against a
// hard timeout and an external cancel to produce exactly one outcome.
//
// The two primary abstractions are:
//
//   - [InputDevice] — the host-supplied microphone capability delivering
//     [audio.Frame] values to a callback.
//   - [Session] — one cancellable, timeout-bounded "record a phrase"
//     operation over a device.
//
// Implementations of [InputDevice] are provided by adapter packages
// (capture/portaudio for a live microphone, capture/mock for tests). The
// interface is intentionally narrow so the coordinator stays decoupled from
// platform audio-session details.
package capture

import (
	"errors"

	"github.com/vocap/vocap/pkg/audio"
)

// TargetSampleRate is the fixed system-wide output rate in Hz. It is the
// only rate ever exposed outside the engine; capture may run at any native
// device rate internally.
const TargetSampleRate = 16000

var (
	// ErrDeviceUnavailable indicates the input device could not be opened,
	// failed to start, or reported an invalid format. Not retryable within
	// the same session; create a new session to retry.
	ErrDeviceUnavailable = errors.New("capture: input device unavailable")

	// ErrCancelled indicates deliberate termination before natural
	// completion. It is distinct from success but is not a fault.
	ErrCancelled = errors.New("capture: session cancelled")

	// ErrEmptyCapture indicates the session completed (silence or timeout)
	// but zero samples were captured. Surfaced distinctly so callers can
	// avoid invoking a transcriber on empty input.
	ErrEmptyCapture = errors.New("capture: no samples captured")
)

// FrameFunc receives one captured frame. It runs on the device's delivery
// goroutine and must not block.
type FrameFunc func(audio.Frame)

// InputDevice is the microphone capability a host environment supplies to a
// [Session]. A device is exclusively owned by one active session at a time.
type InputDevice interface {
	// Format reports the device's native capture format. A zero or negative
	// sample rate marks the device as unusable.
	Format() audio.Format

	// Start begins frame delivery to cb. If Start returns an error, cb has
	// not been and will not be invoked.
	Start(cb FrameFunc) error

	// Stop ends frame delivery. It is synchronous with respect to the
	// delivery goroutine: once Stop returns, no callback is running and no
	// further callback will run. Stop must be safe to call on a device that
	// was never started, and calling it more than once is a no-op.
	//
	// Stop is never invoked from within the frame callback itself; the
	// session serialises all stop work onto its own goroutine.
	Stop() error
}
