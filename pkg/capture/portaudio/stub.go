//go:build !portaudio

// Package portaudio provides a PortAudio-backed [capture.InputDevice] that
// records mono float32 audio from the default system microphone.
//
// This stub is compiled when the portaudio build tag is absent; New always
// fails so callers get a clear error instead of a link failure.
package portaudio

import (
	"errors"

	"github.com/vocap/vocap/pkg/audio"
	"github.com/vocap/vocap/pkg/capture"
)

var _ capture.InputDevice = (*Device)(nil)

var errNotBuilt = errors.New("portaudio: microphone support not compiled in; rebuild with -tags portaudio")

// Device stub when PortAudio is not available.
type Device struct{}

// New always returns an error in builds without the portaudio tag.
func New(sampleRate float64, framesPerBuffer int) (*Device, error) {
	return nil, errNotBuilt
}

// Format implements [capture.InputDevice].
func (d *Device) Format() audio.Format { return audio.Format{} }

// Start implements [capture.InputDevice].
func (d *Device) Start(capture.FrameFunc) error { return errNotBuilt }

// Stop implements [capture.InputDevice].
func (d *Device) Stop() error { return nil }

// Close is a no-op in builds without the portaudio tag.
func (d *Device) Close() error { return nil }
