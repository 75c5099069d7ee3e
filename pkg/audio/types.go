package audio

import "time"

// Frame represents a single block of mono float32 samples delivered by a
// capture device. Frames are the atomic unit of audio transport — produced by
// the device callback, metered, appended to the capture buffer, and never
// retained afterwards.
type Frame struct {
	// Samples holds normalised mono samples in the range [-1.0, 1.0].
	Samples []float32

	// SampleRate is the source sample rate in Hz (e.g. 44100 for a laptop
	// microphone, 48000 for most USB interfaces).
	SampleRate float64

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Format describes the native capture format of an input device.
type Format struct {
	// SampleRate in Hz. Device drivers report this as a float because
	// hardware clocks rarely sit exactly on the nominal rate.
	SampleRate float64

	// Channels is the channel count. The recording engine only consumes
	// mono input.
	Channels int
}
