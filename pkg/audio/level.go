// Package audio provides the sample-domain primitives for the vocap
// recording engine: the Frame transport type, RMS level metering, linear
// resampling, and the session capture buffer.
//
// Everything in this package is pure sample math over normalised float32
// audio. Stateful concerns (silence tracking, session lifecycle) live in
// pkg/capture.
package audio

import "math"

// levelGain scales raw RMS so that conversational speech on a typical
// microphone lands well inside [0, 1] instead of clustering near zero.
const levelGain = 5.0

// Level converts a frame of samples into a single loudness scalar in [0, 1].
// It computes the root-mean-square of the frame, applies a fixed gain, and
// clamps to 1.0. An empty frame yields 0.
//
// Level is a pure function and is called on every delivered frame; its result
// feeds both the silence detector and any caller-side level meter.
func Level(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	level := rms * levelGain
	if level > 1 {
		return 1
	}
	return level
}
