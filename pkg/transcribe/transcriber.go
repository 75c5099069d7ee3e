// Package transcribe defines the Transcriber interface, the boundary between
// the recording engine and a speech-to-text backend.
//
// A Transcriber consumes a finished capture — mono float32 samples at
// [capture.TargetSampleRate] — together with a language hint, and produces
// the recognised text. The recording engine never hands a transcriber an
// empty capture; that case is classified as [capture.ErrEmptyCapture]
// upstream.
package transcribe

import (
	"context"
	"errors"
)

// LanguageAuto asks the backend to detect the spoken language itself.
const LanguageAuto = "auto"

// ErrNoSpeech is returned when recognition completes but yields empty text —
// the audio contained no speech content.
var ErrNoSpeech = errors.New("transcribe: no speech content")

// Result is a completed transcription.
type Result struct {
	// Text is the recognised speech content.
	Text string

	// Language is the ISO 639-1 code of the detected (or requested)
	// language, e.g. "en".
	Language string
}

// Transcriber converts a finished PCM capture into text.
//
// Implementations must be safe for concurrent use; each call is an
// independent inference.
type Transcriber interface {
	// Transcribe recognises speech in samples (mono float32 at the engine's
	// target rate). language is an ISO 639-1 code or [LanguageAuto].
	// Returns [ErrNoSpeech] when recognition yields empty text.
	Transcribe(ctx context.Context, samples []float32, language string) (Result, error)
}
