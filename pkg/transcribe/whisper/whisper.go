// Package whisper implements [transcribe.Transcriber] using the whisper.cpp
// CGO bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once in New and shared across all calls; each call to
// Transcribe creates its own whisper context, so concurrent transcriptions
// do not interfere.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/vocap/vocap/pkg/transcribe"
)

// Compile-time assertion that Transcriber satisfies transcribe.Transcriber.
var _ transcribe.Transcriber = (*Transcriber)(nil)

// Transcriber runs whisper.cpp inference over finished captures.
type Transcriber struct {
	model    whisperlib.Model
	language string
	threads  int
}

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithLanguage sets the default ISO 639-1 language code used when a call
// passes an empty hint. Defaults to [transcribe.LanguageAuto].
func WithLanguage(lang string) Option {
	return func(t *Transcriber) { t.language = lang }
}

// WithThreads sets the number of CPU threads per inference. Zero lets
// whisper.cpp pick.
func WithThreads(n int) Option {
	return func(t *Transcriber) { t.threads = n }
}

// New loads the whisper.cpp model from modelPath. The caller must call
// Close when the transcriber is no longer needed.
func New(modelPath string, opts ...Option) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	t := &Transcriber{
		model:    model,
		language: transcribe.LanguageAuto,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Close releases the whisper model.
func (t *Transcriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Transcribe implements [transcribe.Transcriber]. samples must be mono
// float32 at 16 kHz, the only rate whisper.cpp accepts.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, language string) (transcribe.Result, error) {
	if err := ctx.Err(); err != nil {
		return transcribe.Result{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	if len(samples) == 0 {
		return transcribe.Result{}, transcribe.ErrNoSpeech
	}

	lang := language
	if lang == "" {
		lang = t.language
	}

	// Each whisper context is single-use and not thread-safe; the model
	// behind it is shared.
	wctx, err := t.model.NewContext()
	if err != nil {
		return transcribe.Result{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if t.threads > 0 {
		wctx.SetThreads(uint(t.threads))
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return transcribe.Result{}, fmt.Errorf("whisper: set language %q: %w", lang, err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return transcribe.Result{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return transcribe.Result{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, " ")
	if text == "" {
		return transcribe.Result{}, transcribe.ErrNoSpeech
	}

	detected := lang
	if lang == transcribe.LanguageAuto {
		if d := wctx.DetectedLanguage(); d != "" {
			detected = d
		}
	}
	return transcribe.Result{Text: text, Language: detected}, nil
}
