// Package mock provides an in-memory mock implementation of
// [transcribe.Transcriber] for use in unit tests. Set the exported Result
// fields before use; inspect the Call* fields after.
package mock

import (
	"context"
	"sync"

	"github.com/vocap/vocap/pkg/transcribe"
)

// Compile-time assertion that Transcriber satisfies transcribe.Transcriber.
var _ transcribe.Transcriber = (*Transcriber)(nil)

// Transcriber is a mock implementation of [transcribe.Transcriber].
type Transcriber struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe when TranscribeError is nil.
	TranscribeResult transcribe.Result

	// TranscribeError, when non-nil, is returned by Transcribe.
	TranscribeError error

	// CallCountTranscribe records how many times Transcribe was called.
	CallCountTranscribe int

	// RecordedSampleCounts holds the sample count of each call, in order.
	RecordedSampleCounts []int

	// RecordedLanguages holds the language hint of each call, in order.
	RecordedLanguages []string
}

// Transcribe implements [transcribe.Transcriber].
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, language string) (transcribe.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CallCountTranscribe++
	t.RecordedSampleCounts = append(t.RecordedSampleCounts, len(samples))
	t.RecordedLanguages = append(t.RecordedLanguages, language)
	if t.TranscribeError != nil {
		return transcribe.Result{}, t.TranscribeError
	}
	return t.TranscribeResult, nil
}
