package audio

import "time"

// Buffer is the append-only sample accumulator for one recording session.
// Samples are stored in insertion order, which is temporal order.
//
// Buffer is intentionally not synchronised: it has exactly one writer (the
// capture callback) and one reader (the session stop path), and the session
// guarantees the device callback is uninstalled before Snapshot is read.
type Buffer struct {
	samples []float32
	rate    float64
}

// NewBuffer returns an empty buffer for samples at the given source rate.
func NewBuffer(sampleRate float64) *Buffer {
	return &Buffer{rate: sampleRate}
}

// Append adds a frame's samples to the end of the buffer.
func (b *Buffer) Append(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// Len returns the number of samples appended so far.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// SampleRate returns the source rate the buffer was created with.
func (b *Buffer) SampleRate() float64 {
	return b.rate
}

// Duration returns the buffered audio length at the source rate.
func (b *Buffer) Duration() time.Duration {
	if b.rate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.samples)) / b.rate * float64(time.Second))
}

// Snapshot returns a copy of all samples appended so far, in capture order.
// The returned slice is owned by the caller.
func (b *Buffer) Snapshot() []float32 {
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Clear discards all buffered samples. The buffer remains usable.
func (b *Buffer) Clear() {
	b.samples = b.samples[:0]
}
