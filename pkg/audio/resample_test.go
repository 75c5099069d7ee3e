package audio_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/vocap/vocap/pkg/audio"
)

func TestResample_IdentityWhenRatesMatch(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, -0.4}
	out := audio.Resample(in, 44100, 44100)
	if len(out) != len(in) {
		t.Fatalf("length changed: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestResample_IdentityWithinOneHertz(t *testing.T) {
	// Hardware clocks drift; rates less than 1 Hz apart are the same rate.
	in := []float32{0.5, 0.25, -0.5}
	out := audio.Resample(in, 16000.4, 16000)
	if len(out) != len(in) {
		t.Fatalf("length changed: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestResample_Downsample3x(t *testing.T) {
	// 48 kHz → 16 kHz keeps every third sample position.
	in := []float32{0, 1, 2, 3, 4, 5}
	out := audio.Resample(in, 48000, 16000)
	if len(out) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(out))
	}
	if out[0] != 0 {
		t.Errorf("first sample: got %v, want 0", out[0])
	}
	if out[1] != 3 {
		t.Errorf("second sample: got %v, want 3", out[1])
	}
}

func TestResample_Upsample2x_Interpolates(t *testing.T) {
	in := []float32{0, 1}
	out := audio.Resample(in, 8000, 16000)
	if len(out) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(out))
	}
	// Position 0.5 sits halfway between the two source samples.
	if math.Abs(float64(out[1])-0.5) > 1e-6 {
		t.Errorf("interpolated sample: got %v, want 0.5", out[1])
	}
	// Positions past the last source sample fall back to it.
	if out[3] != 1 {
		t.Errorf("tail sample: got %v, want 1", out[3])
	}
}

func TestResample_EmptyInput(t *testing.T) {
	if out := audio.Resample(nil, 48000, 16000); len(out) != 0 {
		t.Errorf("expected empty output, got %d samples", len(out))
	}
}

func TestResample_NonPositiveRates(t *testing.T) {
	in := []float32{0.1, 0.2}
	if out := audio.Resample(in, 0, 16000); len(out) != len(in) {
		t.Errorf("zero fromRate: got %d samples, want input unchanged", len(out))
	}
	if out := audio.Resample(in, 16000, -1); len(out) != len(in) {
		t.Errorf("negative toRate: got %d samples, want input unchanged", len(out))
	}
}

// TestResample_LengthBound checks the output-length contract across random
// rate pairs: len(out) == floor(len(in) * to / from) within ±1.
func TestResample_LengthBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(4000)
		from := 4000 + rng.Float64()*60000
		to := 4000 + rng.Float64()*60000
		if math.Abs(from-to) < 1 {
			continue
		}
		in := make([]float32, n)
		for i := range in {
			in[i] = rng.Float32()*2 - 1
		}

		out := audio.Resample(in, from, to)
		want := math.Floor(float64(n) * to / from)
		if diff := math.Abs(float64(len(out)) - want); diff > 1 {
			t.Fatalf("trial %d: len(Resample(%d samples, %.1f, %.1f)) = %d, want %.0f±1",
				trial, n, from, to, len(out), want)
		}
	}
}

// TestResample_BoundaryIndexSafety drives the interpolator with rate pairs
// chosen to land source positions on and past the final input sample. The
// property under test is simply "no panic, and values stay in range".
func TestResample_BoundaryIndexSafety(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(64)
		in := make([]float32, n)
		for i := range in {
			in[i] = rng.Float32()*2 - 1
		}
		from := 1 + rng.Float64()*96000
		to := 1 + rng.Float64()*96000

		out := audio.Resample(in, from, to)
		for i, s := range out {
			if s < -1 || s > 1 {
				t.Fatalf("trial %d: sample %d out of range: %v", trial, i, s)
			}
		}
	}
}

func TestResample_MonotonicLength(t *testing.T) {
	// More input must never produce less output at a fixed rate pair.
	prev := -1
	for n := 0; n <= 300; n += 7 {
		in := make([]float32, n)
		out := audio.Resample(in, 44100, 16000)
		if len(out) < prev {
			t.Fatalf("length not monotonic: %d input samples gave %d output, previous gave %d",
				n, len(out), prev)
		}
		prev = len(out)
	}
}
