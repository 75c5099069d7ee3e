package audio_test

import (
	"math"
	"testing"

	"github.com/vocap/vocap/pkg/audio"
)

func TestLevel_EmptyFrame(t *testing.T) {
	if got := audio.Level(nil); got != 0 {
		t.Errorf("Level(nil) = %v, want 0", got)
	}
	if got := audio.Level([]float32{}); got != 0 {
		t.Errorf("Level(empty) = %v, want 0", got)
	}
}

func TestLevel_KnownRMS(t *testing.T) {
	// Constant 0.1 amplitude: RMS is 0.1, gained ×5 → 0.5.
	frame := make([]float32, 480)
	for i := range frame {
		frame[i] = 0.1
	}
	got := audio.Level(frame)
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Level(const 0.1) = %v, want 0.5", got)
	}
}

func TestLevel_SignInsensitive(t *testing.T) {
	pos := []float32{0.1, 0.1, 0.1, 0.1}
	neg := []float32{-0.1, -0.1, -0.1, -0.1}
	if lp, ln := audio.Level(pos), audio.Level(neg); lp != ln {
		t.Errorf("Level(pos) = %v, Level(neg) = %v, want equal", lp, ln)
	}
}

func TestLevel_ClampsToOne(t *testing.T) {
	// Full-scale audio: RMS 1.0 gained ×5 would be 5.0 without the clamp.
	frame := []float32{1, -1, 1, -1}
	if got := audio.Level(frame); got != 1 {
		t.Errorf("Level(full scale) = %v, want 1", got)
	}
}

func TestLevel_Silence(t *testing.T) {
	frame := make([]float32, 1024)
	if got := audio.Level(frame); got != 0 {
		t.Errorf("Level(zeros) = %v, want 0", got)
	}
}
