package capture

import "time"

// SilenceDetector tracks how long the input has stayed below a loudness
// threshold and fires exactly once per session when continuous silence
// reaches the configured hold duration.
//
// The detector is a two-state machine: Speaking (no silence start recorded)
// and InSilence(since). The threshold comparison is strict `<` for silence,
// so a level exactly at the threshold counts as speech. Silence tracking
// only arms after the first at-or-above-threshold level has been observed —
// a stream that never crosses the threshold is left to the session's
// max-duration timeout instead.
//
// SilenceDetector is not synchronised; it is owned by one session and only
// ever updated from the device delivery goroutine.
type SilenceDetector struct {
	threshold float64
	hold      time.Duration

	heardSpeech  bool
	silenceSince time.Time
	fired        bool
}

// NewSilenceDetector returns a detector that fires after level has stayed
// below threshold for hold.
func NewSilenceDetector(threshold float64, hold time.Duration) *SilenceDetector {
	return &SilenceDetector{threshold: threshold, hold: hold}
}

// Observe feeds one level sample taken at time now. It returns true exactly
// once, on the observation where continuous silence first reaches the hold
// duration. After firing, the detector stays inert until Reset.
func (d *SilenceDetector) Observe(level float64, now time.Time) bool {
	if d.fired {
		return false
	}

	if level >= d.threshold {
		d.heardSpeech = true
		d.silenceSince = time.Time{}
		return false
	}

	if !d.heardSpeech {
		return false
	}
	if d.silenceSince.IsZero() {
		d.silenceSince = now
		return false
	}
	if now.Sub(d.silenceSince) >= d.hold {
		d.fired = true
		return true
	}
	return false
}

// InSilence reports whether the detector is currently inside a silence
// interval.
func (d *SilenceDetector) InSilence() bool {
	return !d.silenceSince.IsZero()
}

// Reset clears all state, returning the detector to the initial Speaking
// state for a new session.
func (d *SilenceDetector) Reset() {
	d.heardSpeech = false
	d.silenceSince = time.Time{}
	d.fired = false
}
