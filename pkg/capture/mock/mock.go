// Package mock provides an in-memory scripted implementation of
// [capture.InputDevice] for use in unit tests.
//
// The Device delivers its scripted frames on its own goroutine at a fixed
// interval, mimicking a real driver's delivery cadence. Set the exported
// fields before calling Start; inspect the Call* fields afterwards.
//
// Typical usage:
//
//	dev := &mock.Device{
//	    Fmt:      audio.Format{SampleRate: 48000, Channels: 1},
//	    Frames:   [][]float32{loud, loud, quiet, quiet},
//	    Interval: 5 * time.Millisecond,
//	}
//	sess := capture.NewSession(dev, cfg)
package mock

import (
	"errors"
	"sync"
	"time"

	"github.com/vocap/vocap/pkg/audio"
	"github.com/vocap/vocap/pkg/capture"
)

// Compile-time assertion that Device satisfies capture.InputDevice.
var _ capture.InputDevice = (*Device)(nil)

// Device is a scripted mock implementation of [capture.InputDevice].
type Device struct {
	// Fmt is returned by [Device.Format]. Leave the sample rate at zero to
	// simulate a broken device.
	Fmt audio.Format

	// Frames are the sample blocks delivered to the callback, in order.
	Frames [][]float32

	// Interval is the delay between delivered frames. Defaults to 5ms.
	Interval time.Duration

	// Loop repeats the frame script until Stop instead of idling after the
	// last frame. Use this to simulate continuous speech.
	Loop bool

	// StartErr, when non-nil, is returned by Start and no frames are
	// delivered.
	StartErr error

	mu      sync.Mutex
	started bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}

	// CallCountStart records how many times Start was called.
	CallCountStart int

	// CallCountStop records how many times Stop was called.
	CallCountStop int
}

// Format implements [capture.InputDevice].
func (d *Device) Format() audio.Format {
	return d.Fmt
}

// Start implements [capture.InputDevice]. It spawns the delivery goroutine,
// which pushes the scripted frames to cb at the configured interval. After
// the script is exhausted the goroutine idles (or restarts when Loop is set)
// until Stop.
func (d *Device) Start(cb capture.FrameFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountStart++
	if d.StartErr != nil {
		return d.StartErr
	}
	if d.started {
		return errors.New("mock: device already started")
	}
	d.started = true
	d.quit = make(chan struct{})
	d.done = make(chan struct{})

	interval := d.Interval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}

	go d.deliver(cb, interval)
	return nil
}

func (d *Device) deliver(cb capture.FrameFunc, interval time.Duration) {
	defer close(d.done)
	started := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-d.quit:
			return
		case <-ticker.C:
		}

		if i >= len(d.Frames) {
			if !d.Loop || len(d.Frames) == 0 {
				// Script exhausted: keep the stream open but silent.
				<-d.quit
				return
			}
			i = 0
		}

		cb(audio.Frame{
			Samples:    d.Frames[i],
			SampleRate: d.Fmt.SampleRate,
			Timestamp:  time.Since(started),
		})
		i++
	}
}

// Stop implements [capture.InputDevice]. It signals the delivery goroutine
// and waits for it to exit, so no callback runs after Stop returns. Stopping
// a never-started or already-stopped device is a no-op.
func (d *Device) Stop() error {
	d.mu.Lock()
	d.CallCountStop++
	if !d.started || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.quit)
	done := d.done
	d.mu.Unlock()

	<-done
	return nil
}
