//go:build portaudio

// Package portaudio provides a PortAudio-backed [capture.InputDevice] that
// records mono float32 audio from the default system microphone.
//
// Build with -tags portaudio. Without the tag a stub is compiled instead so
// that test builds do not need CGO or the PortAudio runtime library.
package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	portaudiolib "github.com/gordonklaus/portaudio"

	"github.com/vocap/vocap/pkg/audio"
	"github.com/vocap/vocap/pkg/capture"
)

// Compile-time assertion that Device satisfies capture.InputDevice.
var _ capture.InputDevice = (*Device)(nil)

// Device captures from the default input device via a blocking-read stream
// on a dedicated goroutine. One Device supports one Start/Stop cycle; the
// session layer constructs a fresh session per recording but may reuse the
// same Device across sessions sequentially.
type Device struct {
	sampleRate      float64
	framesPerBuffer int

	mu      sync.Mutex
	stream  *portaudiolib.Stream
	buf     []float32
	quit    chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

// New initialises PortAudio and returns a device that will capture at
// sampleRate with framesPerBuffer samples per delivered frame. Call
// [Device.Close] when the device is no longer needed.
func New(sampleRate float64, framesPerBuffer int) (*Device, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("portaudio: invalid sample rate %v", sampleRate)
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = 1024
	}
	if err := portaudiolib.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Device{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
	}, nil
}

// Format implements [capture.InputDevice].
func (d *Device) Format() audio.Format {
	return audio.Format{SampleRate: d.sampleRate, Channels: 1}
}

// Start implements [capture.InputDevice]. It opens the default input stream
// and spawns the read loop delivering frames to cb.
func (d *Device) Start(cb capture.FrameFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return errors.New("portaudio: device already started")
	}

	d.buf = make([]float32, d.framesPerBuffer)
	stream, err := portaudiolib.OpenDefaultStream(1, 0, d.sampleRate, d.framesPerBuffer, d.buf)
	if err != nil {
		return fmt.Errorf("portaudio: open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("portaudio: start stream: %w", err)
	}

	d.stream = stream
	d.started = true
	d.stopped = false
	d.quit = make(chan struct{})
	d.done = make(chan struct{})

	go d.read(cb, stream)
	return nil
}

// read blocks on the stream buffer and forwards a copy of each filled
// buffer to cb. A copy is required because PortAudio reuses d.buf.
func (d *Device) read(cb capture.FrameFunc, stream *portaudiolib.Stream) {
	defer close(d.done)
	started := time.Now()

	for {
		select {
		case <-d.quit:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			select {
			case <-d.quit:
				return
			default:
			}
			slog.Warn("portaudio read failed", "err", err)
			continue
		}

		frame := make([]float32, len(d.buf))
		copy(frame, d.buf)
		cb(audio.Frame{
			Samples:    frame,
			SampleRate: d.sampleRate,
			Timestamp:  time.Since(started),
		})
	}
}

// Stop implements [capture.InputDevice]. It joins the read goroutine before
// tearing down the stream, so no callback runs after Stop returns.
func (d *Device) Stop() error {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.started = false
	close(d.quit)
	done := d.done
	stream := d.stream
	d.stream = nil
	d.mu.Unlock()

	<-done

	var errs []error
	if err := stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("portaudio: stop stream: %w", err))
	}
	if err := stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("portaudio: close stream: %w", err))
	}
	return errors.Join(errs...)
}

// Close releases the PortAudio runtime. The device must be stopped first.
func (d *Device) Close() error {
	return portaudiolib.Terminate()
}
