package scanner

import (
	"context"
	"sync"
	"time"
)

// DetectFunc receives decoded code strings.
type DetectFunc func(code string)

// Decoder is the capability both decode strategies implement. After Stop
// returns no further detection callback fires, even for a frame decode that
// was already in flight.
type Decoder interface {
	Start(ctx context.Context, onDetect DetectFunc) error
	Stop()
}

const defaultFrameInterval = 33 * time.Millisecond

// frameDecoder drives the native detection capability on a fixed frame
// cadence. Each Start captures its own done channel; the loop checks it
// before grabbing a frame, and again after a decode completes, so a Stop
// that races an in-flight decode still wins.
type frameDecoder struct {
	stream   Stream
	detect   SymbologyDecoder
	interval time.Duration

	mu     sync.Mutex
	done   chan struct{}
	cancel context.CancelFunc
}

func newFrameDecoder(stream Stream, detect SymbologyDecoder, interval time.Duration) *frameDecoder {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return &frameDecoder{stream: stream, detect: detect, interval: interval}
}

func (d *frameDecoder) Start(ctx context.Context, onDetect DetectFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.mu.Lock()
	d.done = done
	d.cancel = cancel
	d.mu.Unlock()

	go d.loop(ctx, done, onDetect)
	return nil
}

func (d *frameDecoder) loop(ctx context.Context, done chan struct{}, onDetect DetectFunc) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := d.stream.Grab(ctx)
		if err != nil {
			continue
		}
		code, found := d.detect.DecodeFrame(frame)
		if !found {
			continue
		}
		// The decode may have raced Stop; the captured channel decides.
		select {
		case <-done:
			return
		default:
			onDetect(code)
		}
	}
}

func (d *frameDecoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		close(d.done)
		d.done = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// streamDecoder wraps the fallback library's self-driven loop. Detections
// are gated on the same captured-channel rule as the frame decoder.
type streamDecoder struct {
	stream  Stream
	backend FallbackDecoder

	mu       sync.Mutex
	done     chan struct{}
	controls DecodeControls
}

func newStreamDecoder(stream Stream, backend FallbackDecoder) *streamDecoder {
	return &streamDecoder{stream: stream, backend: backend}
}

func (d *streamDecoder) Start(ctx context.Context, onDetect DetectFunc) error {
	done := make(chan struct{})

	controls, err := d.backend.DecodeContinuously(d.stream, func(code string) {
		select {
		case <-done:
		case <-ctx.Done():
		default:
			onDetect(code)
		}
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.done = done
	d.controls = controls
	d.mu.Unlock()
	return nil
}

func (d *streamDecoder) Stop() {
	d.mu.Lock()
	done, controls := d.done, d.controls
	d.done, d.controls = nil, nil
	d.mu.Unlock()

	if done != nil {
		close(done)
	}
	if controls != nil {
		controls.Stop()
	}
}
