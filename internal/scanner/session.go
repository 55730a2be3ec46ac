package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/pkg/metrics"
)

// Detection event topics published on the session bus.
const (
	TopicDetected  = "scanner:detected"
	TopicScanError = "scanner:error"
)

// Input paths a detection can arrive from.
const (
	PathCamera = "camera"
	PathWedge  = "wedge"
)

var (
	// ErrScannerUnavailable: no camera permission capability in this
	// context (typically a non-secure origin).
	ErrScannerUnavailable = errors.New("camera API not available (requires a secure context)")
	// ErrDecoderUnavailable: neither the native detector nor the fallback
	// decoding library could be used.
	ErrDecoderUnavailable = errors.New("barcode scanning not supported on this device")
	// ErrCameraDisabled: the camera path is off for desktop viewports;
	// use the hardware wedge instead.
	ErrCameraDisabled = errors.New("camera scanning is disabled on desktop")
)

// DefaultDuplicateWindow is how long a repeat of the same code is ignored.
const DefaultDuplicateWindow = 1200 * time.Millisecond

// Config tunes a Session.
type Config struct {
	// Window overrides DefaultDuplicateWindow when positive.
	Window time.Duration
	// FrameInterval overrides the native decode cadence when positive.
	FrameInterval time.Duration
	Feedback      Feedback
	Bus           EventBus.Bus
	// OnDetect receives deduplicated codes from both input paths.
	OnDetect DetectFunc
	// OnError receives transient scan errors; the session is back to idle
	// when it fires.
	OnError func(error)
	// Mobile selects the camera path; desktop viewports get the wedge
	// path only.
	Mobile bool
	// PauseOnDetect stops the camera after a successful detection, the
	// usual mode when a confirmation step follows every scan.
	PauseOnDetect bool
	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

type lastScan struct {
	value string
	at    time.Time
}

// Session owns the device resources of one scanner: the open stream, the
// active decoder and the duplicate-suppression fingerprint. At most one
// session per terminal is active.
type Session struct {
	device Device
	cfg    Config

	mu       sync.Mutex
	starting bool
	running  bool
	want     bool
	mobile   bool
	gen      uint64
	decoder  Decoder
	stream   Stream
	last     lastScan
}

func NewSession(device Device, cfg Config) *Session {
	if cfg.Window <= 0 {
		cfg.Window = DefaultDuplicateWindow
	}
	if cfg.Feedback == nil {
		cfg.Feedback = NopFeedback{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Session{device: device, cfg: cfg, mobile: cfg.Mobile}
}

// Running reports whether a decode loop is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start acquires the camera and begins decoding. Reentrancy-guarded; all
// failures are reported through OnError and leave the session idle.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.starting || s.running {
		s.mu.Unlock()
		return
	}
	if !s.mobile {
		s.mu.Unlock()
		s.reportError(ErrCameraDisabled)
		return
	}
	s.starting = true
	s.want = true
	gen := s.gen
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
	}()

	if s.device.Camera == nil {
		s.reportError(ErrScannerUnavailable)
		return
	}

	stream, err := s.device.Camera.Open(ctx, Constraints{Facing: FacingBack})
	if err != nil {
		s.reportError(errors.Wrap(err, "failed to start scanner"))
		return
	}

	var dec Decoder
	switch {
	case s.device.Native != nil:
		dec = newFrameDecoder(stream, s.device.Native, s.cfg.FrameInterval)
	case s.device.Fallback != nil:
		dec = newStreamDecoder(stream, s.device.Fallback)
	default:
		releaseStream(stream)
		s.reportError(ErrDecoderUnavailable)
		return
	}

	if err := dec.Start(ctx, func(code string) {
		s.handleDetected(code, PathCamera)
	}); err != nil {
		releaseStream(stream)
		s.reportError(errors.Wrap(err, "failed to start scanner"))
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		// A stop trigger fired while the camera was opening; it wins.
		s.mu.Unlock()
		dec.Stop()
		releaseStream(stream)
		return
	}
	s.running = true
	s.decoder = dec
	s.stream = stream
	s.mu.Unlock()
	zap.L().Debug("scanner started")
}

// Stop halts whichever decode loop is active and releases every camera
// track. Idempotent and safe from any trigger point.
func (s *Session) Stop() {
	s.mu.Lock()
	s.gen++
	dec, stream := s.decoder, s.stream
	s.decoder, s.stream = nil, nil
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if dec != nil {
		dec.Stop()
	}
	if stream != nil {
		releaseStream(stream)
	}
	if wasRunning {
		zap.L().Debug("scanner stopped")
	}
}

func releaseStream(stream Stream) {
	for _, t := range stream.Tracks() {
		t.Stop()
	}
	stream.Pause()
}

// Disable is the explicit user stop: clears the resume intent and stops.
func (s *Session) Disable() {
	s.mu.Lock()
	s.want = false
	s.mu.Unlock()
	s.Stop()
}

// Submit feeds a completed hardware-wedge scan through the same duplicate
// suppression and feedback as the camera path.
func (s *Session) Submit(code string) {
	if code == "" {
		return
	}
	s.handleDetected(code, PathWedge)
}

// HandleVisibility implements the visibility contract: stop when hidden,
// resume when visible only if scanning was wanted and the viewport is
// mobile-class.
func (s *Session) HandleVisibility(ctx context.Context, hidden bool) {
	if hidden {
		s.Stop()
		return
	}
	s.mu.Lock()
	resume := s.want && s.mobile
	s.mu.Unlock()
	if resume {
		s.Start(ctx)
	}
}

// HandleUnload always stops and drops the resume intent.
func (s *Session) HandleUnload() {
	s.Disable()
}

// SetViewport switches between mobile and desktop mode. Leaving mobile
// shuts the camera path down entirely.
func (s *Session) SetViewport(mobile bool) {
	s.mu.Lock()
	s.mobile = mobile
	s.mu.Unlock()
	if !mobile {
		s.Disable()
	}
}

func (s *Session) handleDetected(raw, path string) {
	now := s.cfg.Clock()
	s.mu.Lock()
	if s.last.value == raw && now.Sub(s.last.at) < s.cfg.Window {
		s.mu.Unlock()
		if metrics.Default != nil {
			metrics.Default.ScansDuplicate.Inc()
		}
		return
	}
	s.last = lastScan{value: raw, at: now}
	pause := s.cfg.PauseOnDetect && path == PathCamera
	s.mu.Unlock()

	s.cfg.Feedback.Tone()
	s.cfg.Feedback.Pulse()
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(TopicDetected, raw, path)
	}
	if metrics.Default != nil {
		metrics.Default.ScansTotal.WithLabelValues(path).Inc()
	}

	if pause {
		s.Disable()
	}
	if s.cfg.OnDetect != nil {
		s.cfg.OnDetect(raw)
	}
}

func (s *Session) reportError(err error) {
	zap.L().Warn("scan error", zap.Error(err))
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(TopicScanError, err.Error())
	}
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}
