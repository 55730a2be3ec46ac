package scanner

import "context"

// Frame is one captured video frame in whatever encoding the camera
// produces. Decoders are expected to cope or report no detection.
type Frame []byte

// Track is one releasable media track of an open stream.
type Track interface {
	Stop()
}

// Stream is an open camera stream. Grab returns the most recent frame;
// Pause halts playback without releasing tracks.
type Stream interface {
	Grab(ctx context.Context) (Frame, error)
	Tracks() []Track
	Pause()
}

// Facing selects which camera to acquire.
type Facing string

const (
	FacingBack  Facing = "environment"
	FacingFront Facing = "user"
)

type Constraints struct {
	Facing Facing
}

// Camera acquires streams. Absent on insecure contexts.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// SymbologyDecoder is the native single-frame detection capability.
type SymbologyDecoder interface {
	DecodeFrame(f Frame) (code string, found bool)
}

// DecodeControls stops a fallback decoder's self-driven loop.
type DecodeControls interface {
	Stop()
}

// FallbackDecoder is the dynamically loaded decoding library. It owns its
// decode loop against the stream and reports detections on the callback.
type FallbackDecoder interface {
	DecodeContinuously(stream Stream, onDetect DetectFunc) (DecodeControls, error)
}

// Device bundles the platform capabilities probed when a session starts.
// Nil fields mean the capability is absent on this platform.
type Device struct {
	Camera   Camera
	Native   SymbologyDecoder
	Fallback FallbackDecoder
}
