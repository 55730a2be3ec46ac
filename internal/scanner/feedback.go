package scanner

import "io"

// Feedback is the detection acknowledgement surface: a short audible tone
// and a brief haptic pulse. Implementations are best-effort and must never
// fail loudly.
type Feedback interface {
	Tone()
	Pulse()
}

// NopFeedback silently swallows feedback where no device supports it.
type NopFeedback struct{}

func (NopFeedback) Tone()  {}
func (NopFeedback) Pulse() {}

// TerminalFeedback rings the terminal bell for the tone; haptics have no
// terminal equivalent.
type TerminalFeedback struct {
	W io.Writer
}

func (f TerminalFeedback) Tone() {
	if f.W != nil {
		_, _ = f.W.Write([]byte{0x07})
	}
}

func (f TerminalFeedback) Pulse() {}
