package scanner

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Wedge adapts a hardware barcode scanner acting as a keyboard: the
// peripheral types the code and terminates it with Enter. Each completed
// line is submitted to the session, which applies the usual duplicate
// suppression and feedback.
type Wedge struct {
	session *Session
	r       io.Reader
}

func NewWedge(session *Session, r io.Reader) *Wedge {
	return &Wedge{session: session, r: r}
}

// Run consumes lines until the reader ends or ctx is cancelled.
func (w *Wedge) Run(ctx context.Context) error {
	lines := bufio.NewScanner(w.r)
	for lines.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		code := strings.TrimSpace(lines.Text())
		if code == "" {
			continue
		}
		w.session.Submit(code)
	}
	return lines.Err()
}
