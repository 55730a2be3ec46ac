package terminal

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/internal/billing"
	"github.com/loomoretail/loomopos/internal/scanner"
	"github.com/loomoretail/loomopos/pkg/client"
)

// Terminal wires one scanner session, one bill and one pending-detection
// slot into the scan-to-bill workflow. Screens call it; none of them
// reimplement scanning.
type Terminal struct {
	session    *scanner.Session
	bill       *billing.Bill
	reconciler *billing.Reconciler
	orders     billing.OrderService

	mu         sync.Mutex
	mobile     bool
	submitting bool

	// FocusWedge refocuses the hardware input on desktop viewports.
	// Optional.
	FocusWedge func()
}

type Config struct {
	Session    *scanner.Session
	Bill       *billing.Bill
	Reconciler *billing.Reconciler
	Orders     billing.OrderService
	Mobile     bool
}

func New(cfg Config) *Terminal {
	return &Terminal{
		session:    cfg.Session,
		bill:       cfg.Bill,
		reconciler: cfg.Reconciler,
		orders:     cfg.Orders,
		mobile:     cfg.Mobile,
	}
}

func (t *Terminal) Bill() *billing.Bill {
	return t.bill
}

func (t *Terminal) Session() *scanner.Session {
	return t.session
}

func (t *Terminal) Pending() billing.PendingScan {
	return t.reconciler.Pending()
}

// OnCode is the session's detection callback: it routes a decoded code into
// the reconciliation slot.
func (t *Terminal) OnCode(ctx context.Context, code string) {
	t.reconciler.Detected(ctx, code)
}

// StartScanning begins the camera path (mobile) or is a no-op on desktop,
// where the wedge input is always live.
func (t *Terminal) StartScanning(ctx context.Context) {
	t.mu.Lock()
	mobile := t.mobile
	t.mu.Unlock()
	if mobile {
		t.session.Start(ctx)
	}
}

func (t *Terminal) StopScanning() {
	t.session.Disable()
}

// SetViewport switches between mobile and desktop handling.
func (t *Terminal) SetViewport(mobile bool) {
	t.mu.Lock()
	t.mobile = mobile
	t.mu.Unlock()
	t.session.SetViewport(mobile)
	if !mobile {
		t.refocus()
	}
}

// resumeInput reopens whichever input path the viewport uses after a
// confirmation closes.
func (t *Terminal) resumeInput(ctx context.Context) {
	t.mu.Lock()
	mobile := t.mobile
	t.mu.Unlock()
	if mobile {
		t.session.Start(ctx)
		return
	}
	t.refocus()
}

func (t *Terminal) refocus() {
	if t.FocusWedge != nil {
		t.FocusWedge()
	}
}

// AddToBill confirms the pending detection at the given unit price and
// merges it into the bill. The confirmation surface closes; scanning does
// not resume.
func (t *Terminal) AddToBill(price decimal.Decimal) bool {
	item, ok := t.reconciler.Confirm(price)
	if !ok {
		return false
	}
	t.bill.Merge(item)
	return true
}

// AddAndScanNext merges like AddToBill, then immediately resumes the
// viewport's input path.
func (t *Terminal) AddAndScanNext(ctx context.Context, price decimal.Decimal) bool {
	if !t.AddToBill(price) {
		return false
	}
	t.resumeInput(ctx)
	return true
}

// CancelPending discards the pending detection and resumes input without
// touching the bill.
func (t *Terminal) CancelPending(ctx context.Context) {
	t.reconciler.Cancel()
	t.resumeInput(ctx)
}

// SubmitBill finalizes the sale. Concurrent submissions are rejected; a
// session invalidation mid-flight surfaces as an ordinary error and leaves
// the bill intact for retry.
func (t *Terminal) SubmitBill(ctx context.Context) (*client.CreateOrderResult, error) {
	t.mu.Lock()
	if t.submitting {
		t.mu.Unlock()
		return nil, billing.ErrSubmitInFlight
	}
	t.submitting = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.submitting = false
		t.mu.Unlock()
	}()

	result, err := billing.Submit(ctx, t.orders, t.bill)
	if err != nil {
		zap.L().Warn("bill submission failed", zap.Error(err))
		return nil, err
	}
	zap.L().Info("bill submitted",
		zap.String("invoice", result.InvoiceNumber),
		zap.Float64("total", result.Total),
	)
	return result, nil
}

// Shutdown releases device resources on page unload or process exit.
func (t *Terminal) Shutdown() {
	t.session.HandleUnload()
}
