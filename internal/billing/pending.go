package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScanState is the per-detection lifecycle.
type ScanState int

const (
	StateIdle ScanState = iota
	StateLoading
	StateResolved
	StateNotFound
	StateError
)

func (s ScanState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateResolved:
		return "resolved"
	case StateNotFound:
		return "not_found"
	case StateError:
		return "error"
	}
	return "unknown"
}

// PendingScan is the transient state between a detection and the user's
// confirm/cancel choice. One pending detection exists at a time; a new
// detection overwrites it.
type PendingScan struct {
	ID         string
	Code       string
	State      ScanState
	Item       BillItem
	Stock      int
	StockKnown bool
	Err        error
}

// DefaultResolveTimeout bounds a product lookup so a hung request degrades
// to an error instead of loading forever.
const DefaultResolveTimeout = 10 * time.Second

// Reconciler resolves decoded codes into bill lines. It applies its own
// duplicate suppression since codes arrive from both the camera and the
// wedge path.
type Reconciler struct {
	resolver Resolver
	timeout  time.Duration
	window   time.Duration
	clock    func() time.Time

	mu      sync.Mutex
	last    lastFingerprint
	pending PendingScan

	// OnChange fires on every pending-state transition. Optional.
	OnChange func(PendingScan)
}

type lastFingerprint struct {
	value string
	at    time.Time
}

type ReconcilerConfig struct {
	ResolveTimeout  time.Duration
	DuplicateWindow time.Duration
	Clock           func() time.Time
}

func NewReconciler(resolver Resolver, cfg ReconcilerConfig) *Reconciler {
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = 1200 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Reconciler{
		resolver: resolver,
		timeout:  cfg.ResolveTimeout,
		window:   cfg.DuplicateWindow,
		clock:    cfg.Clock,
	}
}

// Pending returns the current pending detection.
func (r *Reconciler) Pending() PendingScan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

func placeholderName(code string) string {
	return fmt.Sprintf("Scanned Item (%s)", code)
}

// Detected starts reconciling a decoded code. It returns false when the
// code was suppressed as a rapid duplicate. The confirmation surface goes
// to loading immediately; resolution completes asynchronously and is
// discarded if a newer detection has taken the slot.
func (r *Reconciler) Detected(ctx context.Context, code string) bool {
	now := r.clock()
	r.mu.Lock()
	if r.last.value == code && now.Sub(r.last.at) < r.window {
		r.mu.Unlock()
		return false
	}
	r.last = lastFingerprint{value: code, at: now}

	detectionID := uuid.NewString()
	r.pending = PendingScan{
		ID:    detectionID,
		Code:  code,
		State: StateLoading,
		Item: BillItem{
			ID:       NewItemID(),
			Name:     placeholderName(code),
			Category: CategoryCustom,
			Price:    decimal.Zero,
			Quantity: 1,
		},
	}
	snapshot := r.pending
	r.mu.Unlock()
	r.changed(snapshot)

	go r.resolve(ctx, detectionID, code)
	return true
}

func (r *Reconciler) resolve(ctx context.Context, detectionID, code string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	product, err := r.resolver.ByCode(ctx, code)

	r.mu.Lock()
	if r.pending.ID != detectionID {
		// Superseded by a newer detection or terminated by the user;
		// a late result must not resurface.
		r.mu.Unlock()
		zap.L().Debug("stale resolution discarded", zap.String("code", code))
		return
	}
	switch {
	case err != nil:
		r.pending.State = StateError
		r.pending.Err = err
	case product == nil:
		r.pending.State = StateNotFound
	default:
		r.pending.State = StateResolved
		r.pending.Item.Name = product.Name
		r.pending.Item.Category = product.Category
		r.pending.Item.Price = product.Price
		r.pending.Item.ProductID = product.ProductID
		r.pending.Stock = product.Stock
		r.pending.StockKnown = true
	}
	snapshot := r.pending
	r.mu.Unlock()
	r.changed(snapshot)
}

func confirmable(p PendingScan) bool {
	switch p.State {
	case StateResolved:
		return p.Stock > 0
	case StateNotFound:
		return true
	}
	return false
}

// CanConfirm reports whether a terminal confirm action is allowed:
// resolution finished without a transport error and, when stock is known,
// there is stock to sell.
func (r *Reconciler) CanConfirm() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return confirmable(r.pending)
}

// Confirm closes the pending detection and returns the line to merge, with
// the user-edited unit price applied. ok is false when confirmation is not
// currently allowed. The check is made under the same lock as the take, so
// a detection that overwrote the slot since the caller last looked can
// never be confirmed in its loading state.
func (r *Reconciler) Confirm(price decimal.Decimal) (item BillItem, ok bool) {
	r.mu.Lock()
	if !confirmable(r.pending) {
		r.mu.Unlock()
		return BillItem{}, false
	}
	item = r.pending.Item
	item.ID = NewItemID()
	if price.IsNegative() {
		price = decimal.Zero
	}
	item.Price = price
	if r.pending.StockKnown {
		item.StockKnown = true
		item.StockMax = r.pending.Stock
	}
	r.pending = PendingScan{}
	r.mu.Unlock()
	r.changed(PendingScan{})
	return item, true
}

// Cancel discards the pending detection without touching the bill.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	r.pending = PendingScan{}
	r.mu.Unlock()
	r.changed(PendingScan{})
}

func (r *Reconciler) changed(p PendingScan) {
	if r.OnChange != nil {
		r.OnChange(p)
	}
}
