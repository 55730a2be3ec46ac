package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingResolver holds every lookup until its release channel closes.
type blockingResolver struct {
	inner   Resolver
	started chan string
	release chan struct{}
}

func (r *blockingResolver) ByCode(ctx context.Context, code string) (*ResolvedProduct, error) {
	r.started <- code
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.inner.ByCode(context.Background(), code)
}

type failingResolver struct{ err error }

func (r failingResolver) ByCode(context.Context, string) (*ResolvedProduct, error) {
	return nil, r.err
}

// stateRecorder collects OnChange snapshots and signals each arrival.
type stateRecorder struct {
	mu     sync.Mutex
	states []PendingScan
	seen   chan PendingScan
}

func newStateRecorder() *stateRecorder {
	return &stateRecorder{seen: make(chan PendingScan, 16)}
}

func (s *stateRecorder) record(p PendingScan) {
	s.mu.Lock()
	s.states = append(s.states, p)
	s.mu.Unlock()
	s.seen <- p
}

func (s *stateRecorder) wait(t *testing.T, state ScanState) PendingScan {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case p := <-s.seen:
			if p.State == state {
				return p
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", state)
		}
	}
}

func testCatalog() StaticResolver {
	return StaticResolver{
		"8901234567890": {ProductID: 101, Name: "Classic White Shirt", Category: "Shirts", Price: d("899"), Stock: 3},
		"8901234567892": {ProductID: 103, Name: "Leather Loafers", Category: "Shoes", Price: d("2499"), Stock: 0},
	}
}

func TestDetectedResolvesKnownCode(t *testing.T) {
	rec := newStateRecorder()
	r := NewReconciler(testCatalog(), ReconcilerConfig{})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "8901234567890"))

	loading := rec.wait(t, StateLoading)
	assert.Equal(t, "Scanned Item (8901234567890)", loading.Item.Name)
	assert.Equal(t, CategoryCustom, loading.Item.Category)

	resolved := rec.wait(t, StateResolved)
	assert.Equal(t, "Classic White Shirt", resolved.Item.Name)
	assert.Equal(t, int64(101), resolved.Item.ProductID)
	assert.True(t, resolved.Item.Price.Equal(d("899")))
	assert.True(t, resolved.StockKnown)
	assert.Equal(t, 3, resolved.Stock)
	assert.True(t, r.CanConfirm())
}

func TestUnknownCodeIsNotFoundNotError(t *testing.T) {
	rec := newStateRecorder()
	r := NewReconciler(testCatalog(), ReconcilerConfig{})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "0000000000000"))
	p := rec.wait(t, StateNotFound)
	assert.NoError(t, p.Err)
	assert.Equal(t, "Scanned Item (0000000000000)", p.Item.Name, "placeholder stays editable")
	assert.True(t, r.CanConfirm(), "not-found items are sellable as custom lines")
}

func TestLookupFailureIsErrorState(t *testing.T) {
	rec := newStateRecorder()
	r := NewReconciler(failingResolver{err: errors.New("backend unreachable")}, ReconcilerConfig{})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "8901234567890"))
	p := rec.wait(t, StateError)
	require.Error(t, p.Err)
	assert.Contains(t, p.Err.Error(), "backend unreachable")
	assert.False(t, r.CanConfirm())
}

func TestDuplicateWindowSuppressesRepeatCode(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	r := NewReconciler(testCatalog(), ReconcilerConfig{Clock: clock})

	require.True(t, r.Detected(context.Background(), "8901234567890"))

	now = now.Add(500 * time.Millisecond)
	assert.False(t, r.Detected(context.Background(), "8901234567890"))

	// A different code inside the window is not a duplicate.
	assert.True(t, r.Detected(context.Background(), "8901234567892"))

	now = now.Add(2 * time.Second)
	assert.True(t, r.Detected(context.Background(), "8901234567892"))
}

func TestStaleResolutionDiscarded(t *testing.T) {
	rec := newStateRecorder()
	blocking := &blockingResolver{
		inner:   testCatalog(),
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	r := NewReconciler(blocking, ReconcilerConfig{DuplicateWindow: time.Millisecond})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "8901234567890"))
	<-blocking.started
	rec.wait(t, StateLoading)

	// Second detection supersedes the first while its lookup is in flight.
	time.Sleep(5 * time.Millisecond)
	require.True(t, r.Detected(context.Background(), "8901234567892"))
	<-blocking.started
	second := rec.wait(t, StateLoading)

	close(blocking.release)

	resolved := rec.wait(t, StateResolved)
	assert.Equal(t, second.ID, resolved.ID, "only the live detection may resolve")
	assert.Equal(t, "Leather Loafers", resolved.Item.Name)
	assert.Equal(t, "8901234567892", r.Pending().Code, "late first result must not overwrite the slot")
}

func TestCancelMakesInFlightResultStale(t *testing.T) {
	blocking := &blockingResolver{
		inner:   testCatalog(),
		started: make(chan string, 1),
		release: make(chan struct{}),
	}
	r := NewReconciler(blocking, ReconcilerConfig{})

	require.True(t, r.Detected(context.Background(), "8901234567890"))
	<-blocking.started
	r.Cancel()
	close(blocking.release)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateIdle, r.Pending().State)
	assert.False(t, r.CanConfirm())
}

func TestConfirmAppliesEditedPrice(t *testing.T) {
	rec := newStateRecorder()
	r := NewReconciler(testCatalog(), ReconcilerConfig{})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "8901234567890"))
	rec.wait(t, StateResolved)

	item, ok := r.Confirm(d("850"))
	require.True(t, ok)
	assert.True(t, item.Price.Equal(d("850")))
	assert.Equal(t, int64(101), item.ProductID)
	assert.True(t, item.StockKnown)
	assert.Equal(t, 3, item.StockMax)
	assert.Equal(t, StateIdle, r.Pending().State)
}

func TestConfirmClampsNegativePrice(t *testing.T) {
	rec := newStateRecorder()
	r := NewReconciler(testCatalog(), ReconcilerConfig{})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "0000000000000"))
	rec.wait(t, StateNotFound)

	item, ok := r.Confirm(decimal.NewFromInt(-5))
	require.True(t, ok)
	assert.True(t, item.Price.Equal(decimal.Zero))
}

func TestConfirmRefusedWhenNewDetectionTookTheSlot(t *testing.T) {
	blocking := &blockingResolver{
		inner:   testCatalog(),
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	rec := newStateRecorder()
	r := NewReconciler(blocking, ReconcilerConfig{DuplicateWindow: time.Millisecond})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "8901234567890"))
	<-blocking.started
	rec.wait(t, StateLoading)

	// Resolve the first scan so the confirm button lights up.
	blocking.release <- struct{}{}
	rec.wait(t, StateResolved)

	// A new scan arrives on the decoder goroutine before the user's confirm
	// lands; the slot is back in loading state and must not be confirmable
	// at the first scan's terms.
	time.Sleep(5 * time.Millisecond)
	require.True(t, r.Detected(context.Background(), "8901234567892"))
	<-blocking.started

	_, ok := r.Confirm(d("899"))
	assert.False(t, ok, "a superseding detection invalidates the confirm")
	assert.Equal(t, StateLoading, r.Pending().State)
	close(blocking.release)
}

func TestConfirmRefusedWhileLoadingAndOutOfStock(t *testing.T) {
	blocking := &blockingResolver{
		inner:   testCatalog(),
		started: make(chan string, 1),
		release: make(chan struct{}),
	}
	rec := newStateRecorder()
	r := NewReconciler(blocking, ReconcilerConfig{})
	r.OnChange = rec.record

	require.True(t, r.Detected(context.Background(), "8901234567892"))
	<-blocking.started
	_, ok := r.Confirm(d("2499"))
	assert.False(t, ok, "confirm must wait for resolution")

	close(blocking.release)
	rec.wait(t, StateResolved)
	assert.False(t, r.CanConfirm(), "zero stock blocks confirmation")
	_, ok = r.Confirm(d("2499"))
	assert.False(t, ok)
}
