package billing

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryCustom is the category for scanned items that did not resolve to
// a catalog product.
const CategoryCustom = "Custom"

// BillItem is one line of the in-progress sale. ID is a local identity, not
// the product id; ProductID is zero when the line has no catalog backing.
type BillItem struct {
	ID         string
	Name       string
	Category   string
	Price      decimal.Decimal
	Quantity   int
	ProductID  int64
	StockKnown bool
	StockMax   int
}

// NewItemID allocates a local line identity.
func NewItemID() string {
	return uuid.NewString()
}

// sameLine reports whether other merges into it: (productID, price) when a
// product backs the line, else (name, price, category). The fallback can
// combine two distinct custom items that share a name and price; that is
// the intended fast path for repeat custom entries.
func (it BillItem) sameLine(other BillItem) bool {
	if it.ProductID != 0 || other.ProductID != 0 {
		return it.ProductID == other.ProductID && it.Price.Equal(other.Price)
	}
	return it.Name == other.Name && it.Price.Equal(other.Price) && it.Category == other.Category
}

// Notice is a transient user-visible message (e.g. stock limit reached).
type Notice struct {
	Message string
}

// Bill is the editable in-progress sale. Totals are always derived, never
// stored. Quick mode bills carry a manually entered subtotal and no lines.
type Bill struct {
	mu            sync.Mutex
	items         []BillItem
	discount      decimal.Decimal
	customerName  string
	customerPhone string
	customerDob   string
	quickMode     bool
	quickSubTotal decimal.Decimal

	// OnNotice receives transient notices. Optional.
	OnNotice func(Notice)
}

func NewBill() *Bill {
	return &Bill{}
}

func (b *Bill) notify(format string, args ...interface{}) {
	if b.OnNotice != nil {
		b.OnNotice(Notice{Message: fmt.Sprintf(format, args...)})
	}
}

// Items returns a copy of the current lines, newest first.
func (b *Bill) Items() []BillItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BillItem, len(b.items))
	copy(out, b.items)
	return out
}

// Merge folds item into the bill: quantity onto a matching line, clamped to
// its stock ceiling, or a new line prepended.
func (b *Bill) Merge(item BillItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.ID == "" {
		item.ID = NewItemID()
	}

	clampedName := ""
	b.mu.Lock()
	merged := false
	for i := range b.items {
		if !b.items[i].sameLine(item) {
			continue
		}
		next := b.items[i].Quantity + item.Quantity
		if b.items[i].StockKnown && next > b.items[i].StockMax {
			next = b.items[i].StockMax
			clampedName = b.items[i].Name
		}
		b.items[i].Quantity = next
		merged = true
		break
	}
	if !merged {
		b.items = append([]BillItem{item}, b.items...)
	}
	b.mu.Unlock()

	// Notify only after the mutation is complete so a handler may freely
	// re-edit the bill.
	if clampedName != "" {
		b.notify("stock limit reached for %s", clampedName)
	}
}

// Increment raises a line's quantity by one unless its stock ceiling is
// known and already reached.
func (b *Bill) Increment(id string) {
	b.mu.Lock()
	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		if b.items[i].StockKnown && b.items[i].Quantity+1 > b.items[i].StockMax {
			name := b.items[i].Name
			b.mu.Unlock()
			b.notify("stock limit reached for %s", name)
			return
		}
		b.items[i].Quantity++
		break
	}
	b.mu.Unlock()
}

// Decrement lowers a line's quantity by one and removes the line at zero.
func (b *Bill) Decrement(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID != id {
			continue
		}
		b.items[i].Quantity--
		if b.items[i].Quantity <= 0 {
			b.items = append(b.items[:i], b.items[i+1:]...)
		}
		return
	}
}

// Remove deletes a line outright.
func (b *Bill) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

// SubTotal is Σ(price × quantity), or the manual subtotal in quick mode.
func (b *Bill) SubTotal() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subTotalLocked()
}

func (b *Bill) subTotalLocked() decimal.Decimal {
	if b.quickMode {
		return b.quickSubTotal
	}
	sum := decimal.Zero
	for _, it := range b.items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Total is max(0, subtotal − discount).
func (b *Bill) Total() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.subTotalLocked().Sub(b.discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

func (b *Bill) Discount() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.discount
}

// SetDiscount stores the raw value; validity is judged at submission, not
// silently corrected here.
func (b *Bill) SetDiscount(d decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.discount = d
}

func (b *Bill) SetCustomer(name, phone, dob string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.customerName = name
	b.customerPhone = phone
	b.customerDob = dob
}

func (b *Bill) Customer() (name, phone, dob string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.customerName, b.customerPhone, b.customerDob
}

// SetQuickSubTotal switches the bill into quick (freehand total) mode.
func (b *Bill) SetQuickSubTotal(v decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quickMode = true
	b.quickSubTotal = v
}

// ClearQuickMode returns to itemized billing.
func (b *Bill) ClearQuickMode() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quickMode = false
	b.quickSubTotal = decimal.Zero
}

func (b *Bill) QuickMode() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quickMode
}

// ClearAfterSubmit resets lines, discount and quick subtotal but keeps the
// customer for rapid repeat billing of the same walk-in.
func (b *Bill) ClearAfterSubmit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.discount = decimal.Zero
	b.quickMode = false
	b.quickSubTotal = decimal.Zero
}
