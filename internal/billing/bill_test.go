package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}

func shirt() BillItem {
	return BillItem{
		Name:       "Classic White Shirt",
		Category:   "Shirts",
		Price:      d("899"),
		Quantity:   1,
		ProductID:  101,
		StockKnown: true,
		StockMax:   3,
	}
}

func TestTotalsDerivedFromLines(t *testing.T) {
	b := NewBill()
	b.Merge(BillItem{Name: "A", Category: "Shirts", Price: d("899"), Quantity: 1})
	b.Merge(BillItem{Name: "B", Category: "Pants", Price: d("200"), Quantity: 2})

	assert.True(t, b.SubTotal().Equal(d("1299")), "subtotal = Σ(price×qty), got %s", b.SubTotal())

	b.SetDiscount(d("300"))
	assert.True(t, b.Total().Equal(d("999")))

	// Discount above subtotal is stored as-is; total floors at zero.
	b.SetDiscount(d("1300"))
	assert.True(t, b.Total().Equal(decimal.Zero))
	assert.True(t, b.Discount().Equal(d("1300")), "discount must not be silently clamped")
}

func TestMergeByProductIDAndPrice(t *testing.T) {
	b := NewBill()
	b.Merge(shirt())
	b.Merge(shirt())

	items := b.Items()
	require.Len(t, items, 1, "same (productID, price) must merge")
	assert.Equal(t, 2, items[0].Quantity)

	// Same product at a different price is a separate line.
	discounted := shirt()
	discounted.Price = d("799")
	b.Merge(discounted)
	items = b.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].Price.Equal(d("799")), "new lines are prepended")
}

func TestMergeFallbackKeyForCustomItems(t *testing.T) {
	b := NewBill()
	custom := BillItem{Name: "Scanned Item (555)", Category: CategoryCustom, Price: d("50"), Quantity: 1}
	b.Merge(custom)
	b.Merge(custom)

	items := b.Items()
	require.Len(t, items, 1, "same (name, price, category) must merge when unbacked")
	assert.Equal(t, 2, items[0].Quantity)

	other := custom
	other.Category = "Shirts"
	b.Merge(other)
	assert.Len(t, b.Items(), 2)
}

func TestMergeClampsToStockCeiling(t *testing.T) {
	var notices []Notice
	b := NewBill()
	b.OnNotice = func(n Notice) { notices = append(notices, n) }

	item := shirt() // stock ceiling 3
	item.Quantity = 2
	b.Merge(item)
	b.Merge(item) // 2+2 clamps to 3

	items := b.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Message, "stock limit")
}

func TestNoticeHandlerMayMutateBillDuringMerge(t *testing.T) {
	b := NewBill()
	item := shirt()
	item.Quantity = 2
	b.Merge(item)
	id := b.Items()[0].ID

	// A handler that reacts to the clamp by editing the bill must not
	// deadlock or crash the merge in progress.
	b.OnNotice = func(Notice) { b.Remove(id) }

	require.NotPanics(t, func() { b.Merge(item) })
	assert.Empty(t, b.Items())
}

func TestIncrementRespectsStockCeiling(t *testing.T) {
	var notices []Notice
	b := NewBill()
	b.OnNotice = func(n Notice) { notices = append(notices, n) }

	item := shirt()
	item.Quantity = 3
	b.Merge(item)
	id := b.Items()[0].ID

	b.Increment(id)
	assert.Equal(t, 3, b.Items()[0].Quantity, "quantity beyond ceiling must stay unchanged")
	assert.Len(t, notices, 1)

	// Unknown ceiling increments freely.
	free := BillItem{Name: "X", Category: CategoryCustom, Price: d("10"), Quantity: 1}
	b.Merge(free)
	fid := b.Items()[0].ID
	b.Increment(fid)
	assert.Equal(t, 2, b.Items()[0].Quantity)
}

func TestDecrementToZeroRemovesLine(t *testing.T) {
	b := NewBill()
	b.Merge(BillItem{Name: "X", Category: CategoryCustom, Price: d("10"), Quantity: 2})
	id := b.Items()[0].ID

	b.Decrement(id)
	require.Len(t, b.Items(), 1)
	assert.Equal(t, 1, b.Items()[0].Quantity)

	b.Decrement(id)
	assert.Empty(t, b.Items())
}

func TestQuickModeSubTotal(t *testing.T) {
	b := NewBill()
	b.SetQuickSubTotal(d("450"))
	assert.True(t, b.SubTotal().Equal(d("450")))
	assert.True(t, b.QuickMode())

	b.SetDiscount(d("50"))
	assert.True(t, b.Total().Equal(d("400")))

	b.ClearQuickMode()
	assert.True(t, b.SubTotal().Equal(decimal.Zero))
}

func TestClearAfterSubmitRetainsCustomer(t *testing.T) {
	b := NewBill()
	b.SetCustomer("Asha", "9876543210", "1990-01-01")
	b.Merge(shirt())
	b.SetDiscount(d("100"))

	b.ClearAfterSubmit()
	assert.Empty(t, b.Items())
	assert.True(t, b.Discount().Equal(decimal.Zero))
	name, phone, dob := b.Customer()
	assert.Equal(t, "Asha", name)
	assert.Equal(t, "9876543210", phone)
	assert.Equal(t, "1990-01-01", dob)
}
