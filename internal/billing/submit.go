package billing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/loomoretail/loomopos/pkg/client"
	"github.com/loomoretail/loomopos/pkg/common"
)

// OrderService is the order-creation endpoint the bill is handed to.
type OrderService interface {
	CreateOrder(ctx context.Context, input client.CreateOrderInput) (*client.CreateOrderResult, error)
}

// Validation messages shown inline; gates are expressed as errors, never
// panics or silent corrections.
var (
	ErrInvalidPhone     = errors.New("customer phone must be exactly 10 digits")
	ErrDiscountTooLarge = errors.New("discount cannot exceed subtotal")
	ErrNothingToBill    = errors.New("add at least one item or enter a subtotal")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
)

// ValidateForSubmit checks every gate: a ten digit phone, a non-negative
// discount that does not exceed the subtotal, and either at least one
// priced line (itemized mode) or a positive manual subtotal (quick mode).
func ValidateForSubmit(b *Bill) error {
	_, phone, _ := b.Customer()
	if !common.ValidPhone(phone) {
		return ErrInvalidPhone
	}
	sub := b.SubTotal()
	if b.Discount().IsNegative() || b.Discount().GreaterThan(sub) {
		return ErrDiscountTooLarge
	}
	if b.QuickMode() {
		if !sub.IsPositive() {
			return ErrNothingToBill
		}
		return nil
	}
	if len(b.Items()) == 0 {
		return ErrNothingToBill
	}
	return nil
}

// BuildOrderInput assembles the submission payload. Lines without a backing
// product id cannot be persisted server-side and are excluded.
func BuildOrderInput(b *Bill) client.CreateOrderInput {
	name, phone, dob := b.Customer()
	input := client.CreateOrderInput{
		CustomerName:  name,
		CustomerPhone: phone,
		Dob:           dob,
		Discount:      b.Discount().InexactFloat64(),
		SubTotal:      b.SubTotal().InexactFloat64(),
	}
	if b.QuickMode() {
		return input
	}
	for _, it := range b.Items() {
		if it.ProductID == 0 {
			continue
		}
		input.OrderItems = append(input.OrderItems, client.OrderItemInput{
			ProductID: it.ProductID,
			Price:     it.Price.InexactFloat64(),
			Quantity:  it.Quantity,
		})
	}
	return input
}

// Submit validates, sends the bill and applies the success/failure
// contract: on success lines and discount are cleared but the customer is
// kept; on failure the bill is untouched and the endpoint's error comes
// back verbatim.
func Submit(ctx context.Context, svc OrderService, b *Bill) (*client.CreateOrderResult, error) {
	if err := ValidateForSubmit(b); err != nil {
		return nil, err
	}
	input := BuildOrderInput(b)
	if len(input.OrderItems) == 0 && !b.QuickMode() {
		// Every line was unbacked; only quick mode may submit without
		// items.
		return nil, ErrNothingToBill
	}
	result, err := svc.CreateOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	b.ClearAfterSubmit()
	return result, nil
}
