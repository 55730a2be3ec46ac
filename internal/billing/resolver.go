package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/loomoretail/loomopos/pkg/client"
)

// ResolvedProduct is a code lookup hit.
type ResolvedProduct struct {
	ProductID int64
	Name      string
	Category  string
	Price     decimal.Decimal
	Stock     int
}

// Resolver turns a decoded code into a sellable item. A nil product with a
// nil error is the explicit "no such product" outcome and is not an error.
type Resolver interface {
	ByCode(ctx context.Context, code string) (*ResolvedProduct, error)
}

// StaticResolver is the simplest configuration: a fixed in-memory
// code→product table.
type StaticResolver map[string]ResolvedProduct

func (r StaticResolver) ByCode(_ context.Context, code string) (*ResolvedProduct, error) {
	p, found := r[code]
	if !found {
		return nil, nil
	}
	return &p, nil
}

// RemoteResolver looks products up through the backend client.
type RemoteResolver struct {
	Client *client.Client
}

func (r *RemoteResolver) ByCode(ctx context.Context, code string) (*ResolvedProduct, error) {
	p, err := r.Client.ProductByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	category := p.Category
	if category == "" {
		category = CategoryCustom
	}
	return &ResolvedProduct{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  category,
		Price:     decimal.NewFromFloat(p.Price),
		Stock:     p.StockQuantity,
	}, nil
}
