package domain

import "time"

// Offer types applied to a product's selling price.
const (
	OfferNone       = "NONE"
	OfferPercentage = "PERCENTAGE"
	OfferFlat       = "FLAT"
)

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "pos_category"
}

// Product is a sellable catalog item. Barcode is optional; products without
// one can only enter a bill through manual entry.
type Product struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Barcode       string    `gorm:"index;size:64" json:"barcode"`
	Name          string    `gorm:"index;size:200" json:"name"`
	CategoryID    int64     `gorm:"index" json:"category_id"`
	Description   string    `gorm:"size:1024" json:"description"`
	Size          string    `gorm:"size:32" json:"size"`
	Color         string    `gorm:"size:32" json:"color"`
	CostPrice     float64   `json:"cost_price"`
	Price         float64   `json:"price"` // selling price per unit
	StockQuantity int       `json:"stock_quantity"`
	OfferType     string    `gorm:"size:16" json:"offer_type"`
	OfferValue    float64   `json:"offer_value"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "pos_product"
}
