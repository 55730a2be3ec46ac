package domain

import "time"

// Order status values.
const (
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

type Customer struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"size:128" json:"name"`
	Phone      string    `gorm:"uniqueIndex;size:16" json:"phone"`
	Dob        string    `gorm:"size:16" json:"dob"` // YYYY-MM-DD, optional
	VisitCount int       `json:"visit_count"`
	TotalSpent float64   `json:"total_spent"`
	LastVisit  time.Time `json:"last_visit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Customer) TableName() string {
	return "pos_customer"
}

type Order struct {
	ID            int64       `gorm:"primaryKey" json:"id,string"`
	InvoiceNumber string      `gorm:"uniqueIndex;size:32" json:"invoice_number"`
	CustomerID    int64       `gorm:"index" json:"customer_id"`
	CustomerPhone string      `gorm:"index;size:16" json:"customer_phone"`
	CustomerName  string      `gorm:"size:128" json:"customer_name"`
	SubTotal      float64     `json:"sub_total"`
	Discount      float64     `json:"discount"`
	Tax           float64     `json:"tax"`
	Total         float64     `json:"total"`
	Status        string      `gorm:"size:16" json:"status"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "pos_order"
}

// OrderItem snapshots the price at sale time; later catalog edits do not
// rewrite history.
type OrderItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"index" json:"order_id,string"`
	ProductID int64     `gorm:"index" json:"product_id"`
	Name      string    `gorm:"size:200" json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "pos_order_item"
}
