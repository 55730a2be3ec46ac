package client

import (
	"context"
	"net/http"
	"net/url"
)

// Product is the resolved record for a scanned barcode.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type OrderItemInput struct {
	ProductID int64   `json:"product_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type CreateOrderInput struct {
	CustomerName  string           `json:"customer_name,omitempty"`
	CustomerPhone string           `json:"customer_phone"`
	Dob           string           `json:"dob,omitempty"`
	OrderItems    []OrderItemInput `json:"order_items"`
	Discount      float64          `json:"discount"`
	SubTotal      float64          `json:"sub_total"`
}

type CreateOrderResult struct {
	InvoiceNumber string  `json:"invoice_number"`
	Total         float64 `json:"total"`
	SubTotal      float64 `json:"sub_total"`
	Status        string  `json:"status"`
	Tax           float64 `json:"tax"`
	Discount      float64 `json:"discount"`
}

type loginResult struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Realname    string `json:"realname"`
	Level       string `json:"level"`
}

// Login authenticates and installs the bearer token into the session store.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out loginResult
	found, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return err
	}
	if found {
		c.session.SetToken(out.AccessToken)
	}
	return nil
}

// ProductByCode resolves a barcode. A nil product with a nil error is the
// explicit "no such product" outcome, distinct from a transport failure.
func (c *Client) ProductByCode(ctx context.Context, code string) (*Product, error) {
	var out Product
	found, err := c.do(ctx, http.MethodGet, "/products/by-code/"+url.PathEscape(code), nil, &out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

// CreateOrder submits a finished bill. Server-side failures surface
// verbatim through *APIError.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	var out CreateOrderResult
	if _, err := c.do(ctx, http.MethodPost, "/orders", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories lists catalog categories for manual product entry forms.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if _, err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
