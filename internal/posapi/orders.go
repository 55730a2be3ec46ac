package posapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
	"github.com/loomoretail/loomopos/pkg/common"
	"github.com/loomoretail/loomopos/pkg/metrics"
)

type orderItemInput struct {
	ProductID int64   `json:"product_id"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type createOrderInput struct {
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	Dob           string           `json:"dob"`
	OrderItems    []orderItemInput `json:"order_items"`
	Discount      float64          `json:"discount"`
	SubTotal      float64          `json:"sub_total"`
}

type createOrderResult struct {
	InvoiceNumber string  `json:"invoice_number"`
	Total         float64 `json:"total"`
	SubTotal      float64 `json:"sub_total"`
	Status        string  `json:"status"`
	Tax           float64 `json:"tax"`
	Discount      float64 `json:"discount"`
}

func registerOrderRoutes() {
	webserver.ApiGET("/api/orders", listOrders)
	webserver.ApiGET("/api/orders/:invoice", getOrder)
	webserver.ApiPOST("/api/orders", createOrder)
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Order{})
	if phone := strings.TrimSpace(c.QueryParam("phone")); phone != "" {
		db = db.Where("customer_phone = ?", phone)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err)
	}
	var rows []domain.Order
	if err := db.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err)
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	invoice := strings.TrimSpace(c.Param("invoice"))
	var row domain.Order
	if err := GetDB(c).Preload("Items").Where("invoice_number = ?", invoice).First(&row).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	return ok(c, row)
}

// createOrder finalizes a bill. Item prices are taken from the submitted
// bill, not the catalog; stock is decremented inside the same transaction
// and oversell aborts the whole order.
func createOrder(c echo.Context) error {
	var input createOrderInput
	if err := c.Bind(&input); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order", err)
	}

	input.CustomerPhone = strings.TrimSpace(input.CustomerPhone)
	if !common.ValidPhone(input.CustomerPhone) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Customer phone must be exactly 10 digits", nil)
	}
	if input.Discount < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Discount must be >= 0", nil)
	}
	if input.SubTotal < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Subtotal must be >= 0", nil)
	}
	for _, it := range input.OrderItems {
		if it.Quantity < 1 || it.Price < 0 || it.ProductID <= 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Order items must have a product, a non-negative price and quantity >= 1", nil)
		}
	}

	subTotal := input.SubTotal
	if len(input.OrderItems) > 0 {
		subTotal = 0
		for _, it := range input.OrderItems {
			subTotal += it.Price * float64(it.Quantity)
		}
	}
	if input.Discount > subTotal {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Discount cannot exceed subtotal", nil)
	}

	taxPercent := float64(0)
	if appCtx != nil {
		taxPercent = float64(appCtx.GetSettingsInt64Value("billing", "tax_percent"))
	}
	base := subTotal - input.Discount
	tax := base * taxPercent / 100
	total := base + tax
	if total < 0 {
		total = 0
	}

	order := domain.Order{
		ID:            common.UUIDint64(),
		InvoiceNumber: fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102"), common.UUID()),
		CustomerPhone: input.CustomerPhone,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		SubTotal:      subTotal,
		Discount:      input.Discount,
		Tax:           tax,
		Total:         total,
		Status:        domain.OrderStatusPaid,
	}

	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		for _, it := range input.OrderItems {
			var p domain.Product
			if err := tx.Where("id = ?", it.ProductID).First(&p).Error; err != nil {
				return fmt.Errorf("product %d not found", it.ProductID)
			}
			if p.StockQuantity < it.Quantity {
				return fmt.Errorf("insufficient stock for %s: have %d, want %d", p.Name, p.StockQuantity, it.Quantity)
			}
			if err := tx.Model(&domain.Product{}).Where("id = ?", p.ID).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", it.Quantity)).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: it.ProductID,
				Name:      p.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
			})
		}

		var customer domain.Customer
		err := tx.Where("phone = ?", input.CustomerPhone).First(&customer).Error
		if err != nil {
			customer = domain.Customer{
				Name:       order.CustomerName,
				Phone:      input.CustomerPhone,
				Dob:        strings.TrimSpace(input.Dob),
				VisitCount: 1,
				TotalSpent: total,
				LastVisit:  time.Now(),
			}
			if err := tx.Create(&customer).Error; err != nil {
				return err
			}
		} else {
			updates := map[string]interface{}{
				"visit_count": gorm.Expr("visit_count + 1"),
				"total_spent": gorm.Expr("total_spent + ?", total),
				"last_visit":  time.Now(),
			}
			if order.CustomerName != "" {
				updates["name"] = order.CustomerName
			}
			if dob := strings.TrimSpace(input.Dob); dob != "" {
				updates["dob"] = dob
			}
			if err := tx.Model(&domain.Customer{}).Where("id = ?", customer.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		order.CustomerID = customer.ID

		return tx.Create(&order).Error
	})
	if err != nil {
		if metrics.Default != nil {
			metrics.Default.OrderErrors.Inc()
		}
		return fail(c, http.StatusUnprocessableEntity, "ORDER_FAILED", err.Error(), err)
	}

	if metrics.Default != nil {
		metrics.Default.OrdersCreated.Inc()
	}
	zap.L().Info("order created",
		zap.String("invoice", order.InvoiceNumber),
		zap.Float64("total", order.Total),
		zap.Int("items", len(order.Items)),
	)

	return ok(c, createOrderResult{
		InvoiceNumber: order.InvoiceNumber,
		Total:         order.Total,
		SubTotal:      order.SubTotal,
		Status:        order.Status,
		Tax:           order.Tax,
		Discount:      order.Discount,
	})
}
