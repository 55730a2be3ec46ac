package posapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
	"github.com/loomoretail/loomopos/pkg/common"
)

type dashboardSummary struct {
	TodaySales     float64 `json:"today_sales"`
	TodayOrders    int64   `json:"today_orders"`
	TodayCustomers int64   `json:"today_customers"`
	ProductCount   int64   `json:"product_count"`
	LowStockCount  int64   `json:"low_stock_count"`
}

func registerDashboardRoutes() {
	webserver.ApiGET("/api/dashboard/summary", dashboardSummaryHandler)
}

func dashboardSummaryHandler(c echo.Context) error {
	db := GetDB(c)
	dayStart := common.DayStart(time.Now())

	var s dashboardSummary
	row := db.Model(&domain.Order{}).
		Select("coalesce(sum(total),0) as sales, count(*) as orders").
		Where("status = ? and created_at >= ?", domain.OrderStatusPaid, dayStart)
	var agg struct {
		Sales  float64
		Orders int64
	}
	if err := row.Scan(&agg).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query sales", err)
	}
	s.TodaySales = agg.Sales
	s.TodayOrders = agg.Orders

	if err := db.Model(&domain.Order{}).
		Where("status = ? and created_at >= ?", domain.OrderStatusPaid, dayStart).
		Distinct("customer_phone").Count(&s.TodayCustomers).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err)
	}
	if err := db.Model(&domain.Product{}).Count(&s.ProductCount).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err)
	}
	if err := db.Model(&domain.Product{}).Where("stock_quantity <= ?", 3).Count(&s.LowStockCount).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock", err)
	}

	return ok(c, s)
}
