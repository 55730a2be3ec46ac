package posapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
)

func registerCustomerRoutes() {
	webserver.ApiGET("/api/customers", listCustomers)
	webserver.ApiGET("/api/customers/:phone", getCustomer)
}

func listCustomers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Customer{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			db = db.Where("name ILIKE ? OR phone LIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			db = db.Where("LOWER(name) LIKE ? OR phone LIKE ?", "%"+strings.ToLower(q)+"%", "%"+q+"%")
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err)
	}
	var rows []domain.Customer
	if err := db.Order("last_visit DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err)
	}
	return paged(c, rows, total, page, pageSize)
}

func getCustomer(c echo.Context) error {
	phone := strings.TrimSpace(c.Param("phone"))
	var row domain.Customer
	if err := GetDB(c).Where("phone = ?", phone).First(&row).Error; err != nil {
		return empty(c)
	}
	return ok(c, row)
}
