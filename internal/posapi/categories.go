package posapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
)

func registerCategoryRoutes() {
	webserver.ApiGET("/api/categories", listCategories)
	webserver.ApiPOST("/api/categories", createCategory)
}

func listCategories(c echo.Context) error {
	var rows []domain.Category
	if err := GetDB(c).Order("id ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err)
	}
	return ok(c, rows)
}

func createCategory(c echo.Context) error {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err)
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	cat := domain.Category{Name: payload.Name}
	if err := GetDB(c).Create(&cat).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create category", err)
	}
	return ok(c, cat)
}
