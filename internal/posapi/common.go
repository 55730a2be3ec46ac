package posapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/loomoretail/loomopos/internal/app"
	"github.com/loomoretail/loomopos/internal/webserver"
)

var appCtx app.AppContext

// RegisterRoutes wires every POS endpoint onto the initialized webserver.
func RegisterRoutes(ctx app.AppContext) {
	appCtx = ctx
	registerAuthRoutes()
	registerCategoryRoutes()
	registerProductRoutes()
	registerOrderRoutes()
	registerCustomerRoutes()
	registerDashboardRoutes()
}

// GetDB returns the request scoped database handle.
var GetDB = webserver.GetDB

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}
