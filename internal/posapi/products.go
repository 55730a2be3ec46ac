package posapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
)

type productPayload struct {
	Barcode       string  `json:"barcode"`
	Name          string  `json:"name" validate:"required,min=1,max=200"`
	CategoryID    int64   `json:"category_id"`
	Description   string  `json:"description"`
	Size          string  `json:"size"`
	Color         string  `json:"color"`
	CostPrice     float64 `json:"cost_price"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	OfferType     string  `json:"offer_type"`
	OfferValue    float64 `json:"offer_value"`
}

// resolvedProduct is the lookup shape the terminal consumes when a barcode
// is scanned.
type resolvedProduct struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category"`
}

// registerProductRoutes registers product CRUD plus barcode resolution.
func registerProductRoutes() {
	webserver.ApiGET("/api/products", listProducts)
	webserver.ApiGET("/api/products/:id", getProduct)
	webserver.ApiGET("/api/products/by-code/:code", productByCode)
	webserver.ApiPOST("/api/products", createProduct)
	webserver.ApiPUT("/api/products/:id", updateProduct)
	webserver.ApiDELETE("/api/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	q := strings.TrimSpace(c.QueryParam("q"))
	categoryStr := strings.TrimSpace(c.QueryParam("category_id"))

	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"name":       "name",
		"price":      "price",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol || sortCol == "" {
		sortCol = "updated_at"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			db = db.Where("name ILIKE ? OR barcode ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ?", like, like)
		}
	}
	if categoryStr != "" {
		if cid, err := strconv.ParseInt(categoryStr, 10, 64); err == nil {
			db = db.Where("category_id = ?", cid)
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err)
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err)
	}

	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

// productByCode resolves a scanned barcode. A missing product is a valid
// business outcome and answers with a null-data envelope rather than an
// error entry.
func productByCode(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Barcode is required", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("barcode = ?", code).First(&p).Error; err != nil {
		return empty(c)
	}
	var cat domain.Category
	_ = GetDB(c).Where("id = ?", p.CategoryID).First(&cat).Error
	return ok(c, resolvedProduct{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Barcode:       p.Barcode,
		Category:      cat.Name,
	})
}

func validateProductPayload(c echo.Context, payload *productPayload) error {
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name is required", nil)
	}
	if payload.Price < 0 || payload.CostPrice < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
	}
	if payload.StockQuantity < 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock quantity must be >= 0", nil)
	}
	switch payload.OfferType {
	case "", domain.OfferNone:
		payload.OfferType = domain.OfferNone
		payload.OfferValue = 0
	case domain.OfferPercentage, domain.OfferFlat:
		if payload.OfferValue < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Offer value must be >= 0", nil)
		}
	default:
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Offer type must be NONE, PERCENTAGE or FLAT", nil)
	}
	var cat domain.Category
	if err := GetDB(c).Where("id = ?", payload.CategoryID).First(&cat).Error; err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown category", nil)
	}
	return nil
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err)
	}
	if err := validateProductPayload(c, &payload); err != nil {
		return err
	}

	p := domain.Product{
		Barcode:       strings.TrimSpace(payload.Barcode),
		Name:          payload.Name,
		CategoryID:    payload.CategoryID,
		Description:   strings.TrimSpace(payload.Description),
		Size:          strings.TrimSpace(payload.Size),
		Color:         strings.TrimSpace(payload.Color),
		CostPrice:     payload.CostPrice,
		Price:         payload.Price,
		StockQuantity: payload.StockQuantity,
		OfferType:     payload.OfferType,
		OfferValue:    payload.OfferValue,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err)
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err)
	}
	if err := validateProductPayload(c, &payload); err != nil {
		return err
	}

	p.Barcode = strings.TrimSpace(payload.Barcode)
	p.Name = payload.Name
	p.CategoryID = payload.CategoryID
	p.Description = strings.TrimSpace(payload.Description)
	p.Size = strings.TrimSpace(payload.Size)
	p.Color = strings.TrimSpace(payload.Color)
	p.CostPrice = payload.CostPrice
	p.Price = payload.Price
	p.StockQuantity = payload.StockQuantity
	p.OfferType = payload.OfferType
	p.OfferValue = payload.OfferValue

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err)
	}
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err)
	}
	return ok(c, map[string]interface{}{"id": id})
}
