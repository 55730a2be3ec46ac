package posapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductByCodeResolvesWithCategoryName(t *testing.T) {
	db := newTestDB(t)
	shirt, _ := seedCatalog(t, db)

	c, rec := newJSONContext(t, db, http.MethodGet, "/api/products/by-code/8901234567890", nil)
	c.SetPath("/api/products/by-code/:code")
	c.SetParamNames("code")
	c.SetParamValues("8901234567890")
	require.NoError(t, productByCode(c))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Errors)
	var result resolvedProduct
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, shirt.ID, result.ID)
	assert.Equal(t, "Classic White Shirt", result.Name)
	assert.Equal(t, "Shirts", result.Category)
	assert.Equal(t, 3, result.StockQuantity)
	assert.InDelta(t, 899.0, result.Price, 0.001)
}

func TestProductByCodeUnknownIsEmptyEnvelope(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	c, rec := newJSONContext(t, db, http.MethodGet, "/api/products/by-code/0000000000000", nil)
	c.SetPath("/api/products/by-code/:code")
	c.SetParamNames("code")
	c.SetParamValues("0000000000000")
	require.NoError(t, productByCode(c))

	assert.Equal(t, http.StatusOK, rec.Code, "a miss is a business outcome, not an HTTP error")
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "null", string(env.Data))
	assert.Nil(t, env.Errors)
}

func TestProductByCodeRequiresCode(t *testing.T) {
	db := newTestDB(t)

	c, rec := newJSONContext(t, db, http.MethodGet, "/api/products/by-code/%20", nil)
	c.SetPath("/api/products/by-code/:code")
	c.SetParamNames("code")
	c.SetParamValues("  ")
	require.NoError(t, productByCode(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "INVALID_REQUEST", env.Errors[0].Code)
}

func TestListProductsSearchAndPagination(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)

	c, rec := newJSONContext(t, db, http.MethodGet, "/api/products?q=shirt&page=1&pageSize=10", nil)
	c.SetPath("/api/products")
	require.NoError(t, listProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var page struct {
		Items []json.RawMessage `json:"items"`
		Total int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
}
