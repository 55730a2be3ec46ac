package posapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/loomoretail/loomopos/config"
	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
)

// settingsStub satisfies the application context with fixed settings.
type settingsStub struct {
	taxPercent int64
}

func (s *settingsStub) DB() *gorm.DB                                 { return nil }
func (s *settingsStub) Config() *config.AppConfig                    { return nil }
func (s *settingsStub) Scheduler() *cron.Cron                        { return nil }
func (s *settingsStub) MigrateDB(bool) error                         { return nil }
func (s *settingsStub) InitDb()                                      {}
func (s *settingsStub) DropAll()                                     {}
func (s *settingsStub) SaveSettings(map[string]interface{}) error    { return nil }
func (s *settingsStub) GetSettingsStringValue(string, string) string { return "" }
func (s *settingsStub) GetSettingsBoolValue(string, string) bool     { return false }

func (s *settingsStub) GetSettingsInt64Value(category, name string) int64 {
	if category == "billing" && name == "tax_percent" {
		return s.taxPercent
	}
	return 0
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (shirt, loafers domain.Product) {
	t.Helper()
	cat := domain.Category{Name: "Shirts"}
	require.NoError(t, db.Create(&cat).Error)

	shirt = domain.Product{
		Barcode: "8901234567890", Name: "Classic White Shirt",
		CategoryID: cat.ID, Price: 899, StockQuantity: 3, OfferType: domain.OfferNone,
	}
	loafers = domain.Product{
		Barcode: "8901234567892", Name: "Leather Loafers",
		CategoryID: cat.ID, Price: 2499, StockQuantity: 1, OfferType: domain.OfferNone,
	}
	require.NoError(t, db.Create(&shirt).Error)
	require.NoError(t, db.Create(&loafers).Error)
	return shirt, loafers
}

func newJSONContext(t *testing.T, db *gorm.DB, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	webserver.SetDB(c, db)
	return c, rec
}

type testEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []ApiError      `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func useSettings(t *testing.T, stub *settingsStub) {
	t.Helper()
	prev := appCtx
	appCtx = stub
	t.Cleanup(func() { appCtx = prev })
}

func TestCreateOrderDecrementsStockAndRecordsCustomer(t *testing.T) {
	db := newTestDB(t)
	shirt, _ := seedCatalog(t, db)
	useSettings(t, &settingsStub{taxPercent: 10})

	c, rec := newJSONContext(t, db, http.MethodPost, "/api/orders", createOrderInput{
		CustomerName:  "Asha",
		CustomerPhone: "9876543210",
		Discount:      98,
		OrderItems: []orderItemInput{
			{ProductID: shirt.ID, Price: 899, Quantity: 2},
		},
	})
	require.NoError(t, createOrder(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result createOrderResult
	env := decodeEnvelope(t, rec)
	require.Nil(t, env.Errors)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, strings.HasPrefix(result.InvoiceNumber, "INV-"))
	assert.Equal(t, domain.OrderStatusPaid, result.Status)
	assert.InDelta(t, 1798.0, result.SubTotal, 0.001)
	assert.InDelta(t, 170.0, result.Tax, 0.001, "tax applies to subtotal minus discount")
	assert.InDelta(t, 1870.0, result.Total, 0.001)

	var p domain.Product
	require.NoError(t, db.First(&p, shirt.ID).Error)
	assert.Equal(t, 1, p.StockQuantity)

	var cust domain.Customer
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&cust).Error)
	assert.Equal(t, "Asha", cust.Name)
	assert.Equal(t, 1, cust.VisitCount)
	assert.InDelta(t, 1870.0, cust.TotalSpent, 0.001)

	var order domain.Order
	require.NoError(t, db.Preload("Items").Where("invoice_number = ?", result.InvoiceNumber).First(&order).Error)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Classic White Shirt", order.Items[0].Name, "item name snapshots the catalog")
}

func TestCreateOrderOversellAbortsWholeOrder(t *testing.T) {
	db := newTestDB(t)
	shirt, loafers := seedCatalog(t, db)
	useSettings(t, &settingsStub{})

	c, rec := newJSONContext(t, db, http.MethodPost, "/api/orders", createOrderInput{
		CustomerPhone: "9876543210",
		OrderItems: []orderItemInput{
			{ProductID: shirt.ID, Price: 899, Quantity: 1},
			{ProductID: loafers.ID, Price: 2499, Quantity: 2}, // stock is 1
		},
	})
	require.NoError(t, createOrder(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "ORDER_FAILED", env.Errors[0].Code)
	assert.Contains(t, env.Errors[0].Message, "insufficient stock for Leather Loafers")

	// The shirt decrement from the same transaction must roll back.
	var p domain.Product
	require.NoError(t, db.First(&p, shirt.ID).Error)
	assert.Equal(t, 3, p.StockQuantity)

	var orders int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	var customers int64
	require.NoError(t, db.Model(&domain.Customer{}).Count(&customers).Error)
	assert.Zero(t, customers, "no customer record without a sale")
}

func TestCreateOrderValidationGates(t *testing.T) {
	db := newTestDB(t)
	shirt, _ := seedCatalog(t, db)
	useSettings(t, &settingsStub{})

	cases := []struct {
		name  string
		input createOrderInput
	}{
		{"short phone", createOrderInput{CustomerPhone: "12345"}},
		{"non-numeric phone", createOrderInput{CustomerPhone: "98765abc10"}},
		{"negative discount", createOrderInput{CustomerPhone: "9876543210", Discount: -1,
			OrderItems: []orderItemInput{{ProductID: shirt.ID, Price: 899, Quantity: 1}}}},
		{"discount above subtotal", createOrderInput{CustomerPhone: "9876543210", Discount: 900,
			OrderItems: []orderItemInput{{ProductID: shirt.ID, Price: 899, Quantity: 1}}}},
		{"zero quantity", createOrderInput{CustomerPhone: "9876543210",
			OrderItems: []orderItemInput{{ProductID: shirt.ID, Price: 899, Quantity: 0}}}},
		{"missing product id", createOrderInput{CustomerPhone: "9876543210",
			OrderItems: []orderItemInput{{Price: 899, Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newJSONContext(t, db, http.MethodPost, "/api/orders", tc.input)
			require.NoError(t, createOrder(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			require.Len(t, env.Errors, 1)
			assert.Equal(t, "INVALID_REQUEST", env.Errors[0].Code)
		})
	}

	// No stock moved for any rejected attempt.
	var p domain.Product
	require.NoError(t, db.First(&p, shirt.ID).Error)
	assert.Equal(t, 3, p.StockQuantity)
}

func TestCreateOrderRepeatCustomerAccumulates(t *testing.T) {
	db := newTestDB(t)
	shirt, _ := seedCatalog(t, db)
	useSettings(t, &settingsStub{})

	submit := func(name string) {
		c, rec := newJSONContext(t, db, http.MethodPost, "/api/orders", createOrderInput{
			CustomerName:  name,
			CustomerPhone: "9876543210",
			OrderItems:    []orderItemInput{{ProductID: shirt.ID, Price: 899, Quantity: 1}},
		})
		require.NoError(t, createOrder(c))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	submit("Asha")
	submit("Asha R")

	var cust domain.Customer
	require.NoError(t, db.Where("phone = ?", "9876543210").First(&cust).Error)
	assert.Equal(t, 2, cust.VisitCount)
	assert.InDelta(t, 1798.0, cust.TotalSpent, 0.001)
	assert.Equal(t, "Asha R", cust.Name, "a non-empty name updates the record")

	var customers int64
	require.NoError(t, db.Model(&domain.Customer{}).Count(&customers).Error)
	assert.Equal(t, int64(1), customers)
}

func TestCreateOrderQuickModeWithoutItems(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	useSettings(t, &settingsStub{})

	c, rec := newJSONContext(t, db, http.MethodPost, "/api/orders", createOrderInput{
		CustomerPhone: "9876543210",
		SubTotal:      450,
		Discount:      50,
	})
	require.NoError(t, createOrder(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result createOrderResult
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.InDelta(t, 450.0, result.SubTotal, 0.001)
	assert.InDelta(t, 400.0, result.Total, 0.001)
}
