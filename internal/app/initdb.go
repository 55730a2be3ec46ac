package app

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/pkg/common"
)

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "loomopos"

	hashedPassword := common.Sha256HashWithSalt(defaultPassword, common.GetSecretSalt())

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     common.NA,
			Username:  superUsername,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
	}
}

var defaultSettings = []domain.SysConfig{
	{Type: "system", Name: "store_name", Value: "LOOMO", Remark: "store display name"},
	{Type: "billing", Name: "tax_percent", Value: "0", Remark: "tax applied on order total"},
	{Type: "billing", Name: "request_timeout", Value: "10", Remark: "seconds before a product lookup or order submit is abandoned"},
	{Type: "scanner", Name: "duplicate_window_ms", Value: "1200", Remark: "window for suppressing repeat scans of the same code"},
}

func (a *Application) checkSettings() {
	for _, s := range defaultSettings {
		var row domain.SysConfig
		err := a.gormDB.Where("type = ? and name = ?", s.Type, s.Name).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.ID = common.UUIDint64()
			if err := a.gormDB.Create(&s).Error; err != nil {
				zap.L().Error("failed to create default setting", zap.String("name", s.Name), zap.Error(err))
			}
		}
	}
}

var defaultCategories = []string{"Shirts", "Pants", "Shoes", "Accessories", "Custom"}

func (a *Application) checkCategories() {
	for _, name := range defaultCategories {
		var c domain.Category
		err := a.gormDB.Where("name = ?", name).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := a.gormDB.Create(&domain.Category{Name: name}).Error; err != nil {
				zap.L().Error("failed to create default category", zap.String("name", name), zap.Error(err))
			}
		}
	}
}

// checkSeedProducts installs a small demo catalog so a fresh install can
// scan something immediately.
func (a *Application) checkSeedProducts() {
	seeds := []struct {
		barcode  string
		name     string
		category string
		cost     float64
		price    float64
		stock    int
	}{
		{"8901234567890", "Classic White Shirt", "Shirts", 600, 899, 20},
		{"8901234567891", "Slim-Fit Chinos", "Pants", 900, 1299, 15},
		{"8901234567892", "Leather Loafers", "Shoes", 1800, 2499, 8},
	}
	for _, s := range seeds {
		var p domain.Product
		err := a.gormDB.Where("barcode = ?", s.barcode).First(&p).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		var cat domain.Category
		if err := a.gormDB.Where("name = ?", s.category).First(&cat).Error; err != nil {
			continue
		}
		if err := a.gormDB.Create(&domain.Product{
			Barcode:       s.barcode,
			Name:          s.name,
			CategoryID:    cat.ID,
			CostPrice:     s.cost,
			Price:         s.price,
			StockQuantity: s.stock,
			OfferType:     domain.OfferNone,
		}).Error; err != nil {
			zap.L().Error("failed to seed product", zap.String("barcode", s.barcode), zap.Error(err))
		}
	}
}
