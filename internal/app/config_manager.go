package app

import (
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/internal/domain"
)

// ConfigManager caches sys_config rows in memory with a periodic refresh so
// hot paths never touch the database for a setting read.
type ConfigManager struct {
	app      *Application
	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

const configCacheTTL = 30 * time.Second

func NewConfigManager(app *Application) *ConfigManager {
	cm := &ConfigManager{app: app, values: make(map[string]string)}
	cm.reload()
	return cm
}

func configKey(category, name string) string {
	return category + "/" + name
}

func (cm *ConfigManager) reload() {
	var rows []domain.SysConfig
	if err := cm.app.DB().Find(&rows).Error; err != nil {
		zap.S().Errorf("load sys_config failed: %v", err)
		return
	}
	next := make(map[string]string, len(rows))
	for _, r := range rows {
		next[configKey(r.Type, r.Name)] = r.Value
	}
	cm.mu.Lock()
	cm.values = next
	cm.loadedAt = time.Now()
	cm.mu.Unlock()
}

func (cm *ConfigManager) get(category, name string) string {
	cm.mu.RLock()
	stale := time.Since(cm.loadedAt) > configCacheTTL
	v := cm.values[configKey(category, name)]
	cm.mu.RUnlock()
	if stale {
		cm.reload()
		cm.mu.RLock()
		v = cm.values[configKey(category, name)]
		cm.mu.RUnlock()
	}
	return v
}

func (cm *ConfigManager) GetString(category, name string) string {
	return cm.get(category, name)
}

func (cm *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(cm.get(category, name))
}

func (cm *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(cm.get(category, name))
}

func (cm *ConfigManager) GetFloat64(category, name string) float64 {
	return cast.ToFloat64(cm.get(category, name))
}

// Save writes settings as category/name pairs ("billing.tax_percent": v) and
// refreshes the cache.
func (cm *ConfigManager) Save(settings map[string]interface{}) error {
	db := cm.app.DB()
	for k, v := range settings {
		category, name := splitSettingKey(k)
		value := cast.ToString(v)
		var row domain.SysConfig
		err := db.Where("type = ? and name = ?", category, name).First(&row).Error
		if err != nil {
			row = domain.SysConfig{Type: category, Name: name, Value: value}
			if err := db.Create(&row).Error; err != nil {
				return err
			}
			continue
		}
		if err := db.Model(&domain.SysConfig{}).Where("id = ?", row.ID).
			Update("value", value).Error; err != nil {
			return err
		}
	}
	cm.reload()
	return nil
}

func splitSettingKey(k string) (category, name string) {
	for i := 0; i < len(k); i++ {
		if k[i] == '.' {
			return k[:i], k[i+1:]
		}
	}
	return "system", k
}
