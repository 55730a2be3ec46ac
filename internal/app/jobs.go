package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	if loc == nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))

	// Daily sales rollup shortly after midnight.
	if _, err := a.sched.AddFunc("5 0 * * *", func() {
		a.runDailySalesRollup(time.Now().AddDate(0, 0, -1))
	}); err != nil {
		zap.L().Error("failed to schedule sales rollup", zap.Error(err))
	}

	// Customer visit stats recount, hourly.
	if _, err := a.sched.AddFunc("@hourly", func() {
		a.runCustomerStatsRecount()
	}); err != nil {
		zap.L().Error("failed to schedule customer recount", zap.Error(err))
	}
}

// runDailySalesRollup aggregates one day of paid orders into sys_config
// backed counters the dashboard reads.
func (a *Application) runDailySalesRollup(day time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	type rollup struct {
		Orders int64
		Sales  float64
	}
	var r rollup
	err := a.gormDB.Model(&domain.Order{}).
		Select("count(*) as orders, coalesce(sum(total),0) as sales").
		Where("status = ? and created_at >= ? and created_at < ?", domain.OrderStatusPaid, start, end).
		Scan(&r).Error
	if err != nil {
		zap.L().Error("sales rollup query failed", zap.Error(err))
		return
	}

	key := start.Format("2006-01-02")
	settings := map[string]interface{}{
		"rollup.orders_" + key: r.Orders,
		"rollup.sales_" + key:  fmt.Sprintf("%.2f", r.Sales),
	}
	if err := a.SaveSettings(settings); err != nil {
		zap.L().Error("sales rollup save failed", zap.Error(err))
		return
	}
	zap.L().Info("daily sales rollup complete",
		zap.String("day", key),
		zap.Int64("orders", r.Orders),
		zap.Float64("sales", r.Sales),
	)
}

// runCustomerStatsRecount rebuilds visit counters from order history.
func (a *Application) runCustomerStatsRecount() {
	var customers []domain.Customer
	if err := a.gormDB.Find(&customers).Error; err != nil {
		zap.L().Error("customer recount query failed", zap.Error(err))
		return
	}
	for _, c := range customers {
		type agg struct {
			Visits int64
			Spent  float64
			Last   time.Time
		}
		var r agg
		err := a.gormDB.Model(&domain.Order{}).
			Select("count(*) as visits, coalesce(sum(total),0) as spent, coalesce(max(created_at), '0001-01-01') as last").
			Where("customer_phone = ? and status = ?", c.Phone, domain.OrderStatusPaid).
			Scan(&r).Error
		if err != nil {
			continue
		}
		a.gormDB.Model(&domain.Customer{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"visit_count": r.Visits,
			"total_spent": r.Spent,
			"last_visit":  r.Last,
		})
	}
}
