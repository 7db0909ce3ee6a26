package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/db/models"
	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) SalesTotals(ctx context.Context, win window.Window) (SalesTotalsRow, error) {
	var row SalesTotalsRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS orders, " +
			"COALESCE(SUM(sale_price), 0) AS revenue, " +
			"COALESCE(SUM(part_cost), 0) AS cost, " +
			"COALESCE(SUM(shipping_fee), 0) AS shipping, " +
			"COALESCE(SUM(gross_profit), 0) AS gross_profit").
		Where("order_date >= ? AND order_date < ?", win.Start, win.End).
		Scan(&row).Error
	return row, err
}

func (r *repository) StatusBreakdown(ctx context.Context, win window.Window) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("order_date >= ? AND order_date < ?", win.Start, win.End).
		Group("status").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) CustomerRefundTotals(ctx context.Context, win window.Window) (RefundTotalsRow, error) {
	var row RefundTotalsRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(cust_refund_amount), 0) AS total").
		Where("cust_refund_date >= ? AND cust_refund_date < ?", win.Start, win.End).
		Scan(&row).Error
	return row, err
}

func (r *repository) YardRefundTotals(ctx context.Context, win window.Window) (RefundTotalsRow, error) {
	var row RefundTotalsRow
	err := r.db.WithContext(ctx).
		Model(&models.Yard{}).
		Select("COUNT(*) AS count, COALESCE(SUM(refunded_amount), 0) AS total").
		Where("refund_status = ?", enums.YardRefundCollected).
		Where("refund_date >= ? AND refund_date < ?", win.Start, win.End).
		Scan(&row).Error
	return row, err
}

func (r *repository) MonthlyGrossProfit(ctx context.Context, year int) ([]MonthlyGPRow, error) {
	loc, err := time.LoadLocation(window.BusinessTimezone)
	if err != nil {
		return nil, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc).UTC()
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc).UTC()

	var rows []MonthlyGPRow
	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("EXTRACT(MONTH FROM order_date AT TIME ZONE ?)::int AS month, "+
			"COUNT(*) AS orders, "+
			"COALESCE(SUM(gross_profit), 0) AS gross_profit", window.BusinessTimezone).
		Where("order_date >= ? AND order_date < ?", start, end).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}
