package reports

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

// SalesTotalsRow aggregates order pricing over a window.
type SalesTotalsRow struct {
	Orders      int64           `gorm:"column:orders"`
	Revenue     decimal.Decimal `gorm:"column:revenue"`
	Cost        decimal.Decimal `gorm:"column:cost"`
	Shipping    decimal.Decimal `gorm:"column:shipping"`
	GrossProfit decimal.Decimal `gorm:"column:gross_profit"`
}

// StatusCount is one order-status bucket in the sales breakdown.
type StatusCount struct {
	Status enums.OrderStatus `gorm:"column:status"`
	Count  int64             `gorm:"column:count"`
}

// RefundTotalsRow aggregates one refund population.
type RefundTotalsRow struct {
	Count int64           `gorm:"column:count"`
	Total decimal.Decimal `gorm:"column:total"`
}

// MonthlyGPRow is one month in the gross-profit series.
type MonthlyGPRow struct {
	Month       int             `gorm:"column:month"`
	Orders      int64           `gorm:"column:orders"`
	GrossProfit decimal.Decimal `gorm:"column:gross_profit"`
}

// Repository defines the aggregation queries behind the report endpoints.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SalesTotals(ctx context.Context, win window.Window) (SalesTotalsRow, error)
	StatusBreakdown(ctx context.Context, win window.Window) ([]StatusCount, error)
	CustomerRefundTotals(ctx context.Context, win window.Window) (RefundTotalsRow, error)
	YardRefundTotals(ctx context.Context, win window.Window) (RefundTotalsRow, error)
	MonthlyGrossProfit(ctx context.Context, year int) ([]MonthlyGPRow, error)
}
