package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

// SalesReport is the dashboard sales summary for one window.
type SalesReport struct {
	Window      window.Window   `json:"window"`
	Orders      int64           `json:"orders"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Shipping    decimal.Decimal `json:"shipping"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
	ByStatus    []StatusCount   `json:"byStatus"`
}

// RefundsReport totals customer-side and yard-side refunds for a window.
type RefundsReport struct {
	Window              window.Window   `json:"window"`
	CustomerRefunds     int64           `json:"customerRefunds"`
	CustomerRefundTotal decimal.Decimal `json:"customerRefundTotal"`
	YardRefunds         int64           `json:"yardRefunds"`
	YardRefundTotal     decimal.Decimal `json:"yardRefundTotal"`
}

// MonthlyGPPoint is one month of the gross-profit chart. Months with no
// orders appear with zero values so the chart always has twelve points.
type MonthlyGPPoint struct {
	Month       time.Month      `json:"month"`
	Orders      int64           `json:"orders"`
	GrossProfit decimal.Decimal `json:"grossProfit"`
}

// Service defines the reporting operations.
type Service interface {
	Sales(ctx context.Context, req window.Request) (*SalesReport, error)
	Refunds(ctx context.Context, req window.Request) (*RefundsReport, error)
	MonthlyGrossProfit(ctx context.Context, year int) ([]MonthlyGPPoint, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the reports service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo, now: window.Now}, nil
}

func (s *service) Sales(ctx context.Context, req window.Request) (*SalesReport, error) {
	win, err := window.Resolve(req, s.now())
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.SalesTotals(ctx, win)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales totals")
	}
	breakdown, err := s.repo.StatusBreakdown(ctx, win)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "status breakdown")
	}

	return &SalesReport{
		Window:      win,
		Orders:      totals.Orders,
		Revenue:     totals.Revenue,
		Cost:        totals.Cost,
		Shipping:    totals.Shipping,
		GrossProfit: totals.GrossProfit,
		ByStatus:    breakdown,
	}, nil
}

func (s *service) Refunds(ctx context.Context, req window.Request) (*RefundsReport, error) {
	win, err := window.Resolve(req, s.now())
	if err != nil {
		return nil, err
	}

	customer, err := s.repo.CustomerRefundTotals(ctx, win)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "customer refund totals")
	}
	yard, err := s.repo.YardRefundTotals(ctx, win)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "yard refund totals")
	}

	return &RefundsReport{
		Window:              win,
		CustomerRefunds:     customer.Count,
		CustomerRefundTotal: customer.Total,
		YardRefunds:         yard.Count,
		YardRefundTotal:     yard.Total,
	}, nil
}

func (s *service) MonthlyGrossProfit(ctx context.Context, year int) ([]MonthlyGPPoint, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 2000 || year > 2100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid year %d", year))
	}

	rows, err := s.repo.MonthlyGrossProfit(ctx, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "monthly gross profit")
	}

	byMonth := make(map[int]MonthlyGPRow, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row
	}

	series := make([]MonthlyGPPoint, 0, 12)
	for m := 1; m <= 12; m++ {
		point := MonthlyGPPoint{Month: time.Month(m), GrossProfit: decimal.Zero}
		if row, ok := byMonth[m]; ok {
			point.Orders = row.Orders
			point.GrossProfit = row.GrossProfit
		}
		series = append(series, point)
	}
	return series, nil
}
