package reports

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/partsdeskhq/partsdesk-backend/pkg/enums"
	"github.com/partsdeskhq/partsdesk-backend/pkg/window"
)

type stubRepo struct {
	sales      SalesTotalsRow
	breakdown  []StatusCount
	customer   RefundTotalsRow
	yard       RefundTotalsRow
	monthly    []MonthlyGPRow
	lastWindow window.Window
	lastYear   int
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) SalesTotals(ctx context.Context, win window.Window) (SalesTotalsRow, error) {
	s.lastWindow = win
	return s.sales, nil
}

func (s *stubRepo) StatusBreakdown(ctx context.Context, win window.Window) ([]StatusCount, error) {
	return s.breakdown, nil
}

func (s *stubRepo) CustomerRefundTotals(ctx context.Context, win window.Window) (RefundTotalsRow, error) {
	s.lastWindow = win
	return s.customer, nil
}

func (s *stubRepo) YardRefundTotals(ctx context.Context, win window.Window) (RefundTotalsRow, error) {
	return s.yard, nil
}

func (s *stubRepo) MonthlyGrossProfit(ctx context.Context, year int) ([]MonthlyGPRow, error) {
	s.lastYear = year
	return s.monthly, nil
}

func newTestService(t *testing.T, repo *stubRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time {
		return time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestSalesResolvesWindowAndAssembles(t *testing.T) {
	repo := &stubRepo{
		sales: SalesTotalsRow{
			Orders:      12,
			Revenue:     decimal.NewFromInt(6000),
			Cost:        decimal.NewFromInt(3600),
			Shipping:    decimal.NewFromInt(600),
			GrossProfit: decimal.NewFromInt(1800),
		},
		breakdown: []StatusCount{
			{Status: enums.OrderStatusFulfilled, Count: 8},
			{Status: enums.OrderStatusEscalation, Count: 4},
		},
	}
	svc := newTestService(t, repo)

	report, err := svc.Sales(context.Background(), window.Request{Month: "Oct", Year: 2025})
	if err != nil {
		t.Fatalf("sales: %v", err)
	}

	chicago, _ := time.LoadLocation("America/Chicago")
	wantStart := time.Date(2025, 10, 1, 0, 0, 0, 0, chicago).UTC()
	if !repo.lastWindow.Start.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", repo.lastWindow.Start, wantStart)
	}
	if report.Orders != 12 || !report.GrossProfit.Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.ByStatus) != 2 {
		t.Fatalf("breakdown should pass through, got %+v", report.ByStatus)
	}
}

func TestRefundsCombinesBothPopulations(t *testing.T) {
	repo := &stubRepo{
		customer: RefundTotalsRow{Count: 3, Total: decimal.NewFromInt(900)},
		yard:     RefundTotalsRow{Count: 5, Total: decimal.NewFromInt(1200)},
	}
	svc := newTestService(t, repo)

	report, err := svc.Refunds(context.Background(), window.Request{Month: "Oct", Year: 2025})
	if err != nil {
		t.Fatalf("refunds: %v", err)
	}
	if report.CustomerRefunds != 3 || !report.CustomerRefundTotal.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected customer totals %+v", report)
	}
	if report.YardRefunds != 5 || !report.YardRefundTotal.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected yard totals %+v", report)
	}
}

func TestMonthlyGrossProfitFillsMissingMonths(t *testing.T) {
	repo := &stubRepo{
		monthly: []MonthlyGPRow{
			{Month: 3, Orders: 4, GrossProfit: decimal.NewFromInt(700)},
			{Month: 10, Orders: 9, GrossProfit: decimal.NewFromInt(2100)},
		},
	}
	svc := newTestService(t, repo)

	series, err := svc.MonthlyGrossProfit(context.Background(), 2025)
	if err != nil {
		t.Fatalf("monthly gp: %v", err)
	}
	if len(series) != 12 {
		t.Fatalf("series length = %d, want 12", len(series))
	}
	if series[2].Orders != 4 || !series[2].GrossProfit.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("march point wrong: %+v", series[2])
	}
	if series[0].Orders != 0 || !series[0].GrossProfit.IsZero() {
		t.Fatalf("empty months should be zero-filled: %+v", series[0])
	}
}

func TestMonthlyGrossProfitDefaultsYearToNow(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	if _, err := svc.MonthlyGrossProfit(context.Background(), 0); err != nil {
		t.Fatalf("monthly gp: %v", err)
	}
	if repo.lastYear != 2025 {
		t.Fatalf("year = %d, want clock default 2025", repo.lastYear)
	}
}
