package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/cache"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

const dayLayout = "2006-01-02"

// ParseDay reads a YYYY-MM-DD date as a local day. Blank means no day.
func ParseDay(raw string) (time.Time, bool, error) {
	if raw == "" {
		return time.Time{}, false, nil
	}
	day, err := time.ParseInLocation(dayLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false, badInput("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, true, nil
}

// DayWindow spans the local days from..to inclusive, down to the last
// millisecond of to.
func DayWindow(from time.Time, to time.Time) (time.Time, time.Time) {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), time.Local)
	return start, end
}

// window defaults an empty query to the current local day.
func (s *Service) window(q domain.ReportQuery) domain.ReportQuery {
	if q.From.IsZero() {
		q.From = s.now()
	}
	if q.To.IsZero() || q.To.Before(q.From) {
		q.To = q.From
	}
	q.From, q.To = DayWindow(q.From, q.To)
	return q
}

func (s *Service) SalesOfDay(ctx context.Context, tenant string, q domain.ReportQuery) (domain.SalesReport, error) {
	sales, err := s.repo.SalesOfDay(ctx, tenant, s.window(q))
	if err != nil {
		return domain.SalesReport{}, err
	}
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.Total.Decimal)
	}
	return domain.SalesReport{Sales: sales, Count: len(sales), Total: domain.NewAmount(total)}, nil
}

func (s *Service) ReceiptsOfDay(ctx context.Context, tenant string, q domain.ReportQuery) (domain.ReceiptsReport, error) {
	receipts, err := s.repo.ReceiptsOfDay(ctx, tenant, s.window(q))
	if err != nil {
		return domain.ReceiptsReport{}, err
	}
	total := decimal.Zero
	for _, r := range receipts {
		total = total.Add(r.TotalCost.Decimal)
	}
	return domain.ReceiptsReport{Receipts: receipts, Count: len(receipts), Total: domain.NewAmount(total)}, nil
}

func (s *Service) PaymentHistory(ctx context.Context, tenant string, q domain.ReportQuery) (domain.PaymentsReport, error) {
	payments, err := s.repo.PaymentHistory(ctx, tenant, s.window(q))
	if err != nil {
		return domain.PaymentsReport{}, err
	}
	total := decimal.Zero
	for _, p := range payments {
		amount, err := domain.ParseAmount(p.Amount)
		if err != nil {
			return domain.PaymentsReport{}, store.ErrIntegrity
		}
		total = total.Add(amount)
	}
	return domain.PaymentsReport{Payments: payments, Count: len(payments), Total: domain.NewAmount(total)}, nil
}

func (s *Service) TopProducts(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.TopProduct, error) {
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	return s.repo.TopProducts(ctx, tenant, s.window(q))
}

func (s *Service) ProfitByDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.DailyProfit, error) {
	return s.repo.ProfitByDay(ctx, tenant, s.window(q))
}

func (s *Service) StockValuation(ctx context.Context, tenant string) (domain.StockValuation, error) {
	lines, err := s.repo.StockValuation(ctx, tenant)
	if err != nil {
		return domain.StockValuation{}, err
	}
	out := domain.StockValuation{Lines: lines}
	purchase, sale := decimal.Zero, decimal.Zero
	for _, line := range lines {
		out.TotalQuantity += int64(line.OnHand)
		purchase = purchase.Add(line.PurchaseValue.Decimal)
		sale = sale.Add(line.SaleValue.Decimal)
	}
	out.TotalPurchaseValue = domain.NewAmount(purchase)
	out.TotalSaleValue = domain.NewAmount(sale)
	return out, nil
}

// Dashboard returns the day's KPIs, served from the projection cache while
// no write has happened for the tenant.
func (s *Service) Dashboard(ctx context.Context, tenant string, day time.Time) (domain.Dashboard, error) {
	q := s.window(domain.ReportQuery{From: day, To: day})
	key := cache.DashboardKey(tenant, q.From.Format(dayLayout))

	var cached domain.Dashboard
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("tenant", tenant), zap.Error(err))
	}
	if found {
		return cached, nil
	}

	dashboard, err := s.repo.Dashboard(ctx, tenant, q)
	if err != nil {
		return domain.Dashboard{}, err
	}
	if err := s.cache.Set(ctx, key, dashboard, s.reportCacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("tenant", tenant), zap.Error(err))
	}
	return dashboard, nil
}
