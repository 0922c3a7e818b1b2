package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

func (s *Store) SaleDetail(_ context.Context, tenant string, id int64) (domain.SaleDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	sale, ok := d.sales[id]
	if !ok {
		return domain.SaleDetail{}, store.ErrNotFound
	}
	detail := domain.SaleDetail{
		Sale:       sale,
		PartyName:  d.partyName(domain.Client(sale.PartyID)),
		SellerName: d.sellers[sale.SellerID].Name,
		Lines:      []domain.SaleLineDetail{},
	}
	for _, line := range d.saleLines[id] {
		detail.Lines = append(detail.Lines, domain.SaleLineDetail{SaleLine: line, ProductName: d.products[line.ProductID].Name})
	}
	detail.Total = domain.NewAmount(d.saleTotal(id))
	return detail, nil
}

func (s *Store) ReceiptDetail(_ context.Context, tenant string, id int64) (domain.ReceiptDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	receipt, ok := d.receipts[id]
	if !ok {
		return domain.ReceiptDetail{}, store.ErrNotFound
	}
	detail := domain.ReceiptDetail{
		Receipt:      receipt,
		SupplierName: d.partyName(domain.Supplier(receipt.SupplierID)),
		SellerName:   d.sellers[receipt.SellerID].Name,
		Lines:        []domain.ReceiptLineDetail{},
	}
	for _, line := range d.receiptLines[id] {
		detail.Lines = append(detail.Lines, domain.ReceiptLineDetail{ReceiptLine: line, ProductName: d.products[line.ProductID].Name})
	}
	detail.TotalCost = domain.NewAmount(d.receiptCost(id))
	return detail, nil
}

func (s *Store) SalesOfDay(_ context.Context, tenant string, q domain.ReportQuery) ([]domain.SaleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	out := []domain.SaleSummary{}
	for _, sale := range d.salesIn(q) {
		out = append(out, domain.SaleSummary{
			Sale:       sale,
			PartyName:  d.partyName(domain.Client(sale.PartyID)),
			SellerName: d.sellers[sale.SellerID].Name,
			Total:      domain.NewAmount(d.saleTotal(sale.ID)),
		})
	}
	return out, nil
}

func (s *Store) ReceiptsOfDay(_ context.Context, tenant string, q domain.ReportQuery) ([]domain.ReceiptSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	out := []domain.ReceiptSummary{}
	for _, receipt := range d.receiptsIn(q) {
		out = append(out, domain.ReceiptSummary{
			Receipt:      receipt,
			SupplierName: d.partyName(domain.Supplier(receipt.SupplierID)),
			SellerName:   d.sellers[receipt.SellerID].Name,
			TotalCost:    domain.NewAmount(d.receiptCost(receipt.ID)),
		})
	}
	return out, nil
}

func (s *Store) PaymentHistory(_ context.Context, tenant string, q domain.ReportQuery) ([]domain.PaymentEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	out := []domain.PaymentEntry{}
	for _, p := range d.paymentsIn(q) {
		out = append(out, domain.PaymentEntry{Payment: p, PartyName: d.partyName(p.Party())})
	}
	return out, nil
}

func (s *Store) TopProducts(_ context.Context, tenant string, q domain.ReportQuery) ([]domain.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	byProduct := map[int64]*domain.TopProduct{}
	for _, sale := range d.salesIn(q) {
		for _, line := range d.saleLines[sale.ID] {
			top, ok := byProduct[line.ProductID]
			if !ok {
				top = &domain.TopProduct{ProductID: line.ProductID, Name: d.products[line.ProductID].Name}
				byProduct[line.ProductID] = top
			}
			top.Quantity += int64(line.Quantity)
			top.Revenue = domain.NewAmount(top.Revenue.Add(amount(line.LineTotal)))
		}
	}

	out := make([]domain.TopProduct, 0, len(byProduct))
	for _, top := range byProduct {
		out = append(out, *top)
	}
	slices.SortFunc(out, func(a, b domain.TopProduct) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) ProfitByDay(_ context.Context, tenant string, q domain.ReportQuery) ([]domain.DailyProfit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	type totals struct{ revenue, cost decimal.Decimal }
	byDay := map[string]*totals{}
	for _, sale := range d.salesIn(q) {
		day := sale.At.In(time.Local).Format("2006-01-02")
		acc, ok := byDay[day]
		if !ok {
			acc = &totals{}
			byDay[day] = acc
		}
		acc.revenue = acc.revenue.Add(d.saleTotal(sale.ID))
		acc.cost = acc.cost.Add(d.saleCost(sale.ID))
	}

	out := make([]domain.DailyProfit, 0, len(byDay))
	for day, acc := range byDay {
		out = append(out, domain.DailyProfit{
			Day:     day,
			Revenue: domain.NewAmount(acc.revenue),
			Cost:    domain.NewAmount(acc.cost),
			Profit:  domain.NewAmount(acc.revenue.Sub(acc.cost)),
		})
	}
	slices.SortFunc(out, func(a, b domain.DailyProfit) int { return cmp.Compare(a.Day, b.Day) })
	return out, nil
}

func (s *Store) StockValuation(_ context.Context, tenant string) ([]domain.StockLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	out := make([]domain.StockLine, 0, len(d.products))
	for _, p := range d.products {
		cost := amount(p.PurchasePrice)
		qty := decimal.NewFromInt(int64(p.OnHand))
		out = append(out, domain.StockLine{
			ProductID:     p.ID,
			Name:          p.Name,
			Barcode:       p.Barcode,
			OnHand:        p.OnHand,
			PurchasePrice: domain.NewAmount(cost),
			SalePrice:     p.SalePrice,
			PurchaseValue: domain.NewAmount(qty.Mul(cost)),
			SaleValue:     domain.NewAmount(qty.Mul(p.SalePrice.Decimal)),
		})
	}
	slices.SortFunc(out, func(a, b domain.StockLine) int { return cmp.Compare(a.ProductID, b.ProductID) })
	return out, nil
}

func (s *Store) Dashboard(_ context.Context, tenant string, q domain.ReportQuery) (domain.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.view(tenant)

	dash := domain.Dashboard{Date: q.From.In(time.Local).Format("2006-01-02")}
	revenue, cost := decimal.Zero, decimal.Zero
	for _, sale := range d.salesIn(domain.ReportQuery{From: q.From, To: q.To}) {
		dash.SalesCount++
		revenue = revenue.Add(d.saleTotal(sale.ID))
		cost = cost.Add(d.saleCost(sale.ID))
	}
	dash.SalesTotal = domain.NewAmount(revenue)
	dash.Profit = domain.NewAmount(revenue.Sub(cost))

	receipts := decimal.Zero
	for _, receipt := range d.receiptsIn(domain.ReportQuery{From: q.From, To: q.To}) {
		receipts = receipts.Add(d.receiptCost(receipt.ID))
	}
	dash.ReceiptsTotal = domain.NewAmount(receipts)

	clientIn, supplierOut := decimal.Zero, decimal.Zero
	for _, p := range d.paymentsIn(domain.ReportQuery{From: q.From, To: q.To}) {
		if p.Kind == domain.PartySupplier {
			supplierOut = supplierOut.Add(amount(p.Amount))
		} else {
			clientIn = clientIn.Add(amount(p.Amount))
		}
	}
	dash.ClientPayments = domain.NewAmount(clientIn)
	dash.SupplierPayments = domain.NewAmount(supplierOut)
	dash.ClientReceivable = domain.NewAmount(owed(d.clients))
	dash.SupplierPayable = domain.NewAmount(owed(d.suppliers))

	for _, p := range d.products {
		dash.ProductCount++
		if p.OnHand <= domain.LowStockThreshold {
			dash.LowStockCount++
		}
	}
	return dash, nil
}

func (d *tenantData) partyName(p domain.Party) string {
	if p.ID == 0 {
		return ""
	}
	if p.Kind == domain.PartySupplier {
		return d.suppliers[p.ID].Name
	}
	return d.clients[p.ID].Name
}

func (d *tenantData) saleTotal(id int64) decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.saleLines[id] {
		total = total.Add(amount(line.LineTotal))
	}
	return total
}

func (d *tenantData) saleCost(id int64) decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.saleLines[id] {
		total = total.Add(amount(line.PurchasePrice).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (d *tenantData) receiptCost(id int64) decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.receiptLines[id] {
		total = total.Add(amount(line.UnitPrice).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (d *tenantData) salesIn(q domain.ReportQuery) []domain.Sale {
	out := []domain.Sale{}
	for _, sale := range d.sales {
		if !inWindow(sale.At, q) {
			continue
		}
		if q.PartyID != nil && sale.PartyID != *q.PartyID {
			continue
		}
		if q.SellerID != nil && sale.SellerID != *q.SellerID {
			continue
		}
		out = append(out, sale)
	}
	slices.SortFunc(out, func(a, b domain.Sale) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (d *tenantData) receiptsIn(q domain.ReportQuery) []domain.Receipt {
	out := []domain.Receipt{}
	for _, receipt := range d.receipts {
		if !inWindow(receipt.At, q) {
			continue
		}
		if q.PartyID != nil && receipt.SupplierID != *q.PartyID {
			continue
		}
		if q.SellerID != nil && receipt.SellerID != *q.SellerID {
			continue
		}
		out = append(out, receipt)
	}
	slices.SortFunc(out, func(a, b domain.Receipt) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (d *tenantData) paymentsIn(q domain.ReportQuery) []domain.Payment {
	out := []domain.Payment{}
	for _, p := range d.payments {
		day, err := time.ParseInLocation("2006-01-02", p.Date, time.Local)
		if err != nil || !inWindow(day, q) {
			continue
		}
		if q.Kind != 0 && p.Kind != q.Kind {
			continue
		}
		if q.PartyID != nil && p.PartyID != *q.PartyID {
			continue
		}
		if q.SellerID != nil && p.SellerID != *q.SellerID {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Payment) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func inWindow(at time.Time, q domain.ReportQuery) bool {
	if !q.From.IsZero() && at.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && at.After(q.To) {
		return false
	}
	return true
}

// owed sums the negative balances of a ledger as a positive amount.
func owed(accounts map[int64]domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		if b := amount(acc.Balance); b.IsNegative() {
			total = total.Sub(b)
		}
	}
	return total
}

func amount(raw string) decimal.Decimal {
	d, err := domain.ParseAmount(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
