package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
)

func TestWriteStockValuation(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStockValuation(&buf, domain.StockValuation{
		Lines: []domain.StockLine{{
			ProductID: 10, Name: "Lait", Barcode: "1000000000016", OnHand: 4,
			PurchasePrice: domain.MustAmount("5"), SalePrice: domain.MustAmount("10"),
			PurchaseValue: domain.MustAmount("20"), SaleValue: domain.MustAmount("40"),
		}},
		TotalQuantity:      4,
		TotalPurchaseValue: domain.MustAmount("20"),
		TotalSaleValue:     domain.MustAmount("40"),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(StockSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header, one line and total, got %d rows", len(rows))
	}
	if rows[1][1] != "Lait" || rows[1][2] != "1000000000016" || rows[1][6] != "20" {
		t.Fatalf("unexpected line row: %v", rows[1])
	}
	if rows[2][0] != "Total" || rows[2][7] != "40" {
		t.Fatalf("unexpected total row: %v", rows[2])
	}
}

func TestWriteSales(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 3, 1, 9, 15, 0, 0, time.Local)
	err := WriteSales(&buf, "2024-03-01", domain.SalesReport{
		Sales: []domain.SaleSummary{{
			Sale:       domain.Sale{ID: 3, Counter: 1, Nature: domain.NatureTicket, At: at},
			SellerName: "ali",
			Total:      domain.MustAmount("20"),
		}},
		Count: 1,
		Total: domain.MustAmount("20"),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SalesSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 || rows[0][1] != "2024-03-01" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[2][2] != "TICKET" || rows[2][3] != "09:15" || rows[2][5] != "ali" {
		t.Fatalf("unexpected sale row: %v", rows[2])
	}
}
