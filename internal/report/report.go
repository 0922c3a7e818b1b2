package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
)

const (
	StockSheet = "Stock"
	SalesSheet = "Ventes"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func WriteStockValuation(w io.Writer, v domain.StockValuation) error {
	f, err := newWorkbook(StockSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := [][]any{{"Article", "Designation", "Code barre", "Quantite", "Prix achat", "Prix vente", "Valeur achat", "Valeur vente"}}
	for _, line := range v.Lines {
		rows = append(rows, []any{
			line.ProductID, line.Name, line.Barcode, line.OnHand,
			money(line.PurchasePrice), money(line.SalePrice), money(line.PurchaseValue), money(line.SaleValue),
		})
	}
	rows = append(rows, []any{"Total", "", "", v.TotalQuantity, "", "", money(v.TotalPurchaseValue), money(v.TotalSaleValue)})

	if err := writeRows(f, StockSheet, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func WriteSales(w io.Writer, day string, r domain.SalesReport) error {
	f, err := newWorkbook(SalesSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	rows := [][]any{
		{"Ventes du", day},
		{"Numero", "Compteur", "Nature", "Heure", "Client", "Vendeur", "Total"},
	}
	for _, sale := range r.Sales {
		rows = append(rows, []any{
			sale.ID, sale.Counter, sale.Nature.String(), sale.At.Format("15:04"),
			sale.PartyName, sale.SellerName, money(sale.Total),
		})
	}
	rows = append(rows, []any{"Total", r.Count, "", "", "", "", money(r.Total)})

	if err := writeRows(f, SalesSheet, rows); err != nil {
		return err
	}
	return f.Write(w)
}

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

func money(a domain.Amount) float64 {
	return a.Round(2).InexactFloat64()
}
