package memory

import (
	"context"
	"slices"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

type tx struct {
	data      *tenantData
	sequences map[string]int64
}

func (t *tx) nextID(table string) int64 {
	t.sequences[table]++
	return t.sequences[table]
}

func (t *tx) Seller(_ context.Context, id int64) (domain.Seller, error) {
	seller, ok := t.data.sellers[id]
	if !ok {
		return domain.Seller{}, store.ErrNotFound
	}
	return seller, nil
}

func (t *tx) Product(_ context.Context, id int64) (domain.Product, error) {
	p, ok := t.data.products[id]
	if !ok {
		return domain.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (t *tx) AddStock(_ context.Context, productID int64, delta int) (int, error) {
	p, ok := t.data.products[productID]
	if !ok {
		return 0, store.ErrNotFound
	}
	p.OnHand += delta
	t.data.products[productID] = p
	return p.OnHand, nil
}

func (t *tx) SetPurchasePrice(_ context.Context, productID int64, price string) error {
	p, ok := t.data.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.PurchasePrice = price
	t.data.products[productID] = p
	return nil
}

func (t *tx) InsertProduct(_ context.Context, product domain.Product) (int64, error) {
	for _, p := range t.data.products {
		if p.Barcode == product.Barcode {
			return 0, store.ErrConflict
		}
	}
	if product.CategoryID != nil {
		if _, ok := t.data.categories[*product.CategoryID]; !ok {
			return 0, store.ErrIntegrity
		}
	}
	product.ID = t.nextID("item")
	t.data.products[product.ID] = product
	return product.ID, nil
}

func (t *tx) ProductCodes(_ context.Context) ([]domain.ProductCode, error) {
	codes := make([]domain.ProductCode, 0, len(t.data.products))
	for _, p := range t.data.products {
		codes = append(codes, domain.ProductCode{Reference: p.Reference, Barcode: p.Barcode})
	}
	return codes, nil
}

func (t *tx) LinkedBarcodes(_ context.Context) ([]string, error) {
	codes := make([]string, 0, len(t.data.linked))
	for _, l := range t.data.linked {
		codes = append(codes, l.Barcode)
	}
	return codes, nil
}

func (t *tx) BarcodeInUse(_ context.Context, code string) (bool, error) {
	for _, p := range t.data.products {
		if p.Barcode == code {
			return true, nil
		}
	}
	for _, l := range t.data.linked {
		if l.Barcode == code {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) InsertLinkedBarcode(_ context.Context, linked domain.LinkedBarcode) (int64, error) {
	if _, ok := t.data.products[linked.ProductID]; !ok {
		return 0, store.ErrNotFound
	}
	for _, l := range t.data.linked {
		if l.Barcode == linked.Barcode {
			return 0, store.ErrConflict
		}
	}
	linked.ID = t.nextID("codebar")
	t.data.linked[linked.ID] = linked
	return linked.ID, nil
}

// LockCatalog is a no-op: the store already runs one writer at a time.
func (t *tx) LockCatalog(_ context.Context) error { return nil }

func (t *tx) CategoryInUse(_ context.Context, categoryID int64) (bool, error) {
	for _, p := range t.data.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) DeleteCategory(_ context.Context, categoryID int64) error {
	if _, ok := t.data.categories[categoryID]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.categories, categoryID)
	return nil
}

func (t *tx) accounts(kind domain.PartyKind) map[int64]domain.Account {
	if kind == domain.PartySupplier {
		return t.data.suppliers
	}
	return t.data.clients
}

func (t *tx) Account(_ context.Context, party domain.Party) (domain.Account, error) {
	acc, ok := t.accounts(party.Kind)[party.ID]
	if !ok {
		return domain.Account{}, store.ErrNotFound
	}
	return acc, nil
}

func (t *tx) SetBalance(_ context.Context, party domain.Party, balance string) error {
	accounts := t.accounts(party.Kind)
	acc, ok := accounts[party.ID]
	if !ok {
		return store.ErrNotFound
	}
	acc.Balance = balance
	accounts[party.ID] = acc
	return nil
}

func (t *tx) MaxSaleCounter(_ context.Context, nature domain.Nature) (int64, error) {
	var highest int64
	for _, sale := range t.data.sales {
		if sale.Nature == nature && sale.Counter > highest {
			highest = sale.Counter
		}
	}
	return highest, nil
}

func (t *tx) InsertSale(_ context.Context, sale domain.Sale) (int64, error) {
	sale.ID = t.nextID("comande")
	t.data.sales[sale.ID] = sale
	return sale.ID, nil
}

func (t *tx) Sale(_ context.Context, id int64) (domain.Sale, error) {
	sale, ok := t.data.sales[id]
	if !ok {
		return domain.Sale{}, store.ErrNotFound
	}
	return sale, nil
}

func (t *tx) UpdateSale(_ context.Context, sale domain.Sale) error {
	if _, ok := t.data.sales[sale.ID]; !ok {
		return store.ErrNotFound
	}
	t.data.sales[sale.ID] = sale
	return nil
}

func (t *tx) DeleteSale(_ context.Context, id int64) error {
	if _, ok := t.data.sales[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.sales, id)
	return nil
}

func (t *tx) SaleLines(_ context.Context, saleID int64) ([]domain.SaleLine, error) {
	return slices.Clone(t.data.saleLines[saleID]), nil
}

func (t *tx) InsertSaleLine(_ context.Context, line domain.SaleLine) error {
	if _, ok := t.data.sales[line.SaleID]; !ok {
		return store.ErrIntegrity
	}
	if _, ok := t.data.products[line.ProductID]; !ok {
		return store.ErrIntegrity
	}
	t.data.saleLines[line.SaleID] = append(t.data.saleLines[line.SaleID], line)
	return nil
}

func (t *tx) DeleteSaleLines(_ context.Context, saleID int64) error {
	delete(t.data.saleLines, saleID)
	return nil
}

func (t *tx) InsertReceipt(_ context.Context, receipt domain.Receipt) (int64, error) {
	receipt.ID = t.nextID("mouvement")
	t.data.receipts[receipt.ID] = receipt
	return receipt.ID, nil
}

func (t *tx) Receipt(_ context.Context, id int64) (domain.Receipt, error) {
	receipt, ok := t.data.receipts[id]
	if !ok {
		return domain.Receipt{}, store.ErrNotFound
	}
	return receipt, nil
}

func (t *tx) UpdateReceipt(_ context.Context, receipt domain.Receipt) error {
	if _, ok := t.data.receipts[receipt.ID]; !ok {
		return store.ErrNotFound
	}
	t.data.receipts[receipt.ID] = receipt
	return nil
}

func (t *tx) DeleteReceipt(_ context.Context, id int64) error {
	if _, ok := t.data.receipts[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.receipts, id)
	return nil
}

func (t *tx) ReceiptLines(_ context.Context, receiptID int64) ([]domain.ReceiptLine, error) {
	return slices.Clone(t.data.receiptLines[receiptID]), nil
}

func (t *tx) InsertReceiptLine(_ context.Context, line domain.ReceiptLine) error {
	if _, ok := t.data.receipts[line.ReceiptID]; !ok {
		return store.ErrIntegrity
	}
	if _, ok := t.data.products[line.ProductID]; !ok {
		return store.ErrIntegrity
	}
	t.data.receiptLines[line.ReceiptID] = append(t.data.receiptLines[line.ReceiptID], line)
	return nil
}

func (t *tx) DeleteReceiptLines(_ context.Context, receiptID int64) error {
	delete(t.data.receiptLines, receiptID)
	return nil
}

func (t *tx) InsertPayment(_ context.Context, payment domain.Payment) (int64, error) {
	payment.ID = t.nextID("encaisse")
	t.data.payments[payment.ID] = payment
	return payment.ID, nil
}

func (t *tx) Payment(_ context.Context, id int64) (domain.Payment, error) {
	payment, ok := t.data.payments[id]
	if !ok {
		return domain.Payment{}, store.ErrNotFound
	}
	return payment, nil
}

func (t *tx) UpdatePayment(_ context.Context, payment domain.Payment) error {
	if _, ok := t.data.payments[payment.ID]; !ok {
		return store.ErrNotFound
	}
	t.data.payments[payment.ID] = payment
	return nil
}

func (t *tx) DeletePayment(_ context.Context, id int64) error {
	if _, ok := t.data.payments[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.payments, id)
	return nil
}
