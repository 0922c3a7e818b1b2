package store

import (
	"context"
	"errors"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrIntegrity         = errors.New("integrity violation")
	ErrUnavailable       = errors.New("database unavailable")
)

// Repository is the persistence gateway. Every call is scoped to one tenant.
type Repository interface {
	WithTx(ctx context.Context, tenant string, fn func(tx Tx) error) error
	Reports
	Close() error
}

// Tx is a tenant-bound unit of work. Writes become visible only when the
// function passed to WithTx returns nil.
type Tx interface {
	Seller(ctx context.Context, id int64) (domain.Seller, error)

	// Product returns the product row locked for update.
	Product(ctx context.Context, id int64) (domain.Product, error)
	// AddStock shifts the on-hand quantity by delta and returns the new value.
	AddStock(ctx context.Context, productID int64, delta int) (int, error)
	SetPurchasePrice(ctx context.Context, productID int64, price string) error
	InsertProduct(ctx context.Context, product domain.Product) (int64, error)
	ProductCodes(ctx context.Context) ([]domain.ProductCode, error)
	LinkedBarcodes(ctx context.Context) ([]string, error)
	BarcodeInUse(ctx context.Context, code string) (bool, error)
	InsertLinkedBarcode(ctx context.Context, linked domain.LinkedBarcode) (int64, error)
	// LockCatalog serializes code minting with concurrent writers.
	LockCatalog(ctx context.Context) error
	CategoryInUse(ctx context.Context, categoryID int64) (bool, error)
	DeleteCategory(ctx context.Context, categoryID int64) error

	Account(ctx context.Context, party domain.Party) (domain.Account, error)
	SetBalance(ctx context.Context, party domain.Party, balance string) error

	// MaxSaleCounter returns the highest counter used for nature, 0 when none,
	// and holds a lock on the sequence until the transaction ends.
	MaxSaleCounter(ctx context.Context, nature domain.Nature) (int64, error)
	InsertSale(ctx context.Context, sale domain.Sale) (int64, error)
	Sale(ctx context.Context, id int64) (domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) error
	DeleteSale(ctx context.Context, id int64) error
	SaleLines(ctx context.Context, saleID int64) ([]domain.SaleLine, error)
	InsertSaleLine(ctx context.Context, line domain.SaleLine) error
	DeleteSaleLines(ctx context.Context, saleID int64) error

	InsertReceipt(ctx context.Context, receipt domain.Receipt) (int64, error)
	Receipt(ctx context.Context, id int64) (domain.Receipt, error)
	UpdateReceipt(ctx context.Context, receipt domain.Receipt) error
	DeleteReceipt(ctx context.Context, id int64) error
	ReceiptLines(ctx context.Context, receiptID int64) ([]domain.ReceiptLine, error)
	InsertReceiptLine(ctx context.Context, line domain.ReceiptLine) error
	DeleteReceiptLines(ctx context.Context, receiptID int64) error

	InsertPayment(ctx context.Context, payment domain.Payment) (int64, error)
	Payment(ctx context.Context, id int64) (domain.Payment, error)
	UpdatePayment(ctx context.Context, payment domain.Payment) error
	DeletePayment(ctx context.Context, id int64) error
}

// Reports are read-only projections. They run outside any engine
// transaction and may observe state committed after the call started.
type Reports interface {
	SaleDetail(ctx context.Context, tenant string, id int64) (domain.SaleDetail, error)
	ReceiptDetail(ctx context.Context, tenant string, id int64) (domain.ReceiptDetail, error)
	SalesOfDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.SaleSummary, error)
	ReceiptsOfDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.ReceiptSummary, error)
	PaymentHistory(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.PaymentEntry, error)
	TopProducts(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.TopProduct, error)
	ProfitByDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.DailyProfit, error)
	StockValuation(ctx context.Context, tenant string) ([]domain.StockLine, error)
	Dashboard(ctx context.Context, tenant string, q domain.ReportQuery) (domain.Dashboard, error)
}
