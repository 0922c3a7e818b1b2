package domain

import "time"

// LowStockThreshold is the on-hand level at or below which a product counts as low.
const LowStockThreshold = 5

type ReportQuery struct {
	From     time.Time
	To       time.Time
	PartyID  *int64
	SellerID *int64
	Kind     PartyKind
	Limit    int
}

type SaleSummary struct {
	Sale
	PartyName  string `json:"nom_client" db:"nom_client"`
	SellerName string `json:"nom_vendeur" db:"nom_vendeur"`
	Total      Amount `json:"total" db:"total"`
}

type SalesReport struct {
	Sales []SaleSummary `json:"ventes"`
	Count int           `json:"nombre"`
	Total Amount        `json:"total"`
}

type ReceiptSummary struct {
	Receipt
	SupplierName string `json:"nom_fournisseur" db:"nom_fournisseur"`
	SellerName   string `json:"nom_vendeur" db:"nom_vendeur"`
	TotalCost    Amount `json:"total" db:"total"`
}

type ReceiptsReport struct {
	Receipts []ReceiptSummary `json:"receptions"`
	Count    int              `json:"nombre"`
	Total    Amount           `json:"total"`
}

type PaymentEntry struct {
	Payment
	PartyName string `json:"nom" db:"nom"`
}

type PaymentsReport struct {
	Payments []PaymentEntry `json:"versements"`
	Count    int            `json:"nombre"`
	Total    Amount         `json:"total"`
}

type TopProduct struct {
	ProductID int64  `json:"numero_item" db:"numero_item"`
	Name      string `json:"designation" db:"designation"`
	Quantity  int64  `json:"quantite" db:"quantite"`
	Revenue   Amount `json:"chiffre" db:"chiffre"`
}

type DailyProfit struct {
	Day     string `json:"jour" db:"jour"`
	Revenue Amount `json:"chiffre" db:"chiffre"`
	Cost    Amount `json:"cout" db:"cout"`
	Profit  Amount `json:"benefice" db:"benefice"`
}

type StockLine struct {
	ProductID     int64  `json:"numero_item" db:"numero_item"`
	Name          string `json:"designation" db:"designation"`
	Barcode       string `json:"bar" db:"bar"`
	OnHand        int    `json:"qte" db:"qte"`
	PurchasePrice Amount `json:"prixba" db:"prixba"`
	SalePrice     Amount `json:"prix" db:"prix"`
	PurchaseValue Amount `json:"valeur_achat" db:"valeur_achat"`
	SaleValue     Amount `json:"valeur_vente" db:"valeur_vente"`
}

type StockValuation struct {
	Lines              []StockLine `json:"articles"`
	TotalQuantity      int64       `json:"quantite_totale"`
	TotalPurchaseValue Amount      `json:"valeur_achat"`
	TotalSaleValue     Amount      `json:"valeur_vente"`
}

type Dashboard struct {
	Date             string `json:"date"`
	SalesCount       int    `json:"nombre_ventes"`
	SalesTotal       Amount `json:"total_ventes"`
	Profit           Amount `json:"benefice"`
	ReceiptsTotal    Amount `json:"total_receptions"`
	ClientPayments   Amount `json:"versements_clients"`
	SupplierPayments Amount `json:"versements_fournisseurs"`
	ClientReceivable Amount `json:"creances_clients"`
	SupplierPayable  Amount `json:"dettes_fournisseurs"`
	ProductCount     int    `json:"nombre_articles"`
	LowStockCount    int    `json:"articles_stock_bas"`
}
