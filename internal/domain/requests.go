package domain

import "time"

type SellerCredential struct {
	SellerID int64  `json:"numero_util" validate:"required,gt=0"`
	Secret   string `json:"password2" validate:"required"`
}

type SaleLineInput struct {
	ProductID     int64   `json:"numero_item" validate:"required,gt=0"`
	Quantity      int     `json:"quantite" validate:"gt=0"`
	LineTotal     Amount  `json:"prixt"`
	Note          string  `json:"remarque" validate:"max=200"`
	PurchasePrice *Amount `json:"prixbh,omitempty"`
}

type CreateSaleRequest struct {
	SellerCredential
	PartyID    int64           `json:"numero_table" validate:"gte=0"`
	At         *time.Time      `json:"date_comande,omitempty"`
	Mode       PaymentMode     `json:"payment_mode"`
	AmountPaid Amount          `json:"amount_paid"`
	Lines      []SaleLineInput `json:"lignes" validate:"required,min=1,dive"`
}

// UpdateSaleRequest takes the same body as a new sale. Mode and AmountPaid
// are accepted but a modification never touches the client balance.
type UpdateSaleRequest struct {
	SellerCredential
	PartyID    int64           `json:"numero_table" validate:"gte=0"`
	At         *time.Time      `json:"date_comande,omitempty"`
	Mode       PaymentMode     `json:"payment_mode"`
	AmountPaid Amount          `json:"amount_paid"`
	Lines      []SaleLineInput `json:"lignes" validate:"required,min=1,dive"`
}

type CancelSaleRequest struct {
	SaleID int64  `json:"numero_comande" validate:"required,gt=0"`
	Secret string `json:"password2" validate:"required"`
}

type ReceiptLineInput struct {
	ProductID int64  `json:"numero_item" validate:"required,gt=0"`
	Quantity  int    `json:"qtea" validate:"gte=0"`
	UnitPrice Amount `json:"prixbh"`
}

type CreateReceiptRequest struct {
	SellerCredential
	SupplierID int64              `json:"numero_four" validate:"required,gt=0"`
	At         *time.Time         `json:"date_m,omitempty"`
	Lines      []ReceiptLineInput `json:"lignes" validate:"required,min=1,dive"`
}

type UpdateReceiptRequest struct {
	SellerCredential
	// SupplierID moves the receipt to another supplier; 0 keeps the current one.
	SupplierID int64              `json:"numero_four" validate:"gte=0"`
	Lines      []ReceiptLineInput `json:"lignes" validate:"required,min=1,dive"`
}

type CancelReceiptRequest struct {
	ReceiptID int64  `json:"numero_mouvement" validate:"required,gt=0"`
	Secret    string `json:"password2" validate:"required"`
}

type CreatePaymentRequest struct {
	SellerCredential
	Kind    PartyKind `json:"type" validate:"required"`
	PartyID int64     `json:"numero_cf" validate:"required,gt=0"`
	Amount  Amount    `json:"montant"`
	Memo    string    `json:"justificatif" validate:"max=200"`
}

type UpdatePaymentRequest struct {
	SellerCredential
	PaymentID int64     `json:"numero_encaisse" validate:"required,gt=0"`
	Kind      PartyKind `json:"type" validate:"required"`
	PartyID   int64     `json:"numero_cf" validate:"required,gt=0"`
	Amount    Amount    `json:"montant"`
	Memo      string    `json:"justificatif" validate:"max=200"`
}

// CancelPaymentRequest accepts the payment body; only the id and the seller
// credential are used, the stored payment decides what is reversed.
type CancelPaymentRequest struct {
	SellerCredential
	PaymentID int64     `json:"numero_encaisse" validate:"required,gt=0"`
	Kind      PartyKind `json:"type"`
	PartyID   int64     `json:"numero_cf"`
	Amount    Amount    `json:"montant"`
	Memo      string    `json:"justificatif"`
}

type CreateProductRequest struct {
	Name          string `json:"designation" validate:"required,max=100"`
	Barcode       string `json:"bar" validate:"max=30"`
	Reference     string `json:"ref" validate:"max=30"`
	OnHand        int    `json:"qte" validate:"gte=0"`
	SalePrice     Amount `json:"prix"`
	PurchasePrice Amount `json:"prixba"`
	CategoryID    *int64 `json:"id_cat,omitempty"`
}

type LinkedBarcodeRequest struct {
	Barcode string `json:"bar2" validate:"max=30"`
}
