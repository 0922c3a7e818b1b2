package domain

import "time"

type SellerInfo struct {
	ID   int64  `json:"numero_util" db:"numero_util"`
	Name string `json:"nom" db:"nom"`
	Role Role   `json:"statue" db:"statue"`
}

type Seller struct {
	SellerInfo
	Secret string `json:"-" db:"password2"`
	Active bool   `json:"actif" db:"actif"`
}

type Category struct {
	ID   int64  `json:"id_cat" db:"id_cat"`
	Name string `json:"description_c" db:"description_c"`
}

type Product struct {
	ID            int64  `json:"numero_item" db:"numero_item"`
	Barcode       string `json:"bar" db:"bar"`
	Name          string `json:"designation" db:"designation"`
	OnHand        int    `json:"qte" db:"qte"`
	SalePrice     Amount `json:"prix" db:"prix"`
	PurchasePrice string `json:"prixba" db:"prixba"`
	Reference     string `json:"ref" db:"ref"`
	CategoryID    *int64 `json:"id_cat,omitempty" db:"id_cat"`
}

// ProductCode is the pair of identifiers minted for a product.
type ProductCode struct {
	Reference string `db:"ref"`
	Barcode   string `db:"bar"`
}

type LinkedBarcode struct {
	ID        int64  `json:"n" db:"n"`
	Barcode   string `json:"bar2" db:"bar2"`
	ProductID int64  `json:"id_produit" db:"id_produit"`
}

// Account is a client or supplier with its running balance.
type Account struct {
	ID        int64     `json:"id" db:"id"`
	Kind      PartyKind `json:"type" db:"-"`
	Name      string    `json:"nom" db:"nom"`
	Balance   string    `json:"solde" db:"solde"`
	Reference string    `json:"reference" db:"reference"`
	Phone     string    `json:"tel" db:"tel"`
	Address   string    `json:"adresse" db:"adresse"`
}

func (a Account) Party() Party {
	return Party{Kind: a.Kind, ID: a.ID}
}

type Sale struct {
	ID       int64     `json:"numero_comande" db:"numero_comande"`
	PartyID  int64     `json:"numero_table" db:"numero_table"`
	At       time.Time `json:"date_comande" db:"date_comande"`
	State    string    `json:"etat_c" db:"etat_c"`
	Nature   Nature    `json:"nature" db:"nature"`
	Counter  int64     `json:"compteur" db:"compteur"`
	SellerID int64     `json:"numero_util" db:"numero_util"`
}

type SaleLine struct {
	SaleID        int64  `json:"numero_comande" db:"numero_comande"`
	ProductID     int64  `json:"numero_item" db:"numero_item"`
	Quantity      int    `json:"quantite" db:"quantite"`
	LineTotal     string `json:"prixt" db:"prixt"`
	Note          string `json:"remarque" db:"remarque"`
	PurchasePrice string `json:"prixbh" db:"prixbh"`
}

type SaleLineDetail struct {
	SaleLine
	ProductName string `json:"designation" db:"designation"`
}

type SaleDetail struct {
	Sale
	PartyName  string           `json:"nom_client" db:"nom_client"`
	SellerName string           `json:"nom_vendeur" db:"nom_vendeur"`
	Total      Amount           `json:"total" db:"total"`
	Lines      []SaleLineDetail `json:"lignes" db:"-"`
}

type Receipt struct {
	ID         int64     `json:"numero_mouvement" db:"numero_mouvement"`
	SupplierID int64     `json:"numero_four" db:"numero_four"`
	At         time.Time `json:"date_m" db:"date_m"`
	State      string    `json:"etat_m" db:"etat_m"`
	Nature     Nature    `json:"nature" db:"nature"`
	Reference  string    `json:"n_facture" db:"n_facture"`
	SellerID   int64     `json:"numero_util" db:"numero_util"`
}

type ReceiptLine struct {
	ReceiptID     int64  `json:"numero_mouvement" db:"numero_mouvement"`
	ProductID     int64  `json:"numero_item" db:"numero_item"`
	Quantity      int    `json:"qtea" db:"qtea"`
	OnHandAfter   int    `json:"nqte" db:"nqte"`
	UnitPrice     string `json:"nprix" db:"nprix"`
	PreviousPrice string `json:"pump" db:"pump"`
}

type ReceiptLineDetail struct {
	ReceiptLine
	ProductName string `json:"designation" db:"designation"`
}

type ReceiptDetail struct {
	Receipt
	SupplierName string              `json:"nom_fournisseur" db:"nom_fournisseur"`
	SellerName   string              `json:"nom_vendeur" db:"nom_vendeur"`
	TotalCost    Amount              `json:"total" db:"total"`
	Lines        []ReceiptLineDetail `json:"lignes" db:"-"`
}

// Payment is one cash movement against a client or supplier account.
type Payment struct {
	ID       int64     `json:"numero_encaisse" db:"numero_encaisse"`
	Date     string    `json:"date_e" db:"date_e"`
	Time     string    `json:"heure" db:"heure"`
	Amount   string    `json:"montant" db:"montant"`
	Memo     string    `json:"justificatif" db:"justificatif"`
	SellerID int64     `json:"numero_util" db:"numero_util"`
	Origin   Origin    `json:"origine" db:"origine"`
	Kind     PartyKind `json:"cf" db:"cf"`
	PartyID  int64     `json:"numero_cf" db:"numero_cf"`
}

func (p Payment) Party() Party {
	return Party{Kind: p.Kind, ID: p.PartyID}
}
