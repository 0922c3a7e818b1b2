package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

// tx binds a sql transaction to one tenant; $1 is always the tenant.
type tx struct {
	tx     *sqlx.Tx
	tenant string
}

func (t *tx) Seller(ctx context.Context, id int64) (domain.Seller, error) {
	var seller domain.Seller
	err := t.tx.GetContext(ctx, &seller, `
		SELECT numero_util, nom, statue, password2, COALESCE(actif, TRUE) AS actif
		FROM utilisateur
		WHERE user_id = $1 AND numero_util = $2
	`, t.tenant, id)
	return seller, notFound(err)
}

const productColumns = `numero_item, bar, designation, qte, prix,
	COALESCE(prixba, '') AS prixba, COALESCE(ref, '') AS ref, id_cat`

func (t *tx) Product(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := t.tx.GetContext(ctx, &p, `
		SELECT `+productColumns+`
		FROM item
		WHERE user_id = $1 AND numero_item = $2
		FOR UPDATE
	`, t.tenant, id)
	return p, notFound(err)
}

func (t *tx) AddStock(ctx context.Context, productID int64, delta int) (int, error) {
	var onHand int
	err := t.tx.GetContext(ctx, &onHand, `
		UPDATE item SET qte = qte + $3
		WHERE user_id = $1 AND numero_item = $2
		RETURNING qte
	`, t.tenant, productID, delta)
	return onHand, notFound(err)
}

func (t *tx) SetPurchasePrice(ctx context.Context, productID int64, price string) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		UPDATE item SET prixba = $3 WHERE user_id = $1 AND numero_item = $2
	`, t.tenant, productID, price))
}

func (t *tx) InsertProduct(ctx context.Context, p domain.Product) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO item (bar, designation, qte, prix, prixba, ref, id_cat, user_id)
		VALUES ($2, $3, $4, $5, $6, $7, $8, $1)
		RETURNING numero_item
	`, t.tenant, p.Barcode, p.Name, p.OnHand, p.SalePrice, nullIfEmpty(p.PurchasePrice), nullIfEmpty(p.Reference), p.CategoryID)
	return id, mapError(err)
}

func (t *tx) ProductCodes(ctx context.Context) ([]domain.ProductCode, error) {
	codes := []domain.ProductCode{}
	err := t.tx.SelectContext(ctx, &codes, `
		SELECT COALESCE(ref, '') AS ref, bar FROM item WHERE user_id = $1
	`, t.tenant)
	return codes, err
}

func (t *tx) LinkedBarcodes(ctx context.Context) ([]string, error) {
	codes := []string{}
	err := t.tx.SelectContext(ctx, &codes, `SELECT bar2 FROM codebar WHERE user_id = $1`, t.tenant)
	return codes, err
}

func (t *tx) BarcodeInUse(ctx context.Context, code string) (bool, error) {
	var used bool
	err := t.tx.GetContext(ctx, &used, `
		SELECT EXISTS (
			SELECT 1 FROM item WHERE user_id = $1 AND bar = $2
			UNION ALL
			SELECT 1 FROM codebar WHERE user_id = $1 AND bar2 = $2
		)
	`, t.tenant, code)
	return used, err
}

func (t *tx) InsertLinkedBarcode(ctx context.Context, linked domain.LinkedBarcode) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO codebar (bar2, id_produit, user_id)
		SELECT $2, numero_item, $1 FROM item WHERE user_id = $1 AND numero_item = $3
		RETURNING n
	`, t.tenant, linked.Barcode, linked.ProductID)
	return id, mapError(err)
}

func (t *tx) LockCatalog(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `LOCK TABLE item, codebar IN SHARE ROW EXCLUSIVE MODE`)
	return err
}

func (t *tx) CategoryInUse(ctx context.Context, categoryID int64) (bool, error) {
	var used bool
	err := t.tx.GetContext(ctx, &used, `
		SELECT EXISTS (SELECT 1 FROM item WHERE user_id = $1 AND id_cat = $2)
	`, t.tenant, categoryID)
	return used, err
}

func (t *tx) DeleteCategory(ctx context.Context, categoryID int64) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		DELETE FROM categorie WHERE user_id = $1 AND id_cat = $2
	`, t.tenant, categoryID))
}

func accountTable(kind domain.PartyKind) (table string, key string) {
	if kind == domain.PartySupplier {
		return "fournisseur", "numero_fou"
	}
	return "client", "numero_clt"
}

func (t *tx) Account(ctx context.Context, party domain.Party) (domain.Account, error) {
	table, key := accountTable(party.Kind)
	var acc domain.Account
	err := t.tx.GetContext(ctx, &acc, `
		SELECT `+key+` AS id, nom, COALESCE(solde, '') AS solde, COALESCE(reference, '') AS reference,
			COALESCE(tel, '') AS tel, COALESCE(adresse, '') AS adresse
		FROM `+table+`
		WHERE user_id = $1 AND `+key+` = $2
		FOR UPDATE
	`, t.tenant, party.ID)
	acc.Kind = party.Kind
	return acc, notFound(err)
}

func (t *tx) SetBalance(ctx context.Context, party domain.Party, balance string) error {
	table, key := accountTable(party.Kind)
	return expectAffected(t.tx.ExecContext(ctx, `
		UPDATE `+table+` SET solde = $3 WHERE user_id = $1 AND `+key+` = $2
	`, t.tenant, party.ID, balance))
}

func (t *tx) MaxSaleCounter(ctx context.Context, nature domain.Nature) (int64, error) {
	if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "comande:"+t.tenant+":"+nature.String()); err != nil {
		return 0, err
	}
	var highest int64
	err := t.tx.GetContext(ctx, &highest, `
		SELECT COALESCE(MAX(compteur), 0) FROM comande WHERE user_id = $1 AND nature = $2
	`, t.tenant, nature)
	return highest, err
}

func (t *tx) InsertSale(ctx context.Context, sale domain.Sale) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO comande (numero_table, date_comande, etat_c, nature, compteur, numero_util, user_id)
		VALUES ($2, $3, $4, $5, $6, $7, $1)
		RETURNING numero_comande
	`, t.tenant, sale.PartyID, sale.At, sale.State, sale.Nature, sale.Counter, nullIfZero(sale.SellerID))
	return id, mapError(err)
}

func (t *tx) Sale(ctx context.Context, id int64) (domain.Sale, error) {
	var sale domain.Sale
	err := t.tx.GetContext(ctx, &sale, `
		SELECT numero_comande, numero_table, date_comande, etat_c, nature, compteur,
			COALESCE(numero_util, 0) AS numero_util
		FROM comande
		WHERE user_id = $1 AND numero_comande = $2
		FOR UPDATE
	`, t.tenant, id)
	return sale, notFound(err)
}

func (t *tx) UpdateSale(ctx context.Context, sale domain.Sale) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		UPDATE comande
		SET numero_table = $3, date_comande = $4, etat_c = $5, nature = $6, compteur = $7, numero_util = $8
		WHERE user_id = $1 AND numero_comande = $2
	`, t.tenant, sale.ID, sale.PartyID, sale.At, sale.State, sale.Nature, sale.Counter, nullIfZero(sale.SellerID)))
}

func (t *tx) DeleteSale(ctx context.Context, id int64) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		DELETE FROM comande WHERE user_id = $1 AND numero_comande = $2
	`, t.tenant, id))
}

func (t *tx) SaleLines(ctx context.Context, saleID int64) ([]domain.SaleLine, error) {
	lines := []domain.SaleLine{}
	err := t.tx.SelectContext(ctx, &lines, `
		SELECT numero_comande, numero_item, quantite, prixt,
			COALESCE(remarque, '') AS remarque, COALESCE(prixbh, '') AS prixbh
		FROM attache
		WHERE user_id = $1 AND numero_comande = $2
		ORDER BY numero_item
	`, t.tenant, saleID)
	return lines, err
}

func (t *tx) InsertSaleLine(ctx context.Context, line domain.SaleLine) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO attache (numero_comande, numero_item, quantite, prixt, remarque, prixbh, user_id)
		VALUES ($2, $3, $4, $5, $6, $7, $1)
	`, t.tenant, line.SaleID, line.ProductID, line.Quantity, line.LineTotal, nullIfEmpty(line.Note), nullIfEmpty(line.PurchasePrice))
	return mapError(err)
}

func (t *tx) DeleteSaleLines(ctx context.Context, saleID int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM attache WHERE user_id = $1 AND numero_comande = $2`, t.tenant, saleID)
	return err
}

func (t *tx) InsertReceipt(ctx context.Context, r domain.Receipt) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO mouvement (numero_four, date_m, etat_m, nature, n_facture, numero_util, user_id)
		VALUES ($2, $3, $4, $5, $6, $7, $1)
		RETURNING numero_mouvement
	`, t.tenant, r.SupplierID, r.At, r.State, r.Nature, nullIfEmpty(r.Reference), nullIfZero(r.SellerID))
	return id, mapError(err)
}

func (t *tx) Receipt(ctx context.Context, id int64) (domain.Receipt, error) {
	var r domain.Receipt
	err := t.tx.GetContext(ctx, &r, `
		SELECT numero_mouvement, numero_four, date_m, etat_m, nature,
			COALESCE(n_facture, '') AS n_facture, COALESCE(numero_util, 0) AS numero_util
		FROM mouvement
		WHERE user_id = $1 AND numero_mouvement = $2
		FOR UPDATE
	`, t.tenant, id)
	return r, notFound(err)
}

func (t *tx) UpdateReceipt(ctx context.Context, r domain.Receipt) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		UPDATE mouvement
		SET numero_four = $3, date_m = $4, etat_m = $5, nature = $6, n_facture = $7, numero_util = $8
		WHERE user_id = $1 AND numero_mouvement = $2
	`, t.tenant, r.ID, r.SupplierID, r.At, r.State, r.Nature, nullIfEmpty(r.Reference), nullIfZero(r.SellerID)))
}

func (t *tx) DeleteReceipt(ctx context.Context, id int64) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		DELETE FROM mouvement WHERE user_id = $1 AND numero_mouvement = $2
	`, t.tenant, id))
}

func (t *tx) ReceiptLines(ctx context.Context, receiptID int64) ([]domain.ReceiptLine, error) {
	lines := []domain.ReceiptLine{}
	err := t.tx.SelectContext(ctx, &lines, `
		SELECT numero_mouvement, numero_item, qtea, nqte, nprix, COALESCE(pump, '') AS pump
		FROM mouvementc
		WHERE user_id = $1 AND numero_mouvement = $2
		ORDER BY numero_item
	`, t.tenant, receiptID)
	return lines, err
}

func (t *tx) InsertReceiptLine(ctx context.Context, line domain.ReceiptLine) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO mouvementc (numero_mouvement, numero_item, qtea, nqte, nprix, pump, user_id)
		VALUES ($2, $3, $4, $5, $6, $7, $1)
	`, t.tenant, line.ReceiptID, line.ProductID, line.Quantity, line.OnHandAfter, line.UnitPrice, nullIfEmpty(line.PreviousPrice))
	return mapError(err)
}

func (t *tx) DeleteReceiptLines(ctx context.Context, receiptID int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM mouvementc WHERE user_id = $1 AND numero_mouvement = $2`, t.tenant, receiptID)
	return err
}

func (t *tx) InsertPayment(ctx context.Context, p domain.Payment) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO encaisse (date_e, heure, montant, justificatif, numero_util, origine, cf, numero_cf, user_id)
		VALUES (to_date($2, 'YYYY-MM-DD'), $3, $4, $5, $6, $7, $8, $9, $1)
		RETURNING numero_encaisse
	`, t.tenant, p.Date, p.Time, p.Amount, nullIfEmpty(p.Memo), nullIfZero(p.SellerID), p.Origin, p.Kind, p.PartyID)
	return id, mapError(err)
}

const paymentColumns = `numero_encaisse, to_char(date_e, 'YYYY-MM-DD') AS date_e, heure, montant,
	COALESCE(justificatif, '') AS justificatif, COALESCE(numero_util, 0) AS numero_util,
	origine, cf, numero_cf`

func (t *tx) Payment(ctx context.Context, id int64) (domain.Payment, error) {
	var p domain.Payment
	err := t.tx.GetContext(ctx, &p, `
		SELECT `+paymentColumns+`
		FROM encaisse
		WHERE user_id = $1 AND numero_encaisse = $2
		FOR UPDATE
	`, t.tenant, id)
	return p, notFound(err)
}

func (t *tx) UpdatePayment(ctx context.Context, p domain.Payment) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		UPDATE encaisse
		SET date_e = to_date($3, 'YYYY-MM-DD'), heure = $4, montant = $5, justificatif = $6,
			numero_util = $7, origine = $8, cf = $9, numero_cf = $10
		WHERE user_id = $1 AND numero_encaisse = $2
	`, t.tenant, p.ID, p.Date, p.Time, p.Amount, nullIfEmpty(p.Memo), nullIfZero(p.SellerID), p.Origin, p.Kind, p.PartyID))
}

func (t *tx) DeletePayment(ctx context.Context, id int64) error {
	return expectAffected(t.tx.ExecContext(ctx, `
		DELETE FROM encaisse WHERE user_id = $1 AND numero_encaisse = $2
	`, t.tenant, id))
}

var _ store.Tx = (*tx)(nil)
