package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
)

var (
	saleTotalSQL = `COALESCE((
		SELECT SUM(` + numeric("a.prixt") + `) FROM attache a
		WHERE a.user_id = c.user_id AND a.numero_comande = c.numero_comande
	), 0)`

	receiptTotalSQL = `COALESCE((
		SELECT SUM(l.qtea * ` + numeric("l.nprix") + `) FROM mouvementc l
		WHERE l.user_id = m.user_id AND l.numero_mouvement = m.numero_mouvement
	), 0)`
)

const saleSummaryFrom = `
	FROM comande c
	LEFT JOIN client cl ON cl.user_id = c.user_id AND cl.numero_clt = c.numero_table
	LEFT JOIN utilisateur u ON u.user_id = c.user_id AND u.numero_util = c.numero_util`

const receiptSummaryFrom = `
	FROM mouvement m
	LEFT JOIN fournisseur f ON f.user_id = m.user_id AND f.numero_fou = m.numero_four
	LEFT JOIN utilisateur u ON u.user_id = m.user_id AND u.numero_util = m.numero_util`

func saleSummaryColumns() string {
	return `c.numero_comande, c.numero_table, c.date_comande, c.etat_c, c.nature, c.compteur,
		COALESCE(c.numero_util, 0) AS numero_util,
		COALESCE(cl.nom, '') AS nom_client, COALESCE(u.nom, '') AS nom_vendeur,
		` + saleTotalSQL + ` AS total`
}

func receiptSummaryColumns() string {
	return `m.numero_mouvement, m.numero_four, m.date_m, m.etat_m, m.nature,
		COALESCE(m.n_facture, '') AS n_facture, COALESCE(m.numero_util, 0) AS numero_util,
		COALESCE(f.nom, '') AS nom_fournisseur, COALESCE(u.nom, '') AS nom_vendeur,
		` + receiptTotalSQL + ` AS total`
}

// filters accumulates optional WHERE clauses after the tenant argument.
type filters struct {
	clauses []string
	args    []any
}

func newFilters(tenant string, tenantCol string) *filters {
	return &filters{clauses: []string{tenantCol + " = $1"}, args: []any{tenant}}
}

func (f *filters) add(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, fmt.Sprintf(clause, len(f.args)))
}

func (f *filters) where() string {
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

func (s *Store) SaleDetail(ctx context.Context, tenant string, id int64) (domain.SaleDetail, error) {
	var detail domain.SaleDetail
	err := s.db.GetContext(ctx, &detail, `SELECT `+saleSummaryColumns()+saleSummaryFrom+`
		WHERE c.user_id = $1 AND c.numero_comande = $2`, tenant, id)
	if err != nil {
		return domain.SaleDetail{}, notFound(err)
	}

	detail.Lines = []domain.SaleLineDetail{}
	err = s.db.SelectContext(ctx, &detail.Lines, `
		SELECT a.numero_comande, a.numero_item, a.quantite, a.prixt,
			COALESCE(a.remarque, '') AS remarque, COALESCE(a.prixbh, '') AS prixbh,
			COALESCE(i.designation, '') AS designation
		FROM attache a
		LEFT JOIN item i ON i.user_id = a.user_id AND i.numero_item = a.numero_item
		WHERE a.user_id = $1 AND a.numero_comande = $2
		ORDER BY a.numero_item
	`, tenant, id)
	return detail, err
}

func (s *Store) ReceiptDetail(ctx context.Context, tenant string, id int64) (domain.ReceiptDetail, error) {
	var detail domain.ReceiptDetail
	err := s.db.GetContext(ctx, &detail, `SELECT `+receiptSummaryColumns()+receiptSummaryFrom+`
		WHERE m.user_id = $1 AND m.numero_mouvement = $2`, tenant, id)
	if err != nil {
		return domain.ReceiptDetail{}, notFound(err)
	}

	detail.Lines = []domain.ReceiptLineDetail{}
	err = s.db.SelectContext(ctx, &detail.Lines, `
		SELECT l.numero_mouvement, l.numero_item, l.qtea, l.nqte, l.nprix,
			COALESCE(l.pump, '') AS pump, COALESCE(i.designation, '') AS designation
		FROM mouvementc l
		LEFT JOIN item i ON i.user_id = l.user_id AND i.numero_item = l.numero_item
		WHERE l.user_id = $1 AND l.numero_mouvement = $2
		ORDER BY l.numero_item
	`, tenant, id)
	return detail, err
}

func (s *Store) SalesOfDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.SaleSummary, error) {
	f := newFilters(tenant, "c.user_id")
	f.add("c.date_comande >= $%d", q.From)
	f.add("c.date_comande <= $%d", q.To)
	if q.PartyID != nil {
		f.add("c.numero_table = $%d", *q.PartyID)
	}
	if q.SellerID != nil {
		f.add("c.numero_util = $%d", *q.SellerID)
	}

	out := []domain.SaleSummary{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+saleSummaryColumns()+saleSummaryFrom+f.where()+`
		ORDER BY c.numero_comande`, f.args...)
	return out, err
}

func (s *Store) ReceiptsOfDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.ReceiptSummary, error) {
	f := newFilters(tenant, "m.user_id")
	f.add("m.date_m >= $%d", q.From)
	f.add("m.date_m <= $%d", q.To)
	if q.PartyID != nil {
		f.add("m.numero_four = $%d", *q.PartyID)
	}
	if q.SellerID != nil {
		f.add("m.numero_util = $%d", *q.SellerID)
	}

	out := []domain.ReceiptSummary{}
	err := s.db.SelectContext(ctx, &out, `SELECT `+receiptSummaryColumns()+receiptSummaryFrom+f.where()+`
		ORDER BY m.numero_mouvement`, f.args...)
	return out, err
}

func (s *Store) PaymentHistory(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.PaymentEntry, error) {
	f := newFilters(tenant, "e.user_id")
	f.add("e.date_e >= $%d::date", dateOnly(q.From))
	f.add("e.date_e <= $%d::date", dateOnly(q.To))
	if q.Kind != 0 {
		f.add("e.cf = $%d", q.Kind)
	}
	if q.PartyID != nil {
		f.add("e.numero_cf = $%d", *q.PartyID)
	}
	if q.SellerID != nil {
		f.add("e.numero_util = $%d", *q.SellerID)
	}

	out := []domain.PaymentEntry{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT e.numero_encaisse, to_char(e.date_e, 'YYYY-MM-DD') AS date_e, e.heure, e.montant,
			COALESCE(e.justificatif, '') AS justificatif, COALESCE(e.numero_util, 0) AS numero_util,
			e.origine, e.cf, e.numero_cf,
			COALESCE(CASE WHEN e.cf = 'F' THEN f.nom ELSE cl.nom END, '') AS nom
		FROM encaisse e
		LEFT JOIN client cl ON cl.user_id = e.user_id AND cl.numero_clt = e.numero_cf AND e.cf = 'C'
		LEFT JOIN fournisseur f ON f.user_id = e.user_id AND f.numero_fou = e.numero_cf AND e.cf = 'F'
	`+f.where()+`
		ORDER BY e.numero_encaisse`, f.args...)
	return out, err
}

func (s *Store) TopProducts(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.TopProduct, error) {
	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	out := []domain.TopProduct{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT a.numero_item, COALESCE(MAX(i.designation), '') AS designation,
			SUM(a.quantite) AS quantite, COALESCE(SUM(`+numeric("a.prixt")+`), 0) AS chiffre
		FROM attache a
		JOIN comande c ON c.user_id = a.user_id AND c.numero_comande = a.numero_comande
		LEFT JOIN item i ON i.user_id = a.user_id AND i.numero_item = a.numero_item
		WHERE a.user_id = $1 AND c.date_comande >= $2 AND c.date_comande <= $3
		GROUP BY a.numero_item
		ORDER BY quantite DESC, a.numero_item
		LIMIT $4
	`, tenant, q.From, q.To, limit)
	return out, err
}

func (s *Store) ProfitByDay(ctx context.Context, tenant string, q domain.ReportQuery) ([]domain.DailyProfit, error) {
	revenue := `COALESCE(SUM(` + numeric("a.prixt") + `), 0)`
	cost := `COALESCE(SUM(a.quantite * ` + numeric("a.prixbh") + `), 0)`

	out := []domain.DailyProfit{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT to_char(c.date_comande, 'YYYY-MM-DD') AS jour,
			`+revenue+` AS chiffre, `+cost+` AS cout, `+revenue+` - `+cost+` AS benefice
		FROM comande c
		JOIN attache a ON a.user_id = c.user_id AND a.numero_comande = c.numero_comande
		WHERE c.user_id = $1 AND c.date_comande >= $2 AND c.date_comande <= $3
		GROUP BY jour
		ORDER BY jour
	`, tenant, q.From, q.To)
	return out, err
}

func (s *Store) StockValuation(ctx context.Context, tenant string) ([]domain.StockLine, error) {
	out := []domain.StockLine{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT numero_item, designation, bar, qte,
			`+numeric("prixba")+` AS prixba, prix,
			qte * `+numeric("prixba")+` AS valeur_achat, qte * prix AS valeur_vente
		FROM item
		WHERE user_id = $1
		ORDER BY numero_item
	`, tenant)
	return out, err
}

type dashboardRow struct {
	SalesCount       int           `db:"nombre_ventes"`
	SalesTotal       domain.Amount `db:"total_ventes"`
	SalesCost        domain.Amount `db:"cout_ventes"`
	ReceiptsTotal    domain.Amount `db:"total_receptions"`
	ClientPayments   domain.Amount `db:"versements_clients"`
	SupplierPayments domain.Amount `db:"versements_fournisseurs"`
	ClientReceivable domain.Amount `db:"creances_clients"`
	SupplierPayable  domain.Amount `db:"dettes_fournisseurs"`
	ProductCount     int           `db:"nombre_articles"`
	LowStockCount    int           `db:"articles_stock_bas"`
}

func (s *Store) Dashboard(ctx context.Context, tenant string, q domain.ReportQuery) (domain.Dashboard, error) {
	var row dashboardRow
	err := s.db.GetContext(ctx, &row, `
		SELECT
			(SELECT COUNT(*) FROM comande
				WHERE user_id = $1 AND date_comande >= $2 AND date_comande <= $3) AS nombre_ventes,
			(SELECT COALESCE(SUM(`+numeric("a.prixt")+`), 0) FROM attache a
				JOIN comande c ON c.user_id = a.user_id AND c.numero_comande = a.numero_comande
				WHERE a.user_id = $1 AND c.date_comande >= $2 AND c.date_comande <= $3) AS total_ventes,
			(SELECT COALESCE(SUM(a.quantite * `+numeric("a.prixbh")+`), 0) FROM attache a
				JOIN comande c ON c.user_id = a.user_id AND c.numero_comande = a.numero_comande
				WHERE a.user_id = $1 AND c.date_comande >= $2 AND c.date_comande <= $3) AS cout_ventes,
			(SELECT COALESCE(SUM(l.qtea * `+numeric("l.nprix")+`), 0) FROM mouvementc l
				JOIN mouvement m ON m.user_id = l.user_id AND m.numero_mouvement = l.numero_mouvement
				WHERE l.user_id = $1 AND m.date_m >= $2 AND m.date_m <= $3) AS total_receptions,
			(SELECT COALESCE(SUM(`+numeric("montant")+`), 0) FROM encaisse
				WHERE user_id = $1 AND cf = 'C' AND date_e >= $4::date AND date_e <= $5::date) AS versements_clients,
			(SELECT COALESCE(SUM(`+numeric("montant")+`), 0) FROM encaisse
				WHERE user_id = $1 AND cf = 'F' AND date_e >= $4::date AND date_e <= $5::date) AS versements_fournisseurs,
			(SELECT COALESCE(SUM(-`+numeric("solde")+`), 0) FROM client
				WHERE user_id = $1 AND `+numeric("solde")+` < 0) AS creances_clients,
			(SELECT COALESCE(SUM(-`+numeric("solde")+`), 0) FROM fournisseur
				WHERE user_id = $1 AND `+numeric("solde")+` < 0) AS dettes_fournisseurs,
			(SELECT COUNT(*) FROM item WHERE user_id = $1) AS nombre_articles,
			(SELECT COUNT(*) FROM item WHERE user_id = $1 AND qte <= $6) AS articles_stock_bas
	`, tenant, q.From, q.To, dateOnly(q.From), dateOnly(q.To), domain.LowStockThreshold)
	if err != nil {
		return domain.Dashboard{}, err
	}

	return domain.Dashboard{
		Date:             q.From.Format("2006-01-02"),
		SalesCount:       row.SalesCount,
		SalesTotal:       row.SalesTotal,
		Profit:           domain.NewAmount(row.SalesTotal.Sub(row.SalesCost.Decimal)),
		ReceiptsTotal:    row.ReceiptsTotal,
		ClientPayments:   row.ClientPayments,
		SupplierPayments: row.SupplierPayments,
		ClientReceivable: row.ClientReceivable,
		SupplierPayable:  row.SupplierPayable,
		ProductCount:     row.ProductCount,
		LowStockCount:    row.LowStockCount,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
