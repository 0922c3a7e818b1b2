package memory

import (
	"context"
	"slices"
	"time"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
)

func serial(name, table string) snapshot.Column {
	return snapshot.Column{Name: name, DataType: "integer", Default: "nextval('" + table + "_" + name + "_seq'::regclass)"}
}

func varchar(name string, n int, nullable bool) snapshot.Column {
	return snapshot.Column{Name: name, DataType: "character varying", MaxLength: n, Nullable: nullable}
}

func integer(name string, nullable bool) snapshot.Column {
	return snapshot.Column{Name: name, DataType: "integer", Nullable: nullable}
}

var tenantColumn = varchar(snapshot.TenantColumn, 100, false)

// schema mirrors postgres/schema.sql.
var schema = map[string]snapshot.Table{
	"categorie": {
		Columns:    []snapshot.Column{serial("id_cat", "categorie"), varchar("description_c", 100, false), tenantColumn},
		PrimaryKey: []string{"id_cat"},
	},
	"item": {
		Columns: []snapshot.Column{
			serial("numero_item", "item"),
			varchar("bar", 30, false),
			varchar("designation", 100, false),
			{Name: "qte", DataType: "integer", Default: "0"},
			{Name: "prix", DataType: "numeric", Precision: 12, Scale: 2, Default: "0"},
			varchar("prixba", 30, true),
			varchar("ref", 30, true),
			integer("id_cat", true),
			tenantColumn,
		},
		PrimaryKey: []string{"numero_item"},
	},
	"codebar": {
		Columns:    []snapshot.Column{serial("n", "codebar"), varchar("bar2", 30, false), integer("id_produit", false), tenantColumn},
		PrimaryKey: []string{"n"},
	},
	"client":      accountTable("numero_clt", "client"),
	"fournisseur": accountTable("numero_fou", "fournisseur"),
	"utilisateur": {
		Columns: []snapshot.Column{
			serial("numero_util", "utilisateur"),
			varchar("nom", 100, false),
			varchar("password2", 100, false),
			{Name: "statue", DataType: "character varying", MaxLength: 20, Default: "'emplo'::character varying"},
			{Name: "actif", DataType: "boolean", Nullable: true, Default: "true"},
			tenantColumn,
		},
		PrimaryKey: []string{"numero_util"},
	},
	"comande": {
		Columns: []snapshot.Column{
			serial("numero_comande", "comande"),
			{Name: "numero_table", DataType: "integer", Default: "0"},
			{Name: "date_comande", DataType: "timestamp without time zone", Default: "now()"},
			varchar("etat_c", 20, false),
			varchar("nature", 20, false),
			integer("compteur", false),
			integer("numero_util", true),
			tenantColumn,
		},
		PrimaryKey: []string{"numero_comande"},
	},
	"attache": {
		Columns: []snapshot.Column{
			integer("numero_comande", false),
			integer("numero_item", false),
			integer("quantite", false),
			varchar("prixt", 30, false),
			varchar("remarque", 200, true),
			varchar("prixbh", 30, true),
			tenantColumn,
		},
	},
	"mouvement": {
		Columns: []snapshot.Column{
			serial("numero_mouvement", "mouvement"),
			integer("numero_four", false),
			{Name: "date_m", DataType: "timestamp without time zone", Default: "now()"},
			varchar("etat_m", 20, false),
			varchar("nature", 30, false),
			varchar("n_facture", 30, true),
			integer("numero_util", true),
			tenantColumn,
		},
		PrimaryKey: []string{"numero_mouvement"},
	},
	"mouvementc": {
		Columns: []snapshot.Column{
			integer("numero_mouvement", false),
			integer("numero_item", false),
			integer("qtea", false),
			integer("nqte", false),
			varchar("nprix", 30, false),
			varchar("pump", 30, true),
			tenantColumn,
		},
	},
	"encaisse": {
		Columns: []snapshot.Column{
			serial("numero_encaisse", "encaisse"),
			{Name: "date_e", DataType: "date"},
			varchar("heure", 8, false),
			varchar("montant", 30, false),
			varchar("justificatif", 200, true),
			integer("numero_util", true),
			varchar("origine", 20, false),
			{Name: "cf", DataType: "character", MaxLength: 1},
			integer("numero_cf", false),
			tenantColumn,
		},
		PrimaryKey: []string{"numero_encaisse"},
	},
}

func accountTable(key, table string) snapshot.Table {
	return snapshot.Table{
		Columns: []snapshot.Column{
			serial(key, table),
			varchar("nom", 100, false),
			{Name: "solde", DataType: "character varying", MaxLength: 30, Nullable: true, Default: "'0.00'::character varying"},
			varchar("reference", 30, true),
			varchar("tel", 30, true),
			varchar("adresse", 200, true),
			tenantColumn,
		},
		PrimaryKey: []string{key},
	}
}

func (s *Store) Columns(_ context.Context, table string) ([]snapshot.Column, error) {
	return schema[table].Columns, nil
}

func (s *Store) PrimaryKey(_ context.Context, table string) ([]string, error) {
	return schema[table].PrimaryKey, nil
}

type record struct {
	key    []int64
	values map[string]any
}

func (s *Store) Rows(_ context.Context, page snapshot.Page) ([][]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make([]string, 0, len(s.tenants))
	for tenant := range s.tenants {
		if page.Filter == "" || tenant == page.Tenant {
			tenants = append(tenants, tenant)
		}
	}

	var records []record
	for _, tenant := range tenants {
		records = append(records, s.tenants[tenant].records(page.Table, tenant)...)
	}
	slices.SortFunc(records, func(a, b record) int { return slices.Compare(a.key, b.key) })

	if page.Offset >= len(records) {
		return nil, nil
	}
	end := min(page.Offset+page.Limit, len(records))
	out := make([][]any, 0, end-page.Offset)
	for _, r := range records[page.Offset:end] {
		row := make([]any, len(page.Columns))
		for i, col := range page.Columns {
			row[i] = r.values[col]
		}
		out = append(out, row)
	}
	return out, nil
}

func (d *tenantData) records(table string, tenant string) []record {
	var out []record
	add := func(key []int64, values map[string]any) {
		values[snapshot.TenantColumn] = tenant
		out = append(out, record{key: key, values: values})
	}

	switch table {
	case "categorie":
		for _, c := range d.categories {
			add([]int64{c.ID}, map[string]any{"id_cat": c.ID, "description_c": c.Name})
		}
	case "item":
		for _, p := range d.products {
			var category any
			if p.CategoryID != nil {
				category = *p.CategoryID
			}
			add([]int64{p.ID}, map[string]any{
				"numero_item": p.ID, "bar": p.Barcode, "designation": p.Name, "qte": int64(p.OnHand),
				"prix": p.SalePrice.String(), "prixba": p.PurchasePrice, "ref": p.Reference, "id_cat": category,
			})
		}
	case "codebar":
		for _, l := range d.linked {
			add([]int64{l.ID}, map[string]any{"n": l.ID, "bar2": l.Barcode, "id_produit": l.ProductID})
		}
	case "client", "fournisseur":
		accounts, key := d.clients, "numero_clt"
		if table == "fournisseur" {
			accounts, key = d.suppliers, "numero_fou"
		}
		for _, a := range accounts {
			add([]int64{a.ID}, map[string]any{
				key: a.ID, "nom": a.Name, "solde": a.Balance, "reference": a.Reference, "tel": a.Phone, "adresse": a.Address,
			})
		}
	case "utilisateur":
		for _, u := range d.sellers {
			add([]int64{u.ID}, map[string]any{
				"numero_util": u.ID, "nom": u.Name, "password2": u.Secret, "statue": u.Role.String(), "actif": u.Active,
			})
		}
	case "comande":
		for _, sale := range d.sales {
			add([]int64{sale.ID}, map[string]any{
				"numero_comande": sale.ID, "numero_table": sale.PartyID, "date_comande": sale.At,
				"etat_c": sale.State, "nature": sale.Nature.String(), "compteur": sale.Counter, "numero_util": sale.SellerID,
			})
		}
	case "attache":
		for id, lines := range d.saleLines {
			for i, l := range lines {
				add([]int64{id, int64(i)}, map[string]any{
					"numero_comande": l.SaleID, "numero_item": l.ProductID, "quantite": int64(l.Quantity),
					"prixt": l.LineTotal, "remarque": l.Note, "prixbh": l.PurchasePrice,
				})
			}
		}
	case "mouvement":
		for _, r := range d.receipts {
			add([]int64{r.ID}, map[string]any{
				"numero_mouvement": r.ID, "numero_four": r.SupplierID, "date_m": r.At, "etat_m": r.State,
				"nature": r.Nature.String(), "n_facture": r.Reference, "numero_util": r.SellerID,
			})
		}
	case "mouvementc":
		for id, lines := range d.receiptLines {
			for i, l := range lines {
				add([]int64{id, int64(i)}, map[string]any{
					"numero_mouvement": l.ReceiptID, "numero_item": l.ProductID, "qtea": int64(l.Quantity),
					"nqte": int64(l.OnHandAfter), "nprix": l.UnitPrice, "pump": l.PreviousPrice,
				})
			}
		}
	case "encaisse":
		for _, p := range d.payments {
			day, _ := time.ParseInLocation("2006-01-02", p.Date, time.Local)
			add([]int64{p.ID}, map[string]any{
				"numero_encaisse": p.ID, "date_e": day, "heure": p.Time, "montant": p.Amount, "justificatif": p.Memo,
				"numero_util": p.SellerID, "origine": p.Origin.String(), "cf": p.Kind.String(), "numero_cf": p.PartyID,
			})
		}
	}
	return out
}
