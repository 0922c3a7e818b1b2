package memory

import (
	"context"
	"maps"
	"os"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/numbering"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

// Store keeps every tenant in process memory. A transaction works on a copy
// of its tenant and swaps it in on commit; writers are serialized.
type Store struct {
	mu        sync.RWMutex
	tenants   map[string]*tenantData
	sequences map[string]int64
}

type tenantData struct {
	categories   map[int64]domain.Category
	products     map[int64]domain.Product
	linked       map[int64]domain.LinkedBarcode
	clients      map[int64]domain.Account
	suppliers    map[int64]domain.Account
	sellers      map[int64]domain.Seller
	sales        map[int64]domain.Sale
	saleLines    map[int64][]domain.SaleLine
	receipts     map[int64]domain.Receipt
	receiptLines map[int64][]domain.ReceiptLine
	payments     map[int64]domain.Payment
}

func newTenantData() *tenantData {
	return &tenantData{
		categories:   map[int64]domain.Category{},
		products:     map[int64]domain.Product{},
		linked:       map[int64]domain.LinkedBarcode{},
		clients:      map[int64]domain.Account{},
		suppliers:    map[int64]domain.Account{},
		sellers:      map[int64]domain.Seller{},
		sales:        map[int64]domain.Sale{},
		saleLines:    map[int64][]domain.SaleLine{},
		receipts:     map[int64]domain.Receipt{},
		receiptLines: map[int64][]domain.ReceiptLine{},
		payments:     map[int64]domain.Payment{},
	}
}

func (d *tenantData) clone() *tenantData {
	out := &tenantData{
		categories:   maps.Clone(d.categories),
		products:     maps.Clone(d.products),
		linked:       maps.Clone(d.linked),
		clients:      maps.Clone(d.clients),
		suppliers:    maps.Clone(d.suppliers),
		sellers:      maps.Clone(d.sellers),
		sales:        maps.Clone(d.sales),
		saleLines:    make(map[int64][]domain.SaleLine, len(d.saleLines)),
		receipts:     maps.Clone(d.receipts),
		receiptLines: make(map[int64][]domain.ReceiptLine, len(d.receiptLines)),
		payments:     maps.Clone(d.payments),
	}
	for id, lines := range d.saleLines {
		out.saleLines[id] = slices.Clone(lines)
	}
	for id, lines := range d.receiptLines {
		out.receiptLines[id] = slices.Clone(lines)
	}
	return out
}

func New() *Store {
	return &Store{
		tenants:   map[string]*tenantData{},
		sequences: map[string]int64{},
	}
}

// Fixture is the reference data loaded by Seed.
type Fixture struct {
	Categories     []domain.Category
	Products       []domain.Product
	LinkedBarcodes []domain.LinkedBarcode
	Clients        []domain.Account
	Suppliers      []domain.Account
	Sellers        []domain.Seller
}

// Seed loads reference data for a tenant, keeping the ids it carries.
func (s *Store) Seed(tenant string, f Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.tenantLocked(tenant)
	for _, c := range f.Categories {
		data.categories[c.ID] = c
		s.bump("categorie", c.ID)
	}
	for _, p := range f.Products {
		data.products[p.ID] = p
		s.bump("item", p.ID)
	}
	for _, l := range f.LinkedBarcodes {
		data.linked[l.ID] = l
		s.bump("codebar", l.ID)
	}
	for _, c := range f.Clients {
		c.Kind = domain.PartyClient
		data.clients[c.ID] = c
		s.bump("client", c.ID)
	}
	for _, sup := range f.Suppliers {
		sup.Kind = domain.PartySupplier
		data.suppliers[sup.ID] = sup
		s.bump("fournisseur", sup.ID)
	}
	for _, seller := range f.Sellers {
		data.sellers[seller.ID] = seller
		s.bump("utilisateur", seller.ID)
	}
}

// NewSeeded returns a store holding a small demo catalog for the "demo"
// tenant. Seller secrets come from SEED_ADMIN_PASSWORD and
// SEED_SELLER_PASSWORD and are stored as bcrypt hashes.
func NewSeeded(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	sellerPwd := envOr("SEED_SELLER_PASSWORD", "vendeur123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_SELLER_PASSWORD") == "" {
		logger.Warn("memory store uses default dev credentials; set SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD to override")
	}

	sellers := make([]domain.Seller, 0, 2)
	for i, u := range []struct {
		name     string
		password string
		role     domain.Role
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"vendeur", sellerPwd, domain.RoleEmployee},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("failed to hash seed password", zap.String("seller", u.name), zap.Error(err))
		}
		sellers = append(sellers, domain.Seller{
			SellerInfo: domain.SellerInfo{ID: int64(i + 1), Name: u.name, Role: u.role},
			Secret:     string(hash),
			Active:     true,
		})
	}

	s := New()
	s.Seed("demo", Fixture{
		Categories: []domain.Category{{ID: 1, Name: "Boissons"}, {ID: 2, Name: "Epicerie"}},
		Products: []domain.Product{
			demoProduct(1, "Eau minerale 1.5L", 48, "30.00", "22.00", 1),
			demoProduct(2, "Jus orange 1L", 24, "120.00", "95.00", 1),
			demoProduct(3, "Sucre 1kg", 30, "90.00", "75.00", 2),
			demoProduct(4, "Huile 2L", 12, "350.00", "310.00", 2),
		},
		Clients:   []domain.Account{{ID: 1, Name: "Client comptoir", Balance: "0.00"}},
		Suppliers: []domain.Account{{ID: 1, Name: "Grossiste centre", Balance: "0.00"}},
		Sellers:   sellers,
	})
	return s
}

func demoProduct(id int64, name string, qty int, price string, cost string, category int64) domain.Product {
	salePrice, _ := domain.AmountFromString(price)
	return domain.Product{
		ID:            id,
		Barcode:       numbering.ProductBarcode(int(id)),
		Name:          name,
		OnHand:        qty,
		SalePrice:     salePrice,
		PurchasePrice: cost,
		Reference:     numbering.Reference(int(id)),
		CategoryID:    &category,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) WithTx(ctx context.Context, tenant string, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.tenantLocked(tenant).clone()
	sequences := maps.Clone(s.sequences)
	if err := fn(&tx{data: work, sequences: sequences}); err != nil {
		return err
	}

	s.tenants[tenant] = work
	s.sequences = sequences
	return nil
}

func (s *Store) tenantLocked(tenant string) *tenantData {
	data, ok := s.tenants[tenant]
	if !ok {
		data = newTenantData()
		s.tenants[tenant] = data
	}
	return data
}

// view returns the committed state of a tenant; callers hold the read lock.
func (s *Store) view(tenant string) *tenantData {
	if data, ok := s.tenants[tenant]; ok {
		return data
	}
	return newTenantData()
}

func (s *Store) bump(table string, id int64) {
	if id > s.sequences[table] {
		s.sequences[table] = id
	}
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
