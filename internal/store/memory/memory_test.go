package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

func seeded() *Store {
	s := New()
	s.Seed("T1", Fixture{
		Products: []domain.Product{{ID: 10, Barcode: "1000000000016", Name: "eau", OnHand: 5, PurchasePrice: "2.00"}},
		Clients:  []domain.Account{{ID: 7, Name: "karim", Balance: "0.00"}},
	})
	s.Seed("T2", Fixture{
		Products: []domain.Product{{ID: 11, Barcode: "1000000000023", Name: "lait", OnHand: 1}},
	})
	return s
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, "T1", func(tx store.Tx) error {
		if _, err := tx.AddStock(ctx, 10, -3); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, domain.Client(7), "-9.00"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = s.WithTx(ctx, "T1", func(tx store.Tx) error {
		p, err := tx.Product(ctx, 10)
		if err != nil {
			t.Fatalf("product: %v", err)
		}
		if p.OnHand != 5 {
			t.Fatalf("expected stock untouched, got %d", p.OnHand)
		}
		acc, _ := tx.Account(ctx, domain.Client(7))
		if acc.Balance != "0.00" {
			t.Fatalf("expected balance untouched, got %s", acc.Balance)
		}
		return nil
	})
}

func TestWithTxIsolatesTenants(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	err := s.WithTx(ctx, "T2", func(tx store.Tx) error {
		_, err := tx.Product(ctx, 10)
		return err
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected other tenant product to be invisible, got %v", err)
	}
}

func TestInsertProductContinuesSeededSequence(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	var id int64
	err := s.WithTx(ctx, "T1", func(tx store.Tx) error {
		var err error
		id, err = tx.InsertProduct(ctx, domain.Product{Barcode: "1000000000030", Name: "sel"})
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 12 {
		t.Fatalf("expected id 12 after seeded ids, got %d", id)
	}

	err = s.WithTx(ctx, "T1", func(tx store.Tx) error {
		_, err := tx.InsertProduct(ctx, domain.Product{Barcode: "1000000000030", Name: "sel bis"})
		return err
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected duplicate barcode conflict, got %v", err)
	}
}

func TestRowsFiltersByTenant(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	rows, err := s.Rows(ctx, snapshot.Page{
		Table:   "item",
		Columns: []string{"numero_item", "user_id"},
		Filter:  snapshot.TenantColumn,
		Tenant:  "T1",
		Limit:   snapshot.PageSize,
	})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != int64(10) || rows[0][1] != "T1" {
		t.Fatalf("unexpected rows %v", rows)
	}

	all, _ := s.Rows(ctx, snapshot.Page{Table: "item", Columns: []string{"numero_item"}, Limit: snapshot.PageSize})
	if len(all) != 2 {
		t.Fatalf("expected unfiltered read to see both tenants, got %d rows", len(all))
	}
}
