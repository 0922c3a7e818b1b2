package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/cache"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/numbering"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store/memory"
)

const tenant = "T1"

var testNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	category := int64(1)
	repo.Seed(tenant, memory.Fixture{
		Categories: []domain.Category{{ID: 1, Name: "Boissons"}, {ID: 2, Name: "Vide"}},
		Products: []domain.Product{
			{ID: 10, Barcode: numbering.ProductBarcode(1), Name: "Lait", OnHand: 50, SalePrice: domain.MustAmount("10.00"), PurchasePrice: "5.00", Reference: "P1", CategoryID: &category},
			{ID: 11, Barcode: numbering.ProductBarcode(3), Name: "Pain", OnHand: 2, SalePrice: domain.MustAmount("3.00"), PurchasePrice: "", Reference: "P3"},
		},
		Clients:   []domain.Account{{ID: 7, Name: "Karim", Balance: "0.00"}},
		Suppliers: []domain.Account{{ID: 3, Name: "Grossiste", Balance: ""}},
		Sellers: []domain.Seller{
			{SellerInfo: domain.SellerInfo{ID: 1, Name: "ali", Role: domain.RoleAdmin}, Secret: "pw", Active: true},
			{SellerInfo: domain.SellerInfo{ID: 2, Name: "sara", Role: domain.RoleEmployee}, Secret: string(hash), Active: true},
			{SellerInfo: domain.SellerInfo{ID: 3, Name: "old", Role: domain.RoleEmployee}, Secret: "pw", Active: false},
		},
	})

	svc := New(repo, Options{
		Exporter: snapshot.NewExporter(repo),
		Clock:    func() time.Time { return testNow },
	})
	return svc, repo
}

var cred = domain.SellerCredential{SellerID: 1, Secret: "pw"}

func walkInSale(qty int) domain.CreateSaleRequest {
	return domain.CreateSaleRequest{
		SellerCredential: cred,
		Lines: []domain.SaleLineInput{{
			ProductID:     10,
			Quantity:      qty,
			LineTotal:     domain.MustAmount("20.00"),
			PurchasePrice: ptr(domain.MustAmount("5.00")),
		}},
	}
}

func creditSale(paid string) domain.CreateSaleRequest {
	req := walkInSale(2)
	req.PartyID = 7
	req.Mode = domain.PaymentCredit
	req.AmountPaid = domain.MustAmount(paid)
	return req
}

func ptr[T any](v T) *T { return &v }

func product(t *testing.T, repo *memory.Store, id int64) domain.Product {
	t.Helper()
	var p domain.Product
	err := repo.WithTx(context.Background(), tenant, func(tx store.Tx) error {
		var err error
		p, err = tx.Product(context.Background(), id)
		return err
	})
	if err != nil {
		t.Fatalf("load product %d: %v", id, err)
	}
	return p
}

func balance(t *testing.T, repo *memory.Store, party domain.Party) string {
	t.Helper()
	var acc domain.Account
	err := repo.WithTx(context.Background(), tenant, func(tx store.Tx) error {
		var err error
		acc, err = tx.Account(context.Background(), party)
		return err
	})
	if err != nil {
		t.Fatalf("load account %s: %v", party, err)
	}
	return acc.Balance
}

func TestWalkInSaleTakesStockAndNumbersTickets(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSale(ctx, tenant, walkInSale(2))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if got := product(t, repo, 10).OnHand; got != 48 {
		t.Fatalf("expected on-hand 48, got %d", got)
	}
	if got := balance(t, repo, domain.Client(7)); got != "0.00" {
		t.Fatalf("walk-in sale must not touch clients, got %s", got)
	}

	detail, err := svc.FetchSale(ctx, tenant, id)
	if err != nil {
		t.Fatalf("fetch sale: %v", err)
	}
	if detail.Nature != domain.NatureTicket || detail.Counter != 1 || detail.State != domain.SaleStateClosed {
		t.Fatalf("unexpected header: %+v", detail.Sale)
	}
	if detail.SellerName != "ali" || detail.Total.String() != "20.00" || len(detail.Lines) != 1 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if !detail.At.Equal(testNow) {
		t.Fatalf("expected sale at %s, got %s", testNow, detail.At)
	}

	second, err := svc.CreateSale(ctx, tenant, walkInSale(1))
	if err != nil {
		t.Fatalf("second sale: %v", err)
	}
	detail, _ = svc.FetchSale(ctx, tenant, second)
	if detail.Counter != 2 {
		t.Fatalf("expected counter 2, got %d", detail.Counter)
	}
}

func TestCreditSalePostsNetAmountAndCancelCreditsTotal(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateSale(ctx, tenant, creditSale("5.00"))
	if err != nil {
		t.Fatalf("create credit sale: %v", err)
	}
	if got := balance(t, repo, domain.Client(7)); got != "-15.00" {
		t.Fatalf("expected -15.00, got %s", got)
	}
	detail, _ := svc.FetchSale(ctx, tenant, id)
	if detail.Nature != domain.NatureCreditNote || detail.Nature.String() != "BON DE L." || detail.PartyName != "Karim" {
		t.Fatalf("unexpected credit sale header: %+v", detail)
	}

	if err := svc.CancelSale(ctx, tenant, domain.CancelSaleRequest{SaleID: id, Secret: "pw"}); err != nil {
		t.Fatalf("cancel sale: %v", err)
	}
	if got := product(t, repo, 10).OnHand; got != 50 {
		t.Fatalf("expected stock restored to 50, got %d", got)
	}
	if got := balance(t, repo, domain.Client(7)); got != "5.00" {
		t.Fatalf("expected total credited back to 5.00, got %s", got)
	}
	if _, err := svc.FetchSale(ctx, tenant, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected cancelled sale to be gone, got %v", err)
	}
}

func TestCreditSaleThenMatchingPaymentBalancesOut(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateSale(ctx, tenant, creditSale("0")); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{
		SellerCredential: cred, Kind: domain.PartyClient, PartyID: 7, Amount: domain.MustAmount("20"), Memo: "cash",
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if got := balance(t, repo, domain.Client(7)); got != "0.00" {
		t.Fatalf("expected balance back to 0.00, got %s", got)
	}
}

func TestSaleWithSubCentAmountsCancelsBackExactly(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	req := creditSale("5.004")
	req.Lines[0].LineTotal = domain.MustAmount("20.005")
	id, err := svc.CreateSale(ctx, tenant, req)
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if got := balance(t, repo, domain.Client(7)); got != "-15.01" {
		t.Fatalf("expected -15.01, got %s", got)
	}
	detail, _ := svc.FetchSale(ctx, tenant, id)
	if detail.Total.String() != "20.01" || detail.Lines[0].LineTotal != "20.01" {
		t.Fatalf("expected the stored total to be the posted one, got %+v", detail)
	}

	if err := svc.CancelSale(ctx, tenant, domain.CancelSaleRequest{SaleID: id, Secret: "pw"}); err != nil {
		t.Fatalf("cancel sale: %v", err)
	}
	if got := balance(t, repo, domain.Client(7)); got != "5.00" {
		t.Fatalf("expected the stored total credited back to 5.00, got %s", got)
	}
}

func TestReceiptLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateReceipt(ctx, tenant, domain.CreateReceiptRequest{
		SellerCredential: cred,
		SupplierID:       3,
		Lines:            []domain.ReceiptLineInput{{ProductID: 10, Quantity: 5, UnitPrice: domain.MustAmount("4")}},
	})
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	p := product(t, repo, 10)
	if p.OnHand != 55 || p.PurchasePrice != "4.00" {
		t.Fatalf("unexpected product after receipt: %+v", p)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-20.00" {
		t.Fatalf("expected supplier -20.00, got %s", got)
	}

	detail, err := svc.FetchReceipt(ctx, tenant, id)
	if err != nil {
		t.Fatalf("fetch receipt: %v", err)
	}
	if detail.Reference != strconv.FormatInt(id, 10) {
		t.Fatalf("expected reference to be the receipt id, got %q", detail.Reference)
	}
	if detail.Nature.String() != "Bon de réception" || detail.State != domain.ReceiptStateClosed {
		t.Fatalf("unexpected receipt header: %+v", detail.Receipt)
	}
	line := detail.Lines[0]
	if line.OnHandAfter != 55 || line.UnitPrice != "4.00" || line.PreviousPrice != "5.00" {
		t.Fatalf("unexpected receipt line: %+v", line)
	}

	err = svc.ModifyReceipt(ctx, tenant, id, domain.UpdateReceiptRequest{
		SellerCredential: cred,
		Lines:            []domain.ReceiptLineInput{{ProductID: 10, Quantity: 3, UnitPrice: domain.MustAmount("4.00")}},
	})
	if err != nil {
		t.Fatalf("modify receipt: %v", err)
	}
	if got := product(t, repo, 10).OnHand; got != 53 {
		t.Fatalf("expected on-hand 53 after modify, got %d", got)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-12.00" {
		t.Fatalf("expected supplier -12.00, got %s", got)
	}

	if _, err := svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{
		SellerCredential: cred, Kind: domain.PartySupplier, PartyID: 3, Amount: domain.MustAmount("12.00"),
	}); err != nil {
		t.Fatalf("supplier payment: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "0.00" {
		t.Fatalf("expected supplier settled, got %s", got)
	}

	if err := svc.CancelReceipt(ctx, tenant, domain.CancelReceiptRequest{ReceiptID: id, Secret: "pw"}); err != nil {
		t.Fatalf("cancel receipt: %v", err)
	}
	if got := product(t, repo, 10).OnHand; got != 50 {
		t.Fatalf("expected on-hand back to 50, got %d", got)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "12.00" {
		t.Fatalf("expected cost credited back, got %s", got)
	}
}

func TestReceiptWithSubCentPriceCancelsBackExactly(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateReceipt(ctx, tenant, domain.CreateReceiptRequest{
		SellerCredential: cred,
		SupplierID:       3,
		Lines:            []domain.ReceiptLineInput{{ProductID: 10, Quantity: 3, UnitPrice: domain.MustAmount("4.125")}},
	})
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	if got := product(t, repo, 10).PurchasePrice; got != "4.13" {
		t.Fatalf("expected purchase price 4.13, got %s", got)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-12.39" {
		t.Fatalf("expected supplier -12.39, got %s", got)
	}

	err = svc.ModifyReceipt(ctx, tenant, id, domain.UpdateReceiptRequest{
		SellerCredential: cred,
		Lines:            []domain.ReceiptLineInput{{ProductID: 10, Quantity: 3, UnitPrice: domain.MustAmount("4.125")}},
	})
	if err != nil {
		t.Fatalf("modify receipt: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-12.39" {
		t.Fatalf("expected an identical modify to keep -12.39, got %s", got)
	}

	if err := svc.CancelReceipt(ctx, tenant, domain.CancelReceiptRequest{ReceiptID: id, Secret: "pw"}); err != nil {
		t.Fatalf("cancel receipt: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "0.00" {
		t.Fatalf("expected supplier back to 0.00, got %s", got)
	}
	if got := product(t, repo, 10).OnHand; got != 50 {
		t.Fatalf("expected on-hand back to 50, got %d", got)
	}
}

func TestModifyReceiptAggregatesLinesAndSkipsZeroQuantities(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateReceipt(ctx, tenant, domain.CreateReceiptRequest{
		SellerCredential: cred,
		SupplierID:       3,
		Lines: []domain.ReceiptLineInput{
			{ProductID: 10, Quantity: 2, UnitPrice: domain.MustAmount("4")},
			{ProductID: 11, Quantity: 0, UnitPrice: domain.MustAmount("1")},
		},
	})
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	if p := product(t, repo, 11); p.PurchasePrice != "" {
		t.Fatalf("zero quantity line must be skipped, got price %q", p.PurchasePrice)
	}

	err = svc.ModifyReceipt(ctx, tenant, id, domain.UpdateReceiptRequest{
		SellerCredential: domain.SellerCredential{SellerID: 2, Secret: "secret"},
		Lines: []domain.ReceiptLineInput{
			{ProductID: 11, Quantity: 1, UnitPrice: domain.MustAmount("1.00")},
			{ProductID: 11, Quantity: 2, UnitPrice: domain.MustAmount("1.50")},
		},
	})
	if err != nil {
		t.Fatalf("modify receipt: %v", err)
	}

	if got := product(t, repo, 10).OnHand; got != 50 {
		t.Fatalf("product dropped from the receipt should be back to 50, got %d", got)
	}
	p := product(t, repo, 11)
	if p.OnHand != 5 || p.PurchasePrice != "1.50" {
		t.Fatalf("unexpected aggregated product: %+v", p)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-4.50" {
		t.Fatalf("expected supplier -4.50, got %s", got)
	}
	detail, _ := svc.FetchReceipt(ctx, tenant, id)
	if len(detail.Lines) != 1 || detail.Lines[0].Quantity != 3 || detail.SellerID != 2 {
		t.Fatalf("unexpected receipt after modify: %+v", detail)
	}
}

func TestCancelReceiptFailsWhenStockWasSold(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateReceipt(ctx, tenant, domain.CreateReceiptRequest{
		SellerCredential: cred,
		SupplierID:       3,
		Lines:            []domain.ReceiptLineInput{{ProductID: 11, Quantity: 3, UnitPrice: domain.MustAmount("1")}},
	})
	if err != nil {
		t.Fatalf("create receipt: %v", err)
	}
	sale := walkInSale(4)
	sale.Lines[0].ProductID = 11
	if _, err := svc.CreateSale(ctx, tenant, sale); err != nil {
		t.Fatalf("sell received stock: %v", err)
	}

	err = svc.CancelReceipt(ctx, tenant, domain.CancelReceiptRequest{ReceiptID: id, Secret: "pw"})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := product(t, repo, 11).OnHand; got != 1 {
		t.Fatalf("failed cancel must not move stock, got %d", got)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-3.00" {
		t.Fatalf("failed cancel must not move the balance, got %s", got)
	}
}

func TestModifySaleReplacesLinesAndRedrawsCounterOnNatureChange(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateSale(ctx, tenant, creditSale("20")); err != nil {
		t.Fatalf("seed credit sale: %v", err)
	}
	id, err := svc.CreateSale(ctx, tenant, walkInSale(2))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	err = svc.ModifySale(ctx, tenant, id, domain.UpdateSaleRequest{
		SellerCredential: domain.SellerCredential{SellerID: 2, Secret: "secret"},
		PartyID:          7,
		Lines: []domain.SaleLineInput{
			{ProductID: 10, Quantity: 5, LineTotal: domain.MustAmount("50")},
			{ProductID: 11, Quantity: 1, LineTotal: domain.MustAmount("3")},
		},
	})
	if err != nil {
		t.Fatalf("modify sale: %v", err)
	}

	if got := product(t, repo, 10).OnHand; got != 43 {
		t.Fatalf("expected 50-2-5=43, got %d", got)
	}
	if got := product(t, repo, 11).OnHand; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := balance(t, repo, domain.Client(7)); got != "0.00" {
		t.Fatalf("modify must not re-post the balance, got %s", got)
	}

	detail, _ := svc.FetchSale(ctx, tenant, id)
	if detail.Nature != domain.NatureCreditNote || detail.Counter != 2 || detail.SellerID != 2 {
		t.Fatalf("unexpected header after modify: %+v", detail.Sale)
	}
	if len(detail.Lines) != 2 || detail.Total.String() != "53.00" {
		t.Fatalf("unexpected lines after modify: %+v", detail.Lines)
	}
	if detail.Lines[0].PurchasePrice != "5.00" {
		t.Fatalf("expected purchase price to default to the product's, got %q", detail.Lines[0].PurchasePrice)
	}
}

func TestSaleFailuresLeaveNoTrace(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tooMany := walkInSale(2)
	tooMany.Lines = append(tooMany.Lines, domain.SaleLineInput{ProductID: 11, Quantity: 3, LineTotal: domain.MustAmount("9")})
	if _, err := svc.CreateSale(ctx, tenant, tooMany); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := product(t, repo, 10).OnHand; got != 50 {
		t.Fatalf("rolled back sale must not move stock, got %d", got)
	}

	id, err := svc.CreateSale(ctx, tenant, walkInSale(1))
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	detail, _ := svc.FetchSale(ctx, tenant, id)
	if detail.Counter != 1 {
		t.Fatalf("rolled back sale must not consume a counter, got %d", detail.Counter)
	}

	cases := []struct {
		name string
		req  domain.CreateSaleRequest
		want error
	}{
		{"wrong secret", func() domain.CreateSaleRequest { r := walkInSale(1); r.Secret = "PW"; return r }(), ErrAuth},
		{"unknown seller", func() domain.CreateSaleRequest { r := walkInSale(1); r.SellerID = 99; return r }(), ErrAuth},
		{"inactive seller", func() domain.CreateSaleRequest { r := walkInSale(1); r.SellerID = 3; return r }(), ErrAuth},
		{"credit walk-in", func() domain.CreateSaleRequest { r := walkInSale(1); r.Mode = domain.PaymentCredit; return r }(), store.ErrInvalidInput},
		{"negative paid", func() domain.CreateSaleRequest { r := creditSale("-1"); return r }(), store.ErrInvalidInput},
		{"no lines", domain.CreateSaleRequest{SellerCredential: cred}, store.ErrInvalidInput},
		{"unknown product", func() domain.CreateSaleRequest { r := walkInSale(1); r.Lines[0].ProductID = 404; return r }(), store.ErrNotFound},
		{"unknown client", func() domain.CreateSaleRequest { r := creditSale("0"); r.PartyID = 404; return r }(), store.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateSale(ctx, tenant, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if err := svc.CancelSale(ctx, tenant, domain.CancelSaleRequest{SaleID: id, Secret: "nope"}); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth error on cancel, got %v", err)
	}
	if got := product(t, repo, 10).OnHand; got != 49 {
		t.Fatalf("expected 49 after failed attempts, got %d", got)
	}
}

func TestSaleCountersStayDenseUnderConcurrency(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan int64, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.CreateSale(ctx, tenant, walkInSale(1))
			if err != nil {
				t.Errorf("create sale: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		detail, err := svc.FetchSale(ctx, tenant, id)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if seen[detail.Counter] {
			t.Fatalf("duplicate counter %d", detail.Counter)
		}
		seen[detail.Counter] = true
	}
	for c := int64(1); c <= 10; c++ {
		if !seen[c] {
			t.Fatalf("counter %d missing", c)
		}
	}
}

func TestPaymentLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{
		SellerCredential: cred, Kind: domain.PartyClient, PartyID: 7, Amount: domain.MustAmount("15.00"), Memo: "cash",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if got := balance(t, repo, domain.Client(7)); got != "15.00" {
		t.Fatalf("expected 15.00, got %s", got)
	}

	history, err := svc.PaymentHistory(ctx, tenant, domain.ReportQuery{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history.Count != 1 || history.Total.String() != "15.00" {
		t.Fatalf("unexpected history: %+v", history)
	}
	entry := history.Payments[0]
	if entry.ID != id || entry.Origin.String() != "VERSEMENT C" || entry.Date != "2024-03-01" || entry.Time != "10:30:00" || entry.PartyName != "Karim" {
		t.Fatalf("unexpected payment entry: %+v", entry)
	}

	err = svc.ModifyPayment(ctx, tenant, domain.UpdatePaymentRequest{
		SellerCredential: cred, PaymentID: id, Kind: domain.PartySupplier, PartyID: 3, Amount: domain.MustAmount("-2.50"),
	})
	if err != nil {
		t.Fatalf("modify payment: %v", err)
	}
	if got := balance(t, repo, domain.Client(7)); got != "0.00" {
		t.Fatalf("expected client reversed to 0.00, got %s", got)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-2.50" {
		t.Fatalf("expected supplier -2.50, got %s", got)
	}

	if err := svc.CancelPayment(ctx, tenant, domain.CancelPaymentRequest{SellerCredential: cred, PaymentID: id}); err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "0.00" {
		t.Fatalf("expected supplier reversed to 0.00, got %s", got)
	}
	if err := svc.CancelPayment(ctx, tenant, domain.CancelPaymentRequest{SellerCredential: cred, PaymentID: id}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second cancel, got %v", err)
	}
}

func TestPaymentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{SellerCredential: cred, Kind: domain.PartyClient, PartyID: 7})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected zero amount to be rejected, got %v", err)
	}
	_, err = svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{SellerCredential: cred, Kind: domain.PartySupplier, PartyID: 7, Amount: domain.MustAmount("1")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected unknown supplier to be not found, got %v", err)
	}
}

func TestPaymentWithSubCentAmountCancelsBackExactly(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateReceipt(ctx, tenant, domain.CreateReceiptRequest{
		SellerCredential: cred,
		SupplierID:       3,
		Lines:            []domain.ReceiptLineInput{{ProductID: 10, Quantity: 5, UnitPrice: domain.MustAmount("4")}},
	}); err != nil {
		t.Fatalf("seed receipt: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-20.00" {
		t.Fatalf("expected supplier -20.00, got %s", got)
	}

	id, err := svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{
		SellerCredential: cred, Kind: domain.PartySupplier, PartyID: 3, Amount: domain.MustAmount("1.005"),
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-18.99" {
		t.Fatalf("expected -18.99, got %s", got)
	}

	if err := svc.CancelPayment(ctx, tenant, domain.CancelPaymentRequest{SellerCredential: cred, PaymentID: id}); err != nil {
		t.Fatalf("cancel payment: %v", err)
	}
	if got := balance(t, repo, domain.Supplier(3)); got != "-20.00" {
		t.Fatalf("expected supplier back to -20.00, got %s", got)
	}

	_, err = svc.CreatePayment(ctx, tenant, domain.CreatePaymentRequest{
		SellerCredential: cred, Kind: domain.PartySupplier, PartyID: 3, Amount: domain.MustAmount("0.004"),
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected an amount that rounds to zero to be rejected, got %v", err)
	}
}

func TestCreateProductMintsLowestFreeCodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, tenant, domain.CreateProductRequest{Name: "Beurre", SalePrice: domain.MustAmount("4.5"), PurchasePrice: domain.MustAmount("3")})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if p.Reference != "P2" || p.Barcode != numbering.ProductBarcode(2) || !numbering.Valid(p.Barcode) {
		t.Fatalf("expected P2 / %s, got %s / %s", numbering.ProductBarcode(2), p.Reference, p.Barcode)
	}
	if p.PurchasePrice != "3.00" || p.SalePrice.String() != "4.50" {
		t.Fatalf("unexpected prices: %+v", p)
	}

	next, err := svc.CreateProduct(ctx, tenant, domain.CreateProductRequest{Name: "Jus"})
	if err != nil {
		t.Fatalf("create second product: %v", err)
	}
	if next.Reference != "P4" {
		t.Fatalf("expected P4, got %s", next.Reference)
	}

	_, err = svc.CreateProduct(ctx, tenant, domain.CreateProductRequest{Name: "Copie", Barcode: p.Barcode})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on reused barcode, got %v", err)
	}
	_, err = svc.CreateProduct(ctx, tenant, domain.CreateProductRequest{Name: "Orphelin", CategoryID: ptr(int64(99))})
	if !errors.Is(err, store.ErrIntegrity) {
		t.Fatalf("expected integrity error for unknown category, got %v", err)
	}
}

func TestLinkedBarcodes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	linked, err := svc.AddLinkedBarcode(ctx, tenant, 10, domain.LinkedBarcodeRequest{})
	if err != nil {
		t.Fatalf("add linked barcode: %v", err)
	}
	if linked.Barcode != numbering.LinkedBarcode(1) || !strings.HasPrefix(linked.Barcode, "2") {
		t.Fatalf("unexpected minted code %s", linked.Barcode)
	}

	if _, err := svc.AddLinkedBarcode(ctx, tenant, 11, domain.LinkedBarcodeRequest{Barcode: linked.Barcode}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict with linked code, got %v", err)
	}
	if _, err := svc.AddLinkedBarcode(ctx, tenant, 11, domain.LinkedBarcodeRequest{Barcode: numbering.ProductBarcode(1)}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict with primary code, got %v", err)
	}
	if _, err := svc.AddLinkedBarcode(ctx, tenant, 404, domain.LinkedBarcodeRequest{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected unknown product, got %v", err)
	}
	if _, err := svc.CreateProduct(ctx, tenant, domain.CreateProductRequest{Name: "X", Barcode: linked.Barcode}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("primary barcode must not reuse a linked code, got %v", err)
	}
}

func TestDeleteCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.DeleteCategory(ctx, tenant, 1); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for used category, got %v", err)
	}
	if err := svc.DeleteCategory(ctx, tenant, 2); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
	if err := svc.DeleteCategory(ctx, tenant, 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckSellerAcceptsBcryptSecrets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CheckSeller(ctx, tenant, 2, "secret")
	if err != nil {
		t.Fatalf("check seller: %v", err)
	}
	if info.Name != "sara" || info.Role != domain.RoleEmployee {
		t.Fatalf("unexpected seller info: %+v", info)
	}
	if _, err := svc.CheckSeller(ctx, tenant, 2, "Secret"); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected case-sensitive mismatch, got %v", err)
	}
	if _, err := svc.CheckSeller(ctx, "other-tenant", 1, "pw"); !errors.Is(err, ErrAuth) {
		t.Fatalf("sellers must be tenant scoped, got %v", err)
	}
}

type mapCache struct {
	mu      sync.Mutex
	values  map[string]domain.Dashboard
	deletes int
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if ok {
		*dst.(*domain.Dashboard) = v
	}
	return ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value.(domain.Dashboard)
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, key := range keys {
		prefix := strings.TrimSuffix(key, "*")
		for k := range c.values {
			if k == key || (prefix != key && strings.HasPrefix(k, prefix)) {
				delete(c.values, k)
			}
		}
	}
	return nil
}

func TestDashboardIsCachedUntilNextWrite(t *testing.T) {
	_, repo := newTestService(t)
	c := &mapCache{values: map[string]domain.Dashboard{}}
	svc := New(repo, Options{Cache: c, Clock: func() time.Time { return testNow }})
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, tenant, testNow)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if first.SalesCount != 0 || first.ProductCount != 2 || first.LowStockCount != 1 || first.Date != "2024-03-01" {
		t.Fatalf("unexpected dashboard: %+v", first)
	}
	if _, ok := c.values[cache.DashboardKey(tenant, "2024-03-01")]; !ok {
		t.Fatalf("expected dashboard to be cached")
	}

	if _, err := svc.CreateSale(ctx, tenant, creditSale("5")); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if c.deletes != 1 {
		t.Fatalf("expected one invalidation, got %d", c.deletes)
	}

	after, err := svc.Dashboard(ctx, tenant, testNow)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if after.SalesCount != 1 || after.SalesTotal.String() != "20.00" || after.Profit.String() != "10.00" || after.ClientReceivable.String() != "15.00" {
		t.Fatalf("unexpected dashboard after sale: %+v", after)
	}
}

func TestReportsCoverTheDay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateSale(ctx, tenant, walkInSale(3)); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateSale(ctx, tenant, creditSale("0")); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	sales, err := svc.SalesOfDay(ctx, tenant, domain.ReportQuery{})
	if err != nil {
		t.Fatalf("sales of day: %v", err)
	}
	if sales.Count != 2 || sales.Total.String() != "40.00" {
		t.Fatalf("unexpected sales report: %+v", sales)
	}

	yesterday := testNow.AddDate(0, 0, -1)
	empty, err := svc.SalesOfDay(ctx, tenant, domain.ReportQuery{From: yesterday, To: yesterday})
	if err != nil {
		t.Fatalf("sales of yesterday: %v", err)
	}
	if empty.Count != 0 {
		t.Fatalf("expected no sales yesterday, got %d", empty.Count)
	}

	top, err := svc.TopProducts(ctx, tenant, domain.ReportQuery{})
	if err != nil {
		t.Fatalf("top products: %v", err)
	}
	if len(top) != 1 || top[0].ProductID != 10 || top[0].Quantity != 5 {
		t.Fatalf("unexpected top products: %+v", top)
	}

	profit, err := svc.ProfitByDay(ctx, tenant, domain.ReportQuery{From: yesterday, To: testNow})
	if err != nil {
		t.Fatalf("profit: %v", err)
	}
	if len(profit) != 1 || profit[0].Day != "2024-03-01" || profit[0].Profit.String() != "15.00" {
		t.Fatalf("unexpected profit: %+v", profit)
	}

	stock, err := svc.StockValuation(ctx, tenant)
	if err != nil {
		t.Fatalf("stock valuation: %v", err)
	}
	if stock.TotalQuantity != 47 || stock.TotalPurchaseValue.String() != "225.00" {
		t.Fatalf("unexpected stock valuation: %+v", stock)
	}
}

func TestExportSnapshotIsExclusivePerTenant(t *testing.T) {
	_, repo := newTestService(t)
	locker := cache.NewMemoryLocker()
	svc := New(repo, Options{Exporter: snapshot.NewExporter(repo, snapshot.WithTempDir(t.TempDir())), Locker: locker})
	ctx := context.Background()

	snap, err := svc.ExportSnapshot(ctx, tenant)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.TableContents["item"] != 2 || snap.TableContents["utilisateur"] != 3 || len(snap.Data) == 0 {
		t.Fatalf("unexpected manifest: %+v", snap.Manifest)
	}

	release, err := locker.Obtain(ctx, cache.ExportLockKey(tenant), time.Minute)
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}
	defer func() { _ = release(ctx) }()
	if _, err := svc.ExportSnapshot(ctx, tenant); !errors.Is(err, cache.ErrLocked) {
		t.Fatalf("expected ErrLocked while another export runs, got %v", err)
	}
}
