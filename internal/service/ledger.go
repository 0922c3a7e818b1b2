package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

// applyBalance adds delta to the party's stored balance and returns the new
// balance. Blank balances count as zero.
func applyBalance(ctx context.Context, tx store.Tx, party domain.Party, delta decimal.Decimal) (decimal.Decimal, error) {
	acc, err := tx.Account(ctx, party)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account %s: %w", party, err)
	}
	current, err := domain.ParseAmount(acc.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account %s balance: %w", party, store.ErrIntegrity)
	}
	next := current.Add(delta).Round(2)
	if err := tx.SetBalance(ctx, party, domain.FormatAmount(next)); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// adjustStock shifts a product's on-hand quantity. A result below zero fails
// with ErrInsufficientStock; the caller's transaction then rolls back.
func adjustStock(ctx context.Context, tx store.Tx, productID int64, delta int) (int, error) {
	onHand, err := tx.AddStock(ctx, productID, delta)
	if err != nil {
		return 0, fmt.Errorf("product %d: %w", productID, err)
	}
	if onHand < 0 {
		return 0, fmt.Errorf("%w: product %d has %d left, %d requested", store.ErrInsufficientStock, productID, onHand-delta, -delta)
	}
	return onHand, nil
}

// storedPrice renders a price that was already rounded to cents and cuts it to
// the column width.
func storedPrice(d decimal.Decimal) string {
	return domain.TruncatePrice(domain.FormatAmount(d))
}

func badInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}
