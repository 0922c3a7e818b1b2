package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

func (s *Service) CreateSale(ctx context.Context, tenant string, req domain.CreateSaleRequest) (int64, error) {
	if err := validateSaleLines(req.Lines); err != nil {
		return 0, err
	}
	if req.PartyID < 0 {
		return 0, badInput("numero_table must not be negative")
	}
	if req.Mode == domain.PaymentCredit && req.PartyID == 0 {
		return 0, badInput("a credit sale needs a client")
	}
	if req.AmountPaid.IsNegative() {
		return 0, badInput("amount_paid must not be negative")
	}

	var saleID int64
	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		seller, err := checkSeller(ctx, tx, req.SellerID, req.Secret)
		if err != nil {
			return err
		}
		if req.PartyID != 0 {
			if _, err := tx.Account(ctx, domain.Client(req.PartyID)); err != nil {
				return fmt.Errorf("client %d: %w", req.PartyID, err)
			}
		}

		nature := domain.NatureForParty(req.PartyID)
		counter, err := nextSaleCounter(ctx, tx, nature)
		if err != nil {
			return err
		}

		saleID, err = tx.InsertSale(ctx, domain.Sale{
			PartyID:  req.PartyID,
			At:       s.documentTime(req.At),
			State:    domain.SaleStateClosed,
			Nature:   nature,
			Counter:  counter,
			SellerID: seller.ID,
		})
		if err != nil {
			return err
		}

		total, err := insertSaleLines(ctx, tx, saleID, req.Lines)
		if err != nil {
			return err
		}

		if req.Mode == domain.PaymentCredit {
			if _, err := applyBalance(ctx, tx, domain.Client(req.PartyID), req.AmountPaid.Cents().Sub(total)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.committed(ctx, tenant, "sale created", zap.Int64("numero_comande", saleID), zap.Int64("numero_table", req.PartyID))
	return saleID, nil
}

// ModifySale replaces the lines and header of a sale. Client balances are
// left as they are.
func (s *Service) ModifySale(ctx context.Context, tenant string, saleID int64, req domain.UpdateSaleRequest) error {
	if err := validateSaleLines(req.Lines); err != nil {
		return err
	}
	if req.PartyID < 0 {
		return badInput("numero_table must not be negative")
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		seller, err := checkSeller(ctx, tx, req.SellerID, req.Secret)
		if err != nil {
			return err
		}
		sale, err := tx.Sale(ctx, saleID)
		if err != nil {
			return fmt.Errorf("sale %d: %w", saleID, err)
		}
		if req.PartyID != 0 {
			if _, err := tx.Account(ctx, domain.Client(req.PartyID)); err != nil {
				return fmt.Errorf("client %d: %w", req.PartyID, err)
			}
		}

		if err := restoreSaleStock(ctx, tx, saleID); err != nil {
			return err
		}
		if err := tx.DeleteSaleLines(ctx, saleID); err != nil {
			return err
		}

		nature := domain.NatureForParty(req.PartyID)
		if nature != sale.Nature {
			sale.Counter, err = nextSaleCounter(ctx, tx, nature)
			if err != nil {
				return err
			}
		}
		sale.PartyID = req.PartyID
		sale.Nature = nature
		sale.At = s.documentTime(req.At)
		sale.SellerID = seller.ID
		if err := tx.UpdateSale(ctx, sale); err != nil {
			return err
		}

		_, err = insertSaleLines(ctx, tx, saleID, req.Lines)
		return err
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "sale modified", zap.Int64("numero_comande", saleID))
	return nil
}

// CancelSale restores stock, credits the sale total back to its client and
// deletes the sale. The secret must belong to the seller who recorded it.
func (s *Service) CancelSale(ctx context.Context, tenant string, req domain.CancelSaleRequest) error {
	if req.SaleID <= 0 {
		return badInput("numero_comande is required")
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		sale, err := tx.Sale(ctx, req.SaleID)
		if err != nil {
			return fmt.Errorf("sale %d: %w", req.SaleID, err)
		}
		if _, err := checkSeller(ctx, tx, sale.SellerID, req.Secret); err != nil {
			return err
		}

		lines, err := tx.SaleLines(ctx, sale.ID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, line := range lines {
			if _, err := adjustStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			lineTotal, err := domain.ParseAmount(line.LineTotal)
			if err != nil {
				return fmt.Errorf("sale %d line total: %w", sale.ID, store.ErrIntegrity)
			}
			total = total.Add(lineTotal)
		}

		if sale.PartyID != 0 {
			if _, err := applyBalance(ctx, tx, domain.Client(sale.PartyID), total); err != nil {
				return err
			}
		}

		if err := tx.DeleteSaleLines(ctx, sale.ID); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, sale.ID)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "sale cancelled", zap.Int64("numero_comande", req.SaleID))
	return nil
}

func (s *Service) FetchSale(ctx context.Context, tenant string, saleID int64) (domain.SaleDetail, error) {
	return s.repo.SaleDetail(ctx, tenant, saleID)
}

func (s *Service) documentTime(at *time.Time) time.Time {
	if at == nil || at.IsZero() {
		return s.now()
	}
	return *at
}

func validateSaleLines(lines []domain.SaleLineInput) error {
	if len(lines) == 0 {
		return badInput("a sale needs at least one line")
	}
	for i, line := range lines {
		if line.ProductID <= 0 {
			return badInput("line %d: numero_item is required", i+1)
		}
		if line.Quantity <= 0 {
			return badInput("line %d: quantite must be positive", i+1)
		}
		if line.LineTotal.IsNegative() {
			return badInput("line %d: prixt must not be negative", i+1)
		}
		if line.PurchasePrice != nil && line.PurchasePrice.IsNegative() {
			return badInput("line %d: prixbh must not be negative", i+1)
		}
	}
	return nil
}

// insertSaleLines writes the lines, takes their quantities out of stock and
// returns the sum of their totals.
func insertSaleLines(ctx context.Context, tx store.Tx, saleID int64, lines []domain.SaleLineInput) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, in := range lines {
		product, err := tx.Product(ctx, in.ProductID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("product %d: %w", in.ProductID, err)
		}

		purchasePrice := domain.TruncatePrice(product.PurchasePrice)
		if in.PurchasePrice != nil {
			purchasePrice = storedPrice(in.PurchasePrice.Cents())
		}
		lineTotal := in.LineTotal.Cents()

		if err := tx.InsertSaleLine(ctx, domain.SaleLine{
			SaleID:        saleID,
			ProductID:     in.ProductID,
			Quantity:      in.Quantity,
			LineTotal:     storedPrice(lineTotal),
			Note:          in.Note,
			PurchasePrice: purchasePrice,
		}); err != nil {
			return decimal.Zero, err
		}
		if _, err := adjustStock(ctx, tx, in.ProductID, -in.Quantity); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(lineTotal)
	}
	return total, nil
}

func restoreSaleStock(ctx context.Context, tx store.Tx, saleID int64) error {
	lines, err := tx.SaleLines(ctx, saleID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := adjustStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}
