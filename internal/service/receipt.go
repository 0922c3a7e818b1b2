package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

func (s *Service) CreateReceipt(ctx context.Context, tenant string, req domain.CreateReceiptRequest) (int64, error) {
	lines, err := receivedLines(req.Lines)
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 0, badInput("a receipt needs at least one line with a quantity")
	}

	var receiptID int64
	err = s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		seller, err := checkSeller(ctx, tx, req.SellerID, req.Secret)
		if err != nil {
			return err
		}
		supplier := domain.Supplier(req.SupplierID)
		if _, err := tx.Account(ctx, supplier); err != nil {
			return fmt.Errorf("supplier %d: %w", req.SupplierID, err)
		}

		receipt := domain.Receipt{
			SupplierID: req.SupplierID,
			At:         s.documentTime(req.At),
			State:      domain.ReceiptStateClosed,
			Nature:     domain.NatureReceipt,
			SellerID:   seller.ID,
		}
		receiptID, err = tx.InsertReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		receipt.ID = receiptID
		receipt.Reference = strconv.FormatInt(receiptID, 10)
		if err := tx.UpdateReceipt(ctx, receipt); err != nil {
			return err
		}

		totalCost := decimal.Zero
		for _, in := range lines {
			product, err := tx.Product(ctx, in.ProductID)
			if err != nil {
				return fmt.Errorf("product %d: %w", in.ProductID, err)
			}
			unitPrice := in.UnitPrice.Cents()
			price := storedPrice(unitPrice)
			if err := tx.InsertReceiptLine(ctx, domain.ReceiptLine{
				ReceiptID:     receiptID,
				ProductID:     in.ProductID,
				Quantity:      in.Quantity,
				OnHandAfter:   product.OnHand + in.Quantity,
				UnitPrice:     price,
				PreviousPrice: domain.TruncatePrice(product.PurchasePrice),
			}); err != nil {
				return err
			}
			if _, err := adjustStock(ctx, tx, in.ProductID, in.Quantity); err != nil {
				return err
			}
			if err := tx.SetPurchasePrice(ctx, in.ProductID, price); err != nil {
				return err
			}
			totalCost = totalCost.Add(unitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))))
		}

		_, err = applyBalance(ctx, tx, supplier, totalCost.Neg())
		return err
	})
	if err != nil {
		return 0, err
	}

	s.committed(ctx, tenant, "receipt created", zap.Int64("numero_mouvement", receiptID), zap.Int64("numero_four", req.SupplierID))
	return receiptID, nil
}

type receivedQty struct {
	qty   int
	price decimal.Decimal
}

// ModifyReceipt replaces the lines of a receipt product by product: the old
// quantity is taken back out of stock, the new one put in, and the supplier
// balance moves from the old cost to the new one.
func (s *Service) ModifyReceipt(ctx context.Context, tenant string, receiptID int64, req domain.UpdateReceiptRequest) error {
	lines, err := receivedLines(req.Lines)
	if err != nil {
		return err
	}

	newQty := map[int64]receivedQty{}
	for _, in := range lines {
		agg := newQty[in.ProductID]
		agg.qty += in.Quantity
		agg.price = in.UnitPrice.Cents()
		newQty[in.ProductID] = agg
	}

	err = s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		seller, err := checkSeller(ctx, tx, req.SellerID, req.Secret)
		if err != nil {
			return err
		}
		receipt, err := tx.Receipt(ctx, receiptID)
		if err != nil {
			return fmt.Errorf("receipt %d: %w", receiptID, err)
		}
		oldSupplier := domain.Supplier(receipt.SupplierID)
		newSupplier := oldSupplier
		if req.SupplierID != 0 {
			newSupplier = domain.Supplier(req.SupplierID)
		}
		if _, err := tx.Account(ctx, newSupplier); err != nil {
			return fmt.Errorf("supplier %d: %w", newSupplier.ID, err)
		}

		oldLines, err := tx.ReceiptLines(ctx, receiptID)
		if err != nil {
			return err
		}
		oldQty := map[int64]int{}
		oldCost, err := receiptCost(oldLines)
		if err != nil {
			return err
		}
		for _, line := range oldLines {
			oldQty[line.ProductID] += line.Quantity
		}
		if _, err := applyBalance(ctx, tx, oldSupplier, oldCost); err != nil {
			return err
		}
		if err := tx.DeleteReceiptLines(ctx, receiptID); err != nil {
			return err
		}

		products := make([]int64, 0, len(oldQty)+len(newQty))
		for id := range oldQty {
			products = append(products, id)
		}
		for id := range newQty {
			if _, ok := oldQty[id]; !ok {
				products = append(products, id)
			}
		}
		slices.Sort(products)

		newCost := decimal.Zero
		for _, id := range products {
			product, err := tx.Product(ctx, id)
			if err != nil {
				return fmt.Errorf("product %d: %w", id, err)
			}
			next := newQty[id]
			onHand := product.OnHand - oldQty[id] + next.qty
			if onHand < 0 {
				return fmt.Errorf("%w: product %d would drop to %d", store.ErrInsufficientStock, id, onHand)
			}
			if _, err := tx.AddStock(ctx, id, onHand-product.OnHand); err != nil {
				return err
			}
			if next.qty == 0 {
				continue
			}

			price := storedPrice(next.price)
			if err := tx.InsertReceiptLine(ctx, domain.ReceiptLine{
				ReceiptID:     receiptID,
				ProductID:     id,
				Quantity:      next.qty,
				OnHandAfter:   onHand,
				UnitPrice:     price,
				PreviousPrice: domain.TruncatePrice(product.PurchasePrice),
			}); err != nil {
				return err
			}
			if err := tx.SetPurchasePrice(ctx, id, price); err != nil {
				return err
			}
			newCost = newCost.Add(next.price.Mul(decimal.NewFromInt(int64(next.qty))))
		}

		if _, err := applyBalance(ctx, tx, newSupplier, newCost.Neg()); err != nil {
			return err
		}

		receipt.SupplierID = newSupplier.ID
		receipt.SellerID = seller.ID
		receipt.At = s.now()
		return tx.UpdateReceipt(ctx, receipt)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "receipt modified", zap.Int64("numero_mouvement", receiptID))
	return nil
}

// CancelReceipt takes the received quantities back out of stock and credits
// the cost back to the supplier. It fails when later sales already consumed
// the stock.
func (s *Service) CancelReceipt(ctx context.Context, tenant string, req domain.CancelReceiptRequest) error {
	if req.ReceiptID <= 0 {
		return badInput("numero_mouvement is required")
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		receipt, err := tx.Receipt(ctx, req.ReceiptID)
		if err != nil {
			return fmt.Errorf("receipt %d: %w", req.ReceiptID, err)
		}
		if _, err := checkSeller(ctx, tx, receipt.SellerID, req.Secret); err != nil {
			return err
		}

		lines, err := tx.ReceiptLines(ctx, receipt.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := adjustStock(ctx, tx, line.ProductID, -line.Quantity); err != nil {
				return err
			}
		}
		cost, err := receiptCost(lines)
		if err != nil {
			return err
		}
		if _, err := applyBalance(ctx, tx, domain.Supplier(receipt.SupplierID), cost); err != nil {
			return err
		}

		if err := tx.DeleteReceiptLines(ctx, receipt.ID); err != nil {
			return err
		}
		return tx.DeleteReceipt(ctx, receipt.ID)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "receipt cancelled", zap.Int64("numero_mouvement", req.ReceiptID))
	return nil
}

func (s *Service) FetchReceipt(ctx context.Context, tenant string, receiptID int64) (domain.ReceiptDetail, error) {
	return s.repo.ReceiptDetail(ctx, tenant, receiptID)
}

// receivedLines validates receipt lines and drops those without a quantity.
func receivedLines(lines []domain.ReceiptLineInput) ([]domain.ReceiptLineInput, error) {
	out := make([]domain.ReceiptLineInput, 0, len(lines))
	for i, line := range lines {
		if line.ProductID <= 0 {
			return nil, badInput("line %d: numero_item is required", i+1)
		}
		if line.Quantity < 0 {
			return nil, badInput("line %d: qtea must not be negative", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return nil, badInput("line %d: prixbh must not be negative", i+1)
		}
		if line.Quantity == 0 {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func receiptCost(lines []domain.ReceiptLine) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		price, err := domain.ParseAmount(line.UnitPrice)
		if err != nil {
			return decimal.Zero, fmt.Errorf("receipt %d line price: %w", line.ReceiptID, store.ErrIntegrity)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}
