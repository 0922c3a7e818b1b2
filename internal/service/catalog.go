package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

// CreateProduct inserts a product, minting its reference and barcode when
// they are left blank.
func (s *Service) CreateProduct(ctx context.Context, tenant string, req domain.CreateProductRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Name == "" {
		return domain.Product{}, badInput("designation is required")
	}
	if req.OnHand < 0 {
		return domain.Product{}, badInput("qte must not be negative")
	}
	if req.SalePrice.IsNegative() || req.PurchasePrice.IsNegative() {
		return domain.Product{}, badInput("prices must not be negative")
	}

	product := domain.Product{
		Barcode:       req.Barcode,
		Name:          req.Name,
		OnHand:        req.OnHand,
		SalePrice:     domain.NewAmount(req.SalePrice.Cents()),
		PurchasePrice: storedPrice(req.PurchasePrice.Cents()),
		Reference:     req.Reference,
		CategoryID:    req.CategoryID,
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		if err := tx.LockCatalog(ctx); err != nil {
			return err
		}
		if product.Reference == "" || product.Barcode == "" {
			ref, bar, err := mintProductCodes(ctx, tx)
			if err != nil {
				return err
			}
			if product.Reference == "" {
				product.Reference = ref
			}
			if product.Barcode == "" {
				product.Barcode = bar
			}
		}

		used, err := tx.BarcodeInUse(ctx, product.Barcode)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: barcode %s already in use", store.ErrConflict, product.Barcode)
		}

		product.ID, err = tx.InsertProduct(ctx, product)
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.committed(ctx, tenant, "product created", zap.Int64("numero_item", product.ID), zap.String("bar", product.Barcode))
	return product, nil
}

// AddLinkedBarcode attaches a secondary barcode to a product; a blank code
// is minted.
func (s *Service) AddLinkedBarcode(ctx context.Context, tenant string, productID int64, req domain.LinkedBarcodeRequest) (domain.LinkedBarcode, error) {
	linked := domain.LinkedBarcode{ProductID: productID, Barcode: strings.TrimSpace(req.Barcode)}
	if productID <= 0 {
		return domain.LinkedBarcode{}, badInput("product id is required")
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		if err := tx.LockCatalog(ctx); err != nil {
			return err
		}
		if _, err := tx.Product(ctx, productID); err != nil {
			return fmt.Errorf("product %d: %w", productID, err)
		}
		if linked.Barcode == "" {
			code, err := mintLinkedBarcode(ctx, tx)
			if err != nil {
				return err
			}
			linked.Barcode = code
		}

		used, err := tx.BarcodeInUse(ctx, linked.Barcode)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: barcode %s already in use", store.ErrConflict, linked.Barcode)
		}

		linked.ID, err = tx.InsertLinkedBarcode(ctx, linked)
		return err
	})
	if err != nil {
		return domain.LinkedBarcode{}, err
	}

	s.committed(ctx, tenant, "linked barcode added", zap.Int64("numero_item", productID), zap.String("bar2", linked.Barcode))
	return linked, nil
}

func (s *Service) DeleteCategory(ctx context.Context, tenant string, categoryID int64) error {
	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		used, err := tx.CategoryInUse(ctx, categoryID)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: category %d still has products", store.ErrConflict, categoryID)
		}
		if err := tx.DeleteCategory(ctx, categoryID); err != nil {
			return fmt.Errorf("category %d: %w", categoryID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "category deleted", zap.Int64("id_cat", categoryID))
	return nil
}
