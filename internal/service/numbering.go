package service

import (
	"context"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/numbering"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

func nextSaleCounter(ctx context.Context, tx store.Tx, nature domain.Nature) (int64, error) {
	highest, err := tx.MaxSaleCounter(ctx, nature)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// mintProductCodes returns the reference and barcode for the lowest free
// product number. The catalog must already be locked.
func mintProductCodes(ctx context.Context, tx store.Tx) (string, string, error) {
	codes, err := tx.ProductCodes(ctx)
	if err != nil {
		return "", "", err
	}
	refs := make([]string, 0, len(codes))
	bars := make([]string, 0, len(codes))
	for _, c := range codes {
		refs = append(refs, c.Reference)
		bars = append(bars, c.Barcode)
	}
	n := numbering.NextProductNumber(refs, bars)
	return numbering.Reference(n), numbering.ProductBarcode(n), nil
}

func mintLinkedBarcode(ctx context.Context, tx store.Tx) (string, error) {
	linked, err := tx.LinkedBarcodes(ctx)
	if err != nil {
		return "", err
	}
	return numbering.LinkedBarcode(numbering.NextLinkedNumber(linked)), nil
}
