package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

// ErrAuth covers an unknown seller, an inactive seller and a wrong secret.
var ErrAuth = errors.New("invalid seller credentials")

// CheckSeller validates a seller credential pair for a tenant.
func (s *Service) CheckSeller(ctx context.Context, tenant string, sellerID int64, secret string) (domain.SellerInfo, error) {
	var info domain.SellerInfo
	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		var err error
		info, err = checkSeller(ctx, tx, sellerID, secret)
		return err
	})
	return info, err
}

func checkSeller(ctx context.Context, tx store.Tx, sellerID int64, secret string) (domain.SellerInfo, error) {
	if sellerID <= 0 || secret == "" {
		return domain.SellerInfo{}, ErrAuth
	}
	seller, err := tx.Seller(ctx, sellerID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.SellerInfo{}, ErrAuth
	}
	if err != nil {
		return domain.SellerInfo{}, err
	}
	if !seller.Active || !secretMatches(seller.Secret, secret) {
		return domain.SellerInfo{}, ErrAuth
	}
	return seller.SellerInfo, nil
}

// secretMatches compares case-sensitively; bcrypt hashes are verified as such.
func secretMatches(stored string, input string) bool {
	if stored == "" || input == "" {
		return false
	}
	if isPasswordHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(input)) == 1
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
