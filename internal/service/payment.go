package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/domain"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
)

const (
	paymentDateLayout = "2006-01-02"
	paymentTimeLayout = "15:04:05"
)

func (s *Service) CreatePayment(ctx context.Context, tenant string, req domain.CreatePaymentRequest) (int64, error) {
	if err := validatePayment(req.Kind, req.PartyID, req.Amount); err != nil {
		return 0, err
	}
	party := domain.Party{Kind: req.Kind, ID: req.PartyID}

	var paymentID int64
	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		seller, err := checkSeller(ctx, tx, req.SellerID, req.Secret)
		if err != nil {
			return err
		}
		if _, err := applyBalance(ctx, tx, party, req.Amount.Cents()); err != nil {
			return err
		}

		now := s.now()
		paymentID, err = tx.InsertPayment(ctx, domain.Payment{
			Date:     now.Format(paymentDateLayout),
			Time:     now.Format(paymentTimeLayout),
			Amount:   domain.FormatAmount(req.Amount.Cents()),
			Memo:     strings.TrimSpace(req.Memo),
			SellerID: seller.ID,
			Origin:   req.Kind.Origin(),
			Kind:     req.Kind,
			PartyID:  req.PartyID,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.committed(ctx, tenant, "payment created", zap.Int64("numero_encaisse", paymentID), zap.Stringer("party", party))
	return paymentID, nil
}

// ModifyPayment reverses the stored amount on the stored party and applies
// the new amount to the requested party.
func (s *Service) ModifyPayment(ctx context.Context, tenant string, req domain.UpdatePaymentRequest) error {
	if err := validatePayment(req.Kind, req.PartyID, req.Amount); err != nil {
		return err
	}
	if req.PaymentID <= 0 {
		return badInput("numero_encaisse is required")
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		seller, err := checkSeller(ctx, tx, req.SellerID, req.Secret)
		if err != nil {
			return err
		}
		payment, err := tx.Payment(ctx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("payment %d: %w", req.PaymentID, err)
		}
		if err := reversePayment(ctx, tx, payment); err != nil {
			return err
		}
		if _, err := applyBalance(ctx, tx, domain.Party{Kind: req.Kind, ID: req.PartyID}, req.Amount.Cents()); err != nil {
			return err
		}

		now := s.now()
		payment.Date = now.Format(paymentDateLayout)
		payment.Time = now.Format(paymentTimeLayout)
		payment.Amount = domain.FormatAmount(req.Amount.Cents())
		payment.Memo = strings.TrimSpace(req.Memo)
		payment.SellerID = seller.ID
		payment.Kind = req.Kind
		payment.Origin = req.Kind.Origin()
		payment.PartyID = req.PartyID
		return tx.UpdatePayment(ctx, payment)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "payment modified", zap.Int64("numero_encaisse", req.PaymentID))
	return nil
}

func (s *Service) CancelPayment(ctx context.Context, tenant string, req domain.CancelPaymentRequest) error {
	if req.PaymentID <= 0 {
		return badInput("numero_encaisse is required")
	}

	err := s.repo.WithTx(ctx, tenant, func(tx store.Tx) error {
		if _, err := checkSeller(ctx, tx, req.SellerID, req.Secret); err != nil {
			return err
		}
		payment, err := tx.Payment(ctx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("payment %d: %w", req.PaymentID, err)
		}
		if err := reversePayment(ctx, tx, payment); err != nil {
			return err
		}
		return tx.DeletePayment(ctx, payment.ID)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, tenant, "payment cancelled", zap.Int64("numero_encaisse", req.PaymentID))
	return nil
}

func reversePayment(ctx context.Context, tx store.Tx, payment domain.Payment) error {
	amount, err := domain.ParseAmount(payment.Amount)
	if err != nil {
		return fmt.Errorf("payment %d amount: %w", payment.ID, store.ErrIntegrity)
	}
	_, err = applyBalance(ctx, tx, payment.Party(), amount.Neg())
	return err
}

func validatePayment(kind domain.PartyKind, partyID int64, amount domain.Amount) error {
	if kind != domain.PartyClient && kind != domain.PartySupplier {
		return badInput("type must be C or F")
	}
	if partyID <= 0 {
		return badInput("numero_cf is required")
	}
	if amount.Cents().IsZero() {
		return badInput("montant must not be zero")
	}
	return nil
}
