package service

import (
	"context"
	"errors"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/slogx"
)

// PaymentCompleted is the signal emitted by the payment collaborator once a
// buyer's payment settles. IDs are the collaborator's; the purchase id is
// reused as the primary key so retried deliveries of the same signal are
// detectable.
type PaymentCompleted struct {
	PurchaseID     string `json:"purchase_id"`
	SubscriptionID string `json:"subscription_id"`
	BuyerID        string `json:"buyer_id"`
	SellerID       string `json:"seller_id"`
	AmountCents    int64  `json:"amount_cents"`
}

// PurchaseService turns completed payments into fulfillment records and
// disclosure tokens. It is the entry point of the disclosure flow.
type PurchaseService struct {
	Store  store.Store
	Tokens *AccessTokenService
}

// HandlePaymentCompleted registers the purchase, takes a subscription slot,
// and issues the buyer's one-time disclosure token. A redelivered signal for
// an already-registered purchase issues a fresh token without consuming a
// second slot.
func (s *PurchaseService) HandlePaymentCompleted(ctx context.Context, signal PaymentCompleted) (string, domain.AccessToken, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	existing, err := s.Store.Purchases().GetPurchaseByID(ctx, signal.PurchaseID)
	switch {
	case err == nil:
		if existing.IsTerminal() {
			return "", domain.AccessToken{}, ErrInvalidTransition
		}
		l.Info("payment signal redelivered, reissuing token", "purchase_id", signal.PurchaseID)
	case errors.Is(err, store.ErrNotFound):
		purchase := domain.Purchase{
			ID:             signal.PurchaseID,
			SubscriptionID: signal.SubscriptionID,
			BuyerID:        signal.BuyerID,
			SellerID:       signal.SellerID,
			AmountCents:    signal.AmountCents,
			State:          domain.StateAwaitingDisclosure,
			RefundStatus:   domain.RefundStatusNone,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Subscriptions().GetSubscription(ctx, signal.SubscriptionID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrSubscriptionUnknown
				}
				return err
			}
			if err := tx.Subscriptions().AdjustAvailableSlots(ctx, signal.SubscriptionID, -1, now); err != nil {
				if errors.Is(err, store.ErrConflict) {
					return ErrNoSlotsAvailable
				}
				return err
			}
			return tx.Purchases().CreatePurchase(ctx, purchase)
		})
		if err != nil {
			return "", domain.AccessToken{}, err
		}
	default:
		return "", domain.AccessToken{}, err
	}

	raw, record, err := s.Tokens.Issue(ctx, signal.PurchaseID)
	if err != nil {
		return "", domain.AccessToken{}, err
	}
	return raw, record, nil
}

// GetPurchase returns the purchase for status display, restricted to its
// buyer or seller.
func (s *PurchaseService) GetPurchase(ctx context.Context, callerID, purchaseID string) (domain.Purchase, error) {
	purchase, err := s.Store.Purchases().GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Purchase{}, ErrPurchaseUnknown
		}
		return domain.Purchase{}, err
	}
	if purchase.BuyerID != callerID && purchase.SellerID != callerID {
		return domain.Purchase{}, ErrPurchaseNotBuyer
	}
	return purchase, nil
}
