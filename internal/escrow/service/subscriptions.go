package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/slogx"
)

// SubscriptionService mirrors marketplace listings into the escrow
// subsystem. The marketplace owns listings; escrow only needs the seller,
// the slot count, and a stable id to hang purchases and keys off.
type SubscriptionService struct {
	Store store.Store
	Audit *AuditService
}

// Register records a subscription listing. Redelivered registrations for a
// known id return the stored record unchanged, so the marketplace can sync
// listings without tracking which ones escrow has already seen.
func (s *SubscriptionService) Register(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	existing, err := s.Store.Subscriptions().GetSubscription(ctx, sub.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Subscription{}, fmt.Errorf("load subscription: %w", err)
	}

	sub.SlotsAvailable = sub.SlotsTotal
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if err := s.Store.Subscriptions().CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent redelivery.
			return s.Store.Subscriptions().GetSubscription(ctx, sub.ID)
		}
		return domain.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	l.Info("subscription registered",
		"subscription_id", sub.ID,
		"seller_id", sub.SellerID,
		"slots_total", sub.SlotsTotal,
	)
	s.Audit.Record(ctx, "system", "subscription.registered", "subscription", sub.ID, "success", "")

	return sub, nil
}

// Get returns one subscription listing.
func (s *SubscriptionService) Get(ctx context.Context, id string) (domain.Subscription, error) {
	sub, err := s.Store.Subscriptions().GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Subscription{}, ErrSubscriptionUnknown
		}
		return domain.Subscription{}, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}
