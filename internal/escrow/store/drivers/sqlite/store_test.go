package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "escrow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedPurchase(t *testing.T, s *Store, state domain.PurchaseState) domain.Purchase {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	sub := domain.Subscription{
		ID:             idx.New().String(),
		SellerID:       idx.New().String(),
		Title:          "family plan slot",
		SlotsTotal:     4,
		SlotsAvailable: 2,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.Subscriptions().CreateSubscription(context.Background(), sub))

	p := domain.Purchase{
		ID:             idx.New().String(),
		SubscriptionID: sub.ID,
		BuyerID:        idx.New().String(),
		SellerID:       sub.SellerID,
		AmountCents:    499,
		State:          state,
		RefundStatus:   domain.RefundStatusNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.Purchases().CreatePurchase(context.Background(), p))
	return p
}

func TestConsumeAccessToken_ExactlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPurchase(t, s, domain.StateAwaitingDisclosure)

	now := time.Now().UTC()
	token := domain.AccessToken{
		ID:         idx.New().String(),
		PurchaseID: p.ID,
		TokenHash:  "fingerprint-1",
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	require.NoError(t, s.AccessTokens().CreateAccessToken(ctx, token))

	const redeemers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, redeemers)
	for range redeemers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.AccessTokens().ConsumeAccessToken(ctx, token.TokenHash, p.ID, time.Now().UTC(), nil)
			if err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	require.Len(t, wins, 1, "exactly one concurrent redemption should succeed")

	got, err := s.AccessTokens().GetAccessToken(ctx, token.TokenHash, p.ID)
	require.NoError(t, err)
	require.True(t, got.Used)
	require.NotNil(t, got.UsedAt)
}

func TestConsumeAccessToken_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPurchase(t, s, domain.StateAwaitingDisclosure)

	now := time.Now().UTC()
	token := domain.AccessToken{
		ID:         idx.New().String(),
		PurchaseID: p.ID,
		TokenHash:  "fingerprint-expired",
		ExpiresAt:  now.Add(-time.Minute),
		CreatedAt:  now.Add(-time.Hour),
	}
	require.NoError(t, s.AccessTokens().CreateAccessToken(ctx, token))

	err := s.AccessTokens().ConsumeAccessToken(ctx, token.TokenHash, p.ID, now, nil)
	require.ErrorIs(t, err, store.ErrConflict)

	// The row is untouched so the caller can still classify the failure.
	got, err := s.AccessTokens().GetAccessToken(ctx, token.TokenHash, p.ID)
	require.NoError(t, err)
	require.False(t, got.Used)
}

func TestTransitionState_GuardsOnCurrentState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPurchase(t, s, domain.StateAwaitingDisclosure)

	now := time.Now().UTC()
	require.NoError(t, s.Purchases().MarkDisclosed(ctx, p.ID, now))

	// Second disclosure attempt must fail: the purchase already moved on.
	err := s.Purchases().MarkDisclosed(ctx, p.ID, now)
	require.ErrorIs(t, err, store.ErrConflict)

	require.NoError(t, s.Purchases().MarkConfirmed(ctx, p.ID, now))

	got, err := s.Purchases().GetPurchaseByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateConfirmedWorking, got.State)
	require.NotNil(t, got.DisclosedAt)
	require.NotNil(t, got.ConfirmedAt)
}

func TestClaimRefund_SingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedPurchase(t, s, domain.StateDisputeOpen)

	now := time.Now().UTC()
	d := domain.Dispute{
		ID:                 idx.New().String(),
		ReporterID:         p.BuyerID,
		TransactionID:      p.ID,
		Kind:               domain.DisputeKindReportedBroken,
		Status:             domain.DisputeStatusOpen,
		ResolutionDeadline: now.Add(-time.Hour),
		CreatedAt:          now.Add(-2 * time.Hour),
	}
	require.NoError(t, s.Disputes().CreateDispute(ctx, d))

	require.NoError(t, s.Disputes().ClaimRefund(ctx, d.ID))
	require.ErrorIs(t, s.Disputes().ClaimRefund(ctx, d.ID), store.ErrConflict)

	// Once a refund is claimed the overdue sweep must skip the dispute.
	overdue, err := s.Disputes().ListOverdueOpenDisputes(ctx, now)
	require.NoError(t, err)
	require.Empty(t, overdue)
}

func TestActiveKeyScope_UniquePerRelatedID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	groupID := idx.New().String()
	key := domain.Key{
		ID:                  idx.New().String(),
		KeyType:             domain.KeyTypeGroup,
		RelatedID:           &groupID,
		Algorithm:           "RSA-2048",
		PublicKey:           []byte("pem"),
		PrivateKeyEncrypted: []byte("wrapped"),
		FormatVersion:       1,
		CreatedAt:           now,
		ExpiresAt:           now.Add(365 * 24 * time.Hour),
	}
	require.NoError(t, s.Keys().CreateKey(ctx, key))

	dup := key
	dup.ID = idx.New().String()
	require.Error(t, s.Keys().CreateKey(ctx, dup), "second active key in the same scope must violate the unique index")

	// Rotating frees the scope for a replacement.
	require.NoError(t, s.Keys().RotateKeyRecord(ctx, key.ID, now))
	require.NoError(t, s.Keys().CreateKey(ctx, dup))

	active, err := s.Keys().GetActiveKey(ctx, domain.KeyTypeGroup, &groupID)
	require.NoError(t, err)
	require.Equal(t, dup.ID, active.ID)
}

func TestAdjustAvailableSlots_Bounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	sub := domain.Subscription{
		ID:             idx.New().String(),
		SellerID:       idx.New().String(),
		Title:          "streaming slot",
		SlotsTotal:     2,
		SlotsAvailable: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.Subscriptions().CreateSubscription(ctx, sub))

	require.ErrorIs(t, s.Subscriptions().AdjustAvailableSlots(ctx, sub.ID, -1, now), store.ErrConflict)

	require.NoError(t, s.Subscriptions().AdjustAvailableSlots(ctx, sub.ID, 1, now))
	require.NoError(t, s.Subscriptions().AdjustAvailableSlots(ctx, sub.ID, 1, now))
	require.ErrorIs(t, s.Subscriptions().AdjustAvailableSlots(ctx, sub.ID, 1, now), store.ErrConflict)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	err := s.WithTx(ctx, func(tx store.Tx) error {
		sub := domain.Subscription{
			ID:             "sub-rollback",
			SellerID:       idx.New().String(),
			Title:          "doomed",
			SlotsTotal:     1,
			SlotsAvailable: 1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Subscriptions().CreateSubscription(ctx, sub); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.Subscriptions().GetSubscription(ctx, "sub-rollback")
	require.ErrorIs(t, err, store.ErrNotFound)
}
