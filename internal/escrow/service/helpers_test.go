package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/internal/escrow/store/drivers/sqlite"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/idx"
)

type testEnv struct {
	Store      store.Store
	Audit      *AuditService
	Keys       *KeyManagerService
	Tokens     *AccessTokenService
	Disclosure *DisclosureService
	Purchases  *PurchaseService
	Resolver   *DisputeResolver
	Gateway    *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("ESCROW_MASTER_KEY", "test-master-key")
	cryptox.ResetMasterKeyForTesting()
	cryptox.SetTokenSaltPath(filepath.Join(dir, "salt"))
	cryptox.ResetTokenSaltForTesting()
	t.Cleanup(func() {
		cryptox.ResetMasterKeyForTesting()
		cryptox.ResetTokenSaltForTesting()
	})

	s, err := sqlite.NewStore(filepath.Join(dir, "escrow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	audit := &AuditService{Store: s}
	keys := &KeyManagerService{
		Store:        s,
		Audit:        audit,
		Algorithm:    cryptox.AlgorithmECP256,
		KeyExpiry:    365 * 24 * time.Hour,
		GracePeriod:  30 * 24 * time.Hour,
		RotationLead: 14 * 24 * time.Hour,
	}
	tokens := &AccessTokenService{Store: s, Audit: audit, TTL: 30 * time.Minute}
	disclosure := &DisclosureService{Store: s, Keys: keys, Tokens: tokens, Audit: audit}
	purchases := &PurchaseService{Store: s, Tokens: tokens}
	gateway := &fakeGateway{}
	resolver := &DisputeResolver{
		Store:            s,
		Audit:            audit,
		Gateway:          gateway,
		Notifier:         NopNotifier{},
		RefundMaxElapsed: 2 * time.Second,
	}

	return &testEnv{
		Store:      s,
		Audit:      audit,
		Keys:       keys,
		Tokens:     tokens,
		Disclosure: disclosure,
		Purchases:  purchases,
		Resolver:   resolver,
		Gateway:    gateway,
	}
}

// fakeGateway records refund calls and can fail a configurable number of
// times before succeeding, or reject permanently.
type fakeGateway struct {
	mu        sync.Mutex
	calls     int
	failures  int
	permanent bool
}

func (g *fakeGateway) Refund(ctx context.Context, purchaseID string, amountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.permanent {
		return ErrRefundRejected
	}
	if g.failures > 0 {
		g.failures--
		return context.DeadlineExceeded
	}
	return nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func seedSubscription(t *testing.T, env *testEnv, sellerID string) domain.Subscription {
	t.Helper()

	now := time.Now().UTC()
	sub := domain.Subscription{
		ID:             idx.New().String(),
		SellerID:       sellerID,
		Title:          "family streaming plan",
		SlotsTotal:     4,
		SlotsAvailable: 3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, env.Store.Subscriptions().CreateSubscription(context.Background(), sub))
	return sub
}

func seedPaidPurchase(t *testing.T, env *testEnv, sub domain.Subscription, buyerID string) (domain.Purchase, string) {
	t.Helper()

	purchaseID := idx.New().String()
	raw, _, err := env.Purchases.HandlePaymentCompleted(context.Background(), PaymentCompleted{
		PurchaseID:     purchaseID,
		SubscriptionID: sub.ID,
		BuyerID:        buyerID,
		SellerID:       sub.SellerID,
		AmountCents:    499,
	})
	require.NoError(t, err)

	purchase, err := env.Store.Purchases().GetPurchaseByID(context.Background(), purchaseID)
	require.NoError(t, err)
	return purchase, raw
}

// backdatePurchase rewinds updated_at so deadline sweeps see the purchase as
// stale.
func backdatePurchase(t *testing.T, env *testEnv, purchaseID string, age time.Duration) {
	t.Helper()

	past := time.Now().UTC().Add(-age)
	purchase, err := env.Store.Purchases().GetPurchaseByID(context.Background(), purchaseID)
	require.NoError(t, err)
	require.NoError(t, env.Store.Purchases().TransitionState(context.Background(), purchaseID, purchase.State, purchase.State, past))
}
