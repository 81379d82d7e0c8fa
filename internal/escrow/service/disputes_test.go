package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/internal/escrow/domain"
)

func discloseForTest(t *testing.T, env *testEnv, sub domain.Subscription, purchaseID, raw string) {
	t.Helper()
	_, err := env.Disclosure.Disclose(context.Background(), raw, purchaseID, nil)
	require.NoError(t, err)
}

func TestConfirmOutcome_Working(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte("creds")))
	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")
	discloseForTest(t, env, sub, purchase.ID, raw)

	require.NoError(t, env.Resolver.ConfirmOutcome(ctx, "buyer-1", purchase.ID, true))

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateConfirmedWorking, got.State)
	require.True(t, got.IsTerminal())

	// Terminal states accept no further reports.
	err = env.Resolver.ConfirmOutcome(ctx, "buyer-1", purchase.ID, false)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmOutcome_BrokenOpensDisputeAndRefunds(t *testing.T) {
	env := newTestEnv(t)
	env.Resolver.SellerWindow = time.Millisecond
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte("creds")))
	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")
	discloseForTest(t, env, sub, purchase.ID, raw)

	require.NoError(t, env.Resolver.ConfirmOutcome(ctx, "buyer-1", purchase.ID, false))

	dispute, err := env.Store.Disputes().GetOpenDisputeByTransaction(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DisputeKindReportedBroken, dispute.Kind)

	beforeRefund, err := env.Store.Subscriptions().GetSubscription(ctx, sub.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	env.Resolver.Sweep(ctx)

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolvedRefunded, got.State)
	require.Equal(t, domain.RefundStatusRefunded, got.RefundStatus)
	require.Equal(t, 1, env.Gateway.callCount())

	// The slot returned to the pool exactly once.
	after, err := env.Store.Subscriptions().GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, beforeRefund.SlotsAvailable+1, after.SlotsAvailable)

	// Re-running the sweep never double-refunds.
	env.Resolver.Sweep(ctx)
	require.Equal(t, 1, env.Gateway.callCount())
	again, err := env.Store.Subscriptions().GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, after.SlotsAvailable, again.SlotsAvailable)
}

func TestSweep_SilentBuyerOpensDispute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte("creds")))
	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")
	discloseForTest(t, env, sub, purchase.ID, raw)

	backdatePurchase(t, env, purchase.ID, 25*time.Hour)
	env.Resolver.Sweep(ctx)

	dispute, err := env.Store.Disputes().GetOpenDisputeByTransaction(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DisputeKindNoConfirmation, dispute.Kind)

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisputeOpen, got.State)

	// The seller window is still open, so no refund yet.
	require.Zero(t, env.Gateway.callCount())
}

func TestSweep_NoDisclosureRefundsImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	purchase, _ := seedPaidPurchase(t, env, sub, "buyer-1")

	backdatePurchase(t, env, purchase.ID, 25*time.Hour)

	// First pass opens the dispute with an already-due deadline and the
	// refund phase of the same pass picks it up.
	env.Resolver.Sweep(ctx)

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolvedRefunded, got.State)
	require.Equal(t, 1, env.Gateway.callCount())
}

func TestAutoRefund_RetriesTransientFailures(t *testing.T) {
	env := newTestEnv(t)
	env.Gateway.failures = 2
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	purchase, _ := seedPaidPurchase(t, env, sub, "buyer-1")

	backdatePurchase(t, env, purchase.ID, 25*time.Hour)
	env.Resolver.Sweep(ctx)

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolvedRefunded, got.State)
	require.Equal(t, 3, env.Gateway.callCount(), "two transient failures then success")
}

func TestAutoRefund_PermanentFailureEscalates(t *testing.T) {
	env := newTestEnv(t)
	env.Gateway.permanent = true
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	purchase, _ := seedPaidPurchase(t, env, sub, "buyer-1")

	backdatePurchase(t, env, purchase.ID, 25*time.Hour)
	env.Resolver.Sweep(ctx)

	// One gateway call, no retry storm on a hard rejection.
	require.Equal(t, 1, env.Gateway.callCount())

	dispute, err := env.Store.Disputes().GetOpenDisputeByTransaction(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RefundStatusFailed, dispute.RefundStatus)

	// The dispute stays open for a human; a manual resolution closes it.
	require.NoError(t, env.Resolver.ResolveManually(ctx, "reviewer-1", dispute.ID, "refunded out of band"))

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateResolvedManual, got.State)

	require.ErrorIs(t, env.Resolver.ResolveManually(ctx, "reviewer-1", dispute.ID, "twice"), ErrDisputeClosed)
}
