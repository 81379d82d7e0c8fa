package escrow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/subsplit/escrow/pkg/escrowsdk"
)

// TestDisclosureFlow_EndToEnd walks the primary marketplace flow: listing
// sync, instruction authoring, payment, one-shot disclosure, and buyer
// confirmation.
func TestDisclosureFlow_EndToEnd(t *testing.T) {
	baseURL, cleanup := setupEscrowContainer(t)
	defer cleanup()

	ctx := context.Background()
	client := escrowsdk.NewClient(baseURL)
	client.WebhookSecret = webhookSecret

	health, err := client.Readyz(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	sub, err := client.RegisterSubscription(ctx, escrowsdk.RegisterSubscriptionRequest{
		ID:         "sub-e2e-flow",
		SellerID:   "seller-1",
		Title:      "Streaming family plan",
		SlotsTotal: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, sub.SlotsAvailable)

	seller := client.WithToken(mintToken(t, "seller-1", "escrow:write"))
	saved, err := seller.SaveInstructions(ctx, "sub-e2e-flow", "user: fam@example.com\npass: hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, saved.KeyID)

	payment, err := client.PaymentCompleted(ctx, escrowsdk.PaymentCompletedRequest{
		PurchaseID:     "pur-e2e-flow",
		SubscriptionID: "sub-e2e-flow",
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		AmountCents:    1299,
	})
	require.NoError(t, err)
	require.NotEmpty(t, payment.Token)

	// Redelivered payment signal issues a fresh token without taking a
	// second slot.
	redelivered, err := client.PaymentCompleted(ctx, escrowsdk.PaymentCompletedRequest{
		PurchaseID:     "pur-e2e-flow",
		SubscriptionID: "sub-e2e-flow",
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		AmountCents:    1299,
	})
	require.NoError(t, err)
	require.NotEmpty(t, redelivered.Token)
	require.NotEqual(t, payment.Token, redelivered.Token)

	reveal, err := client.Disclose(ctx, "pur-e2e-flow", redelivered.Token)
	require.NoError(t, err)
	require.Equal(t, "user: fam@example.com\npass: hunter2", reveal.Instructions)

	// The token burned on first use; the same body comes back for a replay
	// as for a token that never existed.
	_, err = client.Disclose(ctx, "pur-e2e-flow", redelivered.Token)
	require.Error(t, err)
	require.True(t, escrowsdk.IsCode(err, "invalid_or_expired"))

	// The earlier token was superseded but never redeemed; it burns the
	// same way.
	_, err = client.Disclose(ctx, "pur-e2e-flow", payment.Token)
	require.Error(t, err)
	require.True(t, escrowsdk.IsCode(err, "invalid_or_expired"))

	buyer := client.WithToken(mintToken(t, "buyer-1", "escrow:read", "escrow:write"))

	status, err := buyer.GetPurchase(ctx, "pur-e2e-flow")
	require.NoError(t, err)
	require.Equal(t, "disclosed", status.State)

	confirmed, err := buyer.ConfirmOutcome(ctx, "pur-e2e-flow", true)
	require.NoError(t, err)
	require.Equal(t, "confirmed_working", confirmed.State)

	// Confirmation is terminal; a second verdict conflicts.
	_, err = buyer.ConfirmOutcome(ctx, "pur-e2e-flow", false)
	require.Error(t, err)
}

// TestDisputeFlow_BrokenCredentials covers the unhappy path: the buyer
// reports broken credentials, a dispute opens, and a reviewer closes it
// manually.
func TestDisputeFlow_BrokenCredentials(t *testing.T) {
	baseURL, cleanup := setupEscrowContainer(t)
	defer cleanup()

	ctx := context.Background()
	client := escrowsdk.NewClient(baseURL)
	client.WebhookSecret = webhookSecret

	_, err := client.RegisterSubscription(ctx, escrowsdk.RegisterSubscriptionRequest{
		ID:         "sub-e2e-dispute",
		SellerID:   "seller-2",
		Title:      "Music duo plan",
		SlotsTotal: 1,
	})
	require.NoError(t, err)

	seller := client.WithToken(mintToken(t, "seller-2", "escrow:write"))
	_, err = seller.SaveInstructions(ctx, "sub-e2e-dispute", "user: duo@example.com\npass: oldpassword")
	require.NoError(t, err)

	payment, err := client.PaymentCompleted(ctx, escrowsdk.PaymentCompletedRequest{
		PurchaseID:     "pur-e2e-dispute",
		SubscriptionID: "sub-e2e-dispute",
		BuyerID:        "buyer-2",
		SellerID:       "seller-2",
		AmountCents:    499,
	})
	require.NoError(t, err)

	_, err = client.Disclose(ctx, "pur-e2e-dispute", payment.Token)
	require.NoError(t, err)

	buyer := client.WithToken(mintToken(t, "buyer-2", "escrow:read", "escrow:write"))
	disputed, err := buyer.ConfirmOutcome(ctx, "pur-e2e-dispute", false)
	require.NoError(t, err)
	require.Equal(t, "dispute_open", disputed.State)

	dispute, err := buyer.GetPurchaseDispute(ctx, "pur-e2e-dispute")
	require.NoError(t, err)
	require.Equal(t, "open", dispute.Status)
	require.Equal(t, "reported_broken", dispute.Kind)

	// The seller may look the dispute up too.
	sellerView := client.WithToken(mintToken(t, "seller-2", "escrow:read"))
	_, err = sellerView.GetPurchaseDispute(ctx, "pur-e2e-dispute")
	require.NoError(t, err)

	// A bystander may not.
	stranger := client.WithToken(mintToken(t, "someone-else", "escrow:read"))
	_, err = stranger.GetPurchaseDispute(ctx, "pur-e2e-dispute")
	require.True(t, escrowsdk.IsCode(err, "access_denied"))

	admin := client.WithToken(mintToken(t, "reviewer-1", "escrow:read", "escrow:admin"))
	resolved, err := admin.ResolveDispute(ctx, dispute.ID, "seller issued replacement credentials out of band")
	require.NoError(t, err)
	require.Equal(t, "resolved", resolved.Status)
	require.Equal(t, "manual", resolved.Resolution)

	final, err := buyer.GetPurchase(ctx, "pur-e2e-dispute")
	require.NoError(t, err)
	require.Equal(t, "resolved_manual", final.State)

	// Resolution is terminal.
	_, err = admin.ResolveDispute(ctx, dispute.ID, "again")
	require.Error(t, err)

	// The audit trail recorded the dispute lifecycle.
	events, err := admin.AuditHistory(ctx, "dispute", dispute.ID, 50)
	require.NoError(t, err)
	require.NotEmpty(t, events)
}

// TestKeyRotation_GraceDecrypt rotates the subscription's escrow key after
// authoring and checks that disclosure still works through the retired
// key's grace window.
func TestKeyRotation_GraceDecrypt(t *testing.T) {
	baseURL, cleanup := setupEscrowContainer(t)
	defer cleanup()

	ctx := context.Background()
	client := escrowsdk.NewClient(baseURL)
	client.WebhookSecret = webhookSecret

	_, err := client.RegisterSubscription(ctx, escrowsdk.RegisterSubscriptionRequest{
		ID:         "sub-e2e-rotate",
		SellerID:   "seller-3",
		Title:      "Cloud storage pool",
		SlotsTotal: 3,
	})
	require.NoError(t, err)

	seller := client.WithToken(mintToken(t, "seller-3", "escrow:write"))
	saved, err := seller.SaveInstructions(ctx, "sub-e2e-rotate", "share link + PIN 4821")
	require.NoError(t, err)

	admin := client.WithToken(mintToken(t, "ops-1", "escrow:admin"))
	rotated, err := admin.RotateKey(ctx, escrowsdk.RotateKeyRequest{
		KeyType:   "group",
		RelatedID: "sub-e2e-rotate",
	})
	require.NoError(t, err)
	require.NotEqual(t, saved.KeyID, rotated.ID)

	payment, err := client.PaymentCompleted(ctx, escrowsdk.PaymentCompletedRequest{
		PurchaseID:     "pur-e2e-rotate",
		SubscriptionID: "sub-e2e-rotate",
		BuyerID:        "buyer-3",
		SellerID:       "seller-3",
		AmountCents:    899,
	})
	require.NoError(t, err)

	// Ciphertext authored under the retired key still discloses inside the
	// grace window.
	reveal, err := client.Disclose(ctx, "pur-e2e-rotate", payment.Token)
	require.NoError(t, err)
	require.Equal(t, "share link + PIN 4821", reveal.Instructions)
}

// TestAuthBoundaries exercises webhook and scope enforcement.
func TestAuthBoundaries(t *testing.T) {
	baseURL, cleanup := setupEscrowContainer(t)
	defer cleanup()

	ctx := context.Background()
	client := escrowsdk.NewClient(baseURL)
	client.WebhookSecret = webhookSecret

	_, err := client.RegisterSubscription(ctx, escrowsdk.RegisterSubscriptionRequest{
		ID:         "sub-e2e-auth",
		SellerID:   "seller-4",
		Title:      "News bundle",
		SlotsTotal: 1,
	})
	require.NoError(t, err)

	t.Run("wrong webhook secret is rejected", func(t *testing.T) {
		rogue := escrowsdk.NewClient(baseURL)
		rogue.WebhookSecret = "not-the-secret"

		_, err := rogue.PaymentCompleted(ctx, escrowsdk.PaymentCompletedRequest{
			PurchaseID:     "pur-e2e-auth-rogue",
			SubscriptionID: "sub-e2e-auth",
			BuyerID:        "buyer-4",
			SellerID:       "seller-4",
			AmountCents:    100,
		})
		require.True(t, escrowsdk.IsCode(err, "unauthorized"))
	})

	t.Run("missing scope is rejected", func(t *testing.T) {
		readOnly := client.WithToken(mintToken(t, "seller-4", "escrow:read"))
		_, err := readOnly.SaveInstructions(ctx, "sub-e2e-auth", "secret stuff")
		require.Error(t, err)

		var apiErr *escrowsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 403, apiErr.StatusCode)
	})

	t.Run("non-seller cannot author instructions", func(t *testing.T) {
		imposter := client.WithToken(mintToken(t, "seller-9", "escrow:write"))
		_, err := imposter.SaveInstructions(ctx, "sub-e2e-auth", "hijacked")
		require.Error(t, err)

		var apiErr *escrowsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 403, apiErr.StatusCode)
	})

	t.Run("no bearer token is rejected", func(t *testing.T) {
		_, err := client.GetPurchase(ctx, "pur-anything")
		require.Error(t, err)

		var apiErr *escrowsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, 401, apiErr.StatusCode)
	})
}
