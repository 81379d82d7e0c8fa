package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/internal/escrow/domain"
)

const instructionsPlaintext = "service: streamco\nemail: owner@example.com\npassword: hunter2\nprofile: slot 3"

func TestDiscloseFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")

	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte(instructionsPlaintext)))

	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")

	plaintext, err := env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.NoError(t, err)
	require.Equal(t, instructionsPlaintext, string(plaintext))

	got, err := env.Store.Purchases().GetPurchaseByID(ctx, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StateDisclosed, got.State)
	require.NotNil(t, got.DisclosedAt)

	// The token burned on first use.
	_, err = env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.ErrorIs(t, err, ErrTokenAlreadyUsed)
}

func TestStoreInstructions_SellerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")

	err := env.Disclosure.StoreInstructions(ctx, "someone-else", sub.ID, []byte(instructionsPlaintext))
	require.ErrorIs(t, err, ErrNotSeller)

	err = env.Disclosure.StoreInstructions(ctx, "seller-1", "no-such-subscription", []byte(instructionsPlaintext))
	require.ErrorIs(t, err, ErrSubscriptionUnknown)
}

func TestStoreInstructions_ReauthoringReplaces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")

	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte("old password")))
	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte("new password")))

	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")
	plaintext, err := env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "new password", string(plaintext))
}

func TestDisclose_SubstitutedRecordFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subA := seedSubscription(t, env, "seller-1")
	subB := seedSubscription(t, env, "seller-1")

	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", subA.ID, []byte("secret for A")))
	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", subB.ID, []byte("secret for B")))

	// Copy A's ciphertext onto B's row, keeping A's key id. The decrypted
	// context no longer matches B, so disclosure must fail opaquely even
	// though the ciphertext itself is untampered.
	recA, err := env.Store.Instructions().GetInstructionsBySubscription(ctx, subA.ID)
	require.NoError(t, err)
	recA.SubscriptionID = subB.ID
	require.NoError(t, env.Store.Instructions().UpsertInstructions(ctx, recA))

	purchase, raw := seedPaidPurchase(t, env, subB, "buyer-1")
	_, err = env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDisclose_TamperedCiphertextFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")

	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte(instructionsPlaintext)))

	rec, err := env.Store.Instructions().GetInstructionsBySubscription(ctx, sub.ID)
	require.NoError(t, err)
	rec.Ciphertext[0] ^= 0xff
	require.NoError(t, env.Store.Instructions().UpsertInstructions(ctx, rec))

	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")
	_, err = env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDisclose_NoInstructions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")
	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")

	_, err := env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.ErrorIs(t, err, ErrNoInstructions)
}

func TestDisclose_WorksAcrossRotationGrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := seedSubscription(t, env, "seller-1")

	require.NoError(t, env.Disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte(instructionsPlaintext)))

	// Rotate after authoring: the ciphertext is still wrapped under the
	// retired key, which keeps decrypting during the grace window.
	_, err := env.Keys.RotateKey(ctx, "admin-1", domain.KeyTypeGroup, &sub.ID)
	require.NoError(t, err)

	purchase, raw := seedPaidPurchase(t, env, sub, "buyer-1")
	plaintext, err := env.Disclosure.Disclose(ctx, raw, purchase.ID, nil)
	require.NoError(t, err)
	require.Equal(t, instructionsPlaintext, string(plaintext))
}
