package service

import (
	"context"
	"errors"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/slogx"
)

// DisclosureService coordinates the escrow core: sellers deposit encrypted
// access instructions, buyers redeem one-time tokens to read them. Plaintext
// instructions exist only in memory during these two calls.
type DisclosureService struct {
	Store  store.Store
	Keys   *KeyManagerService
	Tokens *AccessTokenService
	Audit  *AuditService
}

// StoreInstructions encrypts and stores a seller's access instructions for
// one subscription. The subscription id is bound into the ciphertext as
// associated data, so a record copied onto another subscription row fails
// decryption outright. Re-authoring replaces the previous record.
func (s *DisclosureService) StoreInstructions(ctx context.Context, sellerID, subscriptionID string, plaintext []byte) error {
	sub, err := s.Store.Subscriptions().GetSubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubscriptionUnknown
		}
		return err
	}
	if sub.SellerID != sellerID {
		s.Audit.Record(ctx, sellerID, domain.AuditActionInstructionsSaved, "instructions", subscriptionID, domain.AuditOutcomeFailure, "caller is not the subscription seller")
		return ErrNotSeller
	}

	key, err := s.Keys.EnsureKeyPair(ctx, domain.KeyTypeGroup, &subscriptionID)
	if err != nil {
		return err
	}
	pub, err := cryptox.ParsePublicKey(key.PublicKey)
	if err != nil {
		return err
	}

	env, err := cryptox.Encrypt(plaintext, pub, []byte(subscriptionID))
	if err != nil {
		s.Audit.Record(ctx, sellerID, domain.AuditActionInstructionsSaved, "instructions", subscriptionID, domain.AuditOutcomeFailure, err.Error())
		return err
	}

	record := domain.EncryptedInstruction{
		SubscriptionID:      subscriptionID,
		Ciphertext:          env.Ciphertext,
		EncryptedSessionKey: env.EncryptedSessionKey,
		Nonce:               env.Nonce,
		AuthTag:             env.AuthTag,
		KeyID:               key.ID,
		Scheme:              env.Scheme,
		FormatVersion:       1,
		UpdatedAt:           time.Now().UTC(),
	}
	if err := s.Store.Instructions().UpsertInstructions(ctx, record); err != nil {
		return err
	}

	s.Audit.Record(ctx, sellerID, domain.AuditActionInstructionsSaved, "instructions", subscriptionID, domain.AuditOutcomeSuccess, "")
	return nil
}

// Disclose redeems a one-time token and returns the decrypted instructions
// for the purchase. Token consumption happens before decryption: a token is
// burned by the attempt, not by its success.
//
// Every failure after token redemption surfaces as ErrDecryptionFailed with
// the true cause confined to the audit log. Token failures keep their own
// classification for auditing; HTTP collapses both families into one
// generic response.
func (s *DisclosureService) Disclose(ctx context.Context, rawToken, purchaseID string, clientContext *string) ([]byte, error) {
	l := slogx.FromContext(ctx)

	if _, err := s.Tokens.VerifyAndConsume(ctx, rawToken, purchaseID, clientContext); err != nil {
		return nil, err
	}

	purchase, err := s.Store.Purchases().GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPurchaseUnknown
		}
		return nil, err
	}

	instructions, err := s.Store.Instructions().GetInstructionsBySubscription(ctx, purchase.SubscriptionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Audit.Record(ctx, purchase.BuyerID, domain.AuditActionDisclosure, "purchase", purchaseID, domain.AuditOutcomeFailure, "no instructions on record")
			return nil, ErrNoInstructions
		}
		return nil, err
	}

	priv, err := s.Keys.GetPrivateKey(ctx, instructions.KeyID)
	if err != nil {
		s.Audit.Record(ctx, purchase.BuyerID, domain.AuditActionDisclosure, "purchase", purchaseID, domain.AuditOutcomeFailure, "key unavailable: "+err.Error())
		return nil, ErrDecryptionFailed
	}

	env := &cryptox.Envelope{
		Ciphertext:          instructions.Ciphertext,
		Nonce:               instructions.Nonce,
		AuthTag:             instructions.AuthTag,
		EncryptedSessionKey: instructions.EncryptedSessionKey,
		Scheme:              instructions.Scheme,
	}
	plaintext, err := cryptox.Decrypt(env, priv, []byte(purchase.SubscriptionID))
	if err != nil {
		// Tamper, substitution, and wrong-context all land here. The
		// audit detail keeps the cause; the caller never sees it.
		s.Audit.Record(ctx, purchase.BuyerID, domain.AuditActionDisclosure, "purchase", purchaseID, domain.AuditOutcomeFailure, err.Error())
		return nil, ErrDecryptionFailed
	}

	// First disclosure advances the purchase. A replacement token issued by
	// support can disclose again without a state change.
	now := time.Now().UTC()
	if err := s.Store.Purchases().MarkDisclosed(ctx, purchaseID, now); err != nil && !errors.Is(err, store.ErrConflict) {
		return nil, err
	}

	l.Info("instructions disclosed", "purchase_id", purchaseID, "subscription_id", purchase.SubscriptionID)
	s.Audit.Record(ctx, purchase.BuyerID, domain.AuditActionDisclosure, "purchase", purchaseID, domain.AuditOutcomeSuccess, "")
	return plaintext, nil
}
