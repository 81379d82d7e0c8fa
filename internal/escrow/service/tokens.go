package service

import (
	"context"
	"errors"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/idx"
)

// AccessTokenService issues and redeems single-use disclosure tokens. The
// raw token is returned once at issue time and never stored; the store keeps
// only a salted fingerprint, so a database leak cannot mint working links.
type AccessTokenService struct {
	Store store.Store
	Audit *AuditService

	// TTL bounds token validity server-side. Zero means 30 minutes.
	TTL time.Duration
}

func (s *AccessTokenService) ttl() time.Duration {
	if s.TTL <= 0 {
		return 30 * time.Minute
	}
	return s.TTL
}

// Issue creates a fresh token bound to one purchase and returns the raw
// token value. The caller embeds it in the disclosure link for the buyer.
// Any earlier unredeemed token for the purchase is revoked, so at most one
// live token exists per purchase at a time.
func (s *AccessTokenService) Issue(ctx context.Context, purchaseID string) (string, domain.AccessToken, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.AccessToken{}, err
	}

	if err := s.Store.AccessTokens().DeleteUnusedAccessTokens(ctx, purchaseID); err != nil {
		return "", domain.AccessToken{}, err
	}

	now := time.Now().UTC()
	record := domain.AccessToken{
		ID:         idx.New().String(),
		PurchaseID: purchaseID,
		TokenHash:  cryptox.FingerprintToken(raw),
		ExpiresAt:  now.Add(s.ttl()),
		CreatedAt:  now,
	}
	if err := s.Store.AccessTokens().CreateAccessToken(ctx, record); err != nil {
		return "", domain.AccessToken{}, err
	}

	s.Audit.Record(ctx, "system", domain.AuditActionTokenIssued, "token", record.ID, domain.AuditOutcomeSuccess, "purchase "+purchaseID)
	return raw, record, nil
}

// VerifyAndConsume redeems a raw token for a purchase. Validity check and
// consumption are one conditional store update, so two concurrent calls with
// the same token resolve to exactly one success regardless of timing.
//
// The returned errors classify failures for auditing. HTTP handlers must
// collapse all of them into one generic response.
func (s *AccessTokenService) VerifyAndConsume(ctx context.Context, rawToken, purchaseID string, clientContext *string) (domain.AccessToken, error) {
	fingerprint := cryptox.FingerprintToken(rawToken)
	now := time.Now().UTC()

	err := s.Store.AccessTokens().ConsumeAccessToken(ctx, fingerprint, purchaseID, now, clientContext)
	if err == nil {
		record, err := s.Store.AccessTokens().GetAccessToken(ctx, fingerprint, purchaseID)
		if err != nil {
			return domain.AccessToken{}, err
		}
		s.Audit.Record(ctx, "system", domain.AuditActionTokenConsumed, "token", record.ID, domain.AuditOutcomeSuccess, "purchase "+purchaseID)
		return record, nil
	}
	if !errors.Is(err, store.ErrConflict) {
		return domain.AccessToken{}, err
	}

	// The single update matched nothing. Re-read to classify why, checking
	// used before expired: a token consumed after its expiry read must
	// still report as used, never as expired.
	record, readErr := s.Store.AccessTokens().GetAccessToken(ctx, fingerprint, purchaseID)
	switch {
	case errors.Is(readErr, store.ErrNotFound):
		s.Audit.Record(ctx, "system", domain.AuditActionTokenConsumed, "token", fingerprint, domain.AuditOutcomeFailure, "unknown token for purchase "+purchaseID)
		return domain.AccessToken{}, ErrTokenNotFound
	case readErr != nil:
		return domain.AccessToken{}, readErr
	case record.Used:
		s.Audit.Record(ctx, "system", domain.AuditActionTokenConsumed, "token", record.ID, domain.AuditOutcomeWarning, "replay attempt on used token")
		return domain.AccessToken{}, ErrTokenAlreadyUsed
	case !record.ExpiresAt.After(now):
		s.Audit.Record(ctx, "system", domain.AuditActionTokenConsumed, "token", record.ID, domain.AuditOutcomeFailure, "token expired")
		return domain.AccessToken{}, ErrTokenExpired
	default:
		// The row qualified on re-read; the update lost a race it should
		// have won. Surface as a replay so the caller stays fail-closed.
		return domain.AccessToken{}, ErrTokenAlreadyUsed
	}
}

// DeleteExpired clears lapsed token records. Housekeeping.
func (s *AccessTokenService) DeleteExpired(ctx context.Context) error {
	return s.Store.AccessTokens().DeleteExpiredAccessTokens(ctx, time.Now().UTC())
}
