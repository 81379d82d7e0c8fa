package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
)

type accessTokensRepo struct {
	db dbtx
}

func (r *accessTokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (id, purchase_id, token_hash, expires_at,
			used, used_at, client_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.PurchaseID, t.TokenHash, t.ExpiresAt, t.Used,
		mapOptionalTime(t.UsedAt), mapOptionalString(t.ClientContext),
		t.CreatedAt,
	)
	return err
}

func (r *accessTokensRepo) GetAccessToken(ctx context.Context, tokenHash, purchaseID string) (domain.AccessToken, error) {
	var (
		t             domain.AccessToken
		usedAt        sql.NullTime
		clientContext sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, purchase_id, token_hash, expires_at, used, used_at,
			client_context, created_at
		FROM access_tokens
		WHERE token_hash = ? AND purchase_id = ?`,
		tokenHash, purchaseID,
	).Scan(&t.ID, &t.PurchaseID, &t.TokenHash, &t.ExpiresAt, &t.Used,
		&usedAt, &clientContext, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	t.UsedAt = mapNullTimePtr(usedAt)
	t.ClientContext = mapNullStringPtr(clientContext)
	return t, nil
}

// ConsumeAccessToken burns a token with a single conditional update. The
// WHERE clause checks unused and unexpired in the same statement that sets
// used, so concurrent redeemers race on one row write and exactly one wins.
func (r *accessTokensRepo) ConsumeAccessToken(ctx context.Context, tokenHash, purchaseID string, now time.Time, clientContext *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_tokens
		SET used = TRUE, used_at = ?, client_context = ?
		WHERE token_hash = ? AND purchase_id = ?
		  AND used = FALSE AND expires_at > ?`,
		now, mapOptionalString(clientContext), tokenHash, purchaseID, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *accessTokensRepo) DeleteUnusedAccessTokens(ctx context.Context, purchaseID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM access_tokens WHERE purchase_id = ? AND used = FALSE`, purchaseID)
	return err
}

func (r *accessTokensRepo) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM access_tokens WHERE expires_at < ?`, now)
	return err
}
