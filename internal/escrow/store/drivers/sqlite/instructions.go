package sqlite

import (
	"context"

	"github.com/subsplit/escrow/internal/escrow/domain"
)

type instructionsRepo struct {
	db dbtx
}

func (r *instructionsRepo) UpsertInstructions(ctx context.Context, in domain.EncryptedInstruction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO instructions (subscription_id, ciphertext, encrypted_session_key,
			nonce, auth_tag, key_id, scheme, format_version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (subscription_id) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			encrypted_session_key = excluded.encrypted_session_key,
			nonce = excluded.nonce,
			auth_tag = excluded.auth_tag,
			key_id = excluded.key_id,
			scheme = excluded.scheme,
			format_version = excluded.format_version,
			updated_at = excluded.updated_at`,
		in.SubscriptionID, in.Ciphertext, in.EncryptedSessionKey, in.Nonce,
		in.AuthTag, in.KeyID, in.Scheme, in.FormatVersion, in.UpdatedAt,
	)
	return err
}

func (r *instructionsRepo) GetInstructionsBySubscription(ctx context.Context, subscriptionID string) (domain.EncryptedInstruction, error) {
	var in domain.EncryptedInstruction
	err := r.db.QueryRowContext(ctx, `
		SELECT subscription_id, ciphertext, encrypted_session_key, nonce,
			auth_tag, key_id, scheme, format_version, updated_at
		FROM instructions WHERE subscription_id = ?`, subscriptionID,
	).Scan(&in.SubscriptionID, &in.Ciphertext, &in.EncryptedSessionKey,
		&in.Nonce, &in.AuthTag, &in.KeyID, &in.Scheme, &in.FormatVersion,
		&in.UpdatedAt)
	if err != nil {
		return domain.EncryptedInstruction{}, mapNotFound(err)
	}
	return in, nil
}
