package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
)

type keysRepo struct {
	db dbtx
}

const keyColumns = `id, key_type, related_id, algorithm, public_key,
	private_key_encrypted, format_version, created_at, rotated_at, expires_at`

func (r *keysRepo) CreateKey(ctx context.Context, k domain.Key) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO keys (`+keyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		k.ID, string(k.KeyType), mapOptionalString(k.RelatedID), k.Algorithm,
		k.PublicKey, k.PrivateKeyEncrypted, k.FormatVersion, k.CreatedAt,
		mapOptionalTime(k.RotatedAt), k.ExpiresAt,
	)
	return err
}

func (r *keysRepo) GetKeyByID(ctx context.Context, id string) (domain.Key, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+keyColumns+` FROM keys WHERE id = ?`, id)
	return scanKey(row)
}

func (r *keysRepo) GetActiveKey(ctx context.Context, keyType domain.KeyType, relatedID *string) (domain.Key, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+keyColumns+` FROM keys
		WHERE key_type = ?
		  AND COALESCE(related_id, '') = COALESCE(?, '')
		  AND rotated_at IS NULL`,
		string(keyType), mapOptionalString(relatedID),
	)
	return scanKey(row)
}

func (r *keysRepo) RotateKeyRecord(ctx context.Context, id string, rotatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE keys SET rotated_at = ?
		WHERE id = ? AND rotated_at IS NULL`,
		rotatedAt, id,
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

func (r *keysRepo) ListKeysExpiringBefore(ctx context.Context, keyType domain.KeyType, cutoff time.Time) ([]domain.Key, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+keyColumns+` FROM keys
		WHERE (? = '' OR key_type = ?)
		  AND rotated_at IS NULL
		  AND expires_at < ?
		ORDER BY expires_at ASC`,
		string(keyType), string(keyType), cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.Key
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *keysRepo) DeleteKeysRotatedBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM keys WHERE rotated_at IS NOT NULL AND rotated_at < ?`, cutoff)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(row rowScanner) (domain.Key, error) {
	var (
		k         domain.Key
		keyType   string
		relatedID sql.NullString
		rotatedAt sql.NullTime
	)
	err := row.Scan(&k.ID, &keyType, &relatedID, &k.Algorithm, &k.PublicKey,
		&k.PrivateKeyEncrypted, &k.FormatVersion, &k.CreatedAt, &rotatedAt,
		&k.ExpiresAt)
	if err != nil {
		return domain.Key{}, mapNotFound(err)
	}
	k.KeyType = domain.KeyType(keyType)
	k.RelatedID = mapNullStringPtr(relatedID)
	k.RotatedAt = mapNullTimePtr(rotatedAt)
	return k, nil
}
