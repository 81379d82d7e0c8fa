package sqlite

import (
	"context"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
)

type subscriptionsRepo struct {
	db dbtx
}

func (r *subscriptionsRepo) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, seller_id, title, slots_total,
			slots_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SellerID, s.Title, s.SlotsTotal, s.SlotsAvailable,
		s.CreatedAt, s.UpdatedAt,
	)
	return mapUnique(err)
}

func (r *subscriptionsRepo) GetSubscription(ctx context.Context, id string) (domain.Subscription, error) {
	var s domain.Subscription
	err := r.db.QueryRowContext(ctx, `
		SELECT id, seller_id, title, slots_total, slots_available,
			created_at, updated_at
		FROM subscriptions WHERE id = ?`, id,
	).Scan(&s.ID, &s.SellerID, &s.Title, &s.SlotsTotal, &s.SlotsAvailable,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	return s, nil
}

func (r *subscriptionsRepo) AdjustAvailableSlots(ctx context.Context, id string, delta int, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET slots_available = slots_available + ?, updated_at = ?
		WHERE id = ?
		  AND slots_available + ? >= 0
		  AND slots_available + ? <= slots_total`,
		delta, now, id, delta, delta,
	)
	if err != nil {
		return err
	}
	return mapAffected(res)
}
