package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
)

type purchasesRepo struct {
	db dbtx
}

const purchaseColumns = `id, subscription_id, buyer_id, seller_id, amount_cents,
	state, refund_status, disclosed_at, confirmed_at, created_at, updated_at`

func (r *purchasesRepo) CreatePurchase(ctx context.Context, p domain.Purchase) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SubscriptionID, p.BuyerID, p.SellerID, p.AmountCents,
		string(p.State), p.RefundStatus, mapOptionalTime(p.DisclosedAt),
		mapOptionalTime(p.ConfirmedAt), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *purchasesRepo) GetPurchaseByID(ctx context.Context, id string) (domain.Purchase, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id)
	return scanPurchase(row)
}

func (r *purchasesRepo) TransitionState(ctx context.Context, id string, from, to domain.PurchaseState, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?`,
		string(to), now, id, string(from),
	)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func (r *purchasesRepo) MarkDisclosed(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET state = ?, disclosed_at = ?, updated_at = ?
		WHERE id = ? AND state = ?`,
		string(domain.StateDisclosed), now, now, id,
		string(domain.StateAwaitingDisclosure),
	)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func (r *purchasesRepo) MarkConfirmed(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET state = ?, confirmed_at = ?, updated_at = ?
		WHERE id = ? AND state = ?`,
		string(domain.StateConfirmedWorking), now, now, id,
		string(domain.StateDisclosed),
	)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func (r *purchasesRepo) SetRefundStatus(ctx context.Context, id, refundStatus string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET refund_status = ?, updated_at = ?
		WHERE id = ?`,
		refundStatus, now, id,
	)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func (r *purchasesRepo) ListInStateSince(ctx context.Context, state domain.PurchaseState, cutoff time.Time) ([]domain.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+` FROM purchases
		WHERE state = ? AND updated_at < ?
		ORDER BY updated_at ASC`,
		string(state), cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func mapAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func scanPurchase(row rowScanner) (domain.Purchase, error) {
	var (
		p           domain.Purchase
		state       string
		disclosedAt sql.NullTime
		confirmedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.SubscriptionID, &p.BuyerID, &p.SellerID,
		&p.AmountCents, &state, &p.RefundStatus, &disclosedAt, &confirmedAt,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Purchase{}, mapNotFound(err)
	}
	p.State = domain.PurchaseState(state)
	p.DisclosedAt = mapNullTimePtr(disclosedAt)
	p.ConfirmedAt = mapNullTimePtr(confirmedAt)
	return p, nil
}
