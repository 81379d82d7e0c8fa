package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
)

type disputesRepo struct {
	db dbtx
}

const disputeColumns = `id, reporter_id, transaction_id, kind, status,
	resolution, resolution_deadline, refund_status, created_at, resolved_at`

func (r *disputesRepo) CreateDispute(ctx context.Context, d domain.Dispute) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO disputes (`+disputeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ReporterID, d.TransactionID, d.Kind, d.Status, d.Resolution,
		d.ResolutionDeadline, d.RefundStatus, d.CreatedAt,
		mapOptionalTime(d.ResolvedAt),
	)
	return err
}

func (r *disputesRepo) GetDisputeByID(ctx context.Context, id string) (domain.Dispute, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+disputeColumns+` FROM disputes WHERE id = ?`, id)
	return scanDispute(row)
}

func (r *disputesRepo) GetOpenDisputeByTransaction(ctx context.Context, transactionID string) (domain.Dispute, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE transaction_id = ? AND status = 'open'`, transactionID)
	return scanDispute(row)
}

func (r *disputesRepo) ListOverdueOpenDisputes(ctx context.Context, now time.Time) ([]domain.Dispute, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE status = 'open' AND resolution_deadline < ? AND refund_status = ''
		ORDER BY resolution_deadline ASC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var disputes []domain.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

// ClaimRefund marks a dispute as having a refund in flight. Only one caller
// can win the empty-to-pending flip, which keeps retried sweeps from issuing
// the same refund twice.
func (r *disputesRepo) ClaimRefund(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET refund_status = 'pending'
		WHERE id = ? AND status = 'open' AND refund_status = ''`, id)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func (r *disputesRepo) SetRefundStatus(ctx context.Context, id, refundStatus string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET refund_status = ? WHERE id = ?`, refundStatus, id)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func (r *disputesRepo) ResolveDispute(ctx context.Context, id, resolution string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = 'resolved', resolution = ?, resolved_at = ?
		WHERE id = ? AND status = 'open'`,
		resolution, now, id,
	)
	if err != nil {
		return err
	}
	return mapAffected(res)
}

func scanDispute(row rowScanner) (domain.Dispute, error) {
	var (
		d          domain.Dispute
		resolvedAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.ReporterID, &d.TransactionID, &d.Kind,
		&d.Status, &d.Resolution, &d.ResolutionDeadline, &d.RefundStatus,
		&d.CreatedAt, &resolvedAt)
	if err != nil {
		return domain.Dispute{}, mapNotFound(err)
	}
	d.ResolvedAt = mapNullTimePtr(resolvedAt)
	return d, nil
}
