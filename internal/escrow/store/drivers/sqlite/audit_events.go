package sqlite

import (
	"context"

	"github.com/subsplit/escrow/internal/escrow/domain"
)

type auditEventsRepo struct {
	db dbtx
}

func (r *auditEventsRepo) InsertAuditEvent(ctx context.Context, e domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_id, action, resource_type,
			resource_id, outcome, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, e.ResourceType, e.ResourceID, e.Outcome,
		e.Detail, e.CreatedAt,
	)
	return err
}

func (r *auditEventsRepo) ListAuditEventsByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_id, action, resource_type, resource_id, outcome,
			detail, created_at
		FROM audit_events
		WHERE resource_type = ? AND resource_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		resourceType, resourceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ResourceType,
			&e.ResourceID, &e.Outcome, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
