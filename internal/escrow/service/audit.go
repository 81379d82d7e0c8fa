package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/idx"
	"github.com/subsplit/escrow/pkg/slogx"
)

// AuditService appends security audit events. Events are persisted and
// mirrored to the structured log; a persistence failure is logged but never
// propagated, so an audit outage cannot block key or token operations.
type AuditService struct {
	Store store.Store
}

// Record appends one audit event. ActorID may be "system" for background
// work. Detail carries internal causes that are never returned to callers.
func (s *AuditService) Record(ctx context.Context, actorID, action, resourceType, resourceID, outcome, detail string) {
	l := slogx.FromContext(ctx)

	event := domain.AuditEvent{
		ID:           idx.New().String(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		Detail:       detail,
		CreatedAt:    time.Now().UTC(),
	}

	attrs := []any{
		slog.String("action", action),
		slog.String("resource_type", resourceType),
		slog.String("resource_id", resourceID),
		slog.String("outcome", outcome),
		slog.String("actor", actorID),
	}
	if outcome == domain.AuditOutcomeFailure {
		l.Warn("audit event", attrs...)
	} else {
		l.Info("audit event", attrs...)
	}

	if err := s.Store.AuditEvents().InsertAuditEvent(ctx, event); err != nil {
		l.Error("failed to persist audit event", "action", action, "error", err)
	}
}

// History returns the newest-first audit trail for one resource.
func (s *AuditService) History(ctx context.Context, resourceType, resourceID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Store.AuditEvents().ListAuditEventsByResource(ctx, resourceType, resourceID, limit)
}
