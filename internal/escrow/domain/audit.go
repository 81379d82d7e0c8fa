package domain

import "time"

// Audit outcomes.
const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
	AuditOutcomeWarning = "warning"
)

// Audit actions emitted by the escrow subsystem. Every key lifecycle
// operation, encryption/decryption attempt, token operation, and dispute
// transition produces exactly one event.
const (
	AuditActionKeyGenerated      = "key.generated"
	AuditActionKeyRotated        = "key.rotated"
	AuditActionKeyAccessed       = "key.accessed"
	AuditActionInstructionsSaved = "instructions.saved"
	AuditActionDisclosure        = "instructions.disclosed"
	AuditActionTokenIssued       = "token.issued"
	AuditActionTokenConsumed     = "token.consumed"
	AuditActionDisputeOpened     = "dispute.opened"
	AuditActionDisputeResolved   = "dispute.resolved"
	AuditActionRefundIssued      = "refund.issued"
	AuditActionRefundFailed      = "refund.failed"
)

// AuditEvent is one append-only security audit record. Detail may carry
// internal failure causes that are never surfaced to API callers.
type AuditEvent struct {
	ID           string // ULID
	ActorID      string // user id, or "system" for sweeps
	Action       string
	ResourceType string // key | instructions | token | purchase | dispute
	ResourceID   string
	Outcome      string // success | failure | warning
	Detail       string
	CreatedAt    time.Time
}
