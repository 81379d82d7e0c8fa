package store

import (
	"context"
	"errors"
	"time"

	"github.com/subsplit/escrow/internal/escrow/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict reports that a conditional update matched no row: the row
	// was missing or its guard condition no longer held.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and to actively stop people from accidentally doing
// transactions within transactions.
type Store interface {
	Keys() Keys
	Instructions() Instructions
	AccessTokens() AccessTokens
	Purchases() Purchases
	Disputes() Disputes
	Subscriptions() Subscriptions
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Keys interface {
	// CreateKey inserts a new key record (id is provided by app via ULID).
	CreateKey(ctx context.Context, k domain.Key) error

	// GetKeyByID returns any key record, active or rotated.
	GetKeyByID(ctx context.Context, id string) (domain.Key, error)

	// GetActiveKey returns the single active key for a (keyType, relatedId)
	// pair. relatedID may be nil for unscoped key types.
	GetActiveKey(ctx context.Context, keyType domain.KeyType, relatedID *string) (domain.Key, error)

	// RotateKeyRecord retires a key: sets rotated_at, guarded on the key
	// still being active. Returns ErrConflict if it was already rotated.
	RotateKeyRecord(ctx context.Context, id string, rotatedAt time.Time) error

	// ListKeysExpiringBefore returns active keys whose expires_at falls
	// before the cutoff. keyType filters when non-empty.
	ListKeysExpiringBefore(ctx context.Context, keyType domain.KeyType, cutoff time.Time) ([]domain.Key, error)

	// DeleteKeysRotatedBefore removes rotated keys whose grace period ended
	// before the cutoff. Housekeeping.
	DeleteKeysRotatedBefore(ctx context.Context, cutoff time.Time) error
}

type Instructions interface {
	// UpsertInstructions replaces the record for the same subscription id
	// (re-authoring is last-write-wins).
	UpsertInstructions(ctx context.Context, in domain.EncryptedInstruction) error

	// GetInstructionsBySubscription fetches the one record for a subscription.
	GetInstructionsBySubscription(ctx context.Context, subscriptionID string) (domain.EncryptedInstruction, error)
}

type AccessTokens interface {
	// CreateAccessToken stores a new token record (only the fingerprint).
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessToken returns the record for a (fingerprint, purchase) pair
	// regardless of its used/expired state. Used to classify CAS failures.
	GetAccessToken(ctx context.Context, tokenHash, purchaseID string) (domain.AccessToken, error)

	// ConsumeAccessToken is the single mutation path for redemption: one
	// conditional update setting used=1, used_at=now where used=0 and
	// expires_at > now. Returns ErrConflict when no row qualified; the
	// caller classifies why. Two concurrent calls resolve to exactly one
	// success.
	ConsumeAccessToken(ctx context.Context, tokenHash, purchaseID string, now time.Time, clientContext *string) error

	// DeleteUnusedAccessTokens removes the not-yet-redeemed tokens for one
	// purchase. Reissuing supersedes earlier tokens through this; consumed
	// tokens stay for the audit trail.
	DeleteUnusedAccessTokens(ctx context.Context, purchaseID string) error

	// DeleteExpiredAccessTokens is housekeeping.
	DeleteExpiredAccessTokens(ctx context.Context, now time.Time) error
}

type Purchases interface {
	// CreatePurchase inserts a purchase in awaiting_disclosure state.
	CreatePurchase(ctx context.Context, p domain.Purchase) error

	// GetPurchaseByID returns a purchase by id.
	GetPurchaseByID(ctx context.Context, id string) (domain.Purchase, error)

	// TransitionState moves a purchase from one state to another with a
	// single conditional update. Returns ErrConflict if the purchase was
	// not in the expected state, which makes sweeps idempotent.
	TransitionState(ctx context.Context, id string, from, to domain.PurchaseState, now time.Time) error

	// MarkDisclosed is TransitionState plus stamping disclosed_at.
	MarkDisclosed(ctx context.Context, id string, now time.Time) error

	// MarkConfirmed is TransitionState plus stamping confirmed_at.
	MarkConfirmed(ctx context.Context, id string, now time.Time) error

	// SetRefundStatus updates refund bookkeeping. The dispute resolver is
	// the only caller.
	SetRefundStatus(ctx context.Context, id, refundStatus string, now time.Time) error

	// ListInStateSince returns purchases that entered the given state
	// before the cutoff. Drives the deadline sweeps.
	ListInStateSince(ctx context.Context, state domain.PurchaseState, cutoff time.Time) ([]domain.Purchase, error)
}

type Disputes interface {
	// CreateDispute writes a new open dispute.
	CreateDispute(ctx context.Context, d domain.Dispute) error

	// GetDisputeByID returns a dispute by id.
	GetDisputeByID(ctx context.Context, id string) (domain.Dispute, error)

	// GetOpenDisputeByTransaction returns the open dispute for a purchase.
	GetOpenDisputeByTransaction(ctx context.Context, transactionID string) (domain.Dispute, error)

	// ListOverdueOpenDisputes returns open disputes past their resolution
	// deadline with no refund in flight.
	ListOverdueOpenDisputes(ctx context.Context, now time.Time) ([]domain.Dispute, error)

	// ClaimRefund flips refund_status '' -> 'pending' on an open dispute.
	// Exactly one sweep wins this CAS; the rest get ErrConflict.
	ClaimRefund(ctx context.Context, id string) error

	// SetRefundStatus records the refund outcome (refunded / failed).
	SetRefundStatus(ctx context.Context, id, refundStatus string) error

	// ResolveDispute moves status open -> resolved with the given
	// resolution. Guarded: returns ErrConflict if already resolved.
	ResolveDispute(ctx context.Context, id, resolution string, now time.Time) error
}

type Subscriptions interface {
	// CreateSubscription registers the minimal listing record.
	CreateSubscription(ctx context.Context, s domain.Subscription) error

	// GetSubscription returns a subscription by id.
	GetSubscription(ctx context.Context, id string) (domain.Subscription, error)

	// AdjustAvailableSlots changes slots_available by delta, guarded so the
	// count stays within [0, slots_total]. Returns ErrConflict otherwise.
	AdjustAvailableSlots(ctx context.Context, id string, delta int, now time.Time) error
}

type AuditEvents interface {
	// InsertAuditEvent appends one event. There is no update or delete.
	InsertAuditEvent(ctx context.Context, e domain.AuditEvent) error

	// ListAuditEventsByResource returns newest-first events for a resource.
	ListAuditEventsByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]domain.AuditEvent, error)
}
