package domain

import "time"

// Dispute kinds.
const (
	DisputeKindReportedBroken = "reported_broken" // buyer says access doesn't work
	DisputeKindNoConfirmation = "no_confirmation" // silent buyer past the grace window
	DisputeKindNoDisclosure   = "no_disclosure"   // disclosure never happened
)

// Dispute statuses and resolutions. Status moves open -> resolved exactly
// once; resolved is terminal.
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"

	ResolutionRefunded = "refunded"
	ResolutionManual   = "manual"
)

// Dispute tracks a contested purchase. The deadline sweep auto-refunds
// disputes the seller ignores; anything it cannot decide stays open for a
// human reviewer.
type Dispute struct {
	ID                 string // ULID
	ReporterID         string // buyer, or "system" for sweep-opened disputes
	TransactionID      string // purchase id
	Kind               string
	Status             string
	Resolution         string     // refunded or manual once resolved
	ResolutionDeadline time.Time  // seller response deadline
	RefundStatus       string     // none | pending | refunded | failed
	CreatedAt          time.Time
	ResolvedAt         *time.Time
}

// IsOpen reports whether the dispute still accepts transitions.
func (d *Dispute) IsOpen() bool { return d.Status == DisputeStatusOpen }
