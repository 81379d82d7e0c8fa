package domain

import "time"

// PurchaseState tracks fulfillment of a paid slot purchase.
//
// Happy path: AwaitingDisclosure -> Disclosed -> ConfirmedWorking.
// Failure path: Disclosed -> DisputeOpen -> ResolvedRefunded or
// ResolvedManual. A buyer report and the confirmation-deadline sweep both
// land on DisputeOpen. Resolved states are terminal.
type PurchaseState string

const (
	StateAwaitingDisclosure PurchaseState = "awaiting_disclosure"
	StateDisclosed          PurchaseState = "disclosed"
	StateConfirmedWorking   PurchaseState = "confirmed_working"
	StateDisputeOpen        PurchaseState = "dispute_open"
	StateResolvedRefunded   PurchaseState = "resolved_refunded"
	StateResolvedManual     PurchaseState = "resolved_manual"
)

// Refund progress on a purchase. Only the dispute resolver writes these.
const (
	RefundStatusNone     = ""
	RefundStatusPending  = "pending"
	RefundStatusRefunded = "refunded"
	RefundStatusFailed   = "failed"
)

// Purchase is the fulfillment record created when the payment collaborator
// reports a completed payment. Payment settlement itself is out of scope;
// this record only tracks disclosure and dispute state.
type Purchase struct {
	ID             string // provided by the payment collaborator
	SubscriptionID string
	BuyerID        string
	SellerID       string
	AmountCents    int64
	State          PurchaseState
	RefundStatus   string
	DisclosedAt    *time.Time
	ConfirmedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether no further transitions are allowed.
func (p *Purchase) IsTerminal() bool {
	switch p.State {
	case StateConfirmedWorking, StateResolvedRefunded, StateResolvedManual:
		return true
	}
	return false
}
