package domain

import "time"

// Subscription is the minimal slice of the marketplace listing this
// subsystem needs: who owns it (for authoring permission checks) and the
// slot counters the dispute resolver restores on refund. The full listing
// lives with the marketplace collaborator.
type Subscription struct {
	ID             string
	SellerID       string
	Title          string
	SlotsTotal     int
	SlotsAvailable int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
