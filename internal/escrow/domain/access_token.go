package domain

import "time"

// AccessToken is a one-time disclosure token record. Only the salted
// fingerprint of the token is stored; the raw token exists solely in the
// issuing response and the disclosure link held by the buyer.
//
// Used transitions false to true exactly once, via a single conditional
// update in the store. There is no other mutation path.
type AccessToken struct {
	ID            string     // ULID
	PurchaseID    string     // purchase this token discloses for
	TokenHash     string     // salted SHA-256 fingerprint
	ExpiresAt     time.Time  // server-side validity bound
	Used          bool       // consumed flag, flipped by CAS only
	UsedAt        *time.Time // consumption time
	ClientContext *string    // optional caller metadata (IP, UA) for audit
	CreatedAt     time.Time
}
