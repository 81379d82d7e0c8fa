package escrowsdk

import "time"

// ErrorResponse is the standard error body returned by every escrow
// endpoint.
type ErrorResponse struct {
	// Error is a stable machine-readable code (e.g. "invalid_request")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database  string `json:"database"`
	MasterKey string `json:"master_key"`
}

// RegisterSubscriptionRequest mirrors one marketplace listing into escrow.
type RegisterSubscriptionRequest struct {
	ID         string `json:"id"`
	SellerID   string `json:"seller_id"`
	Title      string `json:"title"`
	SlotsTotal int    `json:"slots_total"`
}

// SubscriptionResponse is the escrow-side view of a listing.
type SubscriptionResponse struct {
	ID             string    `json:"id"`
	SellerID       string    `json:"seller_id"`
	Title          string    `json:"title"`
	SlotsTotal     int       `json:"slots_total"`
	SlotsAvailable int       `json:"slots_available"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveInstructionsRequest is the seller's authoring payload. Instructions is
// the plaintext access material; it is encrypted before anything is written.
type SaveInstructionsRequest struct {
	Instructions string `json:"instructions"`
}

// SaveInstructionsResponse confirms authoring and reports which key pair the
// stored ciphertext is wrapped under.
type SaveInstructionsResponse struct {
	SubscriptionID string    `json:"subscription_id"`
	KeyID          string    `json:"key_id"`
	Scheme         string    `json:"scheme"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PaymentCompletedRequest is the payment collaborator's webhook payload.
type PaymentCompletedRequest struct {
	PurchaseID     string `json:"purchase_id"`
	SubscriptionID string `json:"subscription_id"`
	BuyerID        string `json:"buyer_id"`
	SellerID       string `json:"seller_id"`
	AmountCents    int64  `json:"amount_cents"`
}

// PaymentCompletedResponse carries the one-time disclosure link material.
// Token appears here once and is never retrievable again.
type PaymentCompletedResponse struct {
	PurchaseID string    `json:"purchase_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DisclosureResponse is the one-shot plaintext reveal. ExpiresAt is the
// client-visible countdown after which the content should be treated as
// gone.
type DisclosureResponse struct {
	PurchaseID   string    `json:"purchase_id"`
	Instructions string    `json:"instructions"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PurchaseResponse is the fulfillment status view for buyers and sellers.
type PurchaseResponse struct {
	ID             string     `json:"id"`
	SubscriptionID string     `json:"subscription_id"`
	State          string     `json:"state"`
	RefundStatus   string     `json:"refund_status,omitempty"`
	DisclosedAt    *time.Time `json:"disclosed_at,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConfirmOutcomeRequest records the buyer's verdict after disclosure.
type ConfirmOutcomeRequest struct {
	Working bool `json:"working"`
}

// DisputeResponse mirrors a dispute record.
type DisputeResponse struct {
	ID                 string     `json:"id"`
	TransactionID      string     `json:"transaction_id"`
	Kind               string     `json:"kind"`
	Status             string     `json:"status"`
	Resolution         string     `json:"resolution,omitempty"`
	ResolutionDeadline time.Time  `json:"resolution_deadline"`
	RefundStatus       string     `json:"refund_status,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}

// ResolveDisputeRequest is the reviewer's manual resolution payload.
type ResolveDisputeRequest struct {
	Note string `json:"note"`
}

// RotateKeyRequest selects which key scope to rotate.
type RotateKeyRequest struct {
	KeyType   string `json:"key_type"`
	RelatedID string `json:"related_id,omitempty"`
}

// KeyResponse is the public half of a key record. Private key material never
// appears in any response.
type KeyResponse struct {
	ID        string     `json:"id"`
	KeyType   string     `json:"key_type"`
	RelatedID string     `json:"related_id,omitempty"`
	Algorithm string     `json:"algorithm"`
	CreatedAt time.Time  `json:"created_at"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// RotationDueResponse lists keys whose expiry falls inside the rotation lead
// window.
type RotationDueResponse struct {
	Keys []KeyResponse `json:"keys"`
}

// AuditEventResponse is one audit trail entry. Detail is omitted: internal
// failure causes stay internal.
type AuditEventResponse struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actor_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Outcome      string    `json:"outcome"`
	CreatedAt    time.Time `json:"created_at"`
}
