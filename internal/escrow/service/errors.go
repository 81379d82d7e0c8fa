package service

import "errors"

var (
	ErrKeyNotFound  = errors.New("key_not_found")
	ErrKeyRotated   = errors.New("key_rotated")
	ErrKeyGraceOver = errors.New("key_grace_expired")

	// ErrDecryptionFailed is deliberately opaque. Tampered ciphertext,
	// substituted records, and wrong-context decryption all surface as this
	// one error; the real cause goes to the audit log only.
	ErrDecryptionFailed = errors.New("decryption_failed")

	ErrTokenNotFound    = errors.New("token_not_found")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenAlreadyUsed = errors.New("token_already_used")

	ErrNotSeller           = errors.New("not_subscription_seller")
	ErrSubscriptionUnknown = errors.New("subscription_not_found")
	ErrNoSlotsAvailable    = errors.New("no_slots_available")
	ErrNoInstructions      = errors.New("instructions_not_found")
	ErrPurchaseUnknown     = errors.New("purchase_not_found")
	ErrPurchaseNotBuyer    = errors.New("not_purchase_buyer")
	ErrInvalidTransition   = errors.New("invalid_state_transition")
	ErrDisputeUnknown      = errors.New("dispute_not_found")
	ErrDisputeClosed       = errors.New("dispute_already_resolved")

	// ErrRefundRejected marks a gateway refusal that retrying cannot fix.
	// The resolver escalates these to manual review.
	ErrRefundRejected = errors.New("refund_rejected")
)
