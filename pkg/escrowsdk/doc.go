// Package escrowsdk provides a Go client for the escrow service.
//
// The client covers every public endpoint: seller instruction authoring,
// the payment-completed webhook, one-time disclosure redemption, purchase
// confirmation, dispute review, key rotation, and the audit trail.
//
// Authentication is bring-your-own: the marketplace identity provider
// issues the JWTs, so callers set Token (or derive a per-user client with
// WithToken) rather than authenticating through this package. The payment
// webhook instead authenticates with the shared WebhookSecret.
//
// Errors from the service are returned as *APIError carrying the HTTP
// status and the stable error code:
//
//	reveal, err := client.Disclose(ctx, purchaseID, token)
//	if escrowsdk.IsCode(err, "invalid_or_expired") {
//		// token already burned, expired, or never existed
//	}
package escrowsdk
