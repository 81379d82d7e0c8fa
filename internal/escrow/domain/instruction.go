package domain

import "time"

// EncryptedInstruction holds a seller's access instructions for one
// subscription, hybrid-encrypted with the subscription id bound in as AAD.
// A substituted or relabelled record fails decryption cryptographically,
// not just by an application-level equality check. One record per
// subscription; re-authoring replaces it.
type EncryptedInstruction struct {
	SubscriptionID      string    // AAD context and primary key
	Ciphertext          []byte    // AES-256-GCM ciphertext, tag stripped
	EncryptedSessionKey []byte    // session key wrapped for the group key
	Nonce               []byte    // 12-byte GCM nonce
	AuthTag             []byte    // 16-byte GCM tag
	KeyID               string    // key pair the session key is wrapped under
	Scheme              string    // session-key wrapping scheme
	FormatVersion       int       // envelope format, bumped on migration
	UpdatedAt           time.Time // last (re-)authoring time
}
