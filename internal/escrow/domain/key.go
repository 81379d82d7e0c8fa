package domain

import "time"

// KeyType classifies what a key pair protects.
type KeyType string

const (
	KeyTypeGroup   KeyType = "group"   // one per subscription group
	KeyTypeUser    KeyType = "user"    // reserved for per-user envelopes
	KeyTypeSession KeyType = "session" // short-lived operational keys
	KeyTypeMaster  KeyType = "master"  // bookkeeping for the wrapping key itself
)

// Key is an asymmetric key pair record. The private key is wrapped under the
// process master key with AES-256-GCM before it ever reaches the store; the
// plaintext private key is never persisted or transmitted.
type Key struct {
	ID                  string     // ULID
	KeyType             KeyType    // group, user, session, or master
	RelatedID           *string    // e.g. subscription id for group keys
	Algorithm           string     // RSA-2048 or EC-P256
	PublicKey           []byte     // PKIX PEM
	PrivateKeyEncrypted []byte     // [12-byte nonce][ciphertext][16-byte tag]
	FormatVersion       int        // wrapping format, bumped on migration
	CreatedAt           time.Time  // when the key was created
	RotatedAt           *time.Time // when rotation retired it (nil = active)
	ExpiresAt           time.Time  // advisory; drives the rotation worklist
}

// IsActive reports whether the key may be advertised for new encryption.
func (k *Key) IsActive() bool {
	return k.RotatedAt == nil
}

// InDecryptGrace reports whether a rotated key may still be used for
// decryption. Rotated keys keep decrypting existing ciphertext for a grace
// period so rotation doesn't strand data wrapped under the old key.
func (k *Key) InDecryptGrace(now time.Time, grace time.Duration) bool {
	return k.RotatedAt != nil && now.Before(k.RotatedAt.Add(grace))
}

// RotationDue reports whether the key's expiry falls within the lead window.
func (k *Key) RotationDue(now time.Time, lead time.Duration) bool {
	return k.RotatedAt == nil && k.ExpiresAt.Before(now.Add(lead))
}
