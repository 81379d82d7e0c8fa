package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Session key wrapping schemes. The scheme is recorded alongside every
// envelope so decryption knows how to unwrap without inspecting the key.
const (
	WrapRSAOAEP = "RSA-OAEP-256+A256GCM"
	WrapECIES   = "ECIES-P256-HKDF-SHA256+A256GCM"
)

const (
	sessionKeySize = 32
	gcmNonceSize   = 12
	gcmTagSize     = 16
)

// eciesInfo is the HKDF info string binding derived KEKs to this protocol.
var eciesInfo = []byte("subsplit-escrow-session-key-wrap-v1")

// ErrDecryptionFailed is the single error surfaced for any hybrid decryption
// failure: unwrap failure, tag mismatch, or AAD mismatch. Callers must not
// expose which one occurred; the underlying cause is wrapped for internal
// logging only.
var ErrDecryptionFailed = errors.New("cryptox: decryption failed")

// Envelope is the output of hybrid encryption: the payload sealed under a
// random session key, and the session key wrapped for the recipient.
type Envelope struct {
	Ciphertext          []byte // AES-256-GCM ciphertext, tag stripped
	Nonce               []byte // 12-byte GCM nonce
	AuthTag             []byte // 16-byte GCM tag
	EncryptedSessionKey []byte // wrapped session key, format per Scheme
	Scheme              string // WrapRSAOAEP or WrapECIES
}

// Encrypt seals plaintext under a fresh random 256-bit session key with
// AES-256-GCM, binding aad into the authentication tag, then wraps the
// session key for publicKey. The session key never leaves this function.
func Encrypt(plaintext []byte, publicKey any, aad []byte) (*Envelope, error) {
	sessionKey := make([]byte, sessionKeySize)
	if _, err := io.ReadFull(rand.Reader, sessionKey); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate session key: %w", err)
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate nonce: %w", err)
	}

	gcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, aad)

	env := &Envelope{
		Ciphertext: sealed[:len(sealed)-gcmTagSize],
		Nonce:      nonce,
		AuthTag:    sealed[len(sealed)-gcmTagSize:],
	}

	switch pub := publicKey.(type) {
	case *rsa.PublicKey:
		wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, sessionKey, nil)
		if err != nil {
			return nil, fmt.Errorf("cryptox: failed to wrap session key: %w", err)
		}
		env.EncryptedSessionKey = wrapped
		env.Scheme = WrapRSAOAEP

	case *ecdsa.PublicKey:
		wrapped, err := eciesWrap(pub, sessionKey)
		if err != nil {
			return nil, err
		}
		env.EncryptedSessionKey = wrapped
		env.Scheme = WrapECIES

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, publicKey)
	}

	return env, nil
}

// Decrypt unwraps the session key with privateKey and opens the payload,
// verifying the tag and the aad binding. Any failure surfaces as
// ErrDecryptionFailed regardless of cause.
func Decrypt(env *Envelope, privateKey any, aad []byte) ([]byte, error) {
	var sessionKey []byte
	var err error

	switch priv := privateKey.(type) {
	case *rsa.PrivateKey:
		sessionKey, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, env.EncryptedSessionKey, nil)
	case *ecdsa.PrivateKey:
		sessionKey, err = eciesUnwrap(priv, env.EncryptedSessionKey)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, privateKey)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: session key unwrap: %v", ErrDecryptionFailed, err)
	}

	gcm, err := newGCM(sessionKey)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.AuthTag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := gcm.Open(nil, env.Nonce, sealed, aad)
	if err != nil {
		// Tag mismatch and AAD mismatch are indistinguishable by
		// construction; both take this path.
		return nil, fmt.Errorf("%w: payload open: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// eciesWrap wraps a session key for an EC public key: an ephemeral P-256
// ECDH exchange feeds HKDF-SHA256 to derive a one-shot AES-256-GCM key
// encryption key. Output format:
// [65-byte ephemeral public key][12-byte nonce][sealed session key + tag]
func eciesWrap(pub *ecdsa.PublicKey, sessionKey []byte) ([]byte, error) {
	peer, err := pub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("cryptox: invalid EC public key: %w", err)
	}

	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate ephemeral key: %w", err)
	}

	shared, err := ephemeral.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("cryptox: ECDH failed: %w", err)
	}

	kek := make([]byte, sessionKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, eciesInfo), kek); err != nil {
		return nil, fmt.Errorf("cryptox: HKDF failed: %w", err)
	}

	gcm, err := newGCM(kek)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate nonce: %w", err)
	}

	ephPub := ephemeral.PublicKey().Bytes()
	out := make([]byte, 0, len(ephPub)+gcmNonceSize+len(sessionKey)+gcmTagSize)
	out = append(out, ephPub...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, sessionKey, nil), nil
}

// eciesUnwrap reverses eciesWrap using the recipient's EC private key.
func eciesUnwrap(priv *ecdsa.PrivateKey, blob []byte) ([]byte, error) {
	const ephPubSize = 65 // uncompressed P-256 point

	if len(blob) < ephPubSize+gcmNonceSize+gcmTagSize {
		return nil, errors.New("wrapped session key too short")
	}

	self, err := priv.ECDH()
	if err != nil {
		return nil, fmt.Errorf("invalid EC private key: %w", err)
	}
	ephemeral, err := ecdh.P256().NewPublicKey(blob[:ephPubSize])
	if err != nil {
		return nil, fmt.Errorf("invalid ephemeral public key: %w", err)
	}

	shared, err := self.ECDH(ephemeral)
	if err != nil {
		return nil, fmt.Errorf("ECDH failed: %w", err)
	}

	kek := make([]byte, sessionKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, eciesInfo), kek); err != nil {
		return nil, fmt.Errorf("HKDF failed: %w", err)
	}

	gcm, err := newGCM(kek)
	if err != nil {
		return nil, err
	}
	nonce := blob[ephPubSize : ephPubSize+gcmNonceSize]
	return gcm.Open(nil, nonce, blob[ephPubSize+gcmNonceSize:], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create GCM: %w", err)
	}
	return gcm, nil
}
