package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// Key pair algorithms supported by the escrow subsystem.
const (
	AlgorithmRSA2048 = "RSA-2048"
	AlgorithmECP256  = "EC-P256"
)

var ErrUnsupportedAlgorithm = errors.New("cryptox: unsupported algorithm")

// GenerateKeyPair generates a fresh asymmetric key pair for the given
// algorithm and returns both halves PEM-encoded (PKCS8 private key,
// PKIX public key).
func GenerateKeyPair(algorithm string) (privatePEM, publicPEM []byte, err error) {
	var private any
	switch algorithm {
	case AlgorithmRSA2048:
		private, err = rsa.GenerateKey(rand.Reader, 2048)
	case AlgorithmECP256:
		private, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cryptox: failed to generate %s key: %w", algorithm, err)
	}

	privateBytes, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return nil, nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}
	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateBytes})

	var public any
	switch k := private.(type) {
	case *rsa.PrivateKey:
		public = &k.PublicKey
	case *ecdsa.PrivateKey:
		public = &k.PublicKey
	}
	publicBytes, err := x509.MarshalPKIXPublicKey(public)
	if err != nil {
		return nil, nil, fmt.Errorf("cryptox: failed to marshal public key: %w", err)
	}
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicBytes})

	return privatePEM, publicPEM, nil
}

// ParsePrivateKey decodes a PKCS8 PEM private key. The returned value is
// either *rsa.PrivateKey or *ecdsa.PrivateKey.
func ParsePrivateKey(pemData []byte) (any, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("cryptox: no PEM block in private key data")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to parse private key: %w", err)
	}
	return key, nil
}

// ParsePublicKey decodes a PKIX PEM public key. The returned value is
// either *rsa.PublicKey or *ecdsa.PublicKey.
func ParsePublicKey(pemData []byte) (any, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("cryptox: no PEM block in public key data")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to parse public key: %w", err)
	}
	return key, nil
}
