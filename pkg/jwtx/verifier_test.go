package jwtx_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/pkg/jwtx"
)

const testKid = "idp-test-key"

func newTestKeySet(t *testing.T) (*jwtx.KeySet, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	doc, err := json.Marshal(jwtx.JWKS{Keys: []jwtx.JWK{{
		Kty: "OKP",
		Crv: "Ed25519",
		Kid: testKid,
		X:   base64.RawURLEncoding.EncodeToString(pub),
	}}})
	require.NoError(t, err)

	keys, err := jwtx.LoadJWKS(doc)
	require.NoError(t, err)
	require.True(t, keys.IsReady())

	return keys, priv
}

func signToken(t *testing.T, priv ed25519.PrivateKey, claims jwtx.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = testKid
	raw, err := token.SignedString(priv)
	require.NoError(t, err)
	return raw
}

func baseClaims(ttl time.Duration) jwtx.Claims {
	now := time.Now()
	return jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "idp.example.com",
			Subject:   "user-123",
			Audience:  jwt.ClaimStrings{"escrow"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scopes: []string{"escrow:seller"},
	}
}

func TestVerifyValidToken(t *testing.T) {
	keys, priv := newTestKeySet(t)
	v := jwtx.NewVerifier(keys, "idp.example.com", "escrow")

	raw := signToken(t, priv, baseClaims(time.Hour))

	claims, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID())
	require.True(t, claims.HasScope("escrow:seller"))
	require.False(t, claims.HasScope("escrow:admin"))
}

func TestVerifyExpiredToken(t *testing.T) {
	keys, priv := newTestKeySet(t)
	v := jwtx.NewVerifier(keys, "idp.example.com", "escrow")
	v.Leeway = 0

	raw := signToken(t, priv, baseClaims(-time.Hour))

	_, err := v.Verify(raw)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyIssuerMismatch(t *testing.T) {
	keys, priv := newTestKeySet(t)
	v := jwtx.NewVerifier(keys, "other-issuer", "escrow")

	_, err := v.Verify(signToken(t, priv, baseClaims(time.Hour)))
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyUnknownKid(t *testing.T) {
	keys, _ := newTestKeySet(t)
	v := jwtx.NewVerifier(keys, "", "")

	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, baseClaims(time.Hour))
	token.Header["kid"] = "some-other-kid"
	raw, err := token.SignedString(otherPriv)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestVerifyGarbage(t *testing.T) {
	keys, _ := newTestKeySet(t)
	v := jwtx.NewVerifier(keys, "", "")

	_, err := v.Verify("not.a.jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}
