package escrow_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for escrow service end-to-end tests.
 * This includes container setup, identity provider simulation, and shared
 * fixtures. The tests stand in for the marketplace: they mint the JWTs a
 * real identity provider would issue and drive every integration surface
 * through the public SDK.
 */

const (
	testImageName = "subsplit-escrow-test:latest"

	webhookSecret = "test-webhook-secret-12345"
	idpIssuer     = "marketplace-idp"
	idpKeyID      = "e2e-idp-key-001"
	masterKey     = "e2e-master-key-material-do-not-reuse"
)

// idpKey signs the test tokens; its public half is mounted into the
// container as the JWKS file the service verifies against.
var idpKey *ecdsa.PrivateKey

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	var err error
	idpKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate IdP key: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Building Escrow Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Escrow Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image if it doesn't exist.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/escrow/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// writeJWKSFile publishes the test IdP's public key as a JWKS document on
// the host, ready to be mounted into the container.
func writeJWKSFile(t *testing.T) string {
	t.Helper()

	pub := idpKey.PublicKey
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "EC",
				"kid": idpKeyID,
				"alg": "ES256",
				"use": "sig",
				"crv": "P-256",
				"x":   base64.RawURLEncoding.EncodeToString(padCoord(pub.X.Bytes())),
				"y":   base64.RawURLEncoding.EncodeToString(padCoord(pub.Y.Bytes())),
			},
		},
	}

	raw, err := json.Marshal(jwks)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jwks.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

// padCoord left-pads a P-256 coordinate to the full 32 bytes.
func padCoord(b []byte) []byte {
	if len(b) >= 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// mintToken issues a marketplace-style access token for the given user. The
// service trusts whatever the JWKS-published key signed, which is exactly
// the production trust relationship.
func mintToken(t *testing.T, subject string, scopes ...string) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":    idpIssuer,
		"sub":    subject,
		"iat":    now.Unix(),
		"exp":    now.Add(10 * time.Minute).Unix(),
		"scopes": scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = idpKeyID

	signed, err := token.SignedString(idpKey)
	require.NoError(t, err)
	return signed
}

// setupEscrowContainer starts the escrow service in a container and returns
// the base URL.
func setupEscrowContainer(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	jwksPath := writeJWKSFile(t)

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env: map[string]string{
			"ESCROW_MASTER_KEY":             masterKey,
			"ESCROW_PAYMENT_WEBHOOK_SECRET": webhookSecret,
			"ESCROW_IDP_JWKS_FILE":          "/jwks.json",
			"ESCROW_IDP_ISSUER":             idpIssuer,
			"ESCROW_DATABASE_FILE":          "/tmp/escrow.db",
			"ESCROW_TOKEN_SALT_FILE":        "/tmp/token_salt",
			"ESCROW_KEY_ALGORITHM":          "EC-P256",
			"ENV":                           "test",
			"LOG_LEVEL":                     "info",
			"LOG_FORMAT":                    "json",
		},
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      jwksPath,
				ContainerFilePath: "/jwks.json",
				FileMode:          0o444,
			},
		},
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}
