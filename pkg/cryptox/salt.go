package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const saltLength = 32

var (
	// tokenSalt is dynamically loaded from a file or generated at runtime.
	tokenSalt     string
	tokenSaltFile = "token_salt"
)

// SetTokenSaltPath configures the file the token fingerprint salt is loaded
// from (and written to on first run).
func SetTokenSaltPath(file string) {
	tokenSaltFile = file
}

// GetTokenSalt returns the server-side salt mixed into token fingerprints,
// loading or generating it on first use.
func GetTokenSalt() string {
	if tokenSalt != "" {
		return tokenSalt
	}

	var err error
	tokenSalt, err = loadOrGenerateSalt()
	if err != nil {
		slog.Error("failed to load or generate token salt", slog.Any("err", err))
		os.Exit(1)
	}

	return tokenSalt
}

// loadOrGenerateSalt loads the salt from a file or generates one if not found.
func loadOrGenerateSalt() (string, error) {
	tokenSaltFile = filepath.Clean(tokenSaltFile)
	saltDir := filepath.Dir(tokenSaltFile)
	if err := os.MkdirAll(saltDir, 0750); err != nil {
		return "", err
	}

	if _, err := os.Stat(tokenSaltFile); os.IsNotExist(err) {
		saltBytes := make([]byte, saltLength)
		if _, err := rand.Read(saltBytes); err != nil {
			return "", err
		}
		salt := base64.RawURLEncoding.EncodeToString(saltBytes)

		if err := os.WriteFile(tokenSaltFile, []byte(salt), 0600); err != nil {
			return "", err
		}
		return salt, nil
	}

	data, err := os.ReadFile(tokenSaltFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ResetTokenSaltForTesting clears the cached salt so tests can point at a
// fresh temp file. This should ONLY be used in tests.
func ResetTokenSaltForTesting() {
	tokenSalt = ""
}
