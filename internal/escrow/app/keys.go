package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/subsplit/escrow/pkg/jwtx"
)

// InitVerifier loads the identity provider's published JWKS from disk and
// builds the token verifier the HTTP layer authenticates with. The service
// never mints tokens itself; it only verifies what the marketplace IdP
// issued.
func InitVerifier(cfg Config, logger *slog.Logger) (jwtx.Verifier, error) {
	if cfg.IdPJWKSFile == "" {
		return nil, fmt.Errorf("ESCROW_IDP_JWKS_FILE is required")
	}

	raw, err := os.ReadFile(cfg.IdPJWKSFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS file: %w", err)
	}

	var jwks jwtx.JWKS
	if err := json.Unmarshal(raw, &jwks); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS file: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.ResetFromJWKS(jwks); err != nil {
		return nil, fmt.Errorf("failed to load JWKS keys: %w", err)
	}

	logger.Info("identity provider keys loaded",
		"file", cfg.IdPJWKSFile,
		"num_keys", len(jwks.Keys),
		"issuer", cfg.IdPIssuer,
	)

	return jwtx.NewVerifier(keys, cfg.IdPIssuer, cfg.IdPAudience), nil
}
