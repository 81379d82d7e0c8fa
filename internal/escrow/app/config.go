package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	MasterKeyPath string // Optional: path to the vault master key file (ESCROW_MASTER_KEY env wins)
	TokenSaltPath string // Optional: path to the token fingerprint salt file (default: ./token_salt)
	DatabaseFile  string // Optional: path to SQLite database file (default: ./escrow.db)

	KeyAlgorithm   string        // Optional: escrow key algorithm (RSA-2048, EC-P256) (default: EC-P256)
	KeyExpiry      time.Duration // Optional: advisory escrow key lifetime (default: 90 days)
	KeyGracePeriod time.Duration // Optional: decrypt-only grace for rotated keys (default: 30 days)
	RotationLead   time.Duration // Optional: rotation worklist horizon before expiry (default: 7 days)
	KeygenWorkers  int           // Optional: concurrent key generation bound (default: 4)

	TokenTTL         time.Duration // Optional: one-time access token validity (default: 30m)
	RevealTTL        time.Duration // Optional: client-visible countdown on revealed instructions (default: 5m)
	ConfirmGrace     time.Duration // Optional: buyer confirmation window after disclosure (default: 24h)
	SellerWindow     time.Duration // Optional: seller response window on open disputes (default: 72h)
	DisclosureWindow time.Duration // Optional: paid purchases must disclose within this window (default: 24h)
	RefundMaxElapsed time.Duration // Optional: retry budget per refund attempt (default: 2m)

	PaymentWebhookSecret string // Required: shared secret for the payment webhook
	RefundURL            string // Optional: payment collaborator refund endpoint; empty disables outbound refunds

	IdPJWKSFile string // Required: path to the identity provider's published JWKS
	IdPIssuer   string // Optional: expected issuer claim; empty disables the check
	IdPAudience string // Optional: expected audience claim; empty disables the check

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Background sweep interval (default: 5m)
}

func LoadConfig() Config {
	return Config{
		MasterKeyPath: os.Getenv("ESCROW_MASTER_KEY_PATH"),
		TokenSaltPath: getEnvOrDefault("ESCROW_TOKEN_SALT_FILE", "token_salt"),
		DatabaseFile:  getEnvOrDefault("ESCROW_DATABASE_FILE", "escrow.db"),

		KeyAlgorithm:   getEnvOrDefault("ESCROW_KEY_ALGORITHM", "EC-P256"),
		KeyExpiry:      getEnvDurationOrDefault("ESCROW_KEY_EXPIRY", 90*24*time.Hour),
		KeyGracePeriod: getEnvDurationOrDefault("ESCROW_KEY_GRACE_PERIOD", 30*24*time.Hour),
		RotationLead:   getEnvDurationOrDefault("ESCROW_ROTATION_LEAD", 7*24*time.Hour),
		KeygenWorkers:  getEnvIntOrDefault("ESCROW_KEYGEN_WORKERS", 4),

		TokenTTL:         getEnvDurationOrDefault("ESCROW_TOKEN_TTL", 30*time.Minute),
		RevealTTL:        getEnvDurationOrDefault("ESCROW_REVEAL_TTL", 5*time.Minute),
		ConfirmGrace:     getEnvDurationOrDefault("ESCROW_CONFIRM_GRACE", 24*time.Hour),
		SellerWindow:     getEnvDurationOrDefault("ESCROW_SELLER_WINDOW", 72*time.Hour),
		DisclosureWindow: getEnvDurationOrDefault("ESCROW_DISCLOSURE_WINDOW", 24*time.Hour),
		RefundMaxElapsed: getEnvDurationOrDefault("ESCROW_REFUND_MAX_ELAPSED", 2*time.Minute),

		PaymentWebhookSecret: os.Getenv("ESCROW_PAYMENT_WEBHOOK_SECRET"),
		RefundURL:            os.Getenv("ESCROW_REFUND_URL"),

		IdPJWKSFile: os.Getenv("ESCROW_IDP_JWKS_FILE"),
		IdPIssuer:   os.Getenv("ESCROW_IDP_ISSUER"),
		IdPAudience: os.Getenv("ESCROW_IDP_AUDIENCE"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("ESCROW_SWEEP_INTERVAL", 5*time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
