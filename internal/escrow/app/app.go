package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/subsplit/escrow/internal/escrow/http"
	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/internal/escrow/store/drivers/sqlite"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/jwtx"
	"github.com/subsplit/escrow/pkg/slogx"
)

const (
	// BuildVersion is overridable via ldflags once release tooling exists.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the escrow service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	// Services
	auditService        *service.AuditService
	subscriptionService *service.SubscriptionService
	keyManager          *service.KeyManagerService
	tokenService        *service.AccessTokenService
	disclosureService   *service.DisclosureService
	purchaseService     *service.PurchaseService
	disputeResolver     *service.DisputeResolver
	sweeper             *service.SweeperService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "escrow-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		app.logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}
	cryptox.SetTokenSaltPath(cfg.TokenSaltPath)

	// The vault is useless without its master key; refuse to start rather
	// than fail on the first disclosure.
	if err := cryptox.MasterKeyAvailable(); err != nil {
		return nil, fmt.Errorf("master key unavailable: %w", err)
	}

	if cfg.PaymentWebhookSecret == "" {
		return nil, fmt.Errorf("ESCROW_PAYMENT_WEBHOOK_SECRET is required")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	verifier, err := InitVerifier(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP(verifier)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("escrow service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down escrow service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("escrow service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.auditService = &service.AuditService{Store: app.db}

	app.subscriptionService = &service.SubscriptionService{
		Store: app.db,
		Audit: app.auditService,
	}

	app.keyManager = &service.KeyManagerService{
		Store:        app.db,
		Audit:        app.auditService,
		Algorithm:    app.cfg.KeyAlgorithm,
		KeyExpiry:    app.cfg.KeyExpiry,
		GracePeriod:  app.cfg.KeyGracePeriod,
		RotationLead: app.cfg.RotationLead,
		Workers:      int64(app.cfg.KeygenWorkers),
	}

	app.tokenService = &service.AccessTokenService{
		Store: app.db,
		Audit: app.auditService,
		TTL:   app.cfg.TokenTTL,
	}

	app.disclosureService = &service.DisclosureService{
		Store:  app.db,
		Keys:   app.keyManager,
		Tokens: app.tokenService,
		Audit:  app.auditService,
	}

	app.purchaseService = &service.PurchaseService{
		Store:  app.db,
		Tokens: app.tokenService,
	}

	var gateway service.PaymentGateway
	if app.cfg.RefundURL != "" {
		gateway = &service.HTTPRefundGateway{
			URL:    app.cfg.RefundURL,
			Secret: app.cfg.PaymentWebhookSecret,
		}
		app.logger.Info("refund gateway configured", "url", app.cfg.RefundURL)
	} else {
		gateway = rejectAllGateway{}
		app.logger.Warn("no refund URL configured; refunds will escalate to manual review")
	}

	app.disputeResolver = &service.DisputeResolver{
		Store:            app.db,
		Audit:            app.auditService,
		Gateway:          gateway,
		Notifier:         service.LogNotifier{Logger: app.logger},
		ConfirmGrace:     app.cfg.ConfirmGrace,
		SellerWindow:     app.cfg.SellerWindow,
		DisclosureWindow: app.cfg.DisclosureWindow,
		RefundMaxElapsed: app.cfg.RefundMaxElapsed,
	}

	app.sweeper = service.NewSweeperService(
		app.keyManager,
		app.tokenService,
		app.disputeResolver,
		app.logger,
		app.cfg.SweepInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP(verifier jwtx.Verifier) {
	router := httpapi.NewRouter(
		verifier,
		BuildVersion,
		app.cfg.PaymentWebhookSecret,
		app.db,
		app.logger,
	)

	router.DisclosureRevealTTL = app.cfg.RevealTTL
	router.SubscriptionService = app.subscriptionService
	router.DisclosureService = app.disclosureService
	router.PurchaseService = app.purchaseService
	router.DisputeResolver = app.disputeResolver
	router.KeyManager = app.keyManager
	router.AuditService = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// rejectAllGateway refuses every refund so the resolver parks disputes for
// manual review instead of silently dropping them.
type rejectAllGateway struct{}

func (rejectAllGateway) Refund(ctx context.Context, purchaseID string, amountCents int64) error {
	return fmt.Errorf("%w: no refund gateway configured", service.ErrRefundRejected)
}
