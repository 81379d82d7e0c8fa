package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/jwtx"
	"github.com/subsplit/escrow/pkg/slogx"

	_ "github.com/subsplit/escrow/api/escrow" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier      jwtx.Verifier
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger
	webhookSecret string

	// DisclosureRevealTTL is the client-visible countdown attached to
	// revealed instructions.
	DisclosureRevealTTL time.Duration

	store               store.Store
	SubscriptionService *service.SubscriptionService
	DisclosureService   *service.DisclosureService
	PurchaseService     *service.PurchaseService
	DisputeResolver     *service.DisputeResolver
	KeyManager          *service.KeyManagerService
	AuditService        *service.AuditService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion, webhookSecret string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      verifier,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		webhookSecret: webhookSecret,
		store:         st,
		logger:        logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSubscriptions()
	r.registerInstructions()
	r.registerPayments()
	r.registerDisclosure()
	r.registerPurchases()
	r.registerDisputes()
	r.registerKeys()
	r.registerAudit()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Subsplit Escrow Service API
//	@version		0.1.0
//	@description	Credential escrow and one-time disclosure for shared subscription slots.
//	@description
//	@description				Sellers deposit encrypted access instructions; paying buyers redeem
//	@description				single-use tokens to read them exactly once. Disputes over failed
//	@description				disclosures resolve automatically by deadline.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token from the marketplace identity provider. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSubscriptions() {
	h := &SubscriptionsHandler{
		Subscriptions: r.SubscriptionService,
		WebhookSecret: r.webhookSecret,
	}

	// Listing sync from the marketplace backend; shared secret, same as
	// the payment webhook.
	r.Mux.Handle("POST /v1/subscriptions",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerInstructions() {
	h := &InstructionsHandler{DisclosureService: r.DisclosureService}

	// Authoring carries plaintext credentials in flight, so it gets the
	// strict limit even for authenticated sellers.
	r.Mux.Handle("PUT /v1/subscriptions/{subscriptionID}/instructions",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:write"),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.UserIDKeyExtractor),
		),
	)
}

func (r *Router) registerPayments() {
	h := &PaymentsHandler{
		PurchaseService: r.PurchaseService,
		WebhookSecret:   r.webhookSecret,
	}

	// Webhook from the payment collaborator; authenticated by shared
	// secret, not a user token.
	r.Mux.Handle("POST /v1/payments/completed",
		httpx.Chain(h,
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerDisclosure() {
	h := &DisclosureHandler{
		DisclosureService: r.DisclosureService,
		RevealTTL:         r.DisclosureRevealTTL,
	}

	// The one-shot reveal. No bearer credential; the one-time token is the
	// credential. Strictest limit so token guessing is uneconomical.
	r.Mux.Handle("POST /v1/disclosures/{purchaseID}",
		httpx.Chain(h,
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKeyExtractor),
		),
	)
}

func (r *Router) registerPurchases() {
	status := &PurchaseStatusHandler{PurchaseService: r.PurchaseService}
	confirm := &ConfirmOutcomeHandler{DisputeResolver: r.DisputeResolver}

	r.Mux.Handle("GET /v1/purchases/{purchaseID}",
		httpx.Chain(status,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:read"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)

	r.Mux.Handle("POST /v1/purchases/{purchaseID}/confirm",
		httpx.Chain(confirm,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:write"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)
}

func (r *Router) registerDisputes() {
	h := &DisputesHandler{
		DisputeResolver: r.DisputeResolver,
		Store:           r.store,
	}

	r.Mux.Handle("GET /v1/disputes/{disputeID}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:read"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)

	r.Mux.Handle("GET /v1/purchases/{purchaseID}/dispute",
		httpx.Chain(http.HandlerFunc(h.HandleGetForPurchase),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:read"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)

	r.Mux.Handle("POST /v1/disputes/{disputeID}/resolve",
		httpx.Chain(http.HandlerFunc(h.HandleResolve),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:admin"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)
}

func (r *Router) registerKeys() {
	h := &KeysHandler{KeyManager: r.KeyManager}

	r.Mux.Handle("POST /v1/keys/rotate",
		httpx.Chain(http.HandlerFunc(h.HandleRotate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:admin"),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.UserIDKeyExtractor),
		),
	)

	r.Mux.Handle("GET /v1/keys/rotation-due",
		httpx.Chain(http.HandlerFunc(h.HandleRotationDue),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:admin"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Audit: r.AuditService}

	r.Mux.Handle("GET /v1/audit/{resourceType}/{resourceID}",
		httpx.Chain(http.HandlerFunc(h.HandleHistory),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("escrow:admin"),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.UserIDKeyExtractor),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store, r.startTime, r.buildVersion))
}
