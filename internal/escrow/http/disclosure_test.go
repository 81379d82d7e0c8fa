package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/internal/escrow/store/drivers/sqlite"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/escrowsdk"
)

type disclosureFixture struct {
	handler    *DisclosureHandler
	disclosure *service.DisclosureService
	purchases  *service.PurchaseService
	store      *sqlite.Store
}

func newDisclosureFixture(t *testing.T) *disclosureFixture {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("ESCROW_MASTER_KEY", "test-master-key")
	cryptox.ResetMasterKeyForTesting()
	cryptox.SetTokenSaltPath(filepath.Join(dir, "salt"))
	cryptox.ResetTokenSaltForTesting()
	t.Cleanup(func() {
		cryptox.ResetMasterKeyForTesting()
		cryptox.ResetTokenSaltForTesting()
	})

	st, err := sqlite.NewStore(filepath.Join(dir, "escrow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	audit := &service.AuditService{Store: st}
	keys := &service.KeyManagerService{
		Store:       st,
		Audit:       audit,
		Algorithm:   cryptox.AlgorithmECP256,
		KeyExpiry:   365 * 24 * time.Hour,
		GracePeriod: 30 * 24 * time.Hour,
	}
	tokens := &service.AccessTokenService{Store: st, Audit: audit}
	disclosure := &service.DisclosureService{Store: st, Keys: keys, Tokens: tokens, Audit: audit}
	purchases := &service.PurchaseService{Store: st, Tokens: tokens}

	return &disclosureFixture{
		handler:    &DisclosureHandler{DisclosureService: disclosure},
		disclosure: disclosure,
		purchases:  purchases,
		store:      st,
	}
}

func (f *disclosureFixture) seed(t *testing.T) (purchaseID, rawToken string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	sub := domain.Subscription{
		ID: "sub-1", SellerID: "seller-1", Title: "plan",
		SlotsTotal: 2, SlotsAvailable: 2, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Subscriptions().CreateSubscription(ctx, sub))
	require.NoError(t, f.disclosure.StoreInstructions(ctx, "seller-1", sub.ID, []byte("user: a / pass: b")))

	raw, _, err := f.purchases.HandlePaymentCompleted(ctx, service.PaymentCompleted{
		PurchaseID: "purchase-1", SubscriptionID: sub.ID,
		BuyerID: "buyer-1", SellerID: "seller-1", AmountCents: 499,
	})
	require.NoError(t, err)
	return "purchase-1", raw
}

func (f *disclosureFixture) post(t *testing.T, purchaseID, token string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"token": token})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("POST /v1/disclosures/{purchaseID}", f.handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/disclosures/"+purchaseID, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDisclosureEndpoint_Success(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	f := newDisclosureFixture(t)
	purchaseID, raw := f.seed(t)

	rec := f.post(t, purchaseID, raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp escrowsdk.DisclosureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "user: a / pass: b", resp.Instructions)
	require.True(t, resp.ExpiresAt.After(time.Now()))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestDisclosureEndpoint_UniformFailureBody(t *testing.T) {
	f := newDisclosureFixture(t)
	purchaseID, raw := f.seed(t)

	// Burn the token, then collect failure bodies from every failure mode
	// this endpoint has. They must be byte-identical: the response may not
	// leak whether a token exists, expired, or was replayed.
	okRec := f.post(t, purchaseID, raw)
	require.Equal(t, http.StatusOK, okRec.Code)

	replay := f.post(t, purchaseID, raw)
	unknownToken := f.post(t, purchaseID, "completely-wrong-token")
	unknownPurchase := f.post(t, "no-such-purchase", raw)

	for _, rec := range []*httptest.ResponseRecorder{replay, unknownToken, unknownPurchase} {
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, replay.Body.String(), rec.Body.String())
	}

	var resp escrowsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &resp))
	require.Equal(t, "invalid_or_expired", resp.Error)
}

func TestDisclosureEndpoint_MissingToken(t *testing.T) {
	f := newDisclosureFixture(t)
	purchaseID, _ := f.seed(t)

	rec := f.post(t, purchaseID, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
