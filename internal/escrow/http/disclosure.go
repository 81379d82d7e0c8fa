package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/slogx"
)

type DisclosureHandler struct {
	DisclosureService *service.DisclosureService

	// RevealTTL is the client-visible countdown after which the revealed
	// content should be treated as gone. Zero means 5 minutes.
	RevealTTL time.Duration
}

func (h *DisclosureHandler) revealTTL() time.Duration {
	if h.RevealTTL <= 0 {
		return 5 * time.Minute
	}
	return h.RevealTTL
}

type disclosureRequest struct {
	Token string `json:"token"`
}

// writeDisclosureFailure is the single failure response for this endpoint.
// Unknown token, replay, expiry, missing instructions, and decryption
// failure are indistinguishable to the caller; the audit log keeps the
// distinction.
func writeDisclosureFailure(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
		Error:            "invalid_or_expired",
		ErrorDescription: "This disclosure link is invalid, expired, or has already been used",
	})
}

// ServeHTTP godoc
//
//	@Summary		Redeem Disclosure Token
//	@Description	Redeem a single-use token and reveal the access instructions for a purchase.
//	@Description	The token burns on the attempt; a second call with the same token fails.
//	@Description	All failures return the same response regardless of cause.
//	@Tags			Disclosure
//	@Accept			json
//	@Produce		json
//	@Param			purchaseID	path		string							true	"Purchase ID from the disclosure link"
//	@Param			request		body		disclosureRequest				true	"One-time token"
//	@Success		200			{object}	escrowsdk.DisclosureResponse	"purchase_id, instructions, expires_at"
//	@Failure		400			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Failure		404			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/disclosures/{purchaseID} [post].
func (h *DisclosureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	purchaseID := r.PathValue("purchaseID")

	var req disclosureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "token is required",
		})
		return
	}

	clientContext := r.RemoteAddr + " " + r.UserAgent()

	plaintext, err := h.DisclosureService.Disclose(ctx, req.Token, purchaseID, &clientContext)
	switch {
	case errors.Is(err, service.ErrTokenNotFound),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenAlreadyUsed),
		errors.Is(err, service.ErrPurchaseUnknown),
		errors.Is(err, service.ErrNoInstructions),
		errors.Is(err, service.ErrDecryptionFailed):
		writeDisclosureFailure(w)
		return
	case err != nil:
		log.Error("disclosure failed", "purchase_id", purchaseID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Disclosure failed",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, escrowsdk.DisclosureResponse{
		PurchaseID:   purchaseID,
		Instructions: string(plaintext),
		ExpiresAt:    time.Now().UTC().Add(h.revealTTL()),
	})
}
