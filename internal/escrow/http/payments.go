package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/slogx"
)

// WebhookSecretHeader authenticates the payment collaborator's webhook.
const WebhookSecretHeader = "X-Escrow-Webhook-Secret"

type PaymentsHandler struct {
	PurchaseService *service.PurchaseService
	WebhookSecret   string
}

// ServeHTTP godoc
//
//	@Summary		Payment Completed Webhook
//	@Description	Consumed by the payment collaborator when a slot purchase settles.
//	@Description	Registers the purchase, reserves the subscription slot, and issues the
//	@Description	buyer's single-use disclosure token. The token appears in this response
//	@Description	once and cannot be retrieved again.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Escrow-Webhook-Secret	header		string								true	"Shared webhook secret"
//	@Param			request					body		escrowsdk.PaymentCompletedRequest	true	"Completed payment signal"
//	@Success		200						{object}	escrowsdk.PaymentCompletedResponse	"purchase_id, token, expires_at"
//	@Failure		400						{object}	escrowsdk.ErrorResponse				"error, error_description"
//	@Failure		401						{object}	escrowsdk.ErrorResponse				"error, error_description"
//	@Failure		409						{object}	escrowsdk.ErrorResponse				"error, error_description"
//	@Router			/v1/payments/completed [post].
func (h *PaymentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	secret := r.Header.Get(WebhookSecretHeader)
	if h.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.WebhookSecret)) != 1 {
		httpx.WriteJSON(w, http.StatusUnauthorized, escrowsdk.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "Invalid webhook secret",
		})
		return
	}

	var req escrowsdk.PaymentCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}
	if req.PurchaseID == "" || req.SubscriptionID == "" || req.BuyerID == "" || req.SellerID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "purchase_id, subscription_id, buyer_id and seller_id are required",
		})
		return
	}

	raw, record, err := h.PurchaseService.HandlePaymentCompleted(ctx, service.PaymentCompleted{
		PurchaseID:     req.PurchaseID,
		SubscriptionID: req.SubscriptionID,
		BuyerID:        req.BuyerID,
		SellerID:       req.SellerID,
		AmountCents:    req.AmountCents,
	})
	switch {
	case errors.Is(err, service.ErrSubscriptionUnknown):
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Unknown subscription",
		})
		return
	case errors.Is(err, service.ErrNoSlotsAvailable):
		httpx.WriteJSON(w, http.StatusConflict, escrowsdk.ErrorResponse{
			Error:            "no_slots_available",
			ErrorDescription: "The subscription has no free slots",
		})
		return
	case errors.Is(err, service.ErrInvalidTransition):
		httpx.WriteJSON(w, http.StatusConflict, escrowsdk.ErrorResponse{
			Error:            "conflict",
			ErrorDescription: "Purchase already finalized",
		})
		return
	case err != nil:
		log.Error("failed to handle payment signal", "purchase_id", req.PurchaseID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to process payment signal",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, escrowsdk.PaymentCompletedResponse{
		PurchaseID: req.PurchaseID,
		Token:      raw,
		ExpiresAt:  record.ExpiresAt,
	})
}
