package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/slogx"
)

type SubscriptionsHandler struct {
	Subscriptions *service.SubscriptionService
	WebhookSecret string
}

func subscriptionResponse(s domain.Subscription) escrowsdk.SubscriptionResponse {
	return escrowsdk.SubscriptionResponse{
		ID:             s.ID,
		SellerID:       s.SellerID,
		Title:          s.Title,
		SlotsTotal:     s.SlotsTotal,
		SlotsAvailable: s.SlotsAvailable,
		CreatedAt:      s.CreatedAt,
	}
}

// HandleRegister godoc
//
//	@Summary		Register Subscription Listing
//	@Description	Consumed by the marketplace backend when a listing goes live. Escrow only
//	@Description	tracks the seller, the slot count, and the listing id; redelivery of a
//	@Description	known id returns the stored record unchanged.
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Param			X-Escrow-Webhook-Secret	header		string									true	"Shared webhook secret"
//	@Param			request					body		escrowsdk.RegisterSubscriptionRequest	true	"Listing"
//	@Success		200						{object}	escrowsdk.SubscriptionResponse			"id, seller_id, slots"
//	@Failure		400						{object}	escrowsdk.ErrorResponse					"error, error_description"
//	@Failure		401						{object}	escrowsdk.ErrorResponse					"error, error_description"
//	@Router			/v1/subscriptions [post].
func (h *SubscriptionsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
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

	var req escrowsdk.RegisterSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	if req.ID == "" || req.SellerID == "" || req.SlotsTotal < 1 {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "id, seller_id, and a positive slots_total are required",
		})
		return
	}

	sub, err := h.Subscriptions.Register(ctx, domain.Subscription{
		ID:         req.ID,
		SellerID:   req.SellerID,
		Title:      req.Title,
		SlotsTotal: req.SlotsTotal,
	})
	if err != nil {
		log.Error("subscription registration failed", "error", err, "subscription_id", req.ID)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to register subscription",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, subscriptionResponse(sub))
}
