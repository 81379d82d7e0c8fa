package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/slogx"
)

type PurchaseStatusHandler struct {
	PurchaseService *service.PurchaseService
}

// ServeHTTP godoc
//
//	@Summary		Purchase Status
//	@Description	Return the fulfillment state of a purchase. Visible to its buyer and seller only.
//	@Tags			Purchases
//	@Produce		json
//	@Security		BearerAuth
//	@Param			purchaseID	path		string						true	"Purchase ID"
//	@Success		200			{object}	escrowsdk.PurchaseResponse	"id, state, refund_status"
//	@Failure		403			{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Failure		404			{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/purchases/{purchaseID} [get].
func (h *PurchaseStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	purchaseID := r.PathValue("purchaseID")
	callerID := httpx.UserIDFromCtx(ctx)

	purchase, err := h.PurchaseService.GetPurchase(ctx, callerID, purchaseID)
	switch {
	case errors.Is(err, service.ErrPurchaseUnknown):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Purchase not found",
		})
		return
	case errors.Is(err, service.ErrPurchaseNotBuyer):
		httpx.WriteJSON(w, http.StatusForbidden, escrowsdk.ErrorResponse{
			Error:            "forbidden",
			ErrorDescription: "Not a party to this purchase",
		})
		return
	case err != nil:
		log.Error("failed to load purchase", "purchase_id", purchaseID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load purchase",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, escrowsdk.PurchaseResponse{
		ID:             purchase.ID,
		SubscriptionID: purchase.SubscriptionID,
		State:          string(purchase.State),
		RefundStatus:   purchase.RefundStatus,
		DisclosedAt:    purchase.DisclosedAt,
		ConfirmedAt:    purchase.ConfirmedAt,
		CreatedAt:      purchase.CreatedAt,
	})
}

type ConfirmOutcomeHandler struct {
	DisputeResolver *service.DisputeResolver
}

// ServeHTTP godoc
//
//	@Summary		Confirm Purchase Outcome
//	@Description	Record the buyer's verdict on a disclosed purchase. working=true closes the
//	@Description	purchase; working=false opens a dispute for the seller to answer.
//	@Tags			Purchases
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			purchaseID	path		string							true	"Purchase ID"
//	@Param			request		body		escrowsdk.ConfirmOutcomeRequest	true	"Verdict"
//	@Success		200			{object}	escrowsdk.PurchaseResponse		"id, state"
//	@Failure		400			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Failure		403			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Failure		404			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Failure		409			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/purchases/{purchaseID}/confirm [post].
func (h *ConfirmOutcomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	purchaseID := r.PathValue("purchaseID")
	buyerID := httpx.UserIDFromCtx(ctx)

	var req escrowsdk.ConfirmOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	err := h.DisputeResolver.ConfirmOutcome(ctx, buyerID, purchaseID, req.Working)
	switch {
	case errors.Is(err, service.ErrPurchaseUnknown):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Purchase not found",
		})
		return
	case errors.Is(err, service.ErrPurchaseNotBuyer):
		httpx.WriteJSON(w, http.StatusForbidden, escrowsdk.ErrorResponse{
			Error:            "forbidden",
			ErrorDescription: "Only the buyer may confirm the outcome",
		})
		return
	case errors.Is(err, service.ErrInvalidTransition):
		httpx.WriteJSON(w, http.StatusConflict, escrowsdk.ErrorResponse{
			Error:            "conflict",
			ErrorDescription: "Purchase is not awaiting confirmation",
		})
		return
	case err != nil:
		log.Error("failed to confirm outcome", "purchase_id", purchaseID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to record outcome",
		})
		return
	}

	purchase, err := h.DisputeResolver.Store.Purchases().GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		log.Error("failed to load purchase after confirm", "purchase_id", purchaseID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to record outcome",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, escrowsdk.PurchaseResponse{
		ID:             purchase.ID,
		SubscriptionID: purchase.SubscriptionID,
		State:          string(purchase.State),
		RefundStatus:   purchase.RefundStatus,
		DisclosedAt:    purchase.DisclosedAt,
		ConfirmedAt:    purchase.ConfirmedAt,
		CreatedAt:      purchase.CreatedAt,
	})
}
