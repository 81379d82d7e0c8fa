package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/slogx"
)

type DisputesHandler struct {
	DisputeResolver *service.DisputeResolver
	Store           store.Store
}

func disputeResponse(d domain.Dispute) escrowsdk.DisputeResponse {
	return escrowsdk.DisputeResponse{
		ID:                 d.ID,
		TransactionID:      d.TransactionID,
		Kind:               d.Kind,
		Status:             d.Status,
		Resolution:         d.Resolution,
		ResolutionDeadline: d.ResolutionDeadline,
		RefundStatus:       d.RefundStatus,
		CreatedAt:          d.CreatedAt,
		ResolvedAt:         d.ResolvedAt,
	}
}

// HandleGet godoc
//
//	@Summary		Get Dispute
//	@Description	Return a dispute record by id.
//	@Tags			Disputes
//	@Produce		json
//	@Security		BearerAuth
//	@Param			disputeID	path		string						true	"Dispute ID"
//	@Success		200			{object}	escrowsdk.DisputeResponse	"id, status, resolution"
//	@Failure		404			{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/disputes/{disputeID} [get].
func (h *DisputesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	disputeID := r.PathValue("disputeID")

	dispute, err := h.Store.Disputes().GetDisputeByID(ctx, disputeID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Dispute not found",
		})
		return
	case err != nil:
		log.Error("failed to load dispute", "dispute_id", disputeID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load dispute",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, disputeResponse(dispute))
}

// HandleGetForPurchase godoc
//
//	@Summary		Get Open Dispute for a Purchase
//	@Description	Return the open dispute attached to one purchase. Only the buyer or seller
//	@Description	on the purchase may look it up.
//	@Tags			Disputes
//	@Produce		json
//	@Security		BearerAuth
//	@Param			purchaseID	path		string						true	"Purchase ID"
//	@Success		200			{object}	escrowsdk.DisputeResponse	"id, status, resolution"
//	@Failure		403			{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Failure		404			{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/purchases/{purchaseID}/dispute [get].
func (h *DisputesHandler) HandleGetForPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	requesterID := httpx.UserIDFromCtx(ctx)

	purchaseID := r.PathValue("purchaseID")

	purchase, err := h.Store.Purchases().GetPurchaseByID(ctx, purchaseID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Purchase not found",
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

	if requesterID != purchase.BuyerID && requesterID != purchase.SellerID {
		httpx.WriteJSON(w, http.StatusForbidden, escrowsdk.ErrorResponse{
			Error:            "access_denied",
			ErrorDescription: "Not a party to this purchase",
		})
		return
	}

	dispute, err := h.Store.Disputes().GetOpenDisputeByTransaction(ctx, purchaseID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "No open dispute for this purchase",
		})
		return
	case err != nil:
		log.Error("failed to load dispute", "purchase_id", purchaseID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load dispute",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, disputeResponse(dispute))
}

// HandleResolve godoc
//
//	@Summary		Resolve Dispute Manually
//	@Description	Close an open dispute with a human decision. The linked purchase moves to
//	@Description	its manually-resolved terminal state; any money movement happens outside
//	@Description	the system.
//	@Tags			Disputes
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			disputeID	path		string							true	"Dispute ID"
//	@Param			request		body		escrowsdk.ResolveDisputeRequest	true	"Reviewer note"
//	@Success		200			{object}	escrowsdk.DisputeResponse		"id, status, resolution"
//	@Failure		404			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Failure		409			{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/disputes/{disputeID}/resolve [post].
func (h *DisputesHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	disputeID := r.PathValue("disputeID")
	reviewerID := httpx.UserIDFromCtx(ctx)

	var req escrowsdk.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}

	err := h.DisputeResolver.ResolveManually(ctx, reviewerID, disputeID, req.Note)
	switch {
	case errors.Is(err, service.ErrDisputeUnknown):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Dispute not found",
		})
		return
	case errors.Is(err, service.ErrDisputeClosed):
		httpx.WriteJSON(w, http.StatusConflict, escrowsdk.ErrorResponse{
			Error:            "conflict",
			ErrorDescription: "Dispute is already resolved",
		})
		return
	case err != nil:
		log.Error("failed to resolve dispute", "dispute_id", disputeID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to resolve dispute",
		})
		return
	}

	dispute, err := h.Store.Disputes().GetDisputeByID(ctx, disputeID)
	if err != nil {
		log.Error("failed to reload dispute", "dispute_id", disputeID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to resolve dispute",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, disputeResponse(dispute))
}
