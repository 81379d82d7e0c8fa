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

// maxInstructionsBytes bounds the authoring payload. Access instructions are
// short text; anything larger is a mistake or abuse.
const maxInstructionsBytes = 64 * 1024

type InstructionsHandler struct {
	DisclosureService *service.DisclosureService
}

// ServeHTTP godoc
//
//	@Summary		Save Access Instructions
//	@Description	Encrypt and store the seller's access instructions for a subscription.
//	@Description	The plaintext is encrypted before persistence and bound to the subscription id;
//	@Description	re-submitting replaces the previous instructions.
//	@Tags			Instructions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			subscriptionID	path		string								true	"Subscription ID"
//	@Param			request			body		escrowsdk.SaveInstructionsRequest	true	"Plaintext instructions"
//	@Success		200				{object}	escrowsdk.SaveInstructionsResponse	"subscription_id, key_id, scheme"
//	@Failure		400				{object}	escrowsdk.ErrorResponse				"error, error_description"
//	@Failure		403				{object}	escrowsdk.ErrorResponse				"error, error_description"
//	@Failure		404				{object}	escrowsdk.ErrorResponse				"error, error_description"
//	@Router			/v1/subscriptions/{subscriptionID}/instructions [put].
func (h *InstructionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subscriptionID := r.PathValue("subscriptionID")
	sellerID := httpx.UserIDFromCtx(ctx)

	var req escrowsdk.SaveInstructionsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInstructionsBytes)).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid JSON body",
		})
		return
	}
	if req.Instructions == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "instructions is required",
		})
		return
	}

	err := h.DisclosureService.StoreInstructions(ctx, sellerID, subscriptionID, []byte(req.Instructions))
	switch {
	case errors.Is(err, service.ErrSubscriptionUnknown):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "Subscription not found",
		})
		return
	case errors.Is(err, service.ErrNotSeller):
		httpx.WriteJSON(w, http.StatusForbidden, escrowsdk.ErrorResponse{
			Error:            "forbidden",
			ErrorDescription: "Only the subscription seller may author instructions",
		})
		return
	case err != nil:
		log.Error("failed to store instructions", "subscription_id", subscriptionID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to store instructions",
		})
		return
	}

	record, err := h.DisclosureService.Store.Instructions().GetInstructionsBySubscription(ctx, subscriptionID)
	if err != nil {
		log.Error("failed to read back instructions", "subscription_id", subscriptionID, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to store instructions",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, escrowsdk.SaveInstructionsResponse{
		SubscriptionID: subscriptionID,
		KeyID:          record.KeyID,
		Scheme:         record.Scheme,
		UpdatedAt:      record.UpdatedAt.UTC().Truncate(time.Second),
	})
}
