package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/subsplit/escrow/internal/escrow/domain"
	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
	"github.com/subsplit/escrow/pkg/slogx"
)

type KeysHandler struct {
	KeyManager *service.KeyManagerService
}

func keyResponse(k domain.Key) escrowsdk.KeyResponse {
	resp := escrowsdk.KeyResponse{
		ID:        k.ID,
		KeyType:   string(k.KeyType),
		Algorithm: k.Algorithm,
		CreatedAt: k.CreatedAt,
		RotatedAt: k.RotatedAt,
		ExpiresAt: k.ExpiresAt,
	}
	if k.RelatedID != nil {
		resp.RelatedID = *k.RelatedID
	}
	return resp
}

// HandleRotate godoc
//
//	@Summary		Rotate Key Pair
//	@Description	Retire the active key for a scope and install a fresh pair. The retired key
//	@Description	keeps decrypting existing ciphertext for the grace period.
//	@Tags			Keys
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		escrowsdk.RotateKeyRequest	true	"Key scope"
//	@Success		200		{object}	escrowsdk.KeyResponse		"replacement key"
//	@Failure		400		{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Failure		404		{object}	escrowsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/keys/rotate [post].
func (h *KeysHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	actorID := httpx.UserIDFromCtx(ctx)

	var req escrowsdk.RotateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.KeyType == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "key_type is required",
		})
		return
	}

	var relatedID *string
	if req.RelatedID != "" {
		relatedID = &req.RelatedID
	}

	key, err := h.KeyManager.RotateKey(ctx, actorID, domain.KeyType(req.KeyType), relatedID)
	switch {
	case errors.Is(err, service.ErrKeyNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, escrowsdk.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "No active key for the given scope",
		})
		return
	case err != nil:
		log.Error("key rotation failed", "key_type", req.KeyType, "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Key rotation failed",
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, keyResponse(key))
}

// HandleRotationDue godoc
//
//	@Summary		List Keys Due for Rotation
//	@Description	Return active keys whose expiry falls inside the rotation lead window.
//	@Tags			Keys
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	escrowsdk.RotationDueResponse	"keys"
//	@Router			/v1/keys/rotation-due [get].
func (h *KeysHandler) HandleRotationDue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	due, err := h.KeyManager.ListKeysRequiringRotation(ctx)
	if err != nil {
		log.Error("failed to list rotation worklist", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to list keys",
		})
		return
	}

	resp := escrowsdk.RotationDueResponse{Keys: make([]escrowsdk.KeyResponse, len(due))}
	for i, key := range due {
		resp.Keys[i] = keyResponse(key)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
