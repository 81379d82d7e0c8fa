package http

import (
	"net/http"
	"strconv"

	"github.com/subsplit/escrow/internal/escrow/service"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
)

type AuditHandler struct {
	Audit *service.AuditService
}

// HandleHistory godoc
//
//	@Summary		Audit Trail for a Resource
//	@Description	Most recent audit events for one resource, newest first. Internal failure
//	@Description	detail is withheld from the response.
//	@Tags			Audit
//	@Produce		json
//	@Security		BearerAuth
//	@Param			resourceType	path		string	true	"Resource type (purchase, key, dispute, subscription)"
//	@Param			resourceID		path		string	true	"Resource ID"
//	@Param			limit			query		int		false	"Maximum events to return (default 100, max 500)"
//	@Success		200				{array}		escrowsdk.AuditEventResponse	"events"
//	@Failure		400				{object}	escrowsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/audit/{resourceType}/{resourceID} [get].
func (h *AuditHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	resourceType := r.PathValue("resourceType")
	resourceID := r.PathValue("resourceID")
	if resourceType == "" || resourceID == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, escrowsdk.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "resource type and id are required",
		})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	events, err := h.Audit.History(r.Context(), resourceType, resourceID, limit)
	if err != nil {
		httpx.WriteJSON(w, http.StatusInternalServerError, escrowsdk.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "failed to load audit history",
		})
		return
	}

	out := make([]escrowsdk.AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, escrowsdk.AuditEventResponse{
			ID:           e.ID,
			ActorID:      e.ActorID,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Outcome:      e.Outcome,
			CreatedAt:    e.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
