package http

import (
	"net/http"
	"time"

	"github.com/subsplit/escrow/internal/escrow/store"
	"github.com/subsplit/escrow/pkg/cryptox"
	"github.com/subsplit/escrow/pkg/escrowsdk"
	"github.com/subsplit/escrow/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the database connection and the master key.
//	@Description	Returns 503 while either dependency is unavailable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	escrowsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	escrowsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(st store.Store, startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &escrowsdk.HealthChecks{
			Database:  "ok",
			MasterKey: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Without the master key no private key can be unwrapped, so the
		// service cannot disclose anything.
		if err := cryptox.MasterKeyAvailable(); err != nil {
			checks.MasterKey = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, escrowsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
