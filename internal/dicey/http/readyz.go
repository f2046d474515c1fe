package http

import (
	"net/http"
	"time"

	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/pkg/api"
	"github.com/diceydecisions/dicey/pkg/httpx"
)

// ReadyzHandler is the readiness probe; it degrades when the database stops
// answering.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &api.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, api.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
