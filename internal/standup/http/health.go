package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/dedup"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/httpx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// HealthResponse reports service health for the probe endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivezHandler is the liveness probe: 200 whenever the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe: 200 only when both backing stores
// answer a ping.
func ReadyzHandler(startTime time.Time, version string, st store.Store, dd *dedup.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		if err := st.Ping(ctx); err != nil {
			log.Warn("readyz: database ping failed", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "database unavailable",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}

		if err := dd.Ping(ctx); err != nil {
			log.Warn("readyz: dedup registry ping failed", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "dedup registry unavailable",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}

		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
