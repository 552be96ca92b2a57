package gateway

import (
	"net/http"
	"time"

	"github.com/flemzord/deadlineguard/internal/monitor"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime     time.Duration        `json:"uptime_seconds"`
	Monitoring bool                 `json:"monitoring"`
	Recipients int                  `json:"recipients"`
	Metrics    MetricsSnapshot      `json:"metrics"`
	LastCycle  *monitor.CycleReport `json:"last_cycle,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:     time.Since(g.startedAt).Truncate(time.Second) / time.Second,
			Monitoring: g.deps.Monitor.IsRunning(),
			Recipients: g.deps.Recipients.Len(),
			Metrics:    g.metrics.Snapshot(),
		}
		if last, ok := g.deps.Monitor.LastReport(); ok {
			resp.LastCycle = &last
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
