package gateway

import (
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status     string `json:"status"` // "ok" or "degraded"
	Monitoring bool   `json:"monitoring"`
	Recipients int    `json:"recipients"`
	// LastFetchError is set when the most recent cycle could not read tasks.
	LastFetchError string `json:"last_fetch_error,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 503 when the last cycle failed to fetch tasks.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:     "ok",
			Monitoring: g.deps.Monitor.IsRunning(),
			Recipients: g.deps.Recipients.Len(),
		}
		if last, ok := g.deps.Monitor.LastReport(); ok && last.FetchError != "" {
			resp.Status = "degraded"
			resp.LastFetchError = last.FetchError
		}

		code := http.StatusOK
		if resp.Status == "degraded" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
