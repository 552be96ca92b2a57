package gateway

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// recipientJSON is a serializable recipient. The webhook URL is reduced to
// its host because the query carries the channel's API key.
type recipientJSON struct {
	UserID       string    `json:"user_id"`
	WebhookHost  string    `json:"webhook_host"`
	RegisteredAt time.Time `json:"registered_at"`
}

type monitorState struct {
	Running bool `json:"running"`
	Changed bool `json:"changed"`
}

// handleMonitorStart arms the scheduler.
func (g *Gateway) handleMonitorStart() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		changed := g.deps.Monitor.Start()
		g.logger.Info("gateway: monitor start requested", "changed", changed)
		writeJSON(w, http.StatusOK, monitorState{Running: g.deps.Monitor.IsRunning(), Changed: changed})
	}
}

// handleMonitorStop cancels future scheduled cycles.
func (g *Gateway) handleMonitorStop() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		was := g.deps.Monitor.IsRunning()
		g.deps.Monitor.Stop()
		g.logger.Info("gateway: monitor stop requested", "was_running", was)
		writeJSON(w, http.StatusOK, monitorState{Running: g.deps.Monitor.IsRunning(), Changed: was})
	}
}

// handleMonitorScan runs one broadcast cycle now and returns its report.
func (g *Gateway) handleMonitorScan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := g.deps.Monitor.RunCycle(r.Context(), nil)
		writeJSON(w, http.StatusOK, report)
	}
}

// handleListRecipients returns the registered recipients.
func (g *Gateway) handleListRecipients() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := g.deps.Recipients.Snapshot()
		out := make([]recipientJSON, 0, len(snap))
		for _, rec := range snap {
			out = append(out, recipientJSON{
				UserID:       rec.UserID,
				WebhookHost:  webhookHost(rec.WebhookURL),
				RegisteredAt: rec.RegisteredAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleDeleteRecipient unregisters a recipient by user id.
func (g *Gateway) handleDeleteRecipient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing recipient id", http.StatusBadRequest)
			return
		}
		if !g.deps.Recipients.Unregister(id) {
			http.Error(w, "recipient not found", http.StatusNotFound)
			return
		}
		g.logger.Info("gateway: recipient removed", "user", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func webhookHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
