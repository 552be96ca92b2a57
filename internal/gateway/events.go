package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/flemzord/deadlineguard/internal/bot"
	"github.com/flemzord/deadlineguard/pkg/message"
)

const maxEventBytes = 1 << 20

// handleBotEvent accepts a Cliq bot event. Events carrying a response_url
// are answered in the background and acknowledged with 202; others are
// answered inline with {"output": payload}.
func (g *Gateway) handleBotEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
		if err != nil {
			g.metrics.RecordRejected()
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if g.config.BotSecret != "" && !validateHMAC(body, r.Header.Get("X-Signature-256"), g.config.BotSecret) {
			g.metrics.RecordRejected()
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		var ev bot.Event
		if err := json.Unmarshal(body, &ev); err != nil {
			g.metrics.RecordRejected()
			http.Error(w, "invalid event", http.StatusBadRequest)
			return
		}
		g.metrics.RecordEvent()

		if ev.ResponseURL == "" {
			start := time.Now()
			reply, ok := g.deps.Bot.Handle(r.Context(), ev)
			g.metrics.RecordReply(time.Since(start))
			if !ok {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeJSON(w, http.StatusOK, message.Reply{Output: reply})
			return
		}

		if err := g.checkResponseURL(ev.ResponseURL); err != nil {
			g.metrics.RecordRejected()
			g.logger.Warn("gateway: response_url rejected", "command", ev.Command(), "error", err)
			http.Error(w, "invalid response_url", http.StatusBadRequest)
			return
		}

		// The command outlives the request; keep its values but not its
		// cancellation.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), g.config.CommandTimeout)
		g.background.Add(1)
		go func() {
			defer g.background.Done()
			defer cancel()

			start := time.Now()
			if err := g.deps.Bot.Dispatch(ctx, ev); err != nil {
				g.metrics.RecordError()
				g.logger.Error("gateway: bot command failed", "command", ev.Command(), "error", err)
				return
			}
			g.metrics.RecordReply(time.Since(start))
		}()

		writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
	}
}

func (g *Gateway) checkResponseURL(raw string) error {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return err
	}
	if g.deps.ResponseURLs == nil {
		return nil
	}
	return g.deps.ResponseURLs.Check(raw)
}
