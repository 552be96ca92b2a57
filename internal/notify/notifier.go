// Package notify routes composed chat payloads to recipients: a single
// target (unicast) or every registered recipient (broadcast).
package notify

import (
	"context"
	"log/slog"

	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// Poster delivers one JSON body to one webhook URL.
type Poster interface {
	Post(ctx context.Context, url string, body any) error
}

// Recipients provides the broadcast audience.
type Recipients interface {
	Snapshot() []registry.Recipient
}

// DeliveryResult summarizes one Deliver call.
type DeliveryResult struct {
	Attempted int
	Delivered int
	Failed    int
}

// Add accumulates o into r.
func (r *DeliveryResult) Add(o DeliveryResult) {
	r.Attempted += o.Attempted
	r.Delivered += o.Delivered
	r.Failed += o.Failed
}

// Notifier sends payloads to recipients. Failures are logged per recipient
// and never retried.
type Notifier struct {
	recipients Recipients
	poster     Poster
	logger     *slog.Logger
}

// New creates a Notifier broadcasting to the recipients in reg.
func New(reg Recipients, poster Poster, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		recipients: reg,
		poster:     poster,
		logger:     logger.With("component", "notify"),
	}
}

// Deliver posts payload to target, or to every registered recipient when
// target is nil. An empty registry makes a broadcast a no-op.
func (n *Notifier) Deliver(ctx context.Context, payload message.Payload, target *registry.Recipient) DeliveryResult {
	if target != nil {
		return n.send(ctx, payload, []registry.Recipient{*target})
	}
	return n.send(ctx, payload, n.recipients.Snapshot())
}

func (n *Notifier) send(ctx context.Context, payload message.Payload, to []registry.Recipient) DeliveryResult {
	var res DeliveryResult
	for _, rec := range to {
		res.Attempted++
		if err := n.poster.Post(ctx, rec.WebhookURL, payload); err != nil {
			res.Failed++
			n.logger.Warn("notify: delivery failed",
				"user", rec.UserID,
				"title", payload.Title(),
				"error", err,
			)
			continue
		}
		res.Delivered++
		n.logger.Debug("notify: delivered", "user", rec.UserID, "title", payload.Title())
	}
	return res
}
