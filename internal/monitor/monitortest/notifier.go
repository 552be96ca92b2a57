package monitortest

import (
	"context"
	"sync"

	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/notify"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// Compile-time interface check.
var _ monitor.Deliverer = (*Recorder)(nil)

// Sent is one recorded delivery.
type Sent struct {
	Payload message.Payload
	// Target is nil for broadcasts.
	Target *registry.Recipient
}

// Recorder is a Deliverer that records payloads and reports every delivery
// as successful.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

// Deliver implements monitor.Deliverer.
func (r *Recorder) Deliver(_ context.Context, payload message.Payload, target *registry.Recipient) notify.DeliveryResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t *registry.Recipient
	if target != nil {
		cp := *target
		t = &cp
	}
	r.sent = append(r.sent, Sent{Payload: payload, Target: t})
	return notify.DeliveryResult{Attempted: 1, Delivered: 1}
}

// Sent returns a copy of every recorded delivery.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Titled returns the recorded deliveries whose card title is title.
func (r *Recorder) Titled(title string) []Sent {
	var out []Sent
	for _, s := range r.Sent() {
		if s.Payload.Title() == title {
			out = append(out, s)
		}
	}
	return out
}

// Reset drops recorded deliveries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
