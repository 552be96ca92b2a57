// Package registry holds the set of alert recipients: one webhook endpoint
// per subscribed chat user. The registry lives in memory for the lifetime of
// the process.
package registry

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Recipient is a subscribed user and the webhook their alerts go to.
type Recipient struct {
	UserID       string    `json:"user_id"`
	WebhookURL   string    `json:"webhook_url"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Registry is a concurrency-safe map of user ID to Recipient.
type Registry struct {
	mu         sync.RWMutex
	recipients map[string]Recipient
	now        func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		recipients: make(map[string]Recipient),
		now:        time.Now,
	}
}

// Register stores the webhook for userID, replacing any previous entry.
func (r *Registry) Register(userID, webhookURL string) Recipient {
	rec := Recipient{
		UserID:       userID,
		WebhookURL:   webhookURL,
		RegisteredAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipients[userID] = rec
	return rec
}

// Unregister removes userID and reports whether it was registered.
func (r *Registry) Unregister(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.recipients[userID]
	delete(r.recipients, userID)
	return ok
}

// Lookup returns the recipient registered for userID.
func (r *Registry) Lookup(userID string) (Recipient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recipients[userID]
	return rec, ok
}

// Snapshot returns a copy of all recipients sorted by user ID. Callers may
// iterate it while the registry is being modified.
func (r *Registry) Snapshot() []Recipient {
	r.mu.RLock()
	out := make([]Recipient, 0, len(r.recipients))
	for _, rec := range r.recipients {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Recipient) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return out
}

// Len returns the number of registered recipients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recipients)
}
