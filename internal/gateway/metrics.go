package gateway

import (
	"sync/atomic"
	"time"
)

// Metrics tracks bot event counters using atomic operations for lock-free
// concurrency. They are reported by GET /status.
type Metrics struct {
	events       atomic.Int64
	replies      atomic.Int64
	errors       atomic.Int64
	rejected     atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordEvent records an accepted bot event.
func (m *Metrics) RecordEvent() {
	m.events.Add(1)
}

// RecordReply records a handled event and how long it took.
func (m *Metrics) RecordReply(latency time.Duration) {
	m.replies.Add(1)
	m.totalLatency.Add(int64(latency))
}

// RecordError records a failed event.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// RecordRejected records an event refused before handling.
func (m *Metrics) RecordRejected() {
	m.rejected.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	replies := m.replies.Load()
	snap := MetricsSnapshot{
		Events:   m.events.Load(),
		Replies:  replies,
		Errors:   m.errors.Load(),
		Rejected: m.rejected.Load(),
	}
	if replies > 0 {
		snap.AvgLatency = time.Duration(m.totalLatency.Load() / replies)
	}
	return snap
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Events     int64         `json:"events"`
	Replies    int64         `json:"replies"`
	Errors     int64         `json:"errors"`
	Rejected   int64         `json:"rejected"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
}
