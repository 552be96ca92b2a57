package monitor

import (
	"sync"

	"github.com/flemzord/deadlineguard/internal/tracker"
)

// Memory is the per-task state carried between cycles: the day a task was
// last alerted on by a broadcast, and the last due date observed for it.
// Every method is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	alertedOn map[string]tracker.Date
	lastDue   map[string]tracker.Date
}

// NewMemory creates an empty Memory.
func NewMemory() *Memory {
	return &Memory{
		alertedOn: make(map[string]tracker.Date),
		lastDue:   make(map[string]tracker.Date),
	}
}

// AlertedOn reports whether an alert was recorded for id on day.
func (m *Memory) AlertedOn(id string, day tracker.Date) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.alertedOn[id]
	return ok && d == day
}

// MarkAlerted records that id was alerted on day.
func (m *Memory) MarkAlerted(id string, day tracker.Date) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertedOn[id] = day
}

// SwapDueDate stores due as the last known due date of id and returns the
// previous value, if any.
func (m *Memory) SwapDueDate(id string, due tracker.Date) (tracker.Date, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.lastDue[id]
	m.lastDue[id] = due
	return prev, ok
}

// LastDueDate returns the last due date recorded for id.
func (m *Memory) LastDueDate(id string) (tracker.Date, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.lastDue[id]
	return d, ok
}

// ForgetDueDate drops the last due date of id and keeps its alert record.
func (m *Memory) ForgetDueDate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lastDue, id)
}

// Forget drops everything known about id.
func (m *Memory) Forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.alertedOn, id)
	delete(m.lastDue, id)
}

// MemoryStats is a point-in-time size of a Memory.
type MemoryStats struct {
	Alerted  int `json:"alerted"`
	DueDates int `json:"due_dates"`
}

// Stats returns the number of entries in each map.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MemoryStats{Alerted: len(m.alertedOn), DueDates: len(m.lastDue)}
}
