// Package monitortest provides test doubles for the monitor package.
package monitortest

import (
	"sync"

	"github.com/flemzord/deadlineguard/internal/monitor"
)

// Compile-time interface check.
var _ monitor.Ticker = (*ManualTicker)(nil)

// ManualTicker is a Ticker that only fires when told to.
type ManualTicker struct {
	mu     sync.Mutex
	fn     func()
	arms   int
	ArmErr error
}

// Arm implements monitor.Ticker.
func (t *ManualTicker) Arm(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ArmErr != nil {
		return t.ArmErr
	}
	if t.fn != nil {
		return monitor.ErrAlreadyArmed
	}
	t.fn = fn
	t.arms++
	return nil
}

// Cancel implements monitor.Ticker.
func (t *ManualTicker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fn = nil
}

// Armed implements monitor.Ticker.
func (t *ManualTicker) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn != nil
}

// Fire runs the armed function synchronously and reports whether it ran.
func (t *ManualTicker) Fire() bool {
	t.mu.Lock()
	fn := t.fn
	t.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Arms returns how many times Arm succeeded.
func (t *ManualTicker) Arms() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.arms
}
