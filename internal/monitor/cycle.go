package monitor

import (
	"strconv"
	"time"

	"github.com/flemzord/deadlineguard/internal/notify"
	"github.com/flemzord/deadlineguard/internal/tracker"
)

// Mode says who a cycle's alerts are addressed to.
type Mode string

const (
	// ModeBroadcast cycles alert every registered recipient and own the memory.
	ModeBroadcast Mode = "broadcast"
	// ModeUnicast cycles alert a single recipient and never touch the memory.
	ModeUnicast Mode = "unicast"
)

// OutcomeStatus is the result of evaluating one task.
type OutcomeStatus string

const (
	StatusAlerted OutcomeStatus = "alerted"
	StatusClear   OutcomeStatus = "clear"
	StatusSkipped OutcomeStatus = "skipped"
)

// SkipReason explains a skipped task.
type SkipReason string

const (
	ReasonClosed         SkipReason = "closed"
	ReasonMissingID      SkipReason = "missing-id"
	ReasonMissingStatus  SkipReason = "missing-status"
	ReasonAlreadyAlerted SkipReason = "already-alerted"
	ReasonInvalidDueDate SkipReason = "invalid-due-date"
	ReasonPanic          SkipReason = "panic"
)

// ChangeKind is the direction of a due-date change.
type ChangeKind string

const (
	ChangePreponed  ChangeKind = "preponed"
	ChangePostponed ChangeKind = "postponed"
)

// TaskOutcome records what a cycle did with one task.
type TaskOutcome struct {
	TaskID   string        `json:"task_id"`
	TaskName string        `json:"task_name,omitempty"`
	Status   OutcomeStatus `json:"status"`
	Reason   SkipReason    `json:"reason,omitempty"`

	// TimeText is the SLA wording ("Due Today", ...) when Status is alerted.
	TimeText string `json:"time_text,omitempty"`

	// Escalated is set when a priority escalation was attempted.
	Escalated        bool `json:"escalated,omitempty"`
	EscalationFailed bool `json:"escalation_failed,omitempty"`

	// Change is set when a schedule-change alert was emitted.
	Change ChangeKind `json:"change,omitempty"`

	Delivery notify.DeliveryResult `json:"delivery"`
}

// CycleReport is the full account of one scan cycle.
type CycleReport struct {
	ID         string        `json:"id"`
	Mode       Mode          `json:"mode"`
	Target     string        `json:"target,omitempty"`
	Today      string        `json:"today"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Fetched    int           `json:"fetched"`
	FetchError string        `json:"fetch_error,omitempty"`
	Outcomes   []TaskOutcome `json:"outcomes"`
}

// Duration returns how long the cycle ran.
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns how many outcomes have status s.
func (r CycleReport) Count(s OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Outcome returns the outcome recorded for taskID.
func (r CycleReport) Outcome(taskID string) (TaskOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.TaskID == taskID {
			return o, true
		}
	}
	return TaskOutcome{}, false
}

// Delivery sums the deliveries of every outcome.
func (r CycleReport) Delivery() notify.DeliveryResult {
	var total notify.DeliveryResult
	for _, o := range r.Outcomes {
		total.Add(o.Delivery)
	}
	return total
}

// TimeText describes a day difference as SLA wording. It is only meaningful
// for days <= 1.
func TimeText(days int) string {
	switch {
	case days < 0:
		return strconv.Itoa(-days) + " Days Overdue"
	case days == 0:
		return "Due Today"
	default:
		return "Due Tomorrow"
	}
}

// qualifies reports whether a task due on due needs an SLA alert on today.
func qualifies(today, due tracker.Date) (int, bool) {
	days := today.DaysUntil(due)
	return days, days <= 1
}
