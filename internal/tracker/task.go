// Package tracker is the Zoho Projects task source: the task record, its
// wire decoding, due-date normalization and the authenticated REST client.
package tracker

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Status and priority names used by the tracker.
const (
	StatusOpen   = "Open"
	PriorityHigh = "High"
	PriorityMed  = "Medium"
	PriorityLow  = "Low"

	// Unassigned is the owner name used when a task has no assignee.
	Unassigned = "Unassigned"
)

// Task is one task record from a snapshot. Fields missing on the wire are
// left empty.
type Task struct {
	ID       string
	Name     string
	Status   string
	Priority string
	DueDate  string
	Owners   []string
}

// Open reports whether the task's status is Open (case-insensitive).
func (t Task) Open() bool {
	return strings.EqualFold(t.Status, StatusOpen)
}

// HighPriority reports whether the task's priority is High (case-insensitive).
func (t Task) HighPriority() bool {
	return strings.EqualFold(t.Priority, PriorityHigh)
}

// HasDueDate reports whether the task carries an end date.
func (t Task) HasDueDate() bool {
	return t.DueDate != ""
}

// Owner returns the first assignee, or Unassigned.
func (t Task) Owner() string {
	if len(t.Owners) == 0 || t.Owners[0] == "" {
		return Unassigned
	}
	return t.Owners[0]
}

// ValidPriority reports whether p names one of High, Medium or Low.
func ValidPriority(p string) bool {
	p = strings.TrimSpace(p)
	return strings.EqualFold(p, PriorityHigh) ||
		strings.EqualFold(p, PriorityMed) ||
		strings.EqualFold(p, PriorityLow)
}

type wireTask struct {
	ID            json.RawMessage `json:"id"`
	Name          json.RawMessage `json:"name"`
	Status        json.RawMessage `json:"status"`
	Priority      json.RawMessage `json:"priority"`
	EndDate       json.RawMessage `json:"end_date"`
	OwnersAndWork *struct {
		Owners []json.RawMessage `json:"owners"`
	} `json:"owners_and_work"`
}

// UnmarshalJSON decodes the v3 task shape. Individual fields are decoded
// leniently: a field of an unexpected type is left empty so the caller can
// decide what a missing value means. Only a non-object fails.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*t = Task{
		ID:       scalar(w.ID),
		Name:     scalar(w.Name),
		Status:   named(w.Status),
		Priority: named(w.Priority),
		DueDate:  scalar(w.EndDate),
	}
	if w.OwnersAndWork != nil {
		for _, raw := range w.OwnersAndWork.Owners {
			t.Owners = append(t.Owners, named(raw))
		}
	}
	return nil
}

// scalar returns a JSON string's value or a JSON number's literal text.
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// named resolves either a flat string or an object's "name" member.
func named(raw json.RawMessage) string {
	if s := scalar(raw); s != "" {
		return s
	}
	var obj struct {
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return scalar(obj.Name)
}
