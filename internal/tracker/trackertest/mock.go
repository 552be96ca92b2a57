// Package trackertest provides test doubles for the tracker package.
package trackertest

import (
	"context"
	"sync"

	"github.com/flemzord/deadlineguard/internal/tracker"
)

// Escalation records one EscalatePriority call.
type Escalation struct {
	TaskID   string
	Priority string
}

// Update records one UpdateField call.
type Update struct {
	TaskID string
	Field  string
	Value  string
}

// Created records one CreateTask call.
type Created struct {
	Name     string
	Due      tracker.Date
	Priority string
}

// Source is an in-memory task source. Tasks are returned as set; successful
// escalations also update the stored task's priority, as the real API would.
type Source struct {
	mu          sync.Mutex
	tasks       []tracker.Task
	fetchErr    error
	escalateErr error
	writeErr    error

	escalations []Escalation
	updates     []Update
	created     []Created
	fetches     int
}

// NewSource returns a Source holding tasks.
func NewSource(tasks ...tracker.Task) *Source {
	s := &Source{}
	s.SetTasks(tasks...)
	return s
}

// SetTasks replaces the snapshot.
func (s *Source) SetTasks(tasks ...tracker.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]tracker.Task(nil), tasks...)
}

// SetFetchErr makes FetchTasks fail with err.
func (s *Source) SetFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// SetEscalateErr makes EscalatePriority fail with err.
func (s *Source) SetEscalateErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalateErr = err
}

// SetWriteErr makes CreateTask and UpdateField fail with err.
func (s *Source) SetWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// FetchTasks returns a copy of the snapshot.
func (s *Source) FetchTasks(_ context.Context) ([]tracker.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]tracker.Task(nil), s.tasks...), nil
}

// EscalatePriority records the call and updates the stored task.
func (s *Source) EscalatePriority(_ context.Context, taskID, priority string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalations = append(s.escalations, Escalation{TaskID: taskID, Priority: priority})
	if s.escalateErr != nil {
		return s.escalateErr
	}
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Priority = priority
		}
	}
	return nil
}

// CreateTask records the call.
func (s *Source) CreateTask(_ context.Context, name string, due tracker.Date, priority string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.created = append(s.created, Created{Name: name, Due: due, Priority: priority})
	return nil
}

// UpdateField records the call.
func (s *Source) UpdateField(_ context.Context, taskID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.updates = append(s.updates, Update{TaskID: taskID, Field: field, Value: value})
	return nil
}

// ProjectName returns a fixed project name.
func (s *Source) ProjectName() string { return "Test Project" }

// Escalations returns the recorded escalation calls.
func (s *Source) Escalations() []Escalation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Escalation(nil), s.escalations...)
}

// Updates returns the recorded UpdateField calls.
func (s *Source) Updates() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Update(nil), s.updates...)
}

// Created returns the recorded CreateTask calls.
func (s *Source) Created() []Created {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Created(nil), s.created...)
}

// Fetches returns the number of FetchTasks calls.
func (s *Source) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}
