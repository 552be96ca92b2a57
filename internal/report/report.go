// Package report builds the on-demand project reports: a health summary, the
// critical-task table and the open-task table.
package report

import (
	"fmt"
	"strings"

	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/message"
)

const (
	healthIcon = "https://cdn-icons-png.flaticon.com/512/3094/3094851.png"

	labelOverdue = "OVERDUE"
	labelHigh    = "High Priority"
	labelNormal  = "Normal"
)

// Columns of the task tables, in display order.
var Columns = []string{"ID", "Task Name", "Owner", "Status", "Due Date"}

// Summary counts the open tasks of a snapshot.
type Summary struct {
	Open         int `json:"open"`
	HighPriority int `json:"high_priority"`
	// DueOrOverdue counts open tasks due today or earlier.
	DueOrOverdue int `json:"due_or_overdue"`
}

// Row is one task line of a table report.
type Row struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Status string `json:"status"`
	Due    string `json:"due"`
}

func (r Row) cells() map[string]string {
	return map[string]string{
		"ID":        r.ID,
		"Task Name": r.Name,
		"Owner":     r.Owner,
		"Status":    r.Status,
		"Due Date":  r.Due,
	}
}

// Summarize counts open, high-priority and due-or-overdue tasks.
func Summarize(tasks []tracker.Task, today tracker.Date) Summary {
	var s Summary
	for _, t := range tasks {
		if !t.Open() {
			continue
		}
		s.Open++
		if t.HighPriority() {
			s.HighPriority++
		}
		if due, ok := tracker.ParseLenient(t.DueDate); ok && !due.After(today) {
			s.DueOrOverdue++
		}
	}
	return s
}

// Health renders the summary card for project.
func Health(project string, tasks []tracker.Task, today tracker.Date) message.Payload {
	s := Summarize(tasks, today)
	var b strings.Builder
	fmt.Fprintf(&b, "### 🩺 **Project Health: %s**\n", project)
	b.WriteString("----------------------------------\n")
	fmt.Fprintf(&b, "📝 **Open Tasks:** %d\n", s.Open)
	fmt.Fprintf(&b, "🔥 **High Priority:** %d\n", s.HighPriority)
	fmt.Fprintf(&b, "⚠️ **Overdue / Due Today:** %d\n", s.DueOrOverdue)
	b.WriteString("----------------------------------\n")

	return message.NewPayload(b.String(), message.Card{
		Title:     "LIVE STATUS CHECK",
		Thumbnail: healthIcon,
		Theme:     message.ThemeInline,
	})
}

// CriticalRows returns the open tasks that are High priority or due on or
// before today. An overdue task is labelled OVERDUE even when High.
func CriticalRows(tasks []tracker.Task, today tracker.Date) []Row {
	var rows []Row
	for _, t := range tasks {
		if !t.Open() {
			continue
		}
		row, overdue := baseRow(t, today)
		switch {
		case overdue:
			row.Status = labelOverdue
		case t.HighPriority():
			row.Status = labelHigh
		default:
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Critical renders the critical-task table.
func Critical(tasks []tracker.Task, today tracker.Date) message.Payload {
	rows := CriticalRows(tasks, today)
	if len(rows) == 0 {
		return message.Text("✅ **No critical tasks found.** Great job!")
	}
	p := message.NewPayload(
		fmt.Sprintf("🚨 **Critical Task Report**\nFound %d items requiring immediate attention.", len(rows)),
		message.Card{Title: "ACTION REQUIRED", Theme: message.ThemeInline},
	)
	p.Slides = message.NewTable("⚠️ Critical Bottlenecks", Columns, tableRows(rows))
	return p
}

// OpenRows returns every open task. The status column shows OVERDUE, High
// Priority, or the priority name.
func OpenRows(tasks []tracker.Task, today tracker.Date) []Row {
	var rows []Row
	for _, t := range tasks {
		if !t.Open() {
			continue
		}
		row, overdue := baseRow(t, today)
		switch {
		case overdue:
			row.Status = labelOverdue
		case t.HighPriority():
			row.Status = labelHigh
		case t.Priority != "":
			row.Status = t.Priority
		default:
			row.Status = labelNormal
		}
		rows = append(rows, row)
	}
	return rows
}

// Open renders the open-task table.
func Open(tasks []tracker.Task, today tracker.Date) message.Payload {
	rows := OpenRows(tasks, today)
	if len(rows) == 0 {
		return message.Text("✅ **No open tasks.** The project is clear!")
	}
	p := message.NewPayload(
		fmt.Sprintf("📋 **Project Overview**\nHere are all **%d** active tasks.", len(rows)),
		message.Card{Title: "ALL OPEN TASKS", Theme: message.ThemeInline},
	)
	p.Slides = message.NewTable("All Project Tasks", Columns, tableRows(rows))
	return p
}

// baseRow fills the columns shared by both tables and reports whether the
// task is due on or before today.
func baseRow(t tracker.Task, today tracker.Date) (Row, bool) {
	row := Row{ID: t.ID, Name: t.Name, Owner: t.Owner(), Due: "-"}
	due, ok := tracker.ParseLenient(t.DueDate)
	if !ok {
		return row, false
	}
	row.Due = due.String()
	return row, !due.After(today)
}

func tableRows(rows []Row) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, r := range rows {
		out[i] = r.cells()
	}
	return out
}
