// Package mcpserver exposes the project reports as MCP tools so assistants
// can query deadline health over stdio.
package mcpserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/deadlineguard/internal/report"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// Tool names.
const (
	ToolProjectHealth = "project_health"
	ToolCriticalTasks = "critical_tasks"
	ToolOpenTasks     = "open_tasks"
)

// Source is the read side of the tracker.
type Source interface {
	FetchTasks(ctx context.Context) ([]tracker.Task, error)
	ProjectName() string
}

// Tools implements the report tool handlers.
type Tools struct {
	source Source
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewTools creates the handlers. A nil loc means time.Local.
func NewTools(source Source, loc *time.Location, logger *slog.Logger) *Tools {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		source: source,
		loc:    loc,
		now:    time.Now,
		logger: logger.With("component", "mcp"),
	}
}

// New builds an MCP server with the report tools registered.
func New(tools *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"deadlineguard",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("DeadlineGuard watches a Zoho Projects project for tasks that are "+
			"overdue or due within a day. Use project_health for counts, critical_tasks for what "+
			"needs attention now and open_tasks for the full open backlog."),
	)

	s.AddTool(mcp.NewTool(ToolProjectHealth,
		mcp.WithDescription("Summarize open, high-priority and due-or-overdue task counts for the monitored project."),
	), tools.ProjectHealth)
	s.AddTool(mcp.NewTool(ToolCriticalTasks,
		mcp.WithDescription("List open tasks that are overdue or have High priority."),
	), tools.CriticalTasks)
	s.AddTool(mcp.NewTool(ToolOpenTasks,
		mcp.WithDescription("List every open task with its owner, status, due date and urgency label."),
	), tools.OpenTasks)
	return s
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// ProjectHealth handles the project_health tool.
func (t *Tools) ProjectHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, ToolProjectHealth, func(tasks []tracker.Task, today tracker.Date) message.Payload {
		return report.Health(t.source.ProjectName(), tasks, today)
	})
}

// CriticalTasks handles the critical_tasks tool.
func (t *Tools) CriticalTasks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, ToolCriticalTasks, report.Critical)
}

// OpenTasks handles the open_tasks tool.
func (t *Tools) OpenTasks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, ToolOpenTasks, report.Open)
}

// run fetches a snapshot and renders the report as markdown. Tracker
// failures are reported as tool errors, not protocol errors.
func (t *Tools) run(ctx context.Context, name string, build func([]tracker.Task, tracker.Date) message.Payload) (*mcp.CallToolResult, error) {
	tasks, err := t.source.FetchTasks(ctx)
	if err != nil {
		t.logger.Warn("mcp: fetch tasks failed", "tool", name, "error", err)
		return mcp.NewToolResultError("could not fetch tasks from the tracker"), nil
	}
	p := build(tasks, tracker.Today(t.now(), t.loc))
	return mcp.NewToolResultText(p.Markdown()), nil
}
