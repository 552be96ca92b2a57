// Package monitor implements the deadline monitoring engine: a recurring scan
// of the task source that raises SLA and schedule-change alerts, remembers
// what it already said, and escalates tasks that are about to slip.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/deadlineguard/internal/notify"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/message"
)

var (
	// ErrNilSource is returned by New when no task source is given.
	ErrNilSource = errors.New("monitor: task source is required")
	// ErrDraining is reported by cycles refused after Wait was called.
	ErrDraining = errors.New("monitor: engine is draining")
)

// TaskSource is the subset of the tracker the engine needs.
type TaskSource interface {
	FetchTasks(ctx context.Context) ([]tracker.Task, error)
	EscalatePriority(ctx context.Context, taskID, priority string) error
}

// Deliverer routes a payload to one recipient or, with a nil target, to all.
type Deliverer interface {
	Deliver(ctx context.Context, payload message.Payload, target *registry.Recipient) notify.DeliveryResult
}

// CycleObserver is notified after every finished cycle.
type CycleObserver interface {
	ObserveCycle(report CycleReport)
}

// Options configures an Engine. Source and Notifier are required.
type Options struct {
	Source   TaskSource
	Notifier Deliverer
	Ticker   Ticker
	Memory   *Memory
	Location *time.Location
	Now      func() time.Time
	Observer CycleObserver
	Logger   *slog.Logger

	// Interval is used to build a CronTicker when Ticker is nil.
	Interval time.Duration
}

// Engine runs scan cycles on a ticker (broadcast) or on demand for a single
// recipient (unicast).
type Engine struct {
	source   TaskSource
	notifier Deliverer
	ticker   Ticker
	memory   *Memory
	loc      *time.Location
	now      func() time.Time
	observer CycleObserver
	logger   *slog.Logger
	tracer   trace.Tracer

	mu sync.Mutex // guards run-state transitions

	cycleMu  sync.Mutex // guards draining and inflight.Add
	draining bool
	inflight sync.WaitGroup

	lastMu sync.RWMutex
	last   *CycleReport
}

// New creates a stopped Engine.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, ErrNilSource
	}
	if opts.Notifier == nil {
		return nil, errors.New("monitor: notifier is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "monitor")
	if opts.Ticker == nil {
		if opts.Interval <= 0 {
			opts.Interval = DefaultInterval
		}
		opts.Ticker = NewCronTicker(opts.Interval, opts.Logger)
	}
	if opts.Memory == nil {
		opts.Memory = NewMemory()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		source:   opts.Source,
		notifier: opts.Notifier,
		ticker:   opts.Ticker,
		memory:   opts.Memory,
		loc:      opts.Location,
		now:      opts.Now,
		observer: opts.Observer,
		logger:   logger,
		tracer:   otel.Tracer("github.com/flemzord/deadlineguard/internal/monitor"),
	}, nil
}

// Start arms the ticker. It returns false, changing nothing, when the engine
// is already running.
func (e *Engine) Start() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ticker.Armed() {
		e.logger.Info("monitor: already running")
		return false
	}
	if err := e.ticker.Arm(e.scheduledCycle); err != nil {
		e.logger.Error("monitor: arm ticker", "error", err)
		return false
	}
	e.logger.Info("monitor: started")
	return true
}

// Stop cancels future scheduled cycles. A cycle already running is not
// interrupted.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ticker.Armed() {
		return
	}
	e.ticker.Cancel()
	e.logger.Info("monitor: stopped")
}

// IsRunning reports whether scheduled cycles are armed.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticker.Armed()
}

// Wait blocks until in-flight cycles finish or ctx is done. Cycles requested
// after Wait is called are refused.
func (e *Engine) Wait(ctx context.Context) error {
	e.cycleMu.Lock()
	e.draining = true
	e.cycleMu.Unlock()

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Memory returns the engine's alert memory.
func (e *Engine) Memory() *Memory { return e.memory }

// LastReport returns the report of the most recent finished cycle.
func (e *Engine) LastReport() (CycleReport, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	if e.last == nil {
		return CycleReport{}, false
	}
	return *e.last, true
}

func (e *Engine) scheduledCycle() {
	e.RunCycle(context.Background(), nil)
}

// RunCycle scans the task source once. A nil target runs a broadcast cycle;
// otherwise alerts go to target only and the memory is left untouched.
func (e *Engine) RunCycle(ctx context.Context, target *registry.Recipient) CycleReport {
	now := e.now()
	today := tracker.Today(now, e.loc)
	report := CycleReport{
		ID:        uuid.NewString(),
		Mode:      ModeBroadcast,
		StartedAt: now,
		Today:     today.String(),
	}
	if target != nil {
		report.Mode = ModeUnicast
		report.Target = target.UserID
	}

	e.cycleMu.Lock()
	if e.draining {
		e.cycleMu.Unlock()
		e.logger.Debug("monitor: cycle refused while draining", "mode", report.Mode)
		report.FetchError = ErrDraining.Error()
		report.FinishedAt = now
		return report
	}
	e.inflight.Add(1)
	e.cycleMu.Unlock()
	defer e.inflight.Done()

	ctx, span := e.tracer.Start(ctx, "monitor.cycle", trace.WithAttributes(
		attribute.String("cycle.id", report.ID),
		attribute.String("cycle.mode", string(report.Mode)),
	))
	defer span.End()

	logger := e.logger.With("cycle", report.ID, "mode", report.Mode)
	logger.Debug("monitor: cycle started", "today", report.Today)

	tasks, err := e.source.FetchTasks(ctx)
	if err != nil {
		logger.Warn("monitor: fetch tasks failed", "error", err)
		report.FetchError = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch tasks")
	}
	report.Fetched = len(tasks)

	c := cycle{engine: e, target: target, today: today, logger: logger}
	for _, task := range tasks {
		report.Outcomes = append(report.Outcomes, c.evaluate(ctx, task))
	}

	report.FinishedAt = e.now()
	span.SetAttributes(
		attribute.Int("cycle.tasks", report.Fetched),
		attribute.Int("cycle.alerted", report.Count(StatusAlerted)),
	)
	logger.Info("monitor: cycle finished",
		"tasks", report.Fetched,
		"alerted", report.Count(StatusAlerted),
		"skipped", report.Count(StatusSkipped),
		"duration", report.Duration().String(),
	)

	e.lastMu.Lock()
	e.last = &report
	e.lastMu.Unlock()
	if e.observer != nil {
		e.observer.ObserveCycle(report)
	}
	return report
}

// cycle holds the per-run state shared by task evaluations.
type cycle struct {
	engine *Engine
	target *registry.Recipient
	today  tracker.Date
	logger *slog.Logger
}

func (c *cycle) broadcast() bool { return c.target == nil }

// evaluate applies the alert rules to one task. A panic is contained to the
// task that caused it.
func (c *cycle) evaluate(ctx context.Context, task tracker.Task) (out TaskOutcome) {
	out = TaskOutcome{TaskID: task.ID, TaskName: task.Name}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("monitor: task evaluation panicked", "task", task.ID, "panic", fmt.Sprint(r))
			out.Status, out.Reason = StatusSkipped, ReasonPanic
		}
	}()

	out = c.rules(ctx, task, out)
	if out.Status == StatusSkipped {
		c.logger.Debug("monitor: task skipped", "task", task.ID, "reason", out.Reason)
	}
	return out
}

func (c *cycle) rules(ctx context.Context, task tracker.Task, out TaskOutcome) TaskOutcome {
	mem := c.engine.memory

	if task.ID == "" {
		return skip(out, ReasonMissingID)
	}
	if task.Status == "" {
		return skip(out, ReasonMissingStatus)
	}
	if !task.Open() {
		if c.broadcast() {
			mem.Forget(task.ID)
		}
		return skip(out, ReasonClosed)
	}

	due, hasDue := tracker.Date{}, false
	if task.HasDueDate() {
		due, hasDue = tracker.NormalizeDueDate(task.DueDate)
	}

	if c.broadcast() && !task.HasDueDate() {
		mem.ForgetDueDate(task.ID)
	}
	if c.broadcast() && hasDue {
		if prev, ok := mem.SwapDueDate(task.ID, due); ok && prev != due {
			payload, kind := ScheduleChangeAlert(task.Name, prev, due)
			out.Change = kind
			out.Delivery.Add(c.engine.notifier.Deliver(ctx, payload, nil))
			c.logger.Info("monitor: schedule changed",
				"task", task.ID, "was", prev.String(), "now", due.String(), "kind", kind)
		}
	}

	if c.broadcast() && mem.AlertedOn(task.ID, c.today) {
		return skip(out, ReasonAlreadyAlerted)
	}

	priority := task.Priority
	high := task.HighPriority()

	if task.HasDueDate() && !hasDue {
		return skip(out, ReasonInvalidDueDate)
	}
	if !hasDue {
		out.Status = StatusClear
		return out
	}
	days, ok := qualifies(c.today, due)
	if !ok {
		out.Status = StatusClear
		return out
	}

	if c.broadcast() && !high {
		out.Escalated = true
		if err := c.engine.source.EscalatePriority(ctx, task.ID, tracker.PriorityHigh); err != nil {
			out.EscalationFailed = true
			c.logger.Warn("monitor: escalation failed", "task", task.ID, "error", err)
		} else {
			priority = tracker.PriorityHigh
			c.logger.Info("monitor: escalated", "task", task.ID)
		}
	}

	out.TimeText = TimeText(days)
	payload := SLAAlert(task.Name, task.Owner(), priority, out.TimeText)
	out.Delivery.Add(c.engine.notifier.Deliver(ctx, payload, c.target))
	out.Status = StatusAlerted
	c.logger.Info("monitor: sla alert", "task", task.ID, "time", out.TimeText)

	if c.broadcast() {
		mem.MarkAlerted(task.ID, c.today)
	}
	return out
}

func skip(out TaskOutcome, reason SkipReason) TaskOutcome {
	out.Status, out.Reason = StatusSkipped, reason
	return out
}
