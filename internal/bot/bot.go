// Package bot implements the Cliq chat commands: reports, monitor control,
// webhook subscription and task edits.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// Command names, matched case-insensitively.
const (
	CmdCheckStatus  = "CheckStatus"
	CmdCriticalList = "CriticalList"
	CmdTaskList     = "TaskList"
	CmdStartMonitor = "StartMonitor"
	CmdStopMonitor  = "StopMonitor"
	CmdSetup        = "setup"
	CmdCreateTask   = "createtask"
	CmdUpdateTask   = "updatetask"
	cmdWelcome      = "welcome"
)

// Tracker is the task source used by report and edit commands.
type Tracker interface {
	FetchTasks(ctx context.Context) ([]tracker.Task, error)
	CreateTask(ctx context.Context, name string, due tracker.Date, priority string) error
	UpdateField(ctx context.Context, taskID, field, value string) error
	ProjectName() string
}

// Monitor is the engine control surface.
type Monitor interface {
	Start() bool
	IsRunning() bool
	RunCycle(ctx context.Context, target *registry.Recipient) monitor.CycleReport
}

// Recipients is the subscriber store.
type Recipients interface {
	Register(userID, webhookURL string) registry.Recipient
	Unregister(userID string) bool
	Lookup(userID string) (registry.Recipient, bool)
}

// Poster sends a reply body to a response URL.
type Poster interface {
	Post(ctx context.Context, url string, body any) error
}

// URLChecker validates webhook URLs before registration.
type URLChecker interface {
	Check(rawURL string) error
}

// Limiter throttles commands per user.
type Limiter interface {
	Allow(key string) error
}

// Observer is told about every handled command.
type Observer interface {
	ObserveCommand(command, result string)
}

// Options configures a Bot. Tracker, Monitor, Recipients and Poster are
// required.
type Options struct {
	Tracker    Tracker
	Monitor    Monitor
	Recipients Recipients
	Poster     Poster
	URLs       URLChecker
	Limiter    Limiter
	Observer   Observer
	Location   *time.Location
	Now        func() time.Time
	// Interval is the scan period quoted in replies.
	Interval time.Duration
	Logger   *slog.Logger
}

// Bot handles Cliq events.
type Bot struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Bot.
func New(opts Options) (*Bot, error) {
	var errs []error
	if opts.Tracker == nil {
		errs = append(errs, errors.New("bot: tracker is required"))
	}
	if opts.Monitor == nil {
		errs = append(errs, errors.New("bot: monitor is required"))
	}
	if opts.Recipients == nil {
		errs = append(errs, errors.New("bot: recipients are required"))
	}
	if opts.Poster == nil {
		errs = append(errs, errors.New("bot: poster is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = monitor.DefaultInterval
	}
	return &Bot{opts: opts, logger: opts.Logger.With("component", "bot")}, nil
}

// Dispatch handles ev and posts the reply to its response URL. Events that
// need no reply are ignored.
func (b *Bot) Dispatch(ctx context.Context, ev Event) error {
	reply, ok := b.Handle(ctx, ev)
	if !ok {
		return nil
	}
	if ev.ResponseURL == "" {
		b.logger.Warn("bot: event has no response url", "command", ev.Command())
		return nil
	}
	if err := b.opts.Poster.Post(ctx, ev.ResponseURL, message.Reply{Output: reply}); err != nil {
		return fmt.Errorf("bot: post reply: %w", err)
	}
	return nil
}

// Handle computes the reply for ev. It reports false for events that are
// not commands.
func (b *Bot) Handle(ctx context.Context, ev Event) (message.Payload, bool) {
	switch ev.Handler.Type {
	case HandlerMessage:
		return message.Payload{}, false
	case HandlerWelcome:
		b.observe(cmdWelcome, "ok")
		return b.welcome(), true
	}

	cmd := ev.Command()
	user := ev.UserID()
	label := canonical(cmd)
	logger := b.logger.With("command", cmd, "user", user)

	if b.opts.Limiter != nil {
		key := user
		if key == "" {
			key = "anonymous"
		}
		if err := b.opts.Limiter.Allow(key); err != nil {
			logger.Warn("bot: command rate limited")
			b.observe(label, "limited")
			return errorReply("Slow Down", "⏳ **Too many commands.** Please wait a minute and try again."), true
		}
	}

	logger.Info("bot: command received")
	reply, result := b.route(ctx, label, cmd, user, strings.TrimSpace(ev.Params.Arguments))
	b.observe(label, result)
	return reply, true
}

var commands = []string{
	CmdCheckStatus, CmdCriticalList, CmdTaskList, CmdStartMonitor,
	CmdStopMonitor, CmdSetup, CmdCreateTask, CmdUpdateTask,
}

// canonical returns the known command matching name, or "unknown".
func canonical(name string) string {
	for _, c := range commands {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return "unknown"
}

// route runs the command and returns the reply with a short result label.
func (b *Bot) route(ctx context.Context, label, raw, user, args string) (message.Payload, string) {
	switch label {
	case CmdCheckStatus:
		return b.checkStatus(ctx)
	case CmdCriticalList:
		return b.criticalList(ctx)
	case CmdTaskList:
		return b.taskList(ctx)
	case CmdStartMonitor:
		return b.startMonitor(user)
	case CmdStopMonitor:
		return b.stopMonitor(user)
	case CmdSetup:
		return b.setup(ctx, user, args)
	case CmdCreateTask:
		return b.createTask(ctx, args)
	case CmdUpdateTask:
		return b.updateTask(ctx, args)
	default:
		return message.Text(fmt.Sprintf("🤔 Unknown command `%s`. Open the bot menu to see what I can do.", raw)), "unknown"
	}
}

func (b *Bot) today() tracker.Date {
	return tracker.Today(b.opts.Now(), b.opts.Location)
}

func (b *Bot) observe(cmd, result string) {
	if b.opts.Observer != nil {
		b.opts.Observer.ObserveCommand(cmd, result)
	}
}
