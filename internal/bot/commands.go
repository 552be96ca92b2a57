package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/report"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/message"
)

const (
	iconWelcome = "https://cdn-icons-png.flaticon.com/512/471/471662.png"
	iconSetup   = "https://cdn-icons-png.flaticon.com/512/2099/2099058.png"
	iconInfo    = "https://cdn-icons-png.flaticon.com/512/189/189664.png"
	iconMuted   = "https://cdn-icons-png.flaticon.com/512/1828/1828843.png"
	iconLinked  = "https://cdn-icons-png.flaticon.com/512/190/190411.png"
)

func (b *Bot) welcome() message.Payload {
	text := "### 🤖 **Hi, I am DeadlineGuard.**\n" +
		fmt.Sprintf("I am an automated agent designed to prevent SLA breaches in **%s**.\n\n", b.opts.Tracker.ProjectName()) +
		"**🔍 How I Work:**\n" +
		fmt.Sprintf("1. **Monitor:** I scan open tasks every %s.\n", humanInterval(b.opts.Interval)) +
		"2. **Detect:** I look for tasks that are overdue or due **Today** or **Tomorrow**.\n" +
		"3. **Escalate:** When a deadline is that close, I set the task Priority to 'High'.\n" +
		"4. **Alert:** I notify every subscribed chat through its incoming webhook.\n\n" +
		"**⚡ Available Commands:**\n" +
		"• `/setup <webhook_url>` : **Required** to connect your chat for alerts.\n" +
		"• `/createtask Name, Date, Priority` : Create a task instantly.\n" +
		"• `/updatetask ID, Field, Value` : Change a task's priority, name, status or due date.\n\n" +
		"👇 **Use the menu below to check status manually.**"
	return message.NewPayload(text, message.Card{Title: "SYSTEM READY", Thumbnail: iconWelcome, Theme: message.ThemeInline})
}

func (b *Bot) fetch(ctx context.Context) ([]tracker.Task, *message.Payload) {
	tasks, err := b.opts.Tracker.FetchTasks(ctx)
	if err != nil {
		b.logger.Warn("bot: fetch tasks failed", "error", err)
		p := errorReply("Tracker Unavailable", "❌ **Could not reach the task tracker.** Please try again in a moment.")
		return nil, &p
	}
	return tasks, nil
}

func (b *Bot) checkStatus(ctx context.Context) (message.Payload, string) {
	tasks, failed := b.fetch(ctx)
	if failed != nil {
		return *failed, "error"
	}
	return report.Health(b.opts.Tracker.ProjectName(), tasks, b.today()), "ok"
}

func (b *Bot) criticalList(ctx context.Context) (message.Payload, string) {
	tasks, failed := b.fetch(ctx)
	if failed != nil {
		return *failed, "error"
	}
	return report.Critical(tasks, b.today()), "ok"
}

func (b *Bot) taskList(ctx context.Context) (message.Payload, string) {
	tasks, failed := b.fetch(ctx)
	if failed != nil {
		return *failed, "error"
	}
	return report.Open(tasks, b.today()), "ok"
}

func (b *Bot) startMonitor(user string) (message.Payload, string) {
	if _, ok := b.opts.Recipients.Lookup(user); !ok {
		text := "### ⚙️ **Configuration Required**\n" +
			"I am ready to monitor, but I need to know where to send the alerts.\n\n" +
			"**👉 Step 1: Get the Webhook URL**\n" +
			"Decide where you want alerts (a Channel) and get the link:\n" +
			"• Right-click Channel Name ➔ Connectors ➔ Incoming Webhook.\n" +
			"**👉 Step 2: Register**\n" +
			"Copy the **Full URL** (ensure it includes the `zapikey` token) and run:\n" +
			"`/setup https://cliq.zoho.com/...`"
		return message.NewPayload(text, message.Card{Title: "WAITING FOR SETUP", Thumbnail: iconSetup, Theme: message.ThemePrompt}), "unregistered"
	}

	if b.opts.Monitor.Start() {
		text := fmt.Sprintf("🟢 **System Activated!**\nDeadlineGuard is now scanning **%s** every %s. Alerts will be posted here.",
			b.opts.Tracker.ProjectName(), humanInterval(b.opts.Interval))
		return message.NewPayload(text, message.Card{Title: "STATUS: ACTIVATED", Thumbnail: iconInfo, Theme: message.ThemeInline}), "started"
	}
	text := "⚠️ **System is already active.**\nThe monitoring engine is running. You don't need to start it again."
	return message.NewPayload(text, message.Card{Title: "STATUS: RUNNING", Thumbnail: iconInfo, Theme: message.ThemeInline}), "running"
}

func (b *Bot) stopMonitor(user string) (message.Payload, string) {
	if b.opts.Recipients.Unregister(user) {
		return message.NewPayload("🔕 **Unsubscribed.**\nYou will no longer receive alerts.",
			message.Card{Title: "ALERTS MUTED", Thumbnail: iconMuted, Theme: message.ThemeInline}), "unsubscribed"
	}
	return message.NewPayload("⚠️ **Not Found.** You are not currently subscribed.",
		message.Card{Thumbnail: iconMuted, Theme: message.ThemeInline}), "not-found"
}

// setup registers the caller's webhook and runs a unicast cycle so the new
// recipient sees current alerts straight away. The engine is started first
// if it is not running.
func (b *Bot) setup(ctx context.Context, user, args string) (message.Payload, string) {
	if !b.opts.Monitor.IsRunning() {
		b.opts.Monitor.Start()
	}

	webhook := strings.TrimSpace(args)
	if err := b.checkURL(webhook); err != nil {
		b.logger.Info("bot: setup rejected", "user", user, "error", err)
		text := "### ⚠️ **Invalid Webhook URL**\n" +
			"You must provide the full Incoming Webhook Endpoint.\n" +
			"Format: `/setup https://cliq.zoho.com/...`"
		return message.NewPayload(text, message.Card{Title: "SETUP FAILED", Thumbnail: iconMuted, Theme: message.ThemePrompt}), "invalid"
	}
	if user == "" {
		return errorReply("Setup Failed", "❌ **Unknown user.** I could not tell who sent this command."), "invalid"
	}

	rec := b.opts.Recipients.Register(user, webhook)
	b.logger.Info("bot: webhook registered", "user", user)

	cycle := b.opts.Monitor.RunCycle(ctx, &rec)
	b.logger.Info("bot: initial scan finished", "user", user, "cycle", cycle.ID, "alerted", cycle.Count(monitor.StatusAlerted))

	text := "### ✅ **Connection Established!**\n" +
		"This chat is now linked to the **DeadlineGuard Live Engine**.\n" +
		"You will receive real-time alerts right here.\n\n"
	return message.NewPayload(text, message.Card{Title: "CONNECTED", Thumbnail: iconLinked, Theme: message.ThemeInline}), "registered"
}

func (b *Bot) checkURL(raw string) error {
	if raw == "" {
		return errors.New("bot: empty webhook url")
	}
	if b.opts.URLs == nil {
		return nil
	}
	return b.opts.URLs.Check(raw)
}

// createTask parses "Name, YYYY-MM-DD, Priority". The name may itself
// contain commas; date and priority are taken from the end.
func (b *Bot) createTask(ctx context.Context, args string) (message.Payload, string) {
	if args == "" {
		return message.Text("⚠️ **Usage:** `/createtask Task Name, YYYY-MM-DD, Priority`"), "usage"
	}
	parts := strings.Split(args, ",")
	if len(parts) < 3 {
		return message.Text("❌ **Missing Info:** Please separate Name, Date, and Priority with commas.\n" +
			"Example: `/createtask Fix Bug, 2025-12-01, High`"), "usage"
	}

	n := len(parts)
	name := strings.TrimSpace(strings.Join(parts[:n-2], ","))
	dueRaw := strings.TrimSpace(parts[n-2])
	priority := strings.TrimSpace(parts[n-1])

	if name == "" {
		return errorReply("Validation Error", "❌ **Missing Name:** The task needs a name."), "invalid"
	}
	due, ok := b.futureDate(dueRaw)
	if !ok {
		return errorReply("Validation Error", fmt.Sprintf("❌ **Invalid Date:** The date `%s` is in the past or invalid.\n"+
			"Please use **YYYY-MM-DD** format and ensure it is **Today or Future**.", dueRaw)), "invalid"
	}
	if !tracker.ValidPriority(priority) {
		return invalidPriority(priority), "invalid"
	}

	if err := b.opts.Tracker.CreateTask(ctx, name, due, priority); err != nil {
		b.logger.Warn("bot: create task failed", "error", err)
		return message.Text("❌ **API Error:** Could not create task. Please check the date format (YYYY-MM-DD)."), "error"
	}
	text := "✅ **Task Created Successfully!**\n" +
		"📌 **Task:** " + name + "\n" +
		"📅 **Due:** " + due.String() + "\n" +
		"🔥 **Priority:** " + priority
	return message.Text(text), "ok"
}

// updateTask parses "ID, field, value". The value may contain commas.
func (b *Bot) updateTask(ctx context.Context, args string) (message.Payload, string) {
	if !strings.Contains(args, ",") {
		return message.Text("⚠️ **Usage:** `/updatetask <ID>, <Field>, <Value>`\nExample: `/updatetask 12345, priority, High`"), "usage"
	}
	parts := strings.SplitN(args, ",", 3)
	if len(parts) < 3 {
		return message.Text("❌ **Missing Info:** I need ID, Field, and Value separated by commas."), "usage"
	}
	id := strings.TrimSpace(parts[0])
	field := strings.ToLower(strings.TrimSpace(parts[1]))
	value := strings.TrimSpace(parts[2])

	if strings.Contains(field, "date") {
		if _, ok := b.futureDate(value); !ok {
			return errorReply("Validation Error", fmt.Sprintf("❌ **Invalid Date Update:**\nYou cannot change a task date to the past (`%s`).\n"+
				"Please use a future date (YYYY-MM-DD).", value)), "invalid"
		}
	}
	if field == "priority" && !tracker.ValidPriority(value) {
		return invalidPriority(value), "invalid"
	}

	err := b.opts.Tracker.UpdateField(ctx, id, field, value)
	switch {
	case errors.Is(err, tracker.ErrUnknownField):
		return errorReply("Validation Error", fmt.Sprintf("❌ **Unknown Field:** `%s`.\nUse one of `priority`, `name`, `status`, `date`.", field)), "invalid"
	case err != nil:
		b.logger.Warn("bot: update task failed", "task", id, "error", err)
		return message.Text("❌ **Update Failed:** Check if the Task ID is correct."), "error"
	}
	return message.Text(fmt.Sprintf("✅ **Task Updated Successfully!**\n🆔 Task ID: %s\n🔄 Changed **%s** to **%s**", id, field, value)), "ok"
}

// futureDate parses a YYYY-MM-DD date that is today or later.
func (b *Bot) futureDate(raw string) (tracker.Date, bool) {
	d, err := tracker.ParseISODate(raw)
	if err != nil || d.Before(b.today()) {
		return tracker.Date{}, false
	}
	return d, true
}

func invalidPriority(p string) message.Payload {
	return errorReply("Validation Error", fmt.Sprintf("❌ **Invalid Priority:** You entered `%s`.\n"+
		"Allowed values are: `High`, `Medium`, `Low`.", p))
}

func errorReply(title, text string) message.Payload {
	return message.NewPayload(text, message.Card{Title: title, Thumbnail: iconMuted, Theme: message.ThemePrompt})
}

// humanInterval renders d as "5 minutes", "1 hour" or "90 seconds".
func humanInterval(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	default:
		return unit(int64(d/time.Second), "second")
	}
}
