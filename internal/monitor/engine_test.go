package monitor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/monitor/monitortest"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/internal/tracker/trackertest"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(date string) *clock {
	t, err := time.Parse("2006-01-02 15:04", date+" 10:00")
	if err != nil {
		panic(err)
	}
	return &clock{now: t}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) addDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

type harness struct {
	engine   *monitor.Engine
	source   *trackertest.Source
	recorder *monitortest.Recorder
	ticker   *monitortest.ManualTicker
	clock    *clock
}

func newHarness(t *testing.T, today string, tasks ...tracker.Task) *harness {
	t.Helper()

	h := &harness{
		source:   trackertest.NewSource(tasks...),
		recorder: &monitortest.Recorder{},
		ticker:   &monitortest.ManualTicker{},
		clock:    newClock(today),
	}
	e, err := monitor.New(monitor.Options{
		Source:   h.source,
		Notifier: h.recorder,
		Ticker:   h.ticker,
		Location: time.UTC,
		Now:      h.clock.Now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.engine = e
	return h
}

func (h *harness) broadcast() monitor.CycleReport {
	return h.engine.RunCycle(context.Background(), nil)
}

func openTask(id, due, priority string) tracker.Task {
	return tracker.Task{
		ID:       id,
		Name:     "Task " + id,
		Status:   "Open",
		Priority: priority,
		DueDate:  due,
		Owners:   []string{"Alice"},
	}
}

func TestNew_RequiresSource(t *testing.T) {
	t.Parallel()

	_, err := monitor.New(monitor.Options{Notifier: &monitortest.Recorder{}})
	if !errors.Is(err, monitor.ErrNilSource) {
		t.Errorf("err = %v, want ErrNilSource", err)
	}
}

func TestEngine_StartStop(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08")

	if h.engine.IsRunning() {
		t.Fatal("engine should start stopped")
	}
	if !h.engine.Start() {
		t.Fatal("first Start should return true")
	}
	if h.engine.Start() {
		t.Error("second Start should return false")
	}
	if h.ticker.Arms() != 1 {
		t.Errorf("ticker armed %d times, want 1", h.ticker.Arms())
	}
	if !h.engine.IsRunning() {
		t.Error("engine should be running")
	}

	h.engine.Stop()
	if h.engine.IsRunning() {
		t.Error("engine should be stopped")
	}
	h.engine.Stop()

	if !h.engine.Start() {
		t.Error("Start after Stop should return true")
	}
}

func TestEngine_StartFailsWhenTickerCannotArm(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08")
	h.ticker.ArmErr = errors.New("boom")

	if h.engine.Start() {
		t.Error("Start should report false when the ticker fails")
	}
	if h.engine.IsRunning() {
		t.Error("engine should remain stopped")
	}
}

func TestEngine_NoCycleBeforeFirstTick(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))
	h.engine.Start()

	if h.source.Fetches() != 0 {
		t.Fatalf("Start must not scan immediately, got %d fetches", h.source.Fetches())
	}

	h.ticker.Fire()
	if h.source.Fetches() != 1 {
		t.Errorf("fetches = %d, want 1 after a tick", h.source.Fetches())
	}
	report, ok := h.engine.LastReport()
	if !ok || report.Mode != monitor.ModeBroadcast {
		t.Errorf("last report = %+v, want a broadcast cycle", report)
	}
	if sent := h.recorder.Sent(); len(sent) != 1 || sent[0].Target != nil {
		t.Errorf("sent = %+v, want one broadcast", sent)
	}
}

func TestEngine_StopDoesNotFire(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08")
	h.engine.Start()
	h.engine.Stop()

	if h.ticker.Fire() {
		t.Error("a stopped engine must not run scheduled cycles")
	}
}

func TestEngine_BroadcastDedupOncePerDay(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))

	first := h.broadcast()
	second := h.broadcast()
	third := h.broadcast()

	if got := len(h.recorder.Titled("CRITICAL ALERT")); got != 1 {
		t.Fatalf("SLA alerts = %d, want 1 in one day", got)
	}
	if o, _ := first.Outcome("1"); o.Status != monitor.StatusAlerted {
		t.Errorf("first outcome = %+v, want alerted", o)
	}
	for _, r := range []monitor.CycleReport{second, third} {
		o, _ := r.Outcome("1")
		if o.Status != monitor.StatusSkipped || o.Reason != monitor.ReasonAlreadyAlerted {
			t.Errorf("repeat outcome = %+v, want skipped/already-alerted", o)
		}
	}

	h.clock.addDays(1)
	h.broadcast()
	if got := len(h.recorder.Titled("CRITICAL ALERT")); got != 2 {
		t.Errorf("SLA alerts = %d, want a fresh alert the next day", got)
	}
}

func TestEngine_EscalationMonotonicity(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-09-2025", "Medium"))

	r := h.broadcast()
	h.broadcast()
	h.broadcast()

	esc := h.source.Escalations()
	if len(esc) != 1 {
		t.Fatalf("escalations = %d, want 1", len(esc))
	}
	if esc[0].TaskID != "1" || esc[0].Priority != tracker.PriorityHigh {
		t.Errorf("escalation = %+v", esc[0])
	}
	o, _ := r.Outcome("1")
	if !o.Escalated || o.EscalationFailed {
		t.Errorf("outcome = %+v, want a successful escalation", o)
	}
	sla := h.recorder.Titled("CRITICAL ALERT")
	if len(sla) != 1 || !strings.Contains(sla[0].Payload.Text, "**Priority:** High") {
		t.Errorf("alert should describe the task as High: %+v", sla)
	}

	// A fresh memory still sees the task as High and does not escalate again.
	e2, err := monitor.New(monitor.Options{
		Source:   h.source,
		Notifier: h.recorder,
		Ticker:   &monitortest.ManualTicker{},
		Location: time.UTC,
		Now:      h.clock.Now,
	})
	if err != nil {
		t.Fatal(err)
	}
	e2.RunCycle(context.Background(), nil)
	if len(h.source.Escalations()) != 1 {
		t.Errorf("escalations = %d, want no repeat for a High task", len(h.source.Escalations()))
	}
}

func TestEngine_EscalationFailureKeepsPriority(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "Low"))
	h.source.SetEscalateErr(errors.New("api down"))

	r := h.broadcast()

	o, _ := r.Outcome("1")
	if o.Status != monitor.StatusAlerted || !o.EscalationFailed {
		t.Errorf("outcome = %+v, want alerted with failed escalation", o)
	}
	sla := h.recorder.Titled("CRITICAL ALERT")
	if len(sla) != 1 || !strings.Contains(sla[0].Payload.Text, "**Priority:** Low") {
		t.Errorf("alert should keep the original priority: %+v", sla)
	}
}

func TestEngine_UnicastBypassesDedup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "Medium"))
	h.broadcast()
	h.recorder.Reset()

	target := registry.Recipient{UserID: "new", WebhookURL: "https://hook/new"}
	r := h.engine.RunCycle(context.Background(), &target)

	if r.Mode != monitor.ModeUnicast || r.Target != "new" {
		t.Errorf("report mode/target = %s/%s", r.Mode, r.Target)
	}
	sent := h.recorder.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	if sent[0].Target == nil || sent[0].Target.UserID != "new" {
		t.Errorf("unicast alert target = %+v", sent[0].Target)
	}
	if len(h.source.Escalations()) != 1 {
		t.Errorf("unicast cycles must not escalate, escalations = %d", len(h.source.Escalations()))
	}
}

func TestEngine_UnicastLeavesMemoryAlone(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))
	h.broadcast()
	before := h.engine.Memory().Stats()

	closed := openTask("1", "12-08-2025", "High")
	closed.Status = "Closed"
	h.source.SetTasks(closed, openTask("2", "12-20-2025", "High"))

	target := registry.Recipient{UserID: "u", WebhookURL: "https://hook/u"}
	r := h.engine.RunCycle(context.Background(), &target)

	if got := h.engine.Memory().Stats(); got != before {
		t.Errorf("memory = %+v, want unchanged %+v", got, before)
	}
	if o, _ := r.Outcome("1"); o.Reason != monitor.ReasonClosed {
		t.Errorf("closed task outcome = %+v", o)
	}
}

func TestEngine_CleanupOnClose(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))
	h.broadcast()
	if got := h.engine.Memory().Stats(); got.Alerted != 1 || got.DueDates != 1 {
		t.Fatalf("memory after alert = %+v", got)
	}

	closed := openTask("1", "12-08-2025", "High")
	closed.Status = "Closed"
	h.source.SetTasks(closed)
	r := h.broadcast()

	if got := h.engine.Memory().Stats(); got != (monitor.MemoryStats{}) {
		t.Errorf("memory after close = %+v, want empty", got)
	}
	if o, _ := r.Outcome("1"); o.Status != monitor.StatusSkipped || o.Reason != monitor.ReasonClosed {
		t.Errorf("outcome = %+v", o)
	}

	// Reopened with a different date: no schedule change, fresh SLA alert.
	h.recorder.Reset()
	h.source.SetTasks(openTask("1", "12-09-2025", "High"))
	h.broadcast()

	if got := len(h.recorder.Titled("SCHEDULE UPDATE")); got != 0 {
		t.Errorf("schedule alerts = %d, want 0 for a reopened task", got)
	}
	if got := len(h.recorder.Titled("CRITICAL ALERT")); got != 1 {
		t.Errorf("SLA alerts = %d, want 1", got)
	}
}

func TestEngine_ScheduleChangeDirection(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-01", openTask("1", "12-10-2025", "High"))

	h.broadcast()
	if got := len(h.recorder.Sent()); got != 0 {
		t.Fatalf("first sighting sent %d alerts, want 0", got)
	}
	if d, ok := h.engine.Memory().LastDueDate("1"); !ok || d.String() != "2025-12-10" {
		t.Fatalf("last due = %v, %v", d, ok)
	}

	h.source.SetTasks(openTask("1", "12-05-2025", "High"))
	r := h.broadcast()

	changes := h.recorder.Titled("SCHEDULE UPDATE")
	if len(changes) != 1 {
		t.Fatalf("schedule alerts = %d, want 1", len(changes))
	}
	p := changes[0].Payload
	if !strings.Contains(p.Text, "PREPONED") || p.Card.Theme != message.ThemePrompt {
		t.Errorf("preponed payload = %+v", p)
	}
	if !strings.Contains(p.Text, "2025-12-10") || !strings.Contains(p.Text, "2025-12-05") {
		t.Errorf("payload should show both dates: %q", p.Text)
	}
	if o, _ := r.Outcome("1"); o.Change != monitor.ChangePreponed {
		t.Errorf("outcome change = %q", o.Change)
	}

	h.recorder.Reset()
	h.source.SetTasks(openTask("1", "12-15-2025", "High"))
	h.broadcast()

	changes = h.recorder.Titled("SCHEDULE UPDATE")
	if len(changes) != 1 {
		t.Fatalf("schedule alerts = %d, want 1", len(changes))
	}
	p = changes[0].Payload
	if !strings.Contains(p.Text, "POSTPONED") || p.Card.Theme != message.ThemeInline {
		t.Errorf("postponed payload = %+v", p)
	}

	h.recorder.Reset()
	h.broadcast()
	if got := len(h.recorder.Sent()); got != 0 {
		t.Errorf("unchanged date sent %d alerts, want 0", got)
	}
}

func TestEngine_ClearedDueDateStartsOver(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-01", openTask("1", "12-10-2025", "High"))
	h.broadcast()

	h.source.SetTasks(openTask("1", "", "High"))
	h.broadcast()
	if d, ok := h.engine.Memory().LastDueDate("1"); ok {
		t.Fatalf("due date %s kept after it was cleared", d)
	}

	h.source.SetTasks(openTask("1", "12-20-2025", "High"))
	h.broadcast()
	if got := len(h.recorder.Titled("SCHEDULE UPDATE")); got != 0 {
		t.Errorf("schedule alerts = %d, want 0 for a newly dated task", got)
	}
	if d, ok := h.engine.Memory().LastDueDate("1"); !ok || d.String() != "2025-12-20" {
		t.Errorf("last due = %v, %v", d, ok)
	}
}

func TestEngine_ClearedDueDateKeepsDedup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))
	h.broadcast()

	h.source.SetTasks(openTask("1", "", "High"))
	h.broadcast()

	if !h.engine.Memory().AlertedOn("1", tracker.Date{Year: 2025, Month: 12, Day: 8}) {
		t.Error("clearing the due date dropped the alert record")
	}
}

func TestEngine_ScheduleChangeIgnoredOnUnicast(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-01", openTask("1", "12-10-2025", "High"))
	h.broadcast()

	h.source.SetTasks(openTask("1", "12-05-2025", "High"))
	target := registry.Recipient{UserID: "u", WebhookURL: "https://hook/u"}
	h.engine.RunCycle(context.Background(), &target)

	if got := len(h.recorder.Titled("SCHEDULE UPDATE")); got != 0 {
		t.Errorf("unicast emitted %d schedule alerts", got)
	}
	if d, _ := h.engine.Memory().LastDueDate("1"); d.String() != "2025-12-10" {
		t.Errorf("unicast overwrote the stored due date: %s", d)
	}
}

func TestEngine_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		due      string
		wantText string
	}{
		{"12-08-2025", "Due Today"},
		{"12-07-2025", "1 Days Overdue"},
		{"12-01-2025", "7 Days Overdue"},
		{"12-09-2025", "Due Tomorrow"},
		{"2025-12-09T18:00:00+05:30", "Due Tomorrow"},
		{"12-10-2025", ""},
	}

	for _, tt := range tests {
		t.Run(tt.due, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, "2025-12-08", openTask("1", tt.due, "High"))
			r := h.broadcast()
			o, _ := r.Outcome("1")

			if tt.wantText == "" {
				if o.Status != monitor.StatusClear {
					t.Errorf("outcome = %+v, want clear", o)
				}
				if len(h.recorder.Sent()) != 0 {
					t.Error("no alert expected")
				}
				return
			}
			if o.Status != monitor.StatusAlerted || o.TimeText != tt.wantText {
				t.Errorf("outcome = %+v, want alerted %q", o, tt.wantText)
			}
			sla := h.recorder.Titled("CRITICAL ALERT")
			if len(sla) != 1 || !strings.Contains(sla[0].Payload.Text, "**"+tt.wantText+"**") {
				t.Errorf("alert = %+v", sla)
			}
		})
	}
}

func TestEngine_TodayFollowsLocation(t *testing.T) {
	t.Parallel()

	src := trackertest.NewSource(openTask("1", "12-10-2025", "High"))
	rec := &monitortest.Recorder{}
	e, err := monitor.New(monitor.Options{
		Source:   src,
		Notifier: rec,
		Ticker:   &monitortest.ManualTicker{},
		Location: time.FixedZone("IST", 5*3600+1800),
		Now: func() time.Time {
			return time.Date(2025, 12, 8, 23, 30, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	r := e.RunCycle(context.Background(), nil)
	if r.Today != "2025-12-09" {
		t.Errorf("today = %s, want 2025-12-09", r.Today)
	}
	if o, _ := r.Outcome("1"); o.TimeText != "Due Tomorrow" {
		t.Errorf("outcome = %+v", o)
	}
}

func TestEngine_SkipReasons(t *testing.T) {
	t.Parallel()

	noStatus := openTask("b", "12-08-2025", "High")
	noStatus.Status = ""
	badDate := openTask("c", "2025/12/08", "High")
	noDate := openTask("d", "", "High")

	h := newHarness(t, "2025-12-08",
		openTask("", "12-08-2025", "High"),
		noStatus,
		badDate,
		noDate,
		openTask("e", "12-08-2025", "High"),
	)
	r := h.broadcast()

	if len(r.Outcomes) != 5 {
		t.Fatalf("outcomes = %d, want 5", len(r.Outcomes))
	}
	want := []struct {
		status monitor.OutcomeStatus
		reason monitor.SkipReason
	}{
		{monitor.StatusSkipped, monitor.ReasonMissingID},
		{monitor.StatusSkipped, monitor.ReasonMissingStatus},
		{monitor.StatusSkipped, monitor.ReasonInvalidDueDate},
		{monitor.StatusClear, ""},
		{monitor.StatusAlerted, ""},
	}
	for i, w := range want {
		o := r.Outcomes[i]
		if o.Status != w.status || o.Reason != w.reason {
			t.Errorf("outcome %d = %s/%s, want %s/%s", i, o.Status, o.Reason, w.status, w.reason)
		}
	}
	if _, ok := h.engine.Memory().LastDueDate("c"); ok {
		t.Error("an unparseable due date must not be recorded")
	}
}

func TestEngine_FetchFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))
	h.source.SetFetchErr(errors.New("unauthorized"))

	r := h.broadcast()

	if r.FetchError == "" || r.Fetched != 0 || len(r.Outcomes) != 0 {
		t.Errorf("report = %+v, want an empty cycle with the fetch error", r)
	}
	if len(h.recorder.Sent()) != 0 {
		t.Error("a failed fetch must not alert")
	}
	if got := h.engine.Memory().Stats(); got != (monitor.MemoryStats{}) {
		t.Errorf("memory = %+v, want untouched", got)
	}
}

// panicSource panics when asked to escalate task "boom".
type panicSource struct {
	*trackertest.Source
}

func (p panicSource) EscalatePriority(ctx context.Context, id, priority string) error {
	if id == "boom" {
		panic("unexpected response")
	}
	return p.Source.EscalatePriority(ctx, id, priority)
}

func TestEngine_PanicIsContainedToTask(t *testing.T) {
	t.Parallel()

	src := panicSource{trackertest.NewSource(
		openTask("boom", "12-08-2025", "Low"),
		openTask("ok", "12-08-2025", "Low"),
	)}
	rec := &monitortest.Recorder{}
	e, err := monitor.New(monitor.Options{
		Source:   src,
		Notifier: rec,
		Ticker:   &monitortest.ManualTicker{},
		Location: time.UTC,
		Now:      newClock("2025-12-08").Now,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := e.RunCycle(context.Background(), nil)

	if o, _ := r.Outcome("boom"); o.Status != monitor.StatusSkipped || o.Reason != monitor.ReasonPanic {
		t.Errorf("boom outcome = %+v", o)
	}
	if o, _ := r.Outcome("ok"); o.Status != monitor.StatusAlerted {
		t.Errorf("ok outcome = %+v", o)
	}
}

type countingObserver struct {
	mu      sync.Mutex
	reports []monitor.CycleReport
}

func (c *countingObserver) ObserveCycle(r monitor.CycleReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}

func TestEngine_ObserverSeesEveryCycle(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	e, err := monitor.New(monitor.Options{
		Source:   trackertest.NewSource(openTask("1", "12-08-2025", "High")),
		Notifier: &monitortest.Recorder{},
		Ticker:   &monitortest.ManualTicker{},
		Location: time.UTC,
		Now:      newClock("2025-12-08").Now,
		Observer: obs,
	})
	if err != nil {
		t.Fatal(err)
	}

	e.RunCycle(context.Background(), nil)
	e.RunCycle(context.Background(), &registry.Recipient{UserID: "u"})

	if len(obs.reports) != 2 {
		t.Fatalf("observed %d cycles, want 2", len(obs.reports))
	}
	if obs.reports[0].ID == obs.reports[1].ID {
		t.Error("cycle IDs should be unique")
	}
	if err := e.Wait(context.Background()); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestEngine_WaitRefusesNewCycles(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "2025-12-08", openTask("1", "12-08-2025", "High"))
	if err := h.engine.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	r := h.engine.RunCycle(context.Background(), &registry.Recipient{UserID: "u", WebhookURL: "https://hook/u"})
	if r.FetchError != monitor.ErrDraining.Error() {
		t.Errorf("FetchError = %q, want %q", r.FetchError, monitor.ErrDraining)
	}
	if h.source.Fetches() != 0 {
		t.Errorf("fetches = %d, want 0", h.source.Fetches())
	}
	if got := len(h.recorder.Sent()); got != 0 {
		t.Errorf("sent %d alerts after Wait", got)
	}
	if _, ok := h.engine.LastReport(); ok {
		t.Error("refused cycle should not become the last report")
	}
}
