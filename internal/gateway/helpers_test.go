package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/deadlineguard/internal/bot"
	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/internal/security"
	"github.com/flemzord/deadlineguard/pkg/message"
)

type fakeMonitor struct {
	mu      sync.Mutex
	running bool
	scans   int
	last    *monitor.CycleReport
}

func (m *fakeMonitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	return true
}

func (m *fakeMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

func (m *fakeMonitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *fakeMonitor) RunCycle(_ context.Context, target *registry.Recipient) monitor.CycleReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	r := monitor.CycleReport{ID: "cycle-1", Mode: monitor.ModeBroadcast, Fetched: 2}
	if target != nil {
		r.Mode = monitor.ModeUnicast
	}
	m.last = &r
	return r
}

func (m *fakeMonitor) LastReport() (monitor.CycleReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return monitor.CycleReport{}, false
	}
	return *m.last, true
}

func (m *fakeMonitor) setLast(r monitor.CycleReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &r
}

type fakeBot struct {
	mu         sync.Mutex
	dispatched []bot.Event
	done       chan struct{}
}

func newFakeBot() *fakeBot { return &fakeBot{done: make(chan struct{}, 8)} }

func (b *fakeBot) Handle(_ context.Context, ev bot.Event) (message.Payload, bool) {
	if ev.Handler.Type == bot.HandlerMessage {
		return message.Payload{}, false
	}
	return message.Text("hello " + ev.Command()), true
}

func (b *fakeBot) Dispatch(_ context.Context, ev bot.Event) error {
	b.mu.Lock()
	b.dispatched = append(b.dispatched, ev)
	b.mu.Unlock()
	b.done <- struct{}{}
	return nil
}

func (b *fakeBot) waitDispatch(t *testing.T) {
	t.Helper()
	select {
	case <-b.done:
	case <-time.After(2 * time.Second):
		t.Fatal("bot was not dispatched")
	}
}

type fixture struct {
	gw      *Gateway
	monitor *fakeMonitor
	reg     *registry.Registry
	bot     *fakeBot
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		monitor: &fakeMonitor{},
		reg:     registry.New(),
		bot:     newFakeBot(),
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("deadlineguard_cycles_total 0\n"))
	})
	gw, err := New(cfg, Deps{
		Monitor:      f.monitor,
		Recipients:   f.reg,
		Bot:          f.bot,
		Metrics:      metrics,
		ResponseURLs: security.NewURLFilter(security.URLFilterConfig{}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.gw = gw
	return f
}

func (f *fixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.gw.Handler().ServeHTTP(rr, req)
	return rr
}

var bearer = map[string]string{"Authorization": "Bearer admin-token"}

func authed() Config {
	return Config{Auth: AuthConfig{BearerToken: "admin-token"}}
}
