// Package gateway provides the HTTP server: the Cliq bot endpoint, health,
// metrics and the authenticated admin API. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/deadlineguard/internal/bot"
	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/pkg/message"
)

// Monitor is the engine surface exposed by the admin API.
type Monitor interface {
	Start() bool
	Stop()
	IsRunning() bool
	RunCycle(ctx context.Context, target *registry.Recipient) monitor.CycleReport
	LastReport() (monitor.CycleReport, bool)
}

// Recipients is the subscriber store exposed by the admin API.
type Recipients interface {
	Snapshot() []registry.Recipient
	Unregister(userID string) bool
	Len() int
}

// Bot handles inbound Cliq events.
type Bot interface {
	Handle(ctx context.Context, ev bot.Event) (message.Payload, bool)
	Dispatch(ctx context.Context, ev bot.Event) error
}

// URLChecker validates outbound URLs supplied by callers.
type URLChecker interface {
	Check(rawURL string) error
}

// Deps are the collaborators served by the gateway. Monitor, Recipients and
// Bot are required; the rest are optional.
type Deps struct {
	Monitor    Monitor
	Recipients Recipients
	Bot        Bot
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
	// Limiter throttles admin auth attempts.
	Limiter Limiter
	// ResponseURLs restricts where bot replies may be posted.
	ResponseURLs URLChecker
	Logger  *slog.Logger
}

// Gateway is the HTTP gateway component.
type Gateway struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	server    *http.Server
	metrics   *Metrics
	startedAt time.Time
	handler   http.Handler

	// background tracks bot commands answered through response_url.
	background sync.WaitGroup
}

// New builds a Gateway. cfg defaults are applied.
func New(cfg Config, deps Deps) (*Gateway, error) {
	if deps.Monitor == nil || deps.Recipients == nil || deps.Bot == nil {
		return nil, errors.New("gateway: monitor, recipients and bot are required")
	}
	cfg.Defaults()
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	g := &Gateway{
		config:    cfg,
		deps:      deps,
		logger:    deps.Logger.With("component", "gateway"),
		metrics:   &Metrics{},
		startedAt: time.Now(),
	}
	g.handler = g.buildRouter()
	return g, nil
}

// Handler returns the routed HTTP handler.
func (g *Gateway) Handler() http.Handler { return g.handler }

// Metrics returns the gateway's event counters.
func (g *Gateway) Metrics() *Metrics { return g.metrics }

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	return g.config.Validate()
}

// Start implements core.Starter. It starts the HTTP server.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.handler,
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	go func() {
		g.logger.Info("gateway: listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway: serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout;
// background commands are awaited within the same budget.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway: shutting down")
	err := g.server.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		g.background.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		g.logger.Warn("gateway: background commands still running at shutdown")
	}
	return err
}
