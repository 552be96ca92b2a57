package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/flemzord/deadlineguard/internal/bot"
	"github.com/flemzord/deadlineguard/internal/config"
	"github.com/flemzord/deadlineguard/internal/core"
	"github.com/flemzord/deadlineguard/internal/gateway"
	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/notify"
	"github.com/flemzord/deadlineguard/internal/registry"
	"github.com/flemzord/deadlineguard/internal/security"
	"github.com/flemzord/deadlineguard/internal/telemetry"
	"github.com/flemzord/deadlineguard/internal/tracker"
)

// pruneInterval is how often idle rate-limit buckets are dropped.
const pruneInterval = 10 * time.Minute

// Services is the wired object graph of a running process.
type Services struct {
	Tracker  *tracker.Client
	Registry *registry.Registry
	Notifier *notify.Notifier
	Engine   *monitor.Engine
	Bot      *bot.Bot
	Gateway  *gateway.Gateway
	Metrics  *telemetry.Metrics
	Tracing  *telemetry.Tracing
	Limiter  *security.RateLimiter
}

// NewRedactor returns a redactor that also masks the literal secrets of cfg.
func NewRedactor(cfg *config.Config) *security.Redactor {
	r := security.NewRedactor()
	r.AddLiteral(cfg.Tracker.Secrets()...)
	r.AddLiteral(cfg.Gateway.Auth.Secrets()...)
	r.AddLiteral(cfg.Gateway.BotSecret)
	return r
}

// Build wires every component from cfg. ctx bounds tracing setup and token
// refreshes and should live as long as the process.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Services, error) {
	loc, err := cfg.Monitor.Location()
	if err != nil {
		return nil, err
	}

	tracing, err := telemetry.StartTracing(ctx, cfg.Telemetry.Tracing, version)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Tracker:  tracker.NewClient(ctx, cfg.Tracker, logger.With("component", "tracker")),
		Registry: registry.New(),
		Tracing:  tracing,
	}
	s.Notifier = notify.New(s.Registry, notify.NewWebhookPoster(cfg.Notify.Timeout), logger)

	var observer monitor.CycleObserver
	if cfg.Telemetry.Metrics {
		s.Metrics = telemetry.NewMetrics()
		s.Metrics.WatchRecipients(s.Registry.Len)
		observer = s.Metrics
	}

	s.Engine, err = monitor.New(monitor.Options{
		Source:   s.Tracker,
		Notifier: s.Notifier,
		Location: loc,
		Observer: observer,
		Interval: cfg.Monitor.Interval,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Bot.CommandsPerMinute > 0 {
		s.Limiter = security.NewRateLimiter(cfg.Bot.CommandsPerMinute, time.Minute)
	}

	webhooks := security.NewURLFilter(cfg.Bot.Webhooks)
	botOpts := bot.Options{
		Tracker:    s.Tracker,
		Monitor:    s.Engine,
		Recipients: s.Registry,
		Poster:     notify.NewWebhookPoster(cfg.Notify.Timeout),
		URLs:       webhooks,
		Location:   loc,
		Interval:   cfg.Monitor.Interval,
		Logger:     logger,
	}
	if s.Limiter != nil {
		botOpts.Limiter = s.Limiter
	}
	if s.Metrics != nil {
		botOpts.Observer = s.Metrics
	}
	s.Bot, err = bot.New(botOpts)
	if err != nil {
		return nil, err
	}

	deps := gateway.Deps{
		Monitor:      s.Engine,
		Recipients:   s.Registry,
		Bot:          s.Bot,
		ResponseURLs: webhooks,
		Logger:       logger,
	}
	if s.Metrics != nil {
		deps.Metrics = s.Metrics.Handler()
	}
	if s.Limiter != nil {
		deps.Limiter = s.Limiter
	}
	s.Gateway, err = gateway.New(cfg.Gateway, deps)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Register adds the lifecycle components to app in start order: tracing,
// the monitor engine, the limiter pruner, then the gateway.
func (s *Services) Register(app *core.App, autoStart bool, logger *slog.Logger) error {
	type named struct {
		name  string
		value any
	}
	components := []named{
		{"telemetry.tracing", s.Tracing},
		{"monitor", &engineComponent{engine: s.Engine, autoStart: autoStart}},
	}
	if s.Limiter != nil {
		pruner := &prunerComponent{limiter: s.Limiter, ticker: monitor.NewCronTicker(pruneInterval, logger)}
		components = append(components, named{"security.ratelimit", pruner})
	}
	components = append(components, named{"gateway", s.Gateway})

	for _, c := range components {
		if err := app.Add(c.name, c.value); err != nil {
			return fmt.Errorf("app: register %s: %w", c.name, err)
		}
	}
	return nil
}

// engineComponent adapts the engine to the core lifecycle. On Stop it
// cancels the schedule and waits for an in-flight cycle.
type engineComponent struct {
	engine    *monitor.Engine
	autoStart bool
}

func (c *engineComponent) Start() error {
	if c.autoStart {
		c.engine.Start()
	}
	return nil
}

func (c *engineComponent) Stop(ctx context.Context) error {
	c.engine.Stop()
	return c.engine.Wait(ctx)
}

// prunerComponent periodically drops idle rate-limit buckets.
type prunerComponent struct {
	limiter *security.RateLimiter
	ticker  monitor.Ticker
}

func (c *prunerComponent) Start() error {
	return c.ticker.Arm(func() { c.limiter.Prune() })
}

func (c *prunerComponent) Stop(context.Context) error {
	c.ticker.Cancel()
	return nil
}

func newLogger(cfg *config.Config, w io.Writer, level slog.Level) *slog.Logger {
	return security.NewLogger(w, cfg.Log.Format, level, NewRedactor(cfg))
}
