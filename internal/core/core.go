// Package core runs the process lifecycle: named components are validated,
// started in order and stopped in reverse order on shutdown.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds the whole Stop sequence.
const DefaultShutdownTimeout = 30 * time.Second

// ErrDuplicateComponent is returned by Add when a name is reused.
var ErrDuplicateComponent = errors.New("core: duplicate component")

// App manages the lifecycle of a set of components. A component is any
// value; it takes part in the phases whose interface it implements.
type App struct {
	components      []component
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

type component struct {
	name    string
	value   any
	started bool
}

// NewApp creates an empty App.
func NewApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:          logger.With("component", "core"),
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// SetShutdownTimeout overrides DefaultShutdownTimeout.
func (a *App) SetShutdownTimeout(d time.Duration) {
	if d > 0 {
		a.shutdownTimeout = d
	}
}

// Add registers a component under name. Order of Add is the start order.
func (a *App) Add(name string, value any) error {
	for _, c := range a.components {
		if c.name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateComponent, name)
		}
	}
	a.components = append(a.components, component{name: name, value: value})
	return nil
}

// Names returns the registered component names in start order.
func (a *App) Names() []string {
	names := make([]string, len(a.components))
	for i, c := range a.components {
		names[i] = c.name
	}
	return names
}

// Validate runs Validate on every component implementing Validator and
// returns all failures joined.
func (a *App) Validate() error {
	var errs []error
	for _, c := range a.components {
		if v, ok := c.value.(Validator); ok {
			if err := v.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("validating %s: %w", c.name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Start starts all components that implement Starter, in order.
// If any Start() fails, already-started components are stopped in reverse
// order.
func (a *App) Start() error {
	for i := range a.components {
		c := &a.components[i]
		s, ok := c.value.(Starter)
		if !ok {
			c.started = true
			continue
		}
		a.logger.Info("core: starting component", "name", c.name)
		if err := s.Start(); err != nil {
			a.logger.Error("core: component start failed", "name", c.name, "error", err)
			a.stopFrom(i - 1)
			return fmt.Errorf("starting %s: %w", c.name, err)
		}
		c.started = true
	}
	a.logger.Info("core: all components started")
	return nil
}

// Stop stops all started components in reverse order within the shutdown
// timeout. Stop errors are logged and joined.
func (a *App) Stop() error {
	return a.stopFrom(len(a.components) - 1)
}

func (a *App) stopFrom(index int) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := index; i >= 0; i-- {
		c := &a.components[i]
		if !c.started {
			continue
		}
		c.started = false
		s, ok := c.value.(Stopper)
		if !ok {
			continue
		}
		a.logger.Info("core: stopping component", "name", c.name)
		if err := s.Stop(ctx); err != nil {
			a.logger.Error("core: component stop error", "name", c.name, "error", err)
			errs = append(errs, fmt.Errorf("stopping %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

// Run starts all components and blocks until ctx is done or a shutdown
// signal is received, then stops them.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	<-ctx.Done()
	a.logger.Info("core: shutdown requested", "cause", context.Cause(ctx))

	err := a.Stop()
	a.logger.Info("core: shutdown complete")
	return err
}
