// Package app provides the shared entry point used by the deadlineguard
// commands: configuration resolution, logger setup and component wiring.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/flemzord/deadlineguard/internal/config"
	"github.com/flemzord/deadlineguard/internal/core"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.Find is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer
}

// LoadConfig resolves, loads and validates the configuration file.
func LoadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		resolved, err := config.Find()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// NewLogger builds the redacting process logger described by cfg.Log.
func NewLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	return newLogger(cfg, w, level), nil
}

// Run loads configuration, starts all components, and blocks until ctx is
// done or a shutdown signal is received.
func Run(ctx context.Context, params RunParams) error {
	cfg, cfgPath, err := LoadConfig(params.ConfigPath)
	if err != nil {
		return err
	}

	logger, err := NewLogger(cfg, params.LogOutput)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("app: starting",
		"version", params.Version,
		"commit", params.Commit,
		"config", cfgPath,
		"project", cfg.Tracker.ProjectName,
		"interval", cfg.Monitor.Interval.String(),
	)

	services, err := Build(ctx, cfg, logger, params.Version)
	if err != nil {
		return err
	}

	application := core.NewApp(logger)
	application.SetShutdownTimeout(cfg.Gateway.ShutdownTimeout + cfg.Tracker.Timeout)
	if err := services.Register(application, cfg.Monitor.AutoStart, logger); err != nil {
		return err
	}
	if err := application.Validate(); err != nil {
		return err
	}
	return application.Run(ctx)
}
