// Package config handles YAML configuration loading, environment variable
// expansion, defaults and validation for deadlineguard.
package config

import (
	"time"

	"github.com/flemzord/deadlineguard/internal/gateway"
	"github.com/flemzord/deadlineguard/internal/monitor"
	"github.com/flemzord/deadlineguard/internal/security"
	"github.com/flemzord/deadlineguard/internal/telemetry"
	"github.com/flemzord/deadlineguard/internal/tracker"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log       LogConfig       `yaml:"log"`
	Tracker   tracker.Config  `yaml:"tracker"`
	Monitor   monitor.Config  `yaml:"monitor"`
	Notify    NotifyConfig    `yaml:"notify"`
	Bot       BotConfig       `yaml:"bot"`
	Gateway   gateway.Config  `yaml:"gateway"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LogConfig selects the root log handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// NotifyConfig configures outbound webhook delivery.
type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// BotConfig configures the chat command layer.
type BotConfig struct {
	// Webhooks restricts which URLs /setup accepts.
	Webhooks security.URLFilterConfig `yaml:"webhooks"`
	// CommandsPerMinute caps commands per user. Unset means 20; a negative
	// value disables the limit.
	CommandsPerMinute int `yaml:"commands_per_minute"`
}

// TelemetryConfig toggles metrics and tracing.
type TelemetryConfig struct {
	Metrics bool                    `yaml:"metrics"`
	Tracing telemetry.TracingConfig `yaml:"tracing"`
}

// Defaults fills zero values in every section.
func (c *Config) Defaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	c.Tracker.Defaults()
	c.Monitor.Defaults()
	if c.Notify.Timeout <= 0 {
		c.Notify.Timeout = 10 * time.Second
	}
	if c.Bot.CommandsPerMinute == 0 {
		c.Bot.CommandsPerMinute = 20
	}
	c.Gateway.Defaults()
}
