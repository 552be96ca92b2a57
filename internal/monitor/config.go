package monitor

import (
	"errors"
	"fmt"
	"time"
)

// DefaultInterval is the period between scheduled cycles.
const DefaultInterval = 5 * time.Minute

// Config is the monitor section of the configuration file.
type Config struct {
	Interval time.Duration `yaml:"interval"`
	// Timezone is an IANA zone name used to decide what "today" is.
	// Empty or "Local" uses the host zone.
	Timezone string `yaml:"timezone"`
	// AutoStart arms the scheduler at process start instead of waiting for
	// the first StartMonitor command.
	AutoStart bool `yaml:"auto_start"`
}

// Defaults fills zero values.
func (c *Config) Defaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Validate checks the interval and zone name.
func (c *Config) Validate() error {
	var errs []error
	if c.Interval < time.Second {
		errs = append(errs, fmt.Errorf("monitor: interval must be at least 1s, got %s", c.Interval))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("monitor: unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
