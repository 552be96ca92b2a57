package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{Version: "1"}
	cfg.Tracker.PortalID = "portal"
	cfg.Tracker.ProjectID = "project"
	cfg.Tracker.ClientID = "id"
	cfg.Tracker.ClientSecret = "secret"
	cfg.Tracker.RefreshToken = "refresh"
	cfg.Defaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing version", func(c *Config) { c.Version = "" }, "version field is required"},
		{"unsupported version", func(c *Config) { c.Version = "99" }, "unsupported"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"tracker", func(c *Config) { c.Tracker.PortalID = "" }, "portal_id"},
		{"monitor", func(c *Config) { c.Monitor.Timezone = "Mars/Olympus" }, "timezone"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 }, "sample_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"version", "portal_id", "refresh_token"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}
