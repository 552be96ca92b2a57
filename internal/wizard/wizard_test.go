package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/deadlineguard/internal/config"
)

func answers() Answers {
	a := Defaults()
	a.PortalID = "portal-1"
	a.ProjectID = "1001"
	a.ProjectName = "Apollo"
	a.ClientID = "1000.CLIENT"
	a.DataCenter = "eu"
	a.Interval = "2m"
	a.AdminAPI = true
	return a
}

func TestRender_LoadsAsValidConfig(t *testing.T) {
	t.Setenv(EnvClientSecret, "secret-value")
	t.Setenv(EnvRefreshToken, "refresh-value")
	t.Setenv(EnvAdminToken, "admin-value")

	path := filepath.Join(t.TempDir(), "deadlineguard.yaml")
	if err := Write(path, answers(), false); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "secret-value") {
		t.Error("secrets must not be written to the file")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Tracker.APIURL != "https://projectsapi.zoho.eu" {
		t.Errorf("api url = %q", cfg.Tracker.APIURL)
	}
	if cfg.Monitor.Interval != 2*time.Minute {
		t.Errorf("interval = %s", cfg.Monitor.Interval)
	}
	if cfg.Gateway.Auth.BearerToken != "admin-value" {
		t.Errorf("bearer token = %q", cfg.Gateway.Auth.BearerToken)
	}
	if !cfg.Telemetry.Metrics {
		t.Error("metrics should be enabled")
	}
}

func TestRender_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Answers)
	}{
		{"no portal", func(a *Answers) { a.PortalID = " " }},
		{"bad interval", func(a *Answers) { a.Interval = "soon" }},
		{"short interval", func(a *Answers) { a.Interval = "10ms" }},
		{"bad zone", func(a *Answers) { a.Timezone = "Nowhere/Town" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := answers()
			tt.mutate(&a)
			if _, err := Render(a); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWrite_KeepsExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deadlineguard.yaml")
	if err := os.WriteFile(path, []byte("keep"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, answers(), false); !errors.Is(err, ErrExists) {
		t.Fatalf("err = %v, want ErrExists", err)
	}
	if err := Write(path, answers(), true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	s := Summary("/tmp/dg.yaml", answers())
	for _, want := range []string{"/tmp/dg.yaml", EnvAdminToken, "deadlineguard start"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestForm_Builds(t *testing.T) {
	t.Parallel()

	a := Defaults()
	if Form(&a) == nil {
		t.Fatal("nil form")
	}
}
