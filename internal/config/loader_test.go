package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("DG_TEST_SECRET", "s3cret")

	path := writeFile(t, t.TempDir(), "deadlineguard.yaml", `
version: "1"
tracker:
  portal_id: p
  project_id: "42"
  client_id: c
  client_secret: ${DG_TEST_SECRET}
  refresh_token: ${DG_TEST_MISSING:-fallback}
monitor:
  interval: 2m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracker.ClientSecret != "s3cret" {
		t.Errorf("client_secret = %q", cfg.Tracker.ClientSecret)
	}
	if cfg.Tracker.RefreshToken != "fallback" {
		t.Errorf("refresh_token = %q", cfg.Tracker.RefreshToken)
	}
	if cfg.Monitor.Interval != 2*time.Minute {
		t.Errorf("interval = %s", cfg.Monitor.Interval)
	}
	if cfg.Tracker.ProjectName != "42" {
		t.Errorf("project name should default to the id, got %q", cfg.Tracker.ProjectName)
	}
	if cfg.Log.Format != "text" || cfg.Notify.Timeout != 10*time.Second {
		t.Errorf("defaults not applied: %+v %+v", cfg.Log, cfg.Notify)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.yaml", "version: ${DG_TEST_NOPE_UNSET}\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "DG_TEST_NOPE_UNSET") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestFind_PrefersXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	want := writeFile(t, dir, filepath.Join("deadlineguard", FileName), "version: \"1\"\n")

	got, err := Find()
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestFind_NotFound(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if _, err := Find(); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
