// Package wizard implements the interactive "deadlineguard init" form and
// renders its answers as a configuration file.
package wizard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"
)

// Environment variables referenced by the generated file for secrets.
const (
	EnvClientSecret = "DEADLINEGUARD_CLIENT_SECRET"
	EnvRefreshToken = "DEADLINEGUARD_REFRESH_TOKEN"
	EnvAdminToken   = "DEADLINEGUARD_ADMIN_TOKEN"
)

// ErrExists is returned by Write when the target exists and overwrite is off.
var ErrExists = errors.New("wizard: file already exists")

// Answers holds the values collected by the form.
type Answers struct {
	PortalID    string
	ProjectID   string
	ProjectName string
	ClientID    string
	DataCenter  string // com, eu, in, com.au, jp
	Interval    string
	Timezone    string
	Bind        string
	AutoStart   bool
	Metrics     bool
	AdminAPI    bool
}

// Defaults returns the pre-filled answers.
func Defaults() Answers {
	return Answers{
		DataCenter: "com",
		Interval:   "5m",
		Timezone:   "Local",
		Bind:       "127.0.0.1:8080",
		Metrics:    true,
	}
}

// Form builds the interactive form bound to a.
func Form(a *Answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("DeadlineGuard setup").
				Description("Connects to one Zoho Projects project. Secrets are read from\n"+
					EnvClientSecret+" and "+EnvRefreshToken+" at start."),
			huh.NewSelect[string]().
				Title("Zoho data center").
				Options(
					huh.NewOption("zoho.com", "com"),
					huh.NewOption("zoho.eu", "eu"),
					huh.NewOption("zoho.in", "in"),
					huh.NewOption("zoho.com.au", "com.au"),
					huh.NewOption("zoho.jp", "jp"),
				).
				Value(&a.DataCenter),
			huh.NewInput().Title("Portal ID").Value(&a.PortalID).Validate(required("portal id")),
			huh.NewInput().Title("Project ID").Value(&a.ProjectID).Validate(required("project id")),
			huh.NewInput().Title("Project display name").Placeholder("defaults to the project id").Value(&a.ProjectName),
			huh.NewInput().Title("OAuth client ID").Value(&a.ClientID).Validate(required("client id")),
		),
		huh.NewGroup(
			huh.NewInput().Title("Scan interval").Value(&a.Interval).Validate(validInterval),
			huh.NewInput().Title("Timezone").Description("IANA name, or Local").Value(&a.Timezone).Validate(validZone),
			huh.NewConfirm().Title("Start monitoring at boot?").Value(&a.AutoStart),
		),
		huh.NewGroup(
			huh.NewInput().Title("HTTP bind address").Value(&a.Bind).Validate(required("bind address")),
			huh.NewConfirm().Title("Expose Prometheus metrics?").Value(&a.Metrics),
			huh.NewConfirm().Title("Enable the admin API?").
				Description("Protected by the bearer token in "+EnvAdminToken+".").
				Value(&a.AdminAPI),
		),
	)
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func validInterval(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a duration: %q", s)
	}
	if d < time.Second {
		return errors.New("interval must be at least 1s")
	}
	return nil
}

func validZone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

type fileDoc struct {
	Version   string        `yaml:"version"`
	Tracker   trackerDoc    `yaml:"tracker"`
	Monitor   monitorDoc    `yaml:"monitor"`
	Gateway   gatewayDoc    `yaml:"gateway"`
	Telemetry *telemetryDoc `yaml:"telemetry,omitempty"`
}

type trackerDoc struct {
	AccountsURL  string `yaml:"accounts_url"`
	APIURL       string `yaml:"api_url"`
	PortalID     string `yaml:"portal_id"`
	ProjectID    string `yaml:"project_id"`
	ProjectName  string `yaml:"project_name,omitempty"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
}

type monitorDoc struct {
	Interval  string `yaml:"interval"`
	Timezone  string `yaml:"timezone"`
	AutoStart bool   `yaml:"auto_start"`
}

type gatewayDoc struct {
	Bind string   `yaml:"bind"`
	Auth *authDoc `yaml:"auth,omitempty"`
}

type authDoc struct {
	BearerToken string `yaml:"bearer_token"`
}

type telemetryDoc struct {
	Metrics bool `yaml:"metrics"`
}

// Render returns the configuration file for a. Secrets are written as
// environment references, never as values.
func Render(a Answers) ([]byte, error) {
	for _, check := range []error{
		required("portal id")(a.PortalID),
		required("project id")(a.ProjectID),
		required("client id")(a.ClientID),
		validInterval(a.Interval),
		validZone(a.Timezone),
	} {
		if check != nil {
			return nil, fmt.Errorf("wizard: %w", check)
		}
	}

	dc := a.DataCenter
	if dc == "" {
		dc = "com"
	}
	doc := fileDoc{
		Version: "1",
		Tracker: trackerDoc{
			AccountsURL:  "https://accounts.zoho." + dc,
			APIURL:       "https://projectsapi.zoho." + dc,
			PortalID:     strings.TrimSpace(a.PortalID),
			ProjectID:    strings.TrimSpace(a.ProjectID),
			ProjectName:  strings.TrimSpace(a.ProjectName),
			ClientID:     strings.TrimSpace(a.ClientID),
			ClientSecret: envRef(EnvClientSecret),
			RefreshToken: envRef(EnvRefreshToken),
		},
		Monitor: monitorDoc{
			Interval:  strings.TrimSpace(a.Interval),
			Timezone:  strings.TrimSpace(a.Timezone),
			AutoStart: a.AutoStart,
		},
		Gateway: gatewayDoc{Bind: strings.TrimSpace(a.Bind)},
	}
	if a.AdminAPI {
		doc.Gateway.Auth = &authDoc{BearerToken: envRef(EnvAdminToken)}
	}
	if a.Metrics {
		doc.Telemetry = &telemetryDoc{Metrics: true}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("wizard: encode: %w", err)
	}
	header := "# Generated by deadlineguard init.\n" +
		"# Export " + EnvClientSecret + " and " + EnvRefreshToken + " before starting.\n"
	return append([]byte(header), out...), nil
}

func envRef(name string) string {
	return "${" + name + "}"
}

// Write renders a and writes it to path with 0600 permissions, creating
// parent directories. An existing file is kept unless overwrite is set.
func Write(path string, a Answers, overwrite bool) error {
	data, err := Render(a)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("wizard: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("wizard: write %s: %w", path, err)
	}
	return nil
}

// Summary describes what Write produced, for the CLI to print.
func Summary(path string, a Answers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wrote %s\n", path)
	fmt.Fprintf(&b, "  project:  %s (%s)\n", a.ProjectID, a.DataCenter)
	fmt.Fprintf(&b, "  interval: %s, auto start: %s\n", a.Interval, strconv.FormatBool(a.AutoStart))
	fmt.Fprintf(&b, "Set %s and %s", EnvClientSecret, EnvRefreshToken)
	if a.AdminAPI {
		fmt.Fprintf(&b, " and %s", EnvAdminToken)
	}
	b.WriteString(", then run: deadlineguard start --config " + path + "\n")
	return b.String()
}
