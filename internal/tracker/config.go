package tracker

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the Zoho Projects connection settings.
type Config struct {
	AccountsURL  string        `yaml:"accounts_url"`
	APIURL       string        `yaml:"api_url"`
	PortalID     string        `yaml:"portal_id"`
	ProjectID    string        `yaml:"project_id"`
	ProjectName  string        `yaml:"project_name"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RefreshToken string        `yaml:"refresh_token"`
	Timeout      time.Duration `yaml:"timeout"`
	// TokenEarlyExpiry refreshes the access token this long before it expires.
	TokenEarlyExpiry time.Duration `yaml:"token_early_expiry"`
}

// Defaults fills zero values.
func (c *Config) Defaults() {
	if c.AccountsURL == "" {
		c.AccountsURL = "https://accounts.zoho.com"
	}
	if c.APIURL == "" {
		c.APIURL = "https://projectsapi.zoho.com"
	}
	if c.ProjectName == "" {
		c.ProjectName = c.ProjectID
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.TokenEarlyExpiry <= 0 {
		c.TokenEarlyExpiry = 5 * time.Minute
	}
}

// Validate checks required fields and URL shapes.
func (c *Config) Validate() error {
	var errs []error
	required := []struct{ name, val string }{
		{"portal_id", c.PortalID},
		{"project_id", c.ProjectID},
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
		{"refresh_token", c.RefreshToken},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("tracker: %s is required", r.name))
		}
	}
	for _, u := range []struct{ name, val string }{
		{"accounts_url", c.AccountsURL},
		{"api_url", c.APIURL},
	} {
		parsed, err := url.Parse(u.val)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("tracker: %s must be a valid http/https URL, got %q", u.name, u.val))
		}
	}
	return errors.Join(errs...)
}

// Secrets returns the credential values that must never be logged.
func (c *Config) Secrets() []string {
	return []string{c.ClientSecret, c.RefreshToken}
}
