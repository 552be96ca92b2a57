package security

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrURLBlocked is returned when a URL is denied by the filter.
var ErrURLBlocked = errors.New("security: url blocked")

// DefaultWebhookDomains are the Cliq data centres accepted for webhooks when
// no allow list is configured.
var DefaultWebhookDomains = []string{
	"cliq.zoho.com",
	"cliq.zoho.eu",
	"cliq.zoho.in",
	"cliq.zoho.com.au",
	"cliq.zoho.jp",
	"cliq.zoho.com.cn",
	"cliq.zohocloud.ca",
}

// URLFilterConfig holds the configuration for URL filtering.
type URLFilterConfig struct {
	// AllowDomains is the list of allowed domains; subdomains match.
	// Empty means DefaultWebhookDomains.
	AllowDomains []string `yaml:"allow_domains"`

	// DenyDomains take precedence over AllowDomains.
	DenyDomains []string `yaml:"deny_domains"`

	// AllowHTTP permits plain http URLs. Only meant for local testing.
	AllowHTTP bool `yaml:"allow_http"`
}

// URLFilter validates webhook URLs before they are registered: the scheme
// must be https and the host must be allowed.
type URLFilter struct {
	allow     []string
	deny      []string
	allowHTTP bool
}

// NewURLFilter creates a URL filter from cfg.
func NewURLFilter(cfg URLFilterConfig) *URLFilter {
	allowSrc := cfg.AllowDomains
	if len(allowSrc) == 0 {
		allowSrc = DefaultWebhookDomains
	}
	return &URLFilter{
		allow:     normalizeDomains(allowSrc),
		deny:      normalizeDomains(cfg.DenyDomains),
		allowHTTP: cfg.AllowHTTP,
	}
}

// Check returns nil if rawURL may receive alerts, or an error wrapping
// ErrURLBlocked.
func (f *URLFilter) Check(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: invalid url: %w", ErrURLBlocked, err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !f.allowHTTP {
			return fmt.Errorf("%w: https is required", ErrURLBlocked)
		}
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrURLBlocked, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: empty hostname", ErrURLBlocked)
	}
	for _, d := range f.deny {
		if matchDomain(host, d) {
			return fmt.Errorf("%w: %s (denied)", ErrURLBlocked, host)
		}
	}
	for _, a := range f.allow {
		if matchDomain(host, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (not in allow list)", ErrURLBlocked, host)
}

func normalizeDomains(in []string) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// matchDomain reports whether host is domain or one of its subdomains.
// "notexample.com" does not match "example.com".
func matchDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
