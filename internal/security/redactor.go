// Package security keeps secrets out of logs, restricts where alerts may be
// posted and throttles chat commands.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|zapikey|credential)`)

// Redactor replaces secret values in strings and maps with a placeholder.
// Known token shapes are matched by pattern; credentials loaded from the
// configuration are matched literally. Safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: DefaultPatterns()}
}

// AddPattern adds a compiled regex pattern. The first capture group, if any,
// is kept in the output.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds secret values that are redacted wherever they appear.
// Values shorter than four characters are ignored to avoid mangling output.
func (r *Redactor) AddLiteral(secrets ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range secrets {
		if len(s) < 4 {
			continue
		}
		r.literals = append(r.literals, s)
	}
}

// Redact replaces all known secrets in s.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, "${1}"+RedactPlaceholder)
	}
	return s
}

// RedactMap walks m and replaces values under secret-looking keys, and any
// string containing a known secret. Used before printing configuration.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for i, item := range val {
				switch sub := item.(type) {
				case map[string]any:
					r.RedactMap(sub)
				case string:
					val[i] = r.Redact(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// DefaultPatterns returns patterns for Zoho OAuth tokens and the webhook
// key carried in Cliq incoming-webhook URLs.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Zoho access and refresh tokens: 1000.<hex>.<hex>
		regexp.MustCompile(`1000\.[a-f0-9]{16,}\.[a-f0-9]{16,}`),
		// Authorization header values.
		regexp.MustCompile(`Zoho-oauthtoken\s+\S+`),
		regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]{8,}=*`),
		// Cliq webhook keys and OAuth form fields in URLs or bodies.
		regexp.MustCompile(`(?i)((?:zapikey|refresh_token|client_secret|access_token)=)[^&\s"]+`),
	}
}
