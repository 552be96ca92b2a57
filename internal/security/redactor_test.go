package security

import (
	"regexp"
	"testing"
)

func TestRedactor_DefaultPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "zoho refresh token",
			input: "token 1000.0123456789abcdef0123.fedcba9876543210fedc used",
			want:  "token " + RedactPlaceholder + " used",
		},
		{
			name:  "oauth header",
			input: "Authorization: Zoho-oauthtoken abc.def.ghi",
			want:  "Authorization: " + RedactPlaceholder,
		},
		{
			name:  "bearer header",
			input: "Authorization: Bearer abcdefgh12345==",
			want:  "Authorization: " + RedactPlaceholder,
		},
		{
			name:  "cliq webhook key",
			input: "post https://cliq.zoho.com/api/v2/bots/x/incoming?zapikey=1001.abc&x=1 failed",
			want:  "post https://cliq.zoho.com/api/v2/bots/x/incoming?zapikey=" + RedactPlaceholder + "&x=1 failed",
		},
		{
			name:  "form body",
			input: "refresh_token=r1&client_secret=s1&grant_type=refresh_token",
			want:  "refresh_token=" + RedactPlaceholder + "&client_secret=" + RedactPlaceholder + "&grant_type=refresh_token",
		},
		{
			name:  "no secrets",
			input: "monitor: cycle finished",
			want:  "monitor: cycle finished",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	r := NewRedactor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Redact(tt.input); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_Literals(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("my-client-secret", "", "ab")

	got := r.Redact("secret my-client-secret and ab stay")
	want := "secret " + RedactPlaceholder + " and ab stay"
	if got != want {
		t.Errorf("Redact = %q, want %q", got, want)
	}
}

func TestRedactor_AddPattern(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddPattern(regexp.MustCompile(`(portal=)\d+`))

	if got := r.Redact("portal=12345"); got != "portal="+RedactPlaceholder {
		t.Errorf("Redact = %q", got)
	}
}

func TestRedactor_RedactMap(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	m := map[string]any{
		"tracker": map[string]any{
			"client_id":     "visible",
			"client_secret": "hidden",
			"refresh_token": "hidden",
		},
		"hooks": []any{"https://cliq.zoho.com/x?zapikey=k1"},
		"name":  "deadlineguard",
	}

	r.RedactMap(m)

	tracker := m["tracker"].(map[string]any)
	if tracker["client_id"] != "visible" {
		t.Errorf("client_id = %v", tracker["client_id"])
	}
	if tracker["client_secret"] != RedactPlaceholder || tracker["refresh_token"] != RedactPlaceholder {
		t.Errorf("tracker = %v", tracker)
	}
	if hooks := m["hooks"].([]any); hooks[0] != "https://cliq.zoho.com/x?zapikey="+RedactPlaceholder {
		t.Errorf("hooks = %v", hooks)
	}
	if m["name"] != "deadlineguard" {
		t.Errorf("name = %v", m["name"])
	}
}
