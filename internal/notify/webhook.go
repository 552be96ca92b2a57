package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrEmptyURL is returned when a post targets an empty webhook URL.
var ErrEmptyURL = errors.New("notify: empty webhook url")

// maxResponseBody caps how much of a webhook response is read.
const maxResponseBody = 64 << 10

// StatusError is returned when a webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("notify: webhook status %d", e.StatusCode)
	}
	return fmt.Sprintf("notify: webhook status %d: %s", e.StatusCode, e.Body)
}

// WebhookPoster posts JSON bodies to incoming-webhook URLs.
type WebhookPoster struct {
	client *http.Client
}

// NewWebhookPoster creates a poster whose requests time out after timeout.
func NewWebhookPoster(timeout time.Duration) *WebhookPoster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookPoster{client: &http.Client{Timeout: timeout}}
}

// NewWebhookPosterWithClient creates a poster using an existing HTTP client.
func NewWebhookPosterWithClient(client *http.Client) *WebhookPoster {
	return &WebhookPoster{client: client}
}

// Post marshals body as JSON and posts it to url. Any 2xx status is success.
func (p *WebhookPoster) Post(ctx context.Context, url string, body any) error {
	if url == "" {
		return ErrEmptyURL
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("notify: marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := respBody
		if len(excerpt) > 256 {
			excerpt = excerpt[:256]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
	return nil
}
