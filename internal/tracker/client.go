package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const (
	maxResponseBytes = 10 << 20
	maxErrorBody     = 512
)

// Client is a thin wrapper around the Zoho Projects REST API. The embedded
// HTTP client injects a cached OAuth2 access token obtained from the
// configured refresh token.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient builds a Client. ctx bounds token refreshes for the lifetime of
// the client and should not be request-scoped.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) *Client {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}

	base := &http.Client{Timeout: cfg.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	// oauth2.NewClient keeps only the base transport, so restore the timeout.
	hc := oauth2.NewClient(ctx, TokenSource(ctx, cfg))
	hc.Timeout = cfg.Timeout

	return &Client{
		cfg:    cfg,
		http:   hc,
		logger: logger,
	}
}

// TokenSource returns a refresh-token source that reuses the access token
// until TokenEarlyExpiry before it expires.
func TokenSource(ctx context.Context, cfg Config) oauth2.TokenSource {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(cfg.AccountsURL, "/") + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	src := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, cfg.TokenEarlyExpiry)
}

// ProjectName returns the configured display name of the monitored project.
func (c *Client) ProjectName() string { return c.cfg.ProjectName }

// FetchTasks returns the current task snapshot of the project. Elements of
// the task array that are not JSON objects are dropped with a warning.
func (c *Client) FetchTasks(ctx context.Context) ([]Task, error) {
	endpoint := fmt.Sprintf("%s/api/v3/portal/%s/projects/%s/tasks",
		strings.TrimRight(c.cfg.APIURL, "/"),
		url.PathEscape(c.cfg.PortalID),
		url.PathEscape(c.cfg.ProjectID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tracker: create fetch request: %w", err)
	}

	body, err := c.do(req, "fetch tasks")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("tracker: decode tasks: %w", err)
	}

	tasks := make([]Task, 0, len(envelope.Tasks))
	for i, raw := range envelope.Tasks {
		var t Task
		if err := json.Unmarshal(raw, &t); err != nil {
			c.logger.Warn("tracker: dropping malformed task", "index", i, "error", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// EscalatePriority sets the priority of a task.
func (c *Client) EscalatePriority(ctx context.Context, taskID, priority string) error {
	if taskID == "" {
		return ErrEmptyTaskID
	}
	form := url.Values{"priority": {priority}}
	if _, err := c.postForm(ctx, c.taskURL(taskID), form, "update priority"); err != nil {
		return err
	}
	c.logger.Info("tracker: task priority updated", "task_id", taskID, "priority", priority)
	return nil
}

// CreateTask creates a task. due is YYYY-MM-DD and is sent in the MM-DD-YYYY
// form the endpoint expects.
func (c *Client) CreateTask(ctx context.Context, name string, due Date, priority string) error {
	form := url.Values{
		"name":     {name},
		"end_date": {due.Zoho()},
		"priority": {priority},
	}
	if _, err := c.postForm(ctx, c.taskURL(""), form, "create task"); err != nil {
		return err
	}
	c.logger.Info("tracker: task created", "name", name, "due", due.String())
	return nil
}

// UpdateField updates a single field of a task. Accepted field names are
// priority, name/title, date/due_date/end_date and status. Dates typed as
// YYYY-MM-DD are converted to MM-DD-YYYY.
func (c *Client) UpdateField(ctx context.Context, taskID, field, value string) error {
	if taskID == "" {
		return ErrEmptyTaskID
	}
	key, val, err := fieldParam(field, value)
	if err != nil {
		return err
	}
	if _, err := c.postForm(ctx, c.taskURL(taskID), url.Values{key: {val}}, "update "+key); err != nil {
		return err
	}
	c.logger.Info("tracker: task updated", "task_id", taskID, "field", key)
	return nil
}

// fieldParam maps a user-facing field name to the API form key.
func fieldParam(field, value string) (string, string, error) {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "priority":
		return "priority", value, nil
	case "name", "title":
		return "name", value, nil
	case "date", "due_date", "end_date":
		if d, err := ParseISODate(value); err == nil {
			return "end_date", d.Zoho(), nil
		}
		return "end_date", value, nil
	case "status":
		return "status_name", value, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func (c *Client) taskURL(taskID string) string {
	u := fmt.Sprintf("%s/restapi/portal/%s/projects/%s/tasks/",
		strings.TrimRight(c.cfg.APIURL, "/"),
		url.PathEscape(c.cfg.PortalID),
		url.PathEscape(c.cfg.ProjectID),
	)
	if taskID != "" {
		u += url.PathEscape(taskID) + "/"
	}
	return u
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("tracker: create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op)
}

// do sends req and returns the bounded response body. Non-2xx statuses are
// reported as *APIError.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker: %s request failed: %w", op, err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("tracker: read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: excerpt}
	}
	return body, nil
}
