// Package remote drives the task board against a running vimdo HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/vimdo/internal/adapters/server/httpapi"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
)

// defaultTimeout bounds one round trip when the caller sets none.
const defaultTimeout = 10 * time.Second

// ErrTransport and ErrUnexpectedStatus classify failures that are not task lookups.
var (
	ErrTransport        = errors.New("transport failure")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Config holds remote endpoint settings.
type Config struct {
	// BaseURL is the API root, for example http://127.0.0.1:8001/api/v1.
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements the task service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid remote url %q", cfg.BaseURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: raw,
		client:  httpClient,
	}, nil
}

// ListTasks returns all tasks ordered by id.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var wire []httpapi.Task
	if err := c.do(ctx, http.MethodGet, "/todos", nil, 0, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(wire))
	for _, task := range wire {
		out = append(out, task.Domain())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	var wire httpapi.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, id, &wire); err != nil {
		return domain.Task{}, err
	}
	return wire.Domain(), nil
}

// CreateTask creates a task and returns it with its assigned id.
func (c *Client) CreateTask(ctx context.Context, in app.CreateTaskInput) (domain.Task, error) {
	body := httpapi.CreateTaskRequest{
		Title:       in.Title,
		Description: in.Description,
		Urgency:     int(in.Urgency),
	}
	var wire httpapi.Task
	if err := c.do(ctx, http.MethodPost, "/todos", body, 0, &wire); err != nil {
		return domain.Task{}, err
	}
	return wire.Domain(), nil
}

// ReplaceTask overwrites every mutable field of an existing task.
func (c *Client) ReplaceTask(ctx context.Context, in app.ReplaceTaskInput) (domain.Task, error) {
	body := httpapi.ReplaceTaskRequest{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		Urgency:     int(in.Urgency),
	}
	var wire httpapi.Task
	if err := c.do(ctx, http.MethodPut, taskPath(in.ID), body, in.ID, &wire); err != nil {
		return domain.Task{}, err
	}
	return wire.Domain(), nil
}

// ToggleTask flips completion with a fetch followed by a full replace.
func (c *Client) ToggleTask(ctx context.Context, id int64) (domain.Task, error) {
	task, err := c.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	return c.ReplaceTask(ctx, app.ReplaceTaskInput{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Urgency:     task.Urgency,
		Completed:   !task.Completed,
	})
}

// DeleteTask removes a task permanently.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, id, nil)
}

// Ping checks that the server answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	root, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	root.Path = "/healthz"
	return c.doURL(ctx, http.MethodGet, root.String(), nil, 0, &out)
}

func taskPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

// do sends one JSON request relative to the API root and decodes the reply into out.
func (c *Client) do(ctx context.Context, method, path string, body any, id int64, out any) error {
	return c.doURL(ctx, method, c.baseURL+path, body, id, out)
}

func (c *Client) doURL(ctx context.Context, method, target string, body any, id int64, out any) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return app.NewServiceError(fmt.Errorf("%w: %w", ErrTransport, err), "network error: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, id)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return app.NewServiceError(fmt.Errorf("%w: decode response: %w", ErrTransport, err), "network error: malformed response")
	}
	return nil
}

// statusError converts a non-2xx reply into a ServiceError. The server's
// message wins; otherwise the status code is reported.
func statusError(resp *http.Response, id int64) error {
	var envelope httpapi.ErrorEnvelope
	message := ""
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, &envelope) == nil {
			message = strings.TrimSpace(envelope.Error.Message)
		}
	}
	if message == "" {
		message = fmt.Sprintf("network error: %d", resp.StatusCode)
	}

	var cause error
	switch resp.StatusCode {
	case http.StatusNotFound:
		if id > 0 {
			cause = fmt.Errorf("task with id %d: %w", id, app.ErrNotFound)
		} else {
			cause = app.ErrNotFound
		}
	default:
		cause = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return &app.ServiceError{Message: message, Err: cause}
}
