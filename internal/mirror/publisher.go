// Package mirror publishes shared tasks to a remote mirror service.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShayCichocki/planr/pkg/models"
)

// ErrUnavailable is returned when the mirror cannot be reached.
var ErrUnavailable = errors.New("mirror unavailable")

// ErrNotShared is returned by Update for a task without a share identifier.
var ErrNotShared = errors.New("task is not shared")

// Publisher keeps the remote copy of shared tasks in sync.
type Publisher interface {
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, sharedTaskID string) error
}

// StatusError reports a non-2xx response from the mirror.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mirror %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Nop is a Publisher that does nothing.
type Nop struct{}

func (Nop) Update(context.Context, *models.Task) error { return nil }

func (Nop) Delete(context.Context, string) error { return nil }

// HTTPPublisher talks to the mirror over HTTP:
// PUT and DELETE on {endpoint}/shared-tasks/{id}.
type HTTPPublisher struct {
	endpoint string
	token    string
	client   *http.Client
}

// DefaultTimeout bounds a single mirror request.
const DefaultTimeout = 10 * time.Second

// NewHTTPPublisher creates a publisher for the given endpoint. A nil client
// uses one with DefaultTimeout.
func NewHTTPPublisher(endpoint, token string, client *http.Client) *HTTPPublisher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPPublisher{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   client,
	}
}

// sharedTask is the wire representation of a mirrored task.
type sharedTask struct {
	ID          string            `json:"id"`
	LocalTaskID string            `json:"local_task_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      models.TaskStatus `json:"status"`
	PlanSummary string            `json:"plan_summary,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Update pushes the task's current state to its mirror.
func (p *HTTPPublisher) Update(ctx context.Context, task *models.Task) error {
	if !task.IsShared() {
		return ErrNotShared
	}
	body, err := json.Marshal(sharedTask{
		ID:          task.SharedTaskID,
		LocalTaskID: task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		PlanSummary: task.PlanSummary,
		UpdatedAt:   task.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode shared task: %w", err)
	}
	return p.do(ctx, http.MethodPut, task.SharedTaskID, body)
}

// Delete removes the mirror of a shared task.
func (p *HTTPPublisher) Delete(ctx context.Context, sharedTaskID string) error {
	return p.do(ctx, http.MethodDelete, sharedTaskID, nil)
}

func (p *HTTPPublisher) do(ctx context.Context, method, sharedTaskID string, body []byte) error {
	target, err := url.JoinPath(p.endpoint, "shared-tasks", sharedTaskID)
	if err != nil {
		return fmt.Errorf("build mirror url: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build mirror request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var (
	_ Publisher = (*HTTPPublisher)(nil)
	_ Publisher = Nop{}
)
