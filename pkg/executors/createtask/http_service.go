package createtask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atelierhq/pulse/pkg/automation"
)

// HTTPTaskService creates tasks through the platform's task service API.
type HTTPTaskService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTaskService(baseURL string) *HTTPTaskService {
	return &HTTPTaskService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPTaskService) Create(ctx context.Context, workspaceID string, task Task) (string, error) {
	body := map[string]any{
		"title":       task.Title,
		"description": task.Description,
		"assignee_id": task.AssigneeID,
		"client_id":   task.ClientID,
	}
	if task.DueAt != nil {
		body["due_at"] = task.DueAt.Format(time.RFC3339)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode task payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/workspaces/%s/tasks", s.baseURL, workspaceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create task request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", automation.Transient(fmt.Errorf("task service request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", automation.Transient(fmt.Errorf("task service returned status %d", resp.StatusCode))
	default:
		return "", fmt.Errorf("task service rejected request with status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}

	err = json.NewDecoder(resp.Body).Decode(&created)
	if err != nil {
		return "", fmt.Errorf("failed to decode task response: %w", err)
	}

	return created.ID, nil
}
