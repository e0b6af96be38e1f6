package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPTaskSource lists upcoming tasks from the platform's task service.
type HTTPTaskSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTaskSource(baseURL string) *HTTPTaskSource {
	return &HTTPTaskSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPTaskSource) UpcomingTasks(ctx context.Context, horizonDays int) ([]DueTask, error) {
	endpoint := fmt.Sprintf("%s/v1/tasks/upcoming?days=%d", s.baseURL, horizonDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create upcoming tasks request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upcoming tasks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("task service returned status %d", resp.StatusCode)
	}

	var body struct {
		Tasks []DueTask `json:"tasks"`
	}

	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode upcoming tasks response: %w", err)
	}

	return body.Tasks, nil
}
