package movecard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/atelierhq/pulse/pkg/automation"
)

// HTTPBoardService talks to the platform's board service API.
type HTTPBoardService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBoardService(baseURL string) *HTTPBoardService {
	return &HTTPBoardService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPBoardService) FindCardByClient(ctx context.Context, workspaceID, clientID string) (*Card, error) {
	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/cards?client_id=%s",
		s.baseURL, workspaceID, url.QueryEscape(clientID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create card lookup request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, automation.Transient(fmt.Errorf("card lookup request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, automation.Transient(fmt.Errorf("board service returned status %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("board service rejected lookup with status %d", resp.StatusCode)
	}

	var card Card

	err = json.NewDecoder(resp.Body).Decode(&card)
	if err != nil {
		return nil, fmt.Errorf("failed to decode card response: %w", err)
	}

	if card.ID == "" {
		return nil, nil
	}

	return &card, nil
}

func (s *HTTPBoardService) MoveCard(ctx context.Context, cardID, targetColumn string) error {
	payload, err := json.Marshal(map[string]string{"column": targetColumn})
	if err != nil {
		return fmt.Errorf("failed to encode move payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/cards/%s/move", s.baseURL, cardID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create move request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return automation.Transient(fmt.Errorf("move request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return automation.Transient(fmt.Errorf("board service returned status %d", resp.StatusCode))
	default:
		return fmt.Errorf("board service rejected move with status %d", resp.StatusCode)
	}
}
