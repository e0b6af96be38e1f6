package chatmessage

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

// HTTPMessenger talks to the platform's chat service API.
type HTTPMessenger struct {
	baseURL string
	client  *http.Client
}

func NewHTTPMessenger(baseURL string) *HTTPMessenger {
	return &HTTPMessenger{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *HTTPMessenger) ResolveConversation(ctx context.Context, workspaceID, clientID string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/conversations?client_id=%s",
		m.baseURL, workspaceID, url.QueryEscape(clientID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation lookup request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", automation.Transient(fmt.Errorf("conversation lookup request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode >= 500:
		return "", automation.Transient(fmt.Errorf("chat service returned status %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("chat service rejected lookup with status %d", resp.StatusCode)
	}

	var conversation struct {
		ID string `json:"id"`
	}

	err = json.NewDecoder(resp.Body).Decode(&conversation)
	if err != nil {
		return "", fmt.Errorf("failed to decode conversation response: %w", err)
	}

	return conversation.ID, nil
}

func (m *HTTPMessenger) PostMessage(ctx context.Context, conversationID, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to encode message payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/conversations/%s/messages", m.baseURL, conversationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create message request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", automation.Transient(fmt.Errorf("message request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", automation.Transient(fmt.Errorf("chat service returned status %d", resp.StatusCode))
	default:
		return "", fmt.Errorf("chat service rejected message with status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}

	err = json.NewDecoder(resp.Body).Decode(&created)
	if err != nil {
		return "", fmt.Errorf("failed to decode message response: %w", err)
	}

	return created.ID, nil
}
