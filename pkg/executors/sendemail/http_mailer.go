package sendemail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atelierhq/pulse/pkg/automation"
)

// HTTPMailer submits messages to the platform's email delivery service.
// Network failures and 5xx/429 responses are transient; other non-2xx
// responses are permanent.
type HTTPMailer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPMailer(baseURL string) *HTTPMailer {
	return &HTTPMailer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return automation.Transient(fmt.Errorf("email delivery request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return automation.Transient(fmt.Errorf("email delivery returned status %d", resp.StatusCode))
	default:
		return fmt.Errorf("email delivery rejected message with status %d", resp.StatusCode)
	}
}
