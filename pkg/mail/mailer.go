package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Mailer sends email best-effort; callers log failures and never surface
// them to end users.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPMailer delivers through a Resend-style JSON API.
type HTTPMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

// NewHTTPMailer builds a mailer for the given API endpoint.
func NewHTTPMailer(baseURL, apiKey, from string) (*HTTPMailer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("mail API base URL required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("mail API key required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("mail sender address required")
	}
	return &HTTPMailer{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Send posts the message to the delivery API.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient required")
	}
	payload, err := json.Marshal(map[string]any{
		"from":    m.from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"text":    msg.Text,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send email: status %d", resp.StatusCode)
	}
	return nil
}

// NopMailer drops every message; used when no mail API is configured.
type NopMailer struct{}

// Send discards the message.
func (NopMailer) Send(context.Context, Message) error { return nil }
