package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notifier delivers one reminder message to one phone number and
// returns the provider's message id. A timeout is a failure.
type Notifier interface {
	Send(ctx context.Context, phone string, msg Message) (string, error)
	ProviderID() string
}

// WebhookNotifier posts messages to an SMS gateway webhook.
type WebhookNotifier struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookNotifier(url string, token string) *WebhookNotifier {
	return &WebhookNotifier{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (n *WebhookNotifier) ProviderID() string {
	return "sms-webhook"
}

func (n *WebhookNotifier) Send(ctx context.Context, phone string, msg Message) (string, error) {
	if n.url == "" {
		return "", errors.New("sms webhook url not configured")
	}
	payload := map[string]string{
		"to":   phone,
		"body": msg.Body(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}
	resp, err := n.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}

	var body struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.MessageID == "" {
		// Gateways without a message id in the response still count as sent.
		return uuid.NewString(), nil
	}
	return body.MessageID, nil
}

// NoopNotifier accepts everything; used in development and tests.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) ProviderID() string {
	return "sms-noop"
}

func (n *NoopNotifier) Send(_ context.Context, _ string, _ Message) (string, error) {
	return uuid.NewString(), nil
}
