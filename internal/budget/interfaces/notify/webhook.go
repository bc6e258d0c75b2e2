package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ucdavis/iwfm-sub003/internal/budget/application"
)

// WebhookNotifier posts run summaries to a chat webhook.
type WebhookNotifier struct {
	url           string
	client        *http.Client
	template      *Template
	onlyDiagnosed bool
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookText struct {
	Content string `json:"content"`
}

// WebhookOption customises a WebhookNotifier.
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		if client != nil {
			n.client = client
		}
	}
}

// WithTemplate overrides the message template.
func WithTemplate(tpl *Template) WebhookOption {
	return func(n *WebhookNotifier) {
		if tpl != nil {
			n.template = tpl
		}
	}
}

// OnlyWithDiagnostics suppresses messages for clean runs.
func OnlyWithDiagnostics() WebhookOption {
	return func(n *WebhookNotifier) {
		n.onlyDiagnosed = true
	}
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(url string, opts ...WebhookOption) (*WebhookNotifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("webhook notifier: empty url")
	}
	tpl, err := NewTemplate("")
	if err != nil {
		return nil, err
	}
	n := &WebhookNotifier{
		url:      url,
		client:   &http.Client{Timeout: 10 * time.Second},
		template: tpl,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n, nil
}

// Notify sends a run summary to the webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, event application.RunEvent) error {
	if n == nil {
		return errors.New("webhook notifier: nil")
	}
	data := NewTemplateData(event)
	if n.onlyDiagnosed && data.Diagnostics == 0 {
		return nil
	}
	content, err := n.template.Render(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(webhookPayload{
		MsgType: "text",
		Text:    webhookText{Content: strings.TrimSpace(content)},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook notifier: status %d", resp.StatusCode)
	}
	return nil
}
