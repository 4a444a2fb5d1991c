package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	maxRetries            = 3
)

// Discord embed colors
const (
	colorGreen = 5763719 // 0x57F287
)

// WebhookPayload is the Discord-compatible webhook message structure
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is a Discord message embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField is a field within an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the footer of an embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// WebhookSink posts load events to a Discord-compatible webhook URL.
type WebhookSink struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookSink creates a webhook sink for the given URL.
func NewWebhookSink(webhookURL string) *WebhookSink {
	return &WebhookSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
	}
}

// Notify implements Sink by posting a load summary embed.
func (c *WebhookSink) Notify(ctx context.Context, event Event) error {
	payload := NewLoadCompletedPayload(event)
	return c.sendPayload(ctx, payload)
}

// NewLoadCompletedPayload builds the notification sent after a successful load
func NewLoadCompletedPayload(event Event) WebhookPayload {
	return WebhookPayload{
		Embeds: []Embed{
			{
				Title: "Card Weights Refreshed",
				Color: colorGreen,
				Fields: []EmbedField{
					{Name: "Game", Value: string(event.Game), Inline: true},
					{Name: "League", Value: event.League, Inline: true},
					{Name: "Cards", Value: strconv.Itoa(event.Count), Inline: true},
				},
				Footer: &EmbedFooter{
					Text: fmt.Sprintf("Run %s", event.RunID),
				},
				Timestamp: event.LoadedAt.Format(time.RFC3339),
			},
		},
	}
}

// sendPayload marshals and POSTs the payload, retrying on rate limits
func (c *WebhookSink) sendPayload(ctx context.Context, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("webhook request failed: %w", err)
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK:
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			// Discord sends Retry-After in seconds
			retryAfter := resp.Header.Get("Retry-After")
			waitSeconds, parseErr := strconv.Atoi(retryAfter)
			if parseErr != nil || waitSeconds <= 0 {
				waitSeconds = 1
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(waitSeconds) * time.Second):
				continue
			}

		default:
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}
