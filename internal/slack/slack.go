// Package slack publishes check reports to Slack.
package slack

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ashwanthkumar/slack-go-webhook"
)

// Config contains the configuration needed for Slack
type Config struct {
	WebhookURLs []string `env:"WEBHOOKS" yaml:"webhooks"`
}

// Client posts messages to Slack webhooks
type Client struct {
	webhookURLs []string
	Username    string
	IconEmoji   string
}

// NewClient creates a new Slack client.
// nil is returned if no webhooks are configured.
func NewClient(cfg Config) *Client {
	if len(cfg.WebhookURLs) == 0 {
		return nil
	}
	return &Client{
		webhookURLs: cfg.WebhookURLs,
		Username:    "Telemetry Check",
		IconEmoji:   ":satellite_antenna:",
	}
}

// SendMessage sends a message to the registered Slack channels.
// Noop if the client is nil.
func (c *Client) SendMessage(ctx context.Context, msg string) {
	if c == nil {
		return
	}
	if err := c.send(msg); err != nil {
		slog.ErrorContext(ctx, "failed sending slack message", "error", err.Error())
		return
	}
	slog.DebugContext(ctx, "slack message sent", "webhooks", len(c.webhookURLs))
}

// send posts msg to every webhook, even when one of them fails
func (c *Client) send(msg string) error {
	payload := slack.Payload{
		Text:      msg,
		Username:  c.Username,
		IconEmoji: c.IconEmoji,
	}

	var errs []error
	for _, wh := range c.webhookURLs {
		errs = append(errs, slack.Send(wh, "", payload)...)
	}
	return errors.Join(errs...)
}
