package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pr-reminder/internal/config"
	"pr-reminder/pkg/models"
)

const (
	// FormatContent posts the chunk as the message content.
	FormatContent = "content"
	// FormatEmbeds posts the chunk as the description of a single embed.
	FormatEmbeds = "embeds"

	embedColor = 0x2F80ED
)

// DiscordNotifier posts chunks to a Discord webhook
type DiscordNotifier struct {
	webhookURL string
	format     string
	client     *http.Client
}

// NewDiscordNotifier creates a new Discord notifier
func NewDiscordNotifier(cfg config.Discord) *DiscordNotifier {
	format := cfg.Format
	if format == "" {
		format = FormatContent
	}
	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		format:     format,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

type discordEmbed struct {
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

// generatePayload builds the webhook body for chunk
func (d *DiscordNotifier) generatePayload(chunk models.MessageChunk) ([]byte, error) {
	payload := discordPayload{}
	if d.format == FormatEmbeds {
		payload.Embeds = []discordEmbed{{Description: chunk.Text(), Color: embedColor}}
	} else {
		payload.Content = chunk.Text()
	}
	return json.Marshal(payload)
}

// Send posts one chunk. Discord answers 204 No Content on success.
func (d *DiscordNotifier) Send(ctx context.Context, chunk models.MessageChunk) error {
	payload, err := d.generatePayload(chunk)
	if err != nil {
		return fmt.Errorf("error generating Discord payload: %w", err)
	}
	return postJSON(ctx, d.client, d.webhookURL, payload, "Discord")
}

// postJSON sends a JSON webhook request and accepts any 2xx status.
func postJSON(ctx context.Context, client *http.Client, url string, payload []byte, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		slog.Error("Failed to send notification", "target", target, "error", err)
		return fmt.Errorf("failed to send %s notification: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		slog.Error("Notification failed", "target", target, "status", resp.StatusCode)
		return fmt.Errorf("%s notification failed with status: %d (Body: %s)", target, resp.StatusCode, string(body))
	}

	slog.Debug("Notification sent", "target", target, "status", resp.StatusCode)
	return nil
}
