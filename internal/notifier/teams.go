package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pr-reminder/internal/config"
	"pr-reminder/pkg/models"
)

// TeamsNotifier implements Microsoft Teams notifications
type TeamsNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewTeamsNotifier creates a new Teams notifier
func NewTeamsNotifier(cfg config.Teams) *TeamsNotifier {
	return &TeamsNotifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TeamsNotifier) Name() string { return "teams" }

// Send posts one chunk as a MessageCard
func (t *TeamsNotifier) Send(ctx context.Context, chunk models.MessageChunk) error {
	payload, err := t.generateTeamsPayload(chunk)
	if err != nil {
		return fmt.Errorf("error generating Teams payload: %w", err)
	}
	return postJSON(ctx, t.client, t.webhookURL, payload, "Teams")
}

// generateTeamsPayload creates the Teams message payload. Teams renders
// markdown text but needs a blank line between paragraphs.
func (t *TeamsNotifier) generateTeamsPayload(chunk models.MessageChunk) ([]byte, error) {
	summary := "Pull request reminder"
	if len(chunk.Lines) > 0 {
		summary = chunk.Lines[0]
	}

	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": "2F80ED",
		"summary":    summary,
		"text":       strings.Join(chunk.Lines, "\n\n"),
	}

	return json.Marshal(payload)
}
