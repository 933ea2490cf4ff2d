package notifier

import (
	"context"

	"pr-reminder/internal/config"
	"pr-reminder/pkg/models"
)

// Notifier delivers one message chunk to a destination. Send is attempted once;
// the caller decides what a failure means for the run.
type Notifier interface {
	Name() string
	Send(ctx context.Context, chunk models.MessageChunk) error
}

// FromConfig builds every sink that has a destination configured.
func FromConfig(cfg config.Notifiers) []Notifier {
	var notifiers []Notifier
	if cfg.Discord.WebhookURL != "" {
		notifiers = append(notifiers, NewDiscordNotifier(cfg.Discord))
	}
	if cfg.Teams.WebhookURL != "" {
		notifiers = append(notifiers, NewTeamsNotifier(cfg.Teams))
	}
	if cfg.SMTP.Host != "" && len(cfg.SMTP.To) > 0 {
		notifiers = append(notifiers, NewEmailNotifier(cfg.SMTP))
	}
	return notifiers
}
