package reminder

import (
	"fmt"
	"maps"
	"strings"

	"pr-reminder/pkg/models"
)

const (
	// DefaultBudget is the character budget for one chat message.
	DefaultBudget = 1800
	// DefaultBroadcast prefixes the review summary.
	DefaultBroadcast = "@everyone"
)

// MentionStyle selects how chat mentions are written.
type MentionStyle string

const (
	// MentionDiscord writes mapped ids as <@id>.
	MentionDiscord MentionStyle = "discord"
	// MentionPlain writes mapped ids as @id.
	MentionPlain MentionStyle = "plain"
)

const triageHeader = "👋 Hey team, these pull requests still need triage. Please link a project and request at least one reviewer:"

// DefaultMarkers are the severity markers for 3 to 6 pending weeks.
func DefaultMarkers() map[int]string {
	return map[int]string{
		3: "🙄",
		4: "🫣",
		5: "😲",
		6: "😱",
	}
}

// DefaultFallbackMarker is used for pending weeks not in the marker table.
const DefaultFallbackMarker = "🤯"

// ComposerConfig holds the lookup tables and limits a Composer renders with.
type ComposerConfig struct {
	Mentions       map[string]string // platform username -> chat id
	Markers        map[int]string    // pending weeks -> severity marker
	FallbackMarker string
	Budget         int
	Style          MentionStyle
	Broadcast      string // prefix of the review summary, e.g. @everyone
}

// Composer renders classified pull requests into message chunks.
type Composer struct {
	mentions       map[string]string
	markers        map[int]string
	fallbackMarker string
	budget         int
	style          MentionStyle
	broadcast      string
}

// NewComposer copies cfg into an immutable composer, filling defaults for empty fields.
func NewComposer(cfg ComposerConfig) *Composer {
	c := &Composer{
		mentions:       maps.Clone(cfg.Mentions),
		markers:        maps.Clone(cfg.Markers),
		fallbackMarker: cfg.FallbackMarker,
		budget:         cfg.Budget,
		style:          cfg.Style,
		broadcast:      cfg.Broadcast,
	}
	if c.mentions == nil {
		c.mentions = map[string]string{}
	}
	if len(c.markers) == 0 {
		c.markers = DefaultMarkers()
	}
	if c.fallbackMarker == "" {
		c.fallbackMarker = DefaultFallbackMarker
	}
	if c.budget == 0 {
		c.budget = DefaultBudget
	}
	if c.style == "" {
		c.style = MentionDiscord
	}
	return c
}

// Mention renders a platform username as a chat mention.
// Unmapped usernames pass through as plain @username.
func (c *Composer) Mention(username string) string {
	id, ok := c.mentions[username]
	if !ok || id == "" {
		return "@" + username
	}
	if c.style == MentionDiscord {
		return "<@" + id + ">"
	}
	return "@" + id
}

// StaleMarker returns the severity marker for weeks, or "" below the stale threshold.
func (c *Composer) StaleMarker(weeks int) string {
	if weeks < StaleAfterWeeks {
		return ""
	}
	if m, ok := c.markers[weeks]; ok {
		return m
	}
	return c.fallbackMarker
}

func (c *Composer) reviewLine(pr models.ClassifiedPullRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- <[%s](%s)>, Reviewers:", pr.Title, pr.URL)
	for _, r := range pr.RequestedReviewers {
		b.WriteString(" ")
		b.WriteString(c.Mention(r))
	}
	if pr.PendingWeeks >= StaleAfterWeeks {
		m := c.StaleMarker(pr.PendingWeeks)
		fmt.Fprintf(&b, " %s **(Pending for %d weeks)** %s", m, pr.PendingWeeks, m)
	}
	return b.String()
}

func (c *Composer) reviewSummary(repoTitle string, count, daysRemaining int) string {
	prefix := "🎗️"
	if c.broadcast != "" {
		prefix = c.broadcast + " 🎗️"
	}
	if daysRemaining == 0 {
		return fmt.Sprintf("%s Feature freeze is today! Last call to review **%s** under __%s__ repo.",
			prefix, plural(count, "pending PR"), repoTitle)
	}
	return fmt.Sprintf("%s **%s remaining** until feature freeze. A gentle reminder to review **%s** under __%s__ repo.",
		prefix, plural(daysRemaining, "day"), plural(count, "pending PR"), repoTitle)
}

// RenderReviewReminder renders one line per PR followed by a countdown summary chunk.
// No PRs means no chunks at all.
func (c *Composer) RenderReviewReminder(prs []models.ClassifiedPullRequest, repoTitle string, daysRemaining int) []models.MessageChunk {
	if len(prs) == 0 {
		return nil
	}
	acc := NewAccumulator(c.budget)
	for _, pr := range prs {
		acc.Add(c.reviewLine(pr))
	}
	chunks := acc.Flush()
	summary := models.MessageChunk{Lines: []string{c.reviewSummary(repoTitle, len(prs), daysRemaining)}}
	return append(chunks, summary)
}

func (c *Composer) triageLine(pr models.ClassifiedPullRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s <[%s](%s)> open for %s", c.Mention(pr.Author), pr.Title, pr.URL, plural(pr.PendingWeeks, "week"))
	if pr.HasNoProject {
		b.WriteString(", no project")
	}
	if pr.HasNoReviewers {
		b.WriteString(", no reviewers")
	}
	return b.String()
}

// RenderTriageReminder renders a fixed header chunk followed by one line per PR.
func (c *Composer) RenderTriageReminder(prs []models.ClassifiedPullRequest) []models.MessageChunk {
	chunks := []models.MessageChunk{{Lines: []string{triageHeader}}}
	acc := NewAccumulator(c.budget)
	for _, pr := range prs {
		acc.Add(c.triageLine(pr))
	}
	return append(chunks, acc.Flush()...)
}

// RenderFreezeNotice renders the request to set a new freeze date.
func (c *Composer) RenderFreezeNotice(daysSince int) []models.MessageChunk {
	line := fmt.Sprintf("👉 Feature freeze date passed %s ago. Please set a new date.", plural(daysSince, "day"))
	return []models.MessageChunk{{Lines: []string{line}}}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
