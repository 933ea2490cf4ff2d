package reminder

import (
	"math"
	"strings"
	"time"

	"pr-reminder/pkg/models"
)

const (
	week = 7 * 24 * time.Hour
	day  = 24 * time.Hour

	// StaleAfterWeeks is the pending age at which a PR gets a severity marker.
	StaleAfterWeeks = 3

	// WIPLabel excludes a PR from review reminders.
	WIPLabel = "WIP"
)

// roundUnits rounds d/unit to the nearest integer, halves rounding up.
func roundUnits(d, unit time.Duration) int {
	return int(math.Floor(float64(d)/float64(unit) + 0.5))
}

// PendingWeeks returns the number of weeks since createdAt, rounded half-up.
func PendingWeeks(createdAt, now time.Time) int {
	return roundUnits(now.Sub(createdAt), week)
}

// Classify derives the reminder fields of pr at the instant now.
func Classify(pr models.PullRequest, now time.Time) models.ClassifiedPullRequest {
	weeks := PendingWeeks(pr.CreatedAt, now)
	return models.ClassifiedPullRequest{
		PullRequest:    pr,
		PendingWeeks:   weeks,
		IsStale:        weeks >= StaleAfterWeeks,
		HasNoProject:   pr.ProjectCards == 0,
		HasNoReviewers: pr.ReviewRequests == 0 && pr.Reviews == 0,
	}
}

// Selector filters and classifies pull requests for one evaluation instant.
type Selector struct {
	now            time.Time
	excludeLabels  []string
	ignoreKeywords []string
}

// SelectorOption customizes a Selector.
type SelectorOption func(*Selector)

// WithExcludeLabels excludes PRs carrying any of labels in addition to WIP.
func WithExcludeLabels(labels ...string) SelectorOption {
	return func(s *Selector) {
		s.excludeLabels = append([]string{WIPLabel}, labels...)
	}
}

// WithIgnoreKeywords drops PRs whose title contains any keyword, case-insensitively.
func WithIgnoreKeywords(keywords ...string) SelectorOption {
	return func(s *Selector) {
		s.ignoreKeywords = append([]string(nil), keywords...)
	}
}

// NewSelector creates a selector evaluating at now.
func NewSelector(now time.Time, opts ...SelectorOption) *Selector {
	s := &Selector{
		now:           now,
		excludeLabels: []string{WIPLabel},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectAwaitingReview keeps PRs with at least one requested reviewer that are
// not excluded by label or title keyword. Input order is preserved.
func (s *Selector) SelectAwaitingReview(prs []models.PullRequest) []models.ClassifiedPullRequest {
	selected := []models.ClassifiedPullRequest{}
	for _, pr := range prs {
		if len(pr.RequestedReviewers) == 0 {
			continue
		}
		if s.hasExcludedLabel(pr) || containsIgnoreKeyword(pr.Title, s.ignoreKeywords) {
			continue
		}
		selected = append(selected, Classify(pr, s.now))
	}
	return selected
}

// SelectMissingTriage keeps non-draft PRs open for at least a week that lack a
// project or any reviewer activity. Input order is preserved.
func (s *Selector) SelectMissingTriage(prs []models.PullRequest) []models.ClassifiedPullRequest {
	selected := []models.ClassifiedPullRequest{}
	for _, pr := range prs {
		if pr.Draft {
			continue
		}
		c := Classify(pr, s.now)
		if c.PendingWeeks < 1 {
			continue
		}
		if c.HasNoProject || c.HasNoReviewers {
			selected = append(selected, c)
		}
	}
	return selected
}

func (s *Selector) hasExcludedLabel(pr models.PullRequest) bool {
	for _, label := range s.excludeLabels {
		if pr.HasLabel(label) {
			return true
		}
	}
	return false
}

// containsIgnoreKeyword checks if the title contains any forbidden keyword
func containsIgnoreKeyword(title string, keywords []string) bool {
	titleLower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
