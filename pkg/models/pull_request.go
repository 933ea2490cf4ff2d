package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// PullRequest is the snapshot of an open pull request as seen by the reminder core.
// Source adapters map their wire records into this type; nil slices mean "none".
type PullRequest struct {
	Repository         string
	Number             int
	Title              string
	URL                string
	CreatedAt          time.Time
	Author             string
	Draft              bool
	RequestedReviewers []string
	Labels             []string
	ProjectCards       int // project board items linked to the PR
	ReviewRequests     int // outstanding review requests
	Reviews            int // submitted reviews
}

// HasLabel reports whether the PR carries a label with exactly this name.
func (pr PullRequest) HasLabel(name string) bool {
	for _, l := range pr.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// ClassifiedPullRequest is a PullRequest plus the fields derived at evaluation time.
type ClassifiedPullRequest struct {
	PullRequest
	PendingWeeks   int
	IsStale        bool
	HasNoProject   bool
	HasNoReviewers bool
}

// ReminderPolicy names the kind of reminder a run produces.
type ReminderPolicy int

const (
	AwaitingReview ReminderPolicy = iota
	MissingTriage
	ProjectFreezeStatus
)

func (p ReminderPolicy) String() string {
	switch p {
	case AwaitingReview:
		return "awaiting-review"
	case MissingTriage:
		return "missing-triage"
	case ProjectFreezeStatus:
		return "project-freeze-status"
	default:
		return "unknown"
	}
}

// MessageChunk is one deliverable unit of message text.
type MessageChunk struct {
	Lines []string
}

// Text joins the chunk lines with newlines.
func (c MessageChunk) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Len returns the number of characters in Text.
func (c MessageChunk) Len() int {
	return utf8.RuneCountInString(c.Text())
}
