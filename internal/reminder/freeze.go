package reminder

import (
	"fmt"
	"strings"
	"time"

	"pr-reminder/pkg/models"
)

const (
	// pastDueGraceDays suppresses the "set a new date" notice right after the freeze.
	pastDueGraceDays = 2
	// reviewWindowDays is the countdown range in which review reminders go out.
	reviewWindowDays = 3
	// longRangeMinDays and longRangeEvery set the triage reminder cadence.
	longRangeMinDays = 5
	longRangeEvery   = 3
)

// FreezeKind classifies the position of "now" relative to the freeze date.
type FreezeKind int

const (
	FreezeQuiet FreezeKind = iota
	FreezePastDue
	FreezeWithinWindow
	FreezeLongRange
)

func (k FreezeKind) String() string {
	switch k {
	case FreezePastDue:
		return "past-due"
	case FreezeWithinWindow:
		return "within-window"
	case FreezeLongRange:
		return "long-range"
	default:
		return "quiet"
	}
}

// FreezeDecision is the outcome of the freeze countdown for one run.
// Days is days since the freeze for FreezePastDue and days remaining otherwise.
type FreezeDecision struct {
	Kind FreezeKind
	Days int
}

// NeedsNewDate reports whether the freeze is far enough past to ask for a new date.
func (d FreezeDecision) NeedsNewDate() bool {
	return d.Kind == FreezePastDue && d.Days >= pastDueGraceDays
}

// Policy maps the decision to the reminder it triggers, if any.
func (d FreezeDecision) Policy() (models.ReminderPolicy, bool) {
	switch d.Kind {
	case FreezeWithinWindow:
		return models.AwaitingReview, true
	case FreezeLongRange:
		return models.MissingTriage, true
	case FreezePastDue:
		if d.NeedsNewDate() {
			return models.ProjectFreezeStatus, true
		}
	}
	return 0, false
}

func (d FreezeDecision) String() string {
	return fmt.Sprintf("%s(%d)", d.Kind, d.Days)
}

// EvaluateFreezeWindow decides which reminder applies at now for the given freeze date.
func EvaluateFreezeWindow(freeze, now time.Time) FreezeDecision {
	if freeze.Before(now) {
		return FreezeDecision{Kind: FreezePastDue, Days: roundUnits(now.Sub(freeze), day)}
	}

	remaining := roundUnits(freeze.Sub(now), day)
	switch {
	case remaining <= reviewWindowDays:
		return FreezeDecision{Kind: FreezeWithinWindow, Days: remaining}
	case remaining > longRangeMinDays && remaining%longRangeEvery == 0:
		return FreezeDecision{Kind: FreezeLongRange, Days: remaining}
	default:
		return FreezeDecision{Kind: FreezeQuiet, Days: remaining}
	}
}

var freezeDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
}

// ParseFreezeDate parses a freeze date given as YYYY-MM-DD (UTC midnight) or RFC 3339.
func ParseFreezeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("freeze date: %w", ErrConfigurationMissing)
	}
	for _, layout := range freezeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("freeze date %q: %w", s, ErrConfigurationInvalid)
}
