package scheduling

import (
	"time"

	"github.com/crmforge/meeting-scheduler/internal/interval"
)

// DefaultStepMinutes governs how densely candidate start times are tried.
// Independent of the meeting duration.
const DefaultStepMinutes = 30

// Availability source markers surfaced to clients.
const (
	SourceGoogleCalendar       = "google_calendar"
	SourceWorkingHours         = "working_hours"
	SourceWorkingHoursFallback = "working_hours_fallback"
)

// Slot is an ephemeral, computed candidate meeting window. Times are UTC
// instants; display localization happens at the HTTP boundary.
type Slot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (s Slot) Interval() interval.Interval {
	return interval.Interval{Start: s.Start, End: s.End}
}
