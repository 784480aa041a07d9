package scheduling

import (
	"time"

	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

// ConflictingMeeting is the client-facing shape of an existing meeting that
// collides with a proposed interval.
type ConflictingMeeting struct {
	MeetingID uint      `json:"meeting_id"`
	Subject   string    `json:"subject"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
}

type ConflictResult struct {
	HasConflicts       bool                          `json:"has_conflicts"`
	OrganizerConflicts []ConflictingMeeting          `json:"organizer_conflicts"`
	AttendeeConflicts  map[uint][]ConflictingMeeting `json:"attendee_conflicts"`
}

// ToConflicting filters meetings down to those overlapping [start,end).
// Cancelled meetings are expected to be excluded upstream; the overlap test
// re-runs here so callers can pass unfiltered day ranges.
func ToConflicting(meetings []models.Meeting, start, end time.Time) []ConflictingMeeting {
	proposed := interval.Interval{Start: start, End: end}

	var out []ConflictingMeeting
	for _, m := range meetings {
		if !CountsAsBusy(Status(m.MeetingStatus)) {
			continue
		}
		if !interval.Overlaps(proposed, interval.Interval{Start: m.StartTime, End: m.EndTime}) {
			continue
		}
		out = append(out, ConflictingMeeting{
			MeetingID: m.ID,
			Subject:   m.Activity.Subject,
			Start:     m.StartTime,
			End:       m.EndTime,
			Status:    m.MeetingStatus,
		})
	}
	return out
}

// BusyIntervals converts non-cancelled meetings to their occupied spans.
func BusyIntervals(meetings []models.Meeting) []interval.Interval {
	var busy []interval.Interval
	for _, m := range meetings {
		if !CountsAsBusy(Status(m.MeetingStatus)) {
			continue
		}
		busy = append(busy, interval.Interval{Start: m.StartTime, End: m.EndTime})
	}
	return busy
}
