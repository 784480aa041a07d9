package scheduling

import (
	"context"
	"time"

	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
)

type CheckConflicts struct {
	repo domain.Repository
}

func NewCheckConflicts(repo domain.Repository) *CheckConflicts {
	return &CheckConflicts{repo: repo}
}

type CheckConflictsInput struct {
	Start       time.Time
	End         time.Time
	OrganizerID uint
	AttendeeIDs []uint

	// Reschedules exclude the meeting being moved.
	ExcludeMeetingID uint

	// Buffer minutes widen the proposed interval before testing.
	BufferBeforeMinutes int
	BufferAfterMinutes  int
}

// Execute is a pure read. Any lookup error propagates so callers fail
// closed instead of silently allowing a double-booking.
func (uc *CheckConflicts) Execute(
	ctx context.Context,
	in CheckConflictsInput,
) (*domain.ConflictResult, error) {

	start := in.Start.Add(-time.Duration(in.BufferBeforeMinutes) * time.Minute)
	end := in.End.Add(time.Duration(in.BufferAfterMinutes) * time.Minute)

	result := &domain.ConflictResult{
		AttendeeConflicts: map[uint][]domain.ConflictingMeeting{},
	}

	organizerMeetings, err := uc.repo.ListMeetingsForUser(
		ctx, in.OrganizerID, start, end, in.ExcludeMeetingID,
	)
	if err != nil {
		return nil, err
	}
	result.OrganizerConflicts = domain.ToConflicting(organizerMeetings, start, end)

	for _, attendeeID := range in.AttendeeIDs {
		if attendeeID == in.OrganizerID {
			continue
		}
		meetings, err := uc.repo.ListMeetingsForUser(
			ctx, attendeeID, start, end, in.ExcludeMeetingID,
		)
		if err != nil {
			return nil, err
		}
		if conflicts := domain.ToConflicting(meetings, start, end); len(conflicts) > 0 {
			result.AttendeeConflicts[attendeeID] = conflicts
		}
	}

	result.HasConflicts = len(result.OrganizerConflicts) > 0 || len(result.AttendeeConflicts) > 0
	return result, nil
}
