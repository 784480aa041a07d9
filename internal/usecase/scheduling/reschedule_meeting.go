package scheduling

import (
	"context"
	"log"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

type RescheduleMeeting struct {
	repo      domain.Repository
	conflicts *CheckConflicts
	provider  calendar.Provider
	audit     *audit.Dispatcher
}

func NewRescheduleMeeting(
	repo domain.Repository,
	conflicts *CheckConflicts,
	provider calendar.Provider,
	auditDispatcher *audit.Dispatcher,
) *RescheduleMeeting {
	return &RescheduleMeeting{
		repo:      repo,
		conflicts: conflicts,
		provider:  provider,
		audit:     auditDispatcher,
	}
}

func (uc *RescheduleMeeting) Execute(
	ctx context.Context,
	organizerID uint,
	meetingID uint,
	newStart time.Time,
	newEnd time.Time,
) (*models.Meeting, error) {

	if !newStart.Before(newEnd) {
		return nil, httperr.ErrBusiness("invalid_time_range")
	}

	meeting, err := uc.repo.GetMeetingForOrganizer(ctx, meetingID, organizerID)
	if err != nil {
		return nil, httperr.ErrBusiness("meeting_not_found")
	}

	if err := domain.CanReschedule(domain.Status(meeting.MeetingStatus)); err != nil {
		return nil, err
	}

	// Check everything except the meeting being moved; fail closed on error.
	check, err := uc.conflicts.Execute(ctx, CheckConflictsInput{
		Start:            newStart,
		End:              newEnd,
		OrganizerID:      organizerID,
		ExcludeMeetingID: meeting.ID,
	})
	if err != nil {
		return nil, err
	}
	if check.HasConflicts {
		return nil, httperr.ErrBusiness("time_conflict")
	}

	if err := uc.repo.RescheduleMeeting(ctx, meeting, newStart.UTC(), newEnd.UTC()); err != nil {
		return nil, err
	}

	// Best-effort move of the mirrored event.
	if meeting.CalendarEventID != "" && uc.provider != nil {
		err := uc.provider.UpdateEvent(ctx, organizerID, meeting.CalendarEventID, calendar.Event{
			Summary:     meeting.Activity.Subject,
			Description: meeting.Activity.Description,
			Start:       meeting.StartTime,
			End:         meeting.EndTime,
			Timezone:    meeting.Timezone,
		})
		if err != nil {
			log.Printf("meeting %d: external event update failed: %v", meeting.ID, err)
			meeting.CalendarMirrorStatus = MirrorFailed
			if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
				log.Printf("meeting %d: failed to record mirror failure: %v", meeting.ID, err)
			}
		}
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &organizerID,
		Action:   "meeting_rescheduled",
		Entity:   "meeting",
		EntityID: &meeting.ID,
		Metadata: map[string]any{
			"new_start": newStart,
			"new_end":   newEnd,
		},
	})

	return meeting, nil
}
