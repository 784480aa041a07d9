package scheduling

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/notify"
)

type CancelMeeting struct {
	repo     domain.Repository
	provider calendar.Provider
	notifier Notifier
	audit    *audit.Dispatcher
}

func NewCancelMeeting(
	repo domain.Repository,
	provider calendar.Provider,
	notifier Notifier,
	auditDispatcher *audit.Dispatcher,
) *CancelMeeting {
	return &CancelMeeting{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		audit:    auditDispatcher,
	}
}

func (uc *CancelMeeting) Execute(
	ctx context.Context,
	organizerID uint,
	meetingID uint,
	reason string,
) (*models.Meeting, error) {

	meeting, err := uc.repo.GetMeetingForOrganizer(ctx, meetingID, organizerID)
	if err != nil {
		return nil, httperr.ErrBusiness("meeting_not_found")
	}

	if err := domain.CanCancel(domain.Status(meeting.MeetingStatus)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	meeting.MeetingStatus = string(domain.StatusCancelled)
	meeting.CancelledAt = &now
	meeting.CancelledBy = &organizerID
	meeting.CancelReason = reason

	if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
		return nil, err
	}

	// Best-effort removal of the mirrored event.
	if meeting.CalendarEventID != "" && uc.provider != nil {
		if err := uc.provider.DeleteEvent(ctx, organizerID, meeting.CalendarEventID); err != nil {
			log.Printf("meeting %d: external event delete failed: %v", meeting.ID, err)
		}
	}

	uc.notifyGuests(meeting)

	uc.audit.Dispatch(audit.Event{
		UserID:   &organizerID,
		Action:   "meeting_cancelled",
		Entity:   "meeting",
		EntityID: &meeting.ID,
		Metadata: map[string]any{"reason": reason},
	})

	return meeting, nil
}

func (uc *CancelMeeting) notifyGuests(meeting *models.Meeting) {
	if uc.notifier == nil || meeting.ExternalAttendees == "" {
		return
	}

	var guests []ExternalAttendee
	if err := json.Unmarshal([]byte(meeting.ExternalAttendees), &guests); err != nil {
		return
	}

	for _, guest := range guests {
		if guest.Email == "" {
			continue
		}
		uc.notifier.SendCancellationNotice(notify.BookingEmail{
			ToName:        guest.Name,
			ToEmail:       guest.Email,
			MeetingTitle:  meeting.Activity.Subject,
			OrganizerName: meeting.OrganizerEmail,
			Start:         meeting.StartTime,
			End:           meeting.EndTime,
			Timezone:      meeting.Timezone,
		})
	}
}
