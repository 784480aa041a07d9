package scheduling

import (
	"context"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

type CompleteMeeting struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCompleteMeeting(
	repo domain.Repository,
	auditDispatcher *audit.Dispatcher,
) *CompleteMeeting {
	return &CompleteMeeting{
		repo:  repo,
		audit: auditDispatcher,
	}
}

func (uc *CompleteMeeting) Execute(
	ctx context.Context,
	organizerID uint,
	meetingID uint,
	noShow bool,
) (*models.Meeting, error) {

	meeting, err := uc.repo.GetMeetingForOrganizer(ctx, meetingID, organizerID)
	if err != nil {
		return nil, httperr.ErrBusiness("meeting_not_found")
	}

	current := domain.Status(meeting.MeetingStatus)
	action := "meeting_completed"

	if noShow {
		if err := domain.CanMarkNoShow(current); err != nil {
			return nil, err
		}
		meeting.MeetingStatus = string(domain.StatusNoShow)
		action = "meeting_no_show"
	} else {
		if err := domain.CanComplete(current); err != nil {
			return nil, err
		}
		meeting.MeetingStatus = string(domain.StatusCompleted)
	}

	if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &organizerID,
		Action:   action,
		Entity:   "meeting",
		EntityID: &meeting.ID,
	})

	return meeting, nil
}
