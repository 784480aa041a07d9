package scheduling

import (
	"context"
	"time"

	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/dto"
)

type ListMeetings struct {
	repo domain.Repository
}

func NewListMeetings(repo domain.Repository) *ListMeetings {
	return &ListMeetings{repo: repo}
}

func (uc *ListMeetings) Execute(
	ctx context.Context,
	organizerID uint,
	start time.Time,
	end time.Time,
) ([]dto.MeetingListDTO, error) {

	meetings, err := uc.repo.ListMeetingsForPeriod(ctx, organizerID, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MeetingListDTO, 0, len(meetings))
	for _, m := range meetings {
		item := dto.MeetingListDTO{
			ID:            m.ID,
			Subject:       m.Activity.Subject,
			StartTime:     m.StartTime,
			EndTime:       m.EndTime,
			MeetingStatus: m.MeetingStatus,
			MeetingURL:    m.MeetingURL,
		}
		if m.Contact != nil {
			item.ContactName = m.Contact.Name
		}
		out = append(out, item)
	}

	return out, nil
}
