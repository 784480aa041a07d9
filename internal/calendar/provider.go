package calendar

import (
	"context"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/interval"
)

// Event is the provider-agnostic mirror payload for a meeting.
type Event struct {
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	Timezone       string
	AttendeeEmails []string
	RecurrenceRule string

	// Ask the provider to attach a video-conference join link.
	WithMeetLink bool
}

type CreatedEvent struct {
	EventID  string
	HTMLLink string
	MeetLink string
}

// Provider is the external calendar collaborator. Every call may fail;
// callers degrade per the booking flow and never block on the provider.
type Provider interface {
	IsConnected(ctx context.Context, userID uint) bool

	BusyIntervals(
		ctx context.Context,
		userID uint,
		window interval.Interval,
	) ([]interval.Interval, error)

	CreateEvent(ctx context.Context, userID uint, ev Event) (*CreatedEvent, error)
	UpdateEvent(ctx context.Context, userID uint, eventID string, ev Event) error
	DeleteEvent(ctx context.Context, userID uint, eventID string) error
}
