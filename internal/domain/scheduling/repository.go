package scheduling

import (
	"context"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/models"
)

// BookingRecords is the unit persisted for one confirmed public booking.
type BookingRecords struct {
	Link     *models.SchedulingLink
	Contact  *models.Contact
	Activity *models.Activity
	Meeting  *models.Meeting
}

type Repository interface {
	// -------- Scheduling links --------
	GetLinkByToken(
		ctx context.Context,
		token string,
	) (*models.SchedulingLink, error)

	GetLinkForUser(
		ctx context.Context,
		linkID uint,
		userID uint,
	) (*models.SchedulingLink, error)

	ListLinksForUser(
		ctx context.Context,
		userID uint,
	) ([]models.SchedulingLink, error)

	CreateLink(ctx context.Context, link *models.SchedulingLink) error
	UpdateLink(ctx context.Context, link *models.SchedulingLink) error
	DeleteLink(ctx context.Context, linkID uint, userID uint) error

	// -------- Users / contacts --------
	GetUserByID(ctx context.Context, id uint) (*models.User, error)

	UpsertContactByEmail(
		ctx context.Context,
		name string,
		email string,
		phone string,
	) (*models.Contact, error)

	// -------- Meetings (busy / conflict reads) --------
	ListMeetingsForUser(
		ctx context.Context,
		userID uint,
		start time.Time,
		end time.Time,
		excludeMeetingID uint,
	) ([]models.Meeting, error)

	// -------- Booking (validate-then-persist) --------
	CreateBooking(ctx context.Context, rec *BookingRecords) error

	// -------- Meetings (organizer side) --------
	CreateMeeting(
		ctx context.Context,
		activity *models.Activity,
		meeting *models.Meeting,
		attendeeIDs []uint,
	) error

	GetMeetingForOrganizer(
		ctx context.Context,
		meetingID uint,
		organizerID uint,
	) (*models.Meeting, error)

	UpdateMeeting(ctx context.Context, meeting *models.Meeting) error

	RescheduleMeeting(
		ctx context.Context,
		meeting *models.Meeting,
		newStart time.Time,
		newEnd time.Time,
	) error

	ListMeetingsForPeriod(
		ctx context.Context,
		organizerID uint,
		start time.Time,
		end time.Time,
	) ([]models.Meeting, error)
}
