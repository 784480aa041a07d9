package scheduling

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/notify"
)

// fakeRepo is an in-memory domain.Repository for use case tests.
type fakeRepo struct {
	mu sync.Mutex

	links    map[string]*models.SchedulingLink
	users    map[uint]*models.User
	contacts map[string]*models.Contact
	meetings []*models.Meeting

	nextID uint

	listErr   error
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		links:    map[string]*models.SchedulingLink{},
		users:    map[uint]*models.User{},
		contacts: map[string]*models.Contact{},
		nextID:   1,
	}
}

func (f *fakeRepo) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepo) GetLinkByToken(_ context.Context, token string) (*models.SchedulingLink, error) {
	if link, ok := f.links[token]; ok {
		return link, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetLinkForUser(_ context.Context, linkID, userID uint) (*models.SchedulingLink, error) {
	for _, link := range f.links {
		if link.ID == linkID && link.UserID == userID {
			return link, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListLinksForUser(_ context.Context, userID uint) ([]models.SchedulingLink, error) {
	var out []models.SchedulingLink
	for _, link := range f.links {
		if link.UserID == userID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateLink(_ context.Context, link *models.SchedulingLink) error {
	link.ID = f.id()
	f.links[link.Token] = link
	return nil
}

func (f *fakeRepo) UpdateLink(_ context.Context, link *models.SchedulingLink) error {
	f.links[link.Token] = link
	return nil
}

func (f *fakeRepo) DeleteLink(_ context.Context, linkID, userID uint) error {
	for token, link := range f.links {
		if link.ID == linkID && link.UserID == userID {
			delete(f.links, token)
			return nil
		}
	}
	return httperr.ErrBusiness("link_not_found")
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpsertContactByEmail(_ context.Context, name, email, phone string) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.contacts[email]; ok {
		if c.Name == "" {
			c.Name = name
		}
		if c.Phone == "" {
			c.Phone = phone
		}
		return c, nil
	}
	c := &models.Contact{ID: f.id(), Name: name, Email: email, Phone: phone}
	f.contacts[email] = c
	return c, nil
}

func (f *fakeRepo) ListMeetingsForUser(
	_ context.Context,
	userID uint,
	start, end time.Time,
	excludeMeetingID uint,
) ([]models.Meeting, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	window := interval.Interval{Start: start, End: end}
	var out []models.Meeting
	for _, m := range f.meetings {
		if m.ID == excludeMeetingID {
			continue
		}
		if m.OrganizerID != userID && !f.hasAttendee(m, userID) {
			continue
		}
		if m.MeetingStatus == string(domain.StatusCancelled) {
			continue
		}
		if !interval.Overlaps(window, interval.Interval{Start: m.StartTime, End: m.EndTime}) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeRepo) hasAttendee(m *models.Meeting, userID uint) bool {
	for _, att := range m.Attendees {
		if att.UserID == userID {
			return true
		}
	}
	return false
}

func (f *fakeRepo) CreateBooking(_ context.Context, rec *domain.BookingRecords) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	proposed := interval.Interval{Start: rec.Meeting.StartTime, End: rec.Meeting.EndTime}
	for _, m := range f.meetings {
		if m.OrganizerID != rec.Meeting.OrganizerID {
			continue
		}
		if m.MeetingStatus == string(domain.StatusCancelled) {
			continue
		}
		if interval.Overlaps(proposed, interval.Interval{Start: m.StartTime, End: m.EndTime}) {
			return httperr.ErrBusiness("SLOT_UNAVAILABLE")
		}
	}

	rec.Activity.ID = f.id()
	rec.Meeting.ID = f.id()
	rec.Meeting.ActivityID = rec.Activity.ID
	rec.Meeting.Activity = *rec.Activity
	f.meetings = append(f.meetings, rec.Meeting)

	now := time.Now().UTC()
	rec.Link.BookingCount++
	rec.Link.LastUsedAt = &now
	return nil
}

func (f *fakeRepo) CreateMeeting(
	_ context.Context,
	activity *models.Activity,
	meeting *models.Meeting,
	attendeeIDs []uint,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	activity.ID = f.id()
	meeting.ID = f.id()
	meeting.ActivityID = activity.ID
	meeting.Activity = *activity
	for _, userID := range attendeeIDs {
		meeting.Attendees = append(meeting.Attendees, models.MeetingAttendee{
			MeetingID: meeting.ID,
			UserID:    userID,
		})
	}
	f.meetings = append(f.meetings, meeting)
	return nil
}

func (f *fakeRepo) GetMeetingForOrganizer(_ context.Context, meetingID, organizerID uint) (*models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.meetings {
		if m.ID == meetingID && m.OrganizerID == organizerID {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) UpdateMeeting(_ context.Context, meeting *models.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, m := range f.meetings {
		if m.ID == meeting.ID {
			f.meetings[i] = meeting
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) RescheduleMeeting(
	ctx context.Context,
	meeting *models.Meeting,
	newStart, newEnd time.Time,
) error {
	meeting.StartTime = newStart
	meeting.EndTime = newEnd
	meeting.Activity.StartTime = newStart
	meeting.Activity.EndTime = newEnd
	return f.UpdateMeeting(ctx, meeting)
}

func (f *fakeRepo) ListMeetingsForPeriod(
	_ context.Context,
	organizerID uint,
	start, end time.Time,
) ([]models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Meeting
	for _, m := range f.meetings {
		if m.OrganizerID != organizerID {
			continue
		}
		if m.StartTime.Before(start) || !m.StartTime.Before(end) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

var _ domain.Repository = (*fakeRepo)(nil)

// fakeProvider simulates the external calendar collaborator.
type fakeProvider struct {
	connected bool

	busy    []interval.Interval
	busyErr error

	created   *calendar.CreatedEvent
	createErr error

	createCalls int
	updateCalls int
	deleteCalls int
}

func (p *fakeProvider) IsConnected(context.Context, uint) bool {
	return p.connected
}

func (p *fakeProvider) BusyIntervals(context.Context, uint, interval.Interval) ([]interval.Interval, error) {
	if p.busyErr != nil {
		return nil, p.busyErr
	}
	return p.busy, nil
}

func (p *fakeProvider) CreateEvent(context.Context, uint, calendar.Event) (*calendar.CreatedEvent, error) {
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.created != nil {
		return p.created, nil
	}
	return &calendar.CreatedEvent{EventID: "evt-1"}, nil
}

func (p *fakeProvider) UpdateEvent(context.Context, uint, string, calendar.Event) error {
	p.updateCalls++
	return nil
}

func (p *fakeProvider) DeleteEvent(context.Context, uint, string) error {
	p.deleteCalls++
	return nil
}

var _ calendar.Provider = (*fakeProvider)(nil)

// fakeNotifier records sent emails.
type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []notify.BookingEmail
	cancellations []notify.BookingEmail
}

func (n *fakeNotifier) SendBookingConfirmation(email notify.BookingEmail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, email)
}

func (n *fakeNotifier) SendCancellationNotice(email notify.BookingEmail) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations = append(n.cancellations, email)
}

var errLookup = errors.New("lookup failed")
