package scheduling

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

// everyDayHours opens 09:00-17:00 on all seven weekdays so the tests do not
// depend on which day of the week they run.
func everyDayHours(t *testing.T) string {
	t.Helper()
	wh := domain.WorkingHours{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		wh[d] = domain.DayWindow{Start: "09:00", End: "17:00"}
	}
	raw, err := wh.MarshalJSONColumn()
	if err != nil {
		t.Fatalf("marshal working hours: %v", err)
	}
	return raw
}

// futureSlotStart is 09:00 UTC two days from now, which always sits inside
// the test link's working hours and booking horizon.
func futureSlotStart() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 2).Truncate(24 * time.Hour)
	return day.Add(9 * time.Hour)
}

func bookingFixture(t *testing.T) (*fakeRepo, *models.SchedulingLink) {
	t.Helper()

	repo := newFakeRepo()
	repo.users[1] = &models.User{
		ID:    1,
		Name:  "Dana Organizer",
		Email: "dana@crmforge.test",
	}
	link := &models.SchedulingLink{
		UserID:             1,
		Token:              "demo-30min",
		Title:              "Intro Call",
		DurationMinutes:    30,
		Timezone:           "UTC",
		AdvanceBookingDays: 30,
		WorkingHours:       everyDayHours(t),
		RequireEmail:       true,
		RequireName:        true,
		AutoConfirm:        true,
		IsActive:           true,
	}
	if err := repo.CreateLink(context.Background(), link); err != nil {
		t.Fatalf("create link: %v", err)
	}
	return repo, link
}

func newBookSlot(repo *fakeRepo, provider *fakeProvider, notifier *fakeNotifier) *BookSlot {
	var p calendar.Provider
	if provider != nil {
		p = provider
	}
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	return NewBookSlot(repo, NewGetAvailability(repo, p), p, nil, n, nil, false)
}

func wantBusinessCode(t *testing.T, err error, code string) {
	t.Helper()
	got, ok := httperr.BusinessCode(err)
	if !ok {
		t.Fatalf("expected business error %q, got %v", code, err)
	}
	if got != code {
		t.Fatalf("expected code %q, got %q", code, got)
	}
}

func TestBookSlotPersistsMeeting(t *testing.T) {
	repo, link := bookingFixture(t)
	notifier := &fakeNotifier{}
	uc := newBookSlot(repo, nil, notifier)

	out, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: futureSlotStart(),
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.Meeting.ID == 0 {
		t.Fatal("meeting was not persisted")
	}
	if out.Meeting.MeetingStatus != string(domain.StatusConfirmed) {
		t.Errorf("auto-confirm link should yield confirmed, got %q", out.Meeting.MeetingStatus)
	}
	if out.Meeting.EndTime.Sub(out.Meeting.StartTime) != 30*time.Minute {
		t.Errorf("meeting length = %v, want 30m", out.Meeting.EndTime.Sub(out.Meeting.StartTime))
	}
	if out.Meeting.InviteUID == "" {
		t.Error("invite UID was not assigned")
	}
	if link.BookingCount != 1 {
		t.Errorf("booking count = %d, want 1", link.BookingCount)
	}
	if _, ok := repo.contacts["ana@example.com"]; !ok {
		t.Error("contact was not upserted")
	}
	if len(notifier.confirmations) != 1 {
		t.Errorf("confirmations sent = %d, want 1", len(notifier.confirmations))
	}
	if out.CalendarAdded {
		t.Error("no provider configured, calendar must not be marked added")
	}
	if out.Meeting.CalendarMirrorStatus != MirrorSkipped {
		t.Errorf("mirror status = %q, want %q", out.Meeting.CalendarMirrorStatus, MirrorSkipped)
	}
}

func TestBookSlotRejectsDoubleBooking(t *testing.T) {
	repo, link := bookingFixture(t)
	uc := newBookSlot(repo, nil, nil)
	start := futureSlotStart()

	first := BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: start,
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	}
	if _, err := uc.Execute(context.Background(), first); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	second := first
	second.AttendeeName = "Bruno Guest"
	second.AttendeeEmail = "bruno@example.com"
	_, err := uc.Execute(context.Background(), second)
	wantBusinessCode(t, err, "SLOT_UNAVAILABLE")

	if len(repo.meetings) != 1 {
		t.Fatalf("meetings stored = %d, want 1", len(repo.meetings))
	}
}

func TestBookSlotCancelledMeetingFreesSlot(t *testing.T) {
	repo, link := bookingFixture(t)
	uc := newBookSlot(repo, nil, nil)
	start := futureSlotStart()

	if _, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: start,
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	repo.meetings[0].MeetingStatus = string(domain.StatusCancelled)

	if _, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: start,
		AttendeeName:      "Bruno Guest",
		AttendeeEmail:     "bruno@example.com",
	}); err != nil {
		t.Fatalf("rebooking over a cancelled meeting: %v", err)
	}
}

func TestBookSlotUnknownToken(t *testing.T) {
	repo, _ := bookingFixture(t)
	uc := newBookSlot(repo, nil, nil)

	_, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             "no-such-token",
		SelectedSlotStart: futureSlotStart(),
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	wantBusinessCode(t, err, "link_not_found")
}

func TestBookSlotInactiveLink(t *testing.T) {
	repo, link := bookingFixture(t)
	link.IsActive = false
	uc := newBookSlot(repo, nil, nil)

	_, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: futureSlotStart(),
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	wantBusinessCode(t, err, "LINK_INACTIVE")
}

func TestBookSlotMissingRequiredFields(t *testing.T) {
	repo, link := bookingFixture(t)
	uc := newBookSlot(repo, nil, nil)
	start := futureSlotStart()

	cases := []struct {
		name  string
		input BookSlotInput
	}{
		{"no email", BookSlotInput{Token: link.Token, SelectedSlotStart: start, AttendeeName: "Ana"}},
		{"invalid email", BookSlotInput{Token: link.Token, SelectedSlotStart: start, AttendeeName: "Ana", AttendeeEmail: "not-an-email"}},
		{"no name", BookSlotInput{Token: link.Token, SelectedSlotStart: start, AttendeeEmail: "ana@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tc.input)
			wantBusinessCode(t, err, "MISSING_REQUIRED_FIELD")
		})
	}
}

func TestBookSlotOutsideBookingWindow(t *testing.T) {
	repo, link := bookingFixture(t)
	uc := newBookSlot(repo, nil, nil)

	past := time.Now().UTC().Add(-24 * time.Hour)
	_, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: past,
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	wantBusinessCode(t, err, "OUTSIDE_BOOKING_WINDOW")

	beyond := time.Now().UTC().AddDate(0, 0, link.AdvanceBookingDays+5)
	_, err = uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: beyond,
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	wantBusinessCode(t, err, "OUTSIDE_BOOKING_WINDOW")
}

func TestBookSlotOutsideWorkingHours(t *testing.T) {
	repo, link := bookingFixture(t)
	uc := newBookSlot(repo, nil, nil)

	// 07:00 is before the 09:00 opening, so it is never offered.
	start := futureSlotStart().Add(-2 * time.Hour)
	_, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: start,
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	wantBusinessCode(t, err, "SLOT_UNAVAILABLE")
}

func TestBookSlotMirrorFailureKeepsBooking(t *testing.T) {
	repo, link := bookingFixture(t)
	provider := &fakeProvider{connected: true, createErr: errLookup}
	uc := newBookSlot(repo, provider, nil)

	out, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: futureSlotStart(),
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("booking must survive a mirror failure, got %v", err)
	}
	if out.CalendarAdded {
		t.Error("CalendarAdded should be false after a mirror failure")
	}
	if out.Meeting.CalendarMirrorStatus != MirrorFailed {
		t.Errorf("mirror status = %q, want %q", out.Meeting.CalendarMirrorStatus, MirrorFailed)
	}
	if provider.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", provider.createCalls)
	}
}

func TestBookSlotMirrorSuccessAttachesMeetLink(t *testing.T) {
	repo, link := bookingFixture(t)
	provider := &fakeProvider{
		connected: true,
		created: &calendar.CreatedEvent{
			EventID:  "evt-42",
			HTMLLink: "https://calendar.example/evt-42",
			MeetLink: "https://meet.example/abc-defg",
		},
	}
	uc := newBookSlot(repo, provider, nil)

	out, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: futureSlotStart(),
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !out.CalendarAdded {
		t.Fatal("CalendarAdded should be true")
	}
	if out.MeetLink != "https://meet.example/abc-defg" {
		t.Errorf("meet link = %q", out.MeetLink)
	}
	if out.Meeting.CalendarEventID != "evt-42" {
		t.Errorf("calendar event id = %q", out.Meeting.CalendarEventID)
	}
	if out.Meeting.CalendarMirrorStatus != MirrorSucceeded {
		t.Errorf("mirror status = %q, want %q", out.Meeting.CalendarMirrorStatus, MirrorSucceeded)
	}
	if out.Meeting.MeetingURL != "https://meet.example/abc-defg" {
		t.Errorf("meeting URL = %q", out.Meeting.MeetingURL)
	}
}

func TestBookSlotAcceptsSameDaySlot(t *testing.T) {
	repo, link := bookingFixture(t)
	availability := NewGetAvailability(repo, nil)
	uc := newBookSlot(repo, nil, nil)

	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour)
	out, err := availability.Execute(context.Background(), link, interval.Interval{
		Start: day,
		End:   day.AddDate(0, 0, 2),
	}, now)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(out.Slots) == 0 {
		t.Fatal("no slots offered for the next two days")
	}

	first := out.Slots[0]
	booked, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: first.Start,
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("booking the first offered slot: %v", err)
	}
	if !booked.Meeting.StartTime.Equal(first.Start) {
		t.Errorf("booked start %v, offered %v", booked.Meeting.StartTime, first.Start)
	}
}

func TestConfirmedMeetingsNeverOverlap(t *testing.T) {
	repo := newFakeRepo()
	repo.users[1] = &models.User{ID: 1, Name: "Dana Organizer", Email: "dana@crmforge.test"}
	create := NewCreateMeeting(repo, NewCheckConflicts(repo), nil, nil)

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	t.Logf("seed %d", seed)

	base := time.Date(2026, 9, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 80; i++ {
		start := base.
			Add(time.Duration(rng.Intn(5)) * 24 * time.Hour).
			Add(time.Duration(rng.Intn(40)) * 15 * time.Minute)
		end := start.Add(time.Duration(15+rng.Intn(6)*15) * time.Minute)

		_, err := create.Execute(context.Background(), CreateMeetingInput{
			OrganizerID: 1,
			Subject:     "Pipeline sync",
			Start:       start,
			End:         end,
		})
		if err != nil && !httperr.IsBusiness(err, "time_conflict") {
			t.Fatalf("attempt %d (%v-%v): %v", i, start, end, err)
		}

		// Free some spans so later attempts can land where a meeting was.
		if rng.Intn(5) == 0 && len(repo.meetings) > 0 {
			victim := repo.meetings[rng.Intn(len(repo.meetings))]
			victim.MeetingStatus = string(domain.StatusCancelled)
		}
	}

	for i, a := range repo.meetings {
		if !domain.CountsAsBusy(domain.Status(a.MeetingStatus)) {
			continue
		}
		for _, b := range repo.meetings[i+1:] {
			if !domain.CountsAsBusy(domain.Status(b.MeetingStatus)) {
				continue
			}
			if interval.Overlaps(
				interval.Interval{Start: a.StartTime, End: a.EndTime},
				interval.Interval{Start: b.StartTime, End: b.EndTime},
			) {
				t.Fatalf("meetings %d and %d overlap: %v-%v vs %v-%v",
					a.ID, b.ID, a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			}
		}
	}
}

func TestBookSlotNotifiesOrganizerWhenEnabled(t *testing.T) {
	repo, link := bookingFixture(t)
	notifier := &fakeNotifier{}
	uc := NewBookSlot(repo, NewGetAvailability(repo, nil), nil, nil, notifier, nil, true)

	if _, err := uc.Execute(context.Background(), BookSlotInput{
		Token:             link.Token,
		SelectedSlotStart: futureSlotStart(),
		AttendeeName:      "Ana Guest",
		AttendeeEmail:     "ana@example.com",
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(notifier.confirmations) != 2 {
		t.Fatalf("confirmations sent = %d, want booker + organizer", len(notifier.confirmations))
	}
	if notifier.confirmations[1].ToEmail != "dana@crmforge.test" {
		t.Errorf("organizer copy went to %q", notifier.confirmations[1].ToEmail)
	}
}
