package scheduling

import (
	"context"
	"testing"
	"time"

	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

func availabilityFixture(t *testing.T) (*fakeRepo, *models.SchedulingLink, interval.Interval, time.Time) {
	t.Helper()

	repo, link := bookingFixture(t)
	day := futureSlotStart().Truncate(24 * time.Hour)
	window := interval.Interval{Start: day, End: day.AddDate(0, 0, 1)}
	now := time.Now().UTC()
	return repo, link, window, now
}

func hasSlotAt(slots []domain.Slot, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}

func TestGetAvailabilityWorkingHoursOnly(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	uc := NewGetAvailability(repo, nil)

	out, err := uc.Execute(context.Background(), link, window, now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Source != domain.SourceWorkingHours {
		t.Errorf("source = %q, want %q", out.Source, domain.SourceWorkingHours)
	}
	// 09:00-17:00 with 30 minute slots on a 30 minute step.
	if len(out.Slots) != 16 {
		t.Fatalf("slots = %d, want 16", len(out.Slots))
	}
	if !hasSlotAt(out.Slots, window.Start.Add(9*time.Hour)) {
		t.Error("opening slot at 09:00 is missing")
	}
}

func TestGetAvailabilityBlocksExistingMeetings(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	start := window.Start.Add(10 * time.Hour)
	repo.meetings = append(repo.meetings, &models.Meeting{
		ID:            99,
		OrganizerID:   link.UserID,
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		MeetingStatus: string(domain.StatusScheduled),
	})
	uc := NewGetAvailability(repo, nil)

	out, err := uc.Execute(context.Background(), link, window, now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if hasSlotAt(out.Slots, start) {
		t.Error("slot overlapping an existing meeting was offered")
	}
	if len(out.Slots) != 15 {
		t.Errorf("slots = %d, want 15", len(out.Slots))
	}
}

func TestGetAvailabilityIgnoresCancelledMeetings(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	start := window.Start.Add(10 * time.Hour)
	repo.meetings = append(repo.meetings, &models.Meeting{
		ID:            99,
		OrganizerID:   link.UserID,
		StartTime:     start,
		EndTime:       start.Add(30 * time.Minute),
		MeetingStatus: string(domain.StatusCancelled),
	})
	uc := NewGetAvailability(repo, nil)

	out, err := uc.Execute(context.Background(), link, window, now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !hasSlotAt(out.Slots, start) {
		t.Error("cancelled meeting must not block its slot")
	}
}

func TestGetAvailabilityMergesProviderBusy(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	busyStart := window.Start.Add(11 * time.Hour)
	provider := &fakeProvider{
		connected: true,
		busy: []interval.Interval{
			{Start: busyStart, End: busyStart.Add(time.Hour)},
		},
	}
	uc := NewGetAvailability(repo, provider)

	out, err := uc.Execute(context.Background(), link, window, now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Source != domain.SourceGoogleCalendar {
		t.Errorf("source = %q, want %q", out.Source, domain.SourceGoogleCalendar)
	}
	if hasSlotAt(out.Slots, busyStart) || hasSlotAt(out.Slots, busyStart.Add(30*time.Minute)) {
		t.Error("slots inside the external busy block were offered")
	}
	if len(out.Slots) != 14 {
		t.Errorf("slots = %d, want 14", len(out.Slots))
	}
}

func TestGetAvailabilityFallsBackOnProviderError(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	provider := &fakeProvider{connected: true, busyErr: errLookup}
	uc := NewGetAvailability(repo, provider)

	out, err := uc.Execute(context.Background(), link, window, now)
	if err != nil {
		t.Fatalf("a provider outage must not fail the read, got %v", err)
	}
	if out.Source != domain.SourceWorkingHoursFallback {
		t.Errorf("source = %q, want %q", out.Source, domain.SourceWorkingHoursFallback)
	}
	if len(out.Slots) != 16 {
		t.Errorf("slots = %d, want the full working-hours grid of 16", len(out.Slots))
	}
}

func TestGetAvailabilityRepoErrorPropagates(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	repo.listErr = errLookup
	uc := NewGetAvailability(repo, nil)

	if _, err := uc.Execute(context.Background(), link, window, now); err == nil {
		t.Fatal("expected the meeting lookup error to propagate")
	}
}

func TestGetAvailabilityClampsToHorizon(t *testing.T) {
	repo, link, _, now := availabilityFixture(t)
	link.AdvanceBookingDays = 1
	uc := NewGetAvailability(repo, nil)

	// Entirely beyond the one-day horizon.
	day := now.AddDate(0, 0, 5).Truncate(24 * time.Hour)
	out, err := uc.Execute(context.Background(), link, interval.Interval{
		Start: day,
		End:   day.AddDate(0, 0, 1),
	}, now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Slots) != 0 {
		t.Errorf("slots beyond the horizon = %d, want 0", len(out.Slots))
	}
}

func TestGetAvailabilitySameDayGridStaysAligned(t *testing.T) {
	repo, link := bookingFixture(t)
	uc := NewGetAvailability(repo, nil)

	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour)
	window := interval.Interval{Start: day, End: day.AddDate(0, 0, 2)}

	out, err := uc.Execute(context.Background(), link, window, now)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Slots) == 0 {
		t.Fatal("a two-day window starting today must offer slots")
	}

	for _, s := range out.Slots {
		if !s.Start.After(now) {
			t.Errorf("slot %v starts at or before now", s.Start)
		}
		if s.Start.Second() != 0 || s.Start.Nanosecond() != 0 || s.Start.Minute()%30 != 0 {
			t.Errorf("slot %v is off the half-hour grid", s.Start)
		}
	}
}

func TestGetAvailabilityRejectsMalformedHours(t *testing.T) {
	repo, link, window, now := availabilityFixture(t)
	link.WorkingHours = `{"1":{"start":"17:00","end":"09:00"}}`
	uc := NewGetAvailability(repo, nil)

	_, err := uc.Execute(context.Background(), link, window, now)
	wantBusinessCode(t, err, "invalid_working_hours")
}
