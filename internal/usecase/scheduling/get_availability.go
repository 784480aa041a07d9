package scheduling

import (
	"context"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/timezone"
)

type GetAvailability struct {
	repo     domain.Repository
	provider calendar.Provider
}

func NewGetAvailability(
	repo domain.Repository,
	provider calendar.Provider,
) *GetAvailability {
	return &GetAvailability{
		repo:     repo,
		provider: provider,
	}
}

type AvailabilityResult struct {
	Slots  []domain.Slot
	Source string
}

// Execute computes the bookable slots of a link inside the requested
// window. Existing CRM meetings always block time; the external calendar
// adds its busy picture when connected, and a provider failure silently
// degrades to the link's working hours.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	link *models.SchedulingLink,
	window interval.Interval,
	now time.Time,
) (*AvailabilityResult, error) {

	wh, err := domain.ParseWorkingHours(link.WorkingHours)
	if err != nil {
		return nil, err
	}

	// Clamp the end to the advance-booking horizon. The start stays on the
	// caller's day boundary so the slot grid remains anchored to the
	// working-hours opening; candidates at or before now are dropped during
	// generation.
	horizon := now.AddDate(0, 0, link.AdvanceBookingDays)
	if window.End.After(horizon) {
		window.End = horizon
	}
	if !window.IsValid() {
		return &AvailabilityResult{Slots: nil, Source: domain.SourceWorkingHours}, nil
	}

	meetings, err := uc.repo.ListMeetingsForUser(ctx, link.UserID, window.Start, window.End, 0)
	if err != nil {
		return nil, err
	}
	busy := domain.BusyIntervals(meetings)

	source := domain.SourceWorkingHours
	if uc.provider != nil && uc.provider.IsConnected(ctx, link.UserID) {
		providerBusy, err := uc.provider.BusyIntervals(ctx, link.UserID, window)
		if err != nil {
			// Degrade, never fail the read.
			source = domain.SourceWorkingHoursFallback
		} else {
			source = domain.SourceGoogleCalendar
			busy = append(busy, providerBusy...)
		}
	}

	slots := domain.GenerateFromWorkingHours(domain.GenerateInput{
		Window:              window,
		DurationMinutes:     link.DurationMinutes,
		StepMinutes:         domain.DefaultStepMinutes,
		BufferBeforeMinutes: link.BufferTimeBefore,
		BufferAfterMinutes:  link.BufferTimeAfter,
		Busy:                busy,
		Now:                 now,
	}, wh, timezone.Location(link.Timezone))

	return &AvailabilityResult{
		Slots:  slots,
		Source: source,
	}, nil
}
