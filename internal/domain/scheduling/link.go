package scheduling

import (
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/timezone"
)

// ValidateLinkConfig checks an organizer's link configuration before it is
// persisted. The duration plus both buffers must fit within at least one
// working-hours window or the link could never produce a slot.
func ValidateLinkConfig(link *models.SchedulingLink, wh WorkingHours) error {
	if link.DurationMinutes <= 0 {
		return httperr.ErrBusiness("invalid_duration")
	}
	if link.BufferTimeBefore < 0 || link.BufferTimeAfter < 0 {
		return httperr.ErrBusiness("invalid_buffer")
	}
	if link.AdvanceBookingDays <= 0 {
		return httperr.ErrBusiness("invalid_advance_days")
	}
	if !timezone.IsValid(link.Timezone) {
		return httperr.ErrBusiness("invalid_timezone")
	}

	if len(wh) == 0 {
		wh = DefaultWorkingHours()
	}
	if err := wh.Validate(); err != nil {
		return err
	}

	total := link.DurationMinutes + link.BufferTimeBefore + link.BufferTimeAfter
	if wh.LongestWindowMinutes() < total {
		return httperr.ErrBusiness("duration_exceeds_working_hours")
	}

	return nil
}
