package handlers

import (
	"time"

	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/timezone"

	"github.com/gin-gonic/gin"
)

// resolve o timezone de exibição: query override > link > UTC
func displayLocation(link *models.SchedulingLink, override string) (*time.Location, string) {
	if override != "" && timezone.IsValid(override) {
		return timezone.Location(override), override
	}
	if link != nil && link.Timezone != "" {
		return timezone.Location(link.Timezone), link.Timezone
	}
	return time.UTC, timezone.DefaultTimezone
}

func parseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, loc)
}

// writeBusinessError maps domain reason codes to HTTP statuses. Unknown
// errors stay opaque 500s.
func writeBusinessError(c *gin.Context, err error) {
	code, ok := httperr.BusinessCode(err)
	if !ok {
		httperr.Internal(c, "internal_error", "Something went wrong.")
		return
	}

	switch code {
	case "link_not_found", "meeting_not_found", "LINK_INACTIVE":
		httperr.NotFound(c, code, messageFor(code))
	case "SLOT_UNAVAILABLE", "time_conflict":
		httperr.Conflict(c, code, messageFor(code))
	default:
		httperr.BadRequest(c, code, messageFor(code))
	}
}

func messageFor(code string) string {
	switch code {
	case "link_not_found":
		return "Scheduling link not found."
	case "LINK_INACTIVE":
		return "This scheduling link is no longer accepting bookings."
	case "meeting_not_found":
		return "Meeting not found."
	case "SLOT_UNAVAILABLE":
		return "The selected time slot is no longer available."
	case "time_conflict":
		return "The requested time conflicts with an existing meeting."
	case "MISSING_REQUIRED_FIELD":
		return "A required booking field is missing or invalid."
	case "OUTSIDE_BOOKING_WINDOW":
		return "The selected time is outside the bookable window."
	case "invalid_working_hours":
		return "Working hours configuration is invalid."
	case "invalid_duration":
		return "Duration must be a positive number of minutes."
	case "invalid_buffer":
		return "Buffers cannot be negative."
	case "invalid_advance_days":
		return "Advance booking days must be positive."
	case "invalid_timezone":
		return "Unknown timezone identifier."
	case "duration_exceeds_working_hours":
		return "Duration plus buffers does not fit any working-hours window."
	case "invalid_state":
		return "The meeting status does not allow this operation."
	case "invalid_time_range":
		return "End time must be after start time."
	default:
		return "Request rejected."
	}
}
