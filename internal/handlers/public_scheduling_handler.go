package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/dto"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
	uc "github.com/crmforge/meeting-scheduler/internal/usecase/scheduling"
)

// ======================================================
// HANDLER
// ======================================================

type PublicSchedulingHandler struct {
	repo         domain.Repository
	availability *uc.GetAvailability
	book         *uc.BookSlot
}

func NewPublicSchedulingHandler(
	repo domain.Repository,
	availability *uc.GetAvailability,
	book *uc.BookSlot,
) *PublicSchedulingHandler {
	return &PublicSchedulingHandler{
		repo:         repo,
		availability: availability,
		book:         book,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type PublicBookRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	StartTime time.Time `json:"start_time" binding:"required"`

	MeetingTitle string            `json:"meeting_title"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"custom_fields"`
}

// ======================================================
// HELPERS
// ======================================================

// slotWindowFromQuery reads startDate/endDate (YYYY-MM-DD) in the display
// zone and returns the half-open window covering those days.
func slotWindowFromQuery(c *gin.Context, link *models.SchedulingLink) (interval.Interval, string, bool) {
	startStr := c.Query("startDate")
	endStr := c.Query("endDate")
	if startStr == "" {
		httperr.BadRequest(c, "missing_params", "startDate is required.")
		return interval.Interval{}, "", false
	}
	if endStr == "" {
		endStr = startStr
	}

	loc, tz := displayLocation(link, c.Query("timezone"))

	start, err := parseDateInLocation(startStr, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "startDate must be YYYY-MM-DD.")
		return interval.Interval{}, "", false
	}
	end, err := parseDateInLocation(endStr, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "endDate must be YYYY-MM-DD.")
		return interval.Interval{}, "", false
	}
	if end.Before(start) {
		httperr.BadRequest(c, "invalid_date_range", "endDate must not precede startDate.")
		return interval.Interval{}, "", false
	}

	return interval.Interval{
		Start: start,
		End:   end.AddDate(0, 0, 1),
	}, tz, true
}

// ======================================================
// LINK METADATA
// ======================================================

func (h *PublicSchedulingHandler) GetLink(c *gin.Context) {
	token := c.Param("token")

	link, err := h.repo.GetLinkByToken(c.Request.Context(), token)
	if err != nil || !link.IsActive {
		httperr.NotFound(c, "link_not_found", messageFor("link_not_found"))
		return
	}

	organizerName := ""
	if organizer, err := h.repo.GetUserByID(c.Request.Context(), link.UserID); err == nil {
		organizerName = organizer.Name
	}

	c.JSON(http.StatusOK, gin.H{
		"link": gin.H{
			"token":              link.Token,
			"title":              link.Title,
			"description":        link.Description,
			"durationMinutes":    link.DurationMinutes,
			"timezone":           link.Timezone,
			"organizerName":      organizerName,
			"requireEmail":       link.RequireEmail,
			"requireName":        link.RequireName,
			"requirePhone":       link.RequirePhone,
			"advanceBookingDays": link.AdvanceBookingDays,
		},
	})
}

// ======================================================
// AVAILABLE SLOTS
// ======================================================

func (h *PublicSchedulingHandler) AvailableSlots(c *gin.Context) {
	token := c.Param("token")

	link, err := h.repo.GetLinkByToken(c.Request.Context(), token)
	if err != nil || !link.IsActive {
		httperr.NotFound(c, "link_not_found", messageFor("link_not_found"))
		return
	}

	window, tz, ok := slotWindowFromQuery(c, link)
	if !ok {
		return
	}

	out, err := h.availability.Execute(c.Request.Context(), link, window, time.Now().UTC())
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	slots := dto.NewSlotDTOs(out.Slots, tz)

	if c.Query("groupByDate") == "true" {
		c.JSON(http.StatusOK, gin.H{
			"slotsByDate": groupSlotsByDate(out.Slots, slots, tz),
			"source":      out.Source,
			"timezone":    tz,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slots":    slots,
		"source":   out.Source,
		"timezone": tz,
	})
}

func groupSlotsByDate(raw []domain.Slot, rendered []dto.SlotDTO, tz string) map[string][]dto.SlotDTO {
	loc, _ := displayLocation(nil, tz)
	grouped := make(map[string][]dto.SlotDTO)
	for i, s := range raw {
		day := s.Start.In(loc).Format("2006-01-02")
		grouped[day] = append(grouped[day], rendered[i])
	}
	return grouped
}

// ======================================================
// BOOK
// ======================================================

func (h *PublicSchedulingHandler) Book(c *gin.Context) {
	token := c.Param("token")

	var req PublicBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid booking payload.")
		return
	}

	out, err := h.book.Execute(c.Request.Context(), uc.BookSlotInput{
		Token:              token,
		SelectedSlotStart:  req.StartTime,
		AttendeeName:       req.Name,
		AttendeeEmail:      req.Email,
		AttendeePhone:      req.Phone,
		MeetingTitle:       req.MeetingTitle,
		MeetingDescription: req.Notes,
		CustomFields:       req.CustomFields,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"meeting": gin.H{
			"meetingId":     out.Meeting.ID,
			"subject":       out.Activity.Subject,
			"startDateTime": out.Meeting.StartTime,
			"endDateTime":   out.Meeting.EndTime,
			"timezone":      out.Meeting.Timezone,
			"status":        out.Meeting.MeetingStatus,
			"meetingUrl":    out.Meeting.MeetingURL,
		},
		"googleCalendar": gin.H{
			"calendarAdded": out.CalendarAdded,
			"meetLink":      out.MeetLink,
		},
	})
}
