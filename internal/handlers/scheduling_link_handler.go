package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/dto"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/httpresp"
	"github.com/crmforge/meeting-scheduler/internal/middleware"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/timezone"
	uc "github.com/crmforge/meeting-scheduler/internal/usecase/scheduling"
)

// ======================================================
// HANDLER
// ======================================================

type SchedulingLinkHandler struct {
	repo         domain.Repository
	availability *uc.GetAvailability
	audit        *audit.Dispatcher
}

func NewSchedulingLinkHandler(
	repo domain.Repository,
	availability *uc.GetAvailability,
	auditDispatcher *audit.Dispatcher,
) *SchedulingLinkHandler {
	return &SchedulingLinkHandler{
		repo:         repo,
		availability: availability,
		audit:        auditDispatcher,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type SchedulingLinkRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`

	DurationMinutes    int    `json:"duration_minutes"`
	Timezone           string `json:"timezone"`
	BufferTimeBefore   int    `json:"buffer_time_before"`
	BufferTimeAfter    int    `json:"buffer_time_after"`
	AdvanceBookingDays int    `json:"advance_booking_days"`

	// Keyed "0".."6" (Sunday = 0); omit to inherit the default hours.
	WorkingHours map[string]domain.DayWindow `json:"working_hours"`

	RequireEmail *bool `json:"require_email"`
	RequireName  *bool `json:"require_name"`
	RequirePhone *bool `json:"require_phone"`
	AutoConfirm  *bool `json:"auto_confirm"`
	IsActive     *bool `json:"is_active"`
}

func (req *SchedulingLinkRequest) workingHoursColumn() (string, domain.WorkingHours, error) {
	if len(req.WorkingHours) == 0 {
		return "", nil, nil
	}
	raw, err := json.Marshal(req.WorkingHours)
	if err != nil {
		return "", nil, httperr.ErrBusiness("invalid_working_hours")
	}
	wh, err := domain.ParseWorkingHours(string(raw))
	if err != nil {
		return "", nil, err
	}
	return string(raw), wh, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// ======================================================
// CRUD
// ======================================================

func (h *SchedulingLinkHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var req SchedulingLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid link payload.")
		return
	}

	whColumn, wh, err := req.workingHoursColumn()
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	tz := req.Timezone
	if tz == "" {
		if user, err := h.repo.GetUserByID(c.Request.Context(), userID); err == nil {
			tz = user.Timezone
		}
	}
	if tz == "" {
		tz = timezone.DefaultTimezone
	}

	link := &models.SchedulingLink{
		UserID:             userID,
		Token:              uuid.NewString(),
		Title:              req.Title,
		Description:        req.Description,
		DurationMinutes:    req.DurationMinutes,
		Timezone:           tz,
		BufferTimeBefore:   req.BufferTimeBefore,
		BufferTimeAfter:    req.BufferTimeAfter,
		AdvanceBookingDays: req.AdvanceBookingDays,
		WorkingHours:       whColumn,
		RequireEmail:       boolOr(req.RequireEmail, true),
		RequireName:        boolOr(req.RequireName, true),
		RequirePhone:       boolOr(req.RequirePhone, false),
		AutoConfirm:        boolOr(req.AutoConfirm, true),
		IsActive:           boolOr(req.IsActive, true),
	}
	if link.DurationMinutes == 0 {
		link.DurationMinutes = 30
	}
	if link.AdvanceBookingDays == 0 {
		link.AdvanceBookingDays = 30
	}

	if err := domain.ValidateLinkConfig(link, wh); err != nil {
		writeBusinessError(c, err)
		return
	}

	if err := h.repo.CreateLink(c.Request.Context(), link); err != nil {
		httperr.Internal(c, "failed_to_create_link", "Could not create the scheduling link.")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   &userID,
		Action:   "scheduling_link_created",
		Entity:   "scheduling_link",
		EntityID: &link.ID,
	})

	c.JSON(http.StatusCreated, gin.H{"link": link})
}

func (h *SchedulingLinkHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	links, err := h.repo.ListLinksForUser(c.Request.Context(), userID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_links", "Could not list scheduling links.")
		return
	}

	httpresp.List(c, links)
}

func (h *SchedulingLinkHandler) Get(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	linkID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_link_id", "Invalid link id.")
		return
	}

	link, err := h.repo.GetLinkForUser(c.Request.Context(), uint(linkID), userID)
	if err != nil {
		httperr.NotFound(c, "link_not_found", messageFor("link_not_found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *SchedulingLinkHandler) Update(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	linkID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_link_id", "Invalid link id.")
		return
	}

	link, err := h.repo.GetLinkForUser(c.Request.Context(), uint(linkID), userID)
	if err != nil {
		httperr.NotFound(c, "link_not_found", messageFor("link_not_found"))
		return
	}

	var req SchedulingLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid link payload.")
		return
	}

	whColumn, wh, err := req.workingHoursColumn()
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	link.Title = req.Title
	link.Description = req.Description
	if req.DurationMinutes > 0 {
		link.DurationMinutes = req.DurationMinutes
	}
	if req.Timezone != "" {
		link.Timezone = req.Timezone
	}
	link.BufferTimeBefore = req.BufferTimeBefore
	link.BufferTimeAfter = req.BufferTimeAfter
	if req.AdvanceBookingDays > 0 {
		link.AdvanceBookingDays = req.AdvanceBookingDays
	}
	if whColumn != "" {
		link.WorkingHours = whColumn
	} else {
		wh, err = domain.ParseWorkingHours(link.WorkingHours)
		if err != nil {
			writeBusinessError(c, err)
			return
		}
	}
	link.RequireEmail = boolOr(req.RequireEmail, link.RequireEmail)
	link.RequireName = boolOr(req.RequireName, link.RequireName)
	link.RequirePhone = boolOr(req.RequirePhone, link.RequirePhone)
	link.AutoConfirm = boolOr(req.AutoConfirm, link.AutoConfirm)
	link.IsActive = boolOr(req.IsActive, link.IsActive)

	if err := domain.ValidateLinkConfig(link, wh); err != nil {
		writeBusinessError(c, err)
		return
	}

	if err := h.repo.UpdateLink(c.Request.Context(), link); err != nil {
		httperr.Internal(c, "failed_to_update_link", "Could not update the scheduling link.")
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   &userID,
		Action:   "scheduling_link_updated",
		Entity:   "scheduling_link",
		EntityID: &link.ID,
	})

	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (h *SchedulingLinkHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	linkID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_link_id", "Invalid link id.")
		return
	}

	if err := h.repo.DeleteLink(c.Request.Context(), uint(linkID), userID); err != nil {
		httperr.NotFound(c, "link_not_found", messageFor("link_not_found"))
		return
	}

	id := uint(linkID)
	h.audit.Dispatch(audit.Event{
		UserID:   &userID,
		Action:   "scheduling_link_deleted",
		Entity:   "scheduling_link",
		EntityID: &id,
	})

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ======================================================
// AVAILABILITY (ORGANIZER VIEW)
// ======================================================

func (h *SchedulingLinkHandler) AvailableSlots(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	linkID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_link_id", "Invalid link id.")
		return
	}

	link, err := h.repo.GetLinkForUser(c.Request.Context(), uint(linkID), userID)
	if err != nil {
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

	c.JSON(http.StatusOK, gin.H{
		"slots":    dto.NewSlotDTOs(out.Slots, tz),
		"source":   out.Source,
		"timezone": tz,
	})
}
