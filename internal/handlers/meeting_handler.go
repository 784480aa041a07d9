package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/httpresp"
	"github.com/crmforge/meeting-scheduler/internal/middleware"
	uc "github.com/crmforge/meeting-scheduler/internal/usecase/scheduling"
)

// ======================================================
// HANDLER
// ======================================================

type MeetingHandler struct {
	create     *uc.CreateMeeting
	cancel     *uc.CancelMeeting
	reschedule *uc.RescheduleMeeting
	complete   *uc.CompleteMeeting
	list       *uc.ListMeetings
	conflicts  *uc.CheckConflicts
}

func NewMeetingHandler(
	create *uc.CreateMeeting,
	cancel *uc.CancelMeeting,
	reschedule *uc.RescheduleMeeting,
	complete *uc.CompleteMeeting,
	list *uc.ListMeetings,
	conflicts *uc.CheckConflicts,
) *MeetingHandler {
	return &MeetingHandler{
		create:     create,
		cancel:     cancel,
		reschedule: reschedule,
		complete:   complete,
		list:       list,
		conflicts:  conflicts,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateMeetingRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`

	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`

	Timezone       string `json:"timezone"`
	RecurrenceRule string `json:"recurrence_rule"`

	AttendeeIDs       []uint                `json:"attendee_ids"`
	ExternalAttendees []uc.ExternalAttendee `json:"external_attendees"`

	AutoConfirm bool `json:"auto_confirm"`
}

type CancelMeetingRequest struct {
	Reason string `json:"reason"`
}

type RescheduleMeetingRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type CheckConflictsRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`

	AttendeeIDs      []uint `json:"attendee_ids"`
	ExcludeMeetingID uint   `json:"exclude_meeting_id"`

	BufferBeforeMinutes int `json:"buffer_before_minutes"`
	BufferAfterMinutes  int `json:"buffer_after_minutes"`
}

func meetingIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_meeting_id", "Invalid meeting id.")
		return 0, false
	}
	return uint(id), true
}

// ======================================================
// CREATE
// ======================================================

func (h *MeetingHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid meeting payload.")
		return
	}

	meeting, err := h.create.Execute(c.Request.Context(), uc.CreateMeetingInput{
		OrganizerID:       userID,
		Subject:           req.Subject,
		Description:       req.Description,
		Location:          req.Location,
		Start:             req.StartTime,
		End:               req.EndTime,
		Timezone:          req.Timezone,
		RecurrenceRule:    req.RecurrenceRule,
		AttendeeIDs:       req.AttendeeIDs,
		ExternalAttendees: req.ExternalAttendees,
		AutoConfirm:       req.AutoConfirm,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"meeting": meeting})
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *MeetingHandler) Cancel(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	meetingID, ok := meetingIDParam(c)
	if !ok {
		return
	}

	var req CancelMeetingRequest
	_ = c.ShouldBindJSON(&req)

	meeting, err := h.cancel.Execute(c.Request.Context(), userID, meetingID, req.Reason)
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meeting": meeting})
}

func (h *MeetingHandler) Reschedule(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	meetingID, ok := meetingIDParam(c)
	if !ok {
		return
	}

	var req RescheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid reschedule payload.")
		return
	}

	meeting, err := h.reschedule.Execute(
		c.Request.Context(), userID, meetingID, req.StartTime, req.EndTime,
	)
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meeting": meeting})
}

func (h *MeetingHandler) Complete(c *gin.Context) {
	h.finish(c, false)
}

func (h *MeetingHandler) NoShow(c *gin.Context) {
	h.finish(c, true)
}

func (h *MeetingHandler) finish(c *gin.Context, noShow bool) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	meetingID, ok := meetingIDParam(c)
	if !ok {
		return
	}

	meeting, err := h.complete.Execute(c.Request.Context(), userID, meetingID, noShow)
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meeting": meeting})
}

// ======================================================
// LIST
// ======================================================

func (h *MeetingHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	startStr := c.Query("startDate")
	endStr := c.Query("endDate")
	if startStr == "" || endStr == "" {
		httperr.BadRequest(c, "missing_params", "startDate and endDate are required.")
		return
	}

	loc, _ := displayLocation(nil, c.Query("timezone"))

	start, err := parseDateInLocation(startStr, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "startDate must be YYYY-MM-DD.")
		return
	}
	end, err := parseDateInLocation(endStr, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "endDate must be YYYY-MM-DD.")
		return
	}

	meetings, err := h.list.Execute(c.Request.Context(), userID, start, end.AddDate(0, 0, 1))
	if err != nil {
		httperr.Internal(c, "failed_to_list_meetings", "Could not list meetings.")
		return
	}

	httpresp.List(c, meetings)
}

// ======================================================
// CONFLICTS
// ======================================================

func (h *MeetingHandler) CheckConflicts(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var req CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid conflict-check payload.")
		return
	}

	out, err := h.conflicts.Execute(c.Request.Context(), uc.CheckConflictsInput{
		Start:               req.StartTime,
		End:                 req.EndTime,
		OrganizerID:         userID,
		AttendeeIDs:         req.AttendeeIDs,
		ExcludeMeetingID:    req.ExcludeMeetingID,
		BufferBeforeMinutes: req.BufferBeforeMinutes,
		BufferAfterMinutes:  req.BufferAfterMinutes,
	})
	if err != nil {
		httperr.Internal(c, "conflict_check_failed", "Could not verify conflicts.")
		return
	}

	c.JSON(http.StatusOK, out)
}
