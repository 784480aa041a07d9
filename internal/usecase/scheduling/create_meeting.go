package scheduling

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type ExternalAttendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateMeetingInput struct {
	OrganizerID uint

	Subject     string
	Description string
	Location    string

	Start time.Time
	End   time.Time

	Timezone       string
	RecurrenceRule string

	AttendeeIDs       []uint
	ExternalAttendees []ExternalAttendee

	AutoConfirm bool
}

// ======================================================
// USE CASE
// ======================================================

type CreateMeeting struct {
	repo      domain.Repository
	conflicts *CheckConflicts
	provider  calendar.Provider
	audit     *audit.Dispatcher
}

func NewCreateMeeting(
	repo domain.Repository,
	conflicts *CheckConflicts,
	provider calendar.Provider,
	auditDispatcher *audit.Dispatcher,
) *CreateMeeting {
	return &CreateMeeting{
		repo:      repo,
		conflicts: conflicts,
		provider:  provider,
		audit:     auditDispatcher,
	}
}

func (uc *CreateMeeting) Execute(
	ctx context.Context,
	in CreateMeetingInput,
) (*models.Meeting, error) {

	if !in.Start.Before(in.End) {
		return nil, httperr.ErrBusiness("invalid_time_range")
	}
	if in.Timezone != "" && !timezone.IsValid(in.Timezone) {
		return nil, httperr.ErrBusiness("invalid_timezone")
	}
	tz := in.Timezone
	if tz == "" {
		tz = timezone.DefaultTimezone
	}

	organizer, err := uc.repo.GetUserByID(ctx, in.OrganizerID)
	if err != nil {
		return nil, err
	}

	// Fail closed: a conflict lookup error rejects the creation.
	check, err := uc.conflicts.Execute(ctx, CheckConflictsInput{
		Start:       in.Start,
		End:         in.End,
		OrganizerID: in.OrganizerID,
		AttendeeIDs: in.AttendeeIDs,
	})
	if err != nil {
		return nil, err
	}
	if check.HasConflicts {
		return nil, httperr.ErrBusiness("time_conflict")
	}

	activity := &models.Activity{
		OwnerID:     organizer.ID,
		Subject:     in.Subject,
		Description: in.Description,
		Location:    in.Location,
		StartTime:   in.Start.UTC(),
		EndTime:     in.End.UTC(),
	}

	var externalJSON string
	if len(in.ExternalAttendees) > 0 {
		if b, err := json.Marshal(in.ExternalAttendees); err == nil {
			externalJSON = string(b)
		}
	}

	status := domain.StatusScheduled
	if in.AutoConfirm {
		status = domain.StatusConfirmed
	}

	meeting := &models.Meeting{
		OrganizerID:          organizer.ID,
		StartTime:            in.Start.UTC(),
		EndTime:              in.End.UTC(),
		Timezone:             tz,
		MeetingStatus:        string(status),
		RecurrenceRule:       in.RecurrenceRule,
		OrganizerEmail:       organizer.Email,
		InviteUID:            uuid.NewString(),
		CalendarMirrorStatus: MirrorSkipped,
		ExternalAttendees:    externalJSON,
	}

	if err := uc.repo.CreateMeeting(ctx, activity, meeting, in.AttendeeIDs); err != nil {
		return nil, err
	}
	meeting.Activity = *activity

	uc.mirror(ctx, organizer, activity, meeting, in)

	uc.audit.Dispatch(audit.Event{
		UserID:   &organizer.ID,
		Action:   "meeting_created",
		Entity:   "meeting",
		EntityID: &meeting.ID,
	})

	return meeting, nil
}

func (uc *CreateMeeting) mirror(
	ctx context.Context,
	organizer *models.User,
	activity *models.Activity,
	meeting *models.Meeting,
	in CreateMeetingInput,
) {
	if uc.provider == nil || !uc.provider.IsConnected(ctx, organizer.ID) {
		return
	}

	emails := []string{organizer.Email}
	for _, att := range in.ExternalAttendees {
		if att.Email != "" {
			emails = append(emails, att.Email)
		}
	}

	created, err := uc.provider.CreateEvent(ctx, organizer.ID, calendar.Event{
		Summary:        activity.Subject,
		Description:    activity.Description,
		Start:          meeting.StartTime,
		End:            meeting.EndTime,
		Timezone:       meeting.Timezone,
		AttendeeEmails: emails,
		RecurrenceRule: meeting.RecurrenceRule,
		WithMeetLink:   true,
	})
	if err != nil {
		log.Printf("meeting %d: calendar mirror failed: %v", meeting.ID, err)
		meeting.CalendarMirrorStatus = MirrorFailed
		if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
			log.Printf("meeting %d: failed to record mirror failure: %v", meeting.ID, err)
		}
		return
	}

	meeting.CalendarEventID = created.EventID
	meeting.CalendarMirrorStatus = MirrorSucceeded
	if created.MeetLink != "" {
		meeting.MeetingURL = created.MeetLink
	}
	if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
		log.Printf("meeting %d: failed to record mirror result: %v", meeting.ID, err)
	}
}
