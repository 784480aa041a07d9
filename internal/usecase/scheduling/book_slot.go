package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	"github.com/crmforge/meeting-scheduler/internal/calendar"
	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"github.com/crmforge/meeting-scheduler/internal/notify"
	"github.com/crmforge/meeting-scheduler/internal/slothold"
	"github.com/crmforge/meeting-scheduler/internal/validators"
)

// Notifier sends booking emails; failures are the notifier's problem, never
// the booking's.
type Notifier interface {
	SendBookingConfirmation(notify.BookingEmail)
	SendCancellationNotice(notify.BookingEmail)
}

// Mirror status values recorded on the meeting.
const (
	MirrorSucceeded = "succeeded"
	MirrorFailed    = "failed"
	MirrorSkipped   = "skipped"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type BookSlotInput struct {
	Token string

	SelectedSlotStart time.Time

	AttendeeName  string
	AttendeeEmail string
	AttendeePhone string

	MeetingTitle       string
	MeetingDescription string
	CustomFields       map[string]string
}

type BookSlotResult struct {
	Meeting  *models.Meeting
	Activity *models.Activity

	CalendarAdded bool
	MeetLink      string
}

// ======================================================
// USE CASE
// ======================================================

type BookSlot struct {
	repo         domain.Repository
	availability *GetAvailability
	provider     calendar.Provider
	holder       *slothold.Holder
	notifier     Notifier
	audit        *audit.Dispatcher

	notifyOrganizer bool
}

func NewBookSlot(
	repo domain.Repository,
	availability *GetAvailability,
	provider calendar.Provider,
	holder *slothold.Holder,
	notifier Notifier,
	auditDispatcher *audit.Dispatcher,
	notifyOrganizer bool,
) *BookSlot {
	return &BookSlot{
		repo:            repo,
		availability:    availability,
		provider:        provider,
		holder:          holder,
		notifier:        notifier,
		audit:           auditDispatcher,
		notifyOrganizer: notifyOrganizer,
	}
}

// Execute runs a public booking through its states: validate the requested
// slot against current availability, persist the CRM records, mirror onto
// the organizer's external calendar best-effort, then notify.
func (uc *BookSlot) Execute(
	ctx context.Context,
	in BookSlotInput,
) (*BookSlotResult, error) {

	now := time.Now().UTC()

	// --------------------------------------------------
	// 1. Validate
	// --------------------------------------------------
	link, err := uc.repo.GetLinkByToken(ctx, in.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusiness("link_not_found")
		}
		return nil, err
	}
	if !link.IsActive {
		return nil, httperr.ErrBusiness("LINK_INACTIVE")
	}

	if err := uc.validateRequiredFields(link, in); err != nil {
		return nil, err
	}

	start := in.SelectedSlotStart.UTC()
	end := start.Add(time.Duration(link.DurationMinutes) * time.Minute)

	if !start.After(now) {
		return nil, httperr.ErrBusiness("OUTSIDE_BOOKING_WINDOW")
	}
	if start.After(now.AddDate(0, 0, link.AdvanceBookingDays)) {
		return nil, httperr.ErrBusiness("OUTSIDE_BOOKING_WINDOW")
	}

	// Re-derive availability for the slot's day and require an exact match,
	// so working hours, buffers and the external busy picture all re-apply.
	dayStart := start.Truncate(24 * time.Hour)
	result, err := uc.availability.Execute(ctx, link, interval.Interval{
		Start: dayStart,
		End:   dayStart.AddDate(0, 0, 1),
	}, now)
	if err != nil {
		return nil, err
	}

	offered := false
	for _, slot := range result.Slots {
		if slot.Start.Equal(start) {
			offered = true
			break
		}
	}
	if !offered {
		return nil, httperr.ErrBusiness("SLOT_UNAVAILABLE")
	}

	if !uc.holder.Acquire(ctx, link.UserID, start) {
		return nil, httperr.ErrBusiness("SLOT_UNAVAILABLE")
	}
	defer uc.holder.Release(ctx, link.UserID, start)

	// --------------------------------------------------
	// 2. Persist
	// --------------------------------------------------
	organizer, err := uc.repo.GetUserByID(ctx, link.UserID)
	if err != nil {
		return nil, err
	}

	contact, err := uc.repo.UpsertContactByEmail(
		ctx, in.AttendeeName, in.AttendeeEmail, in.AttendeePhone,
	)
	if err != nil {
		return nil, err
	}

	title := in.MeetingTitle
	if title == "" {
		title = link.Title + " with " + in.AttendeeName
	}

	activity := &models.Activity{
		OwnerID:     organizer.ID,
		Subject:     title,
		Description: in.MeetingDescription,
		StartTime:   start,
		EndTime:     end,
	}

	externalAttendees, _ := json.Marshal([]map[string]string{
		{"name": in.AttendeeName, "email": in.AttendeeEmail},
	})

	var customFields string
	if len(in.CustomFields) > 0 {
		if b, err := json.Marshal(in.CustomFields); err == nil {
			customFields = string(b)
		}
	}

	meeting := &models.Meeting{
		OrganizerID:          organizer.ID,
		ContactID:            &contact.ID,
		SchedulingLinkID:     &link.ID,
		StartTime:            start,
		EndTime:              end,
		Timezone:             link.Timezone,
		MeetingStatus:        string(domain.InitialStatus(link.AutoConfirm)),
		OrganizerEmail:       organizer.Email,
		InviteUID:            uuid.NewString(),
		CalendarMirrorStatus: MirrorSkipped,
		ExternalAttendees:    string(externalAttendees),
		CustomFields:         customFields,
	}

	if err := uc.repo.CreateBooking(ctx, &domain.BookingRecords{
		Link:     link,
		Contact:  contact,
		Activity: activity,
		Meeting:  meeting,
	}); err != nil {
		return nil, err
	}

	out := &BookSlotResult{
		Meeting:  meeting,
		Activity: activity,
	}

	// --------------------------------------------------
	// 3. External mirror (best effort, after commit)
	// --------------------------------------------------
	uc.mirrorToCalendar(ctx, link, organizer, activity, meeting, in, out)

	// --------------------------------------------------
	// 4. Notify (best effort)
	// --------------------------------------------------
	if uc.notifier != nil {
		email := notify.BookingEmail{
			ToName:        in.AttendeeName,
			ToEmail:       in.AttendeeEmail,
			MeetingTitle:  activity.Subject,
			OrganizerName: organizer.Name,
			Start:         start,
			End:           end,
			Timezone:      link.Timezone,
			MeetingURL:    meeting.MeetingURL,
		}
		uc.notifier.SendBookingConfirmation(email)

		if uc.notifyOrganizer {
			organizerCopy := email
			organizerCopy.ToName = organizer.Name
			organizerCopy.ToEmail = organizer.Email
			uc.notifier.SendBookingConfirmation(organizerCopy)
		}
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &organizer.ID,
		Action:   "meeting_booked",
		Entity:   "meeting",
		EntityID: &meeting.ID,
		Metadata: map[string]any{
			"link_token": link.Token,
			"start":      start,
			"source":     result.Source,
		},
	})

	return out, nil
}

func (uc *BookSlot) validateRequiredFields(link *models.SchedulingLink, in BookSlotInput) error {
	if link.RequireName && in.AttendeeName == "" {
		return httperr.ErrBusiness("MISSING_REQUIRED_FIELD")
	}
	if link.RequireEmail {
		if in.AttendeeEmail == "" || !validators.IsEmailValid(in.AttendeeEmail) {
			return httperr.ErrBusiness("MISSING_REQUIRED_FIELD")
		}
	}
	if link.RequirePhone && in.AttendeePhone == "" {
		return httperr.ErrBusiness("MISSING_REQUIRED_FIELD")
	}
	return nil
}

// mirrorToCalendar is the post-commit step. A failure here is recorded on
// the meeting and logged; the CRM booking stays valid regardless.
func (uc *BookSlot) mirrorToCalendar(
	ctx context.Context,
	link *models.SchedulingLink,
	organizer *models.User,
	activity *models.Activity,
	meeting *models.Meeting,
	in BookSlotInput,
	out *BookSlotResult,
) {
	if uc.provider == nil || !uc.provider.IsConnected(ctx, organizer.ID) {
		return
	}

	created, err := uc.provider.CreateEvent(ctx, organizer.ID, calendar.Event{
		Summary:        activity.Subject,
		Description:    activity.Description,
		Start:          meeting.StartTime,
		End:            meeting.EndTime,
		Timezone:       link.Timezone,
		AttendeeEmails: []string{in.AttendeeEmail, organizer.Email},
		WithMeetLink:   true,
	})
	if err != nil {
		log.Printf("booking %d: calendar mirror failed: %v", meeting.ID, err)
		meeting.CalendarMirrorStatus = MirrorFailed
		if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
			log.Printf("booking %d: failed to record mirror failure: %v", meeting.ID, err)
		}
		return
	}

	meeting.CalendarEventID = created.EventID
	meeting.CalendarMirrorStatus = MirrorSucceeded
	if created.MeetLink != "" {
		meeting.MeetingURL = created.MeetLink
	} else if created.HTMLLink != "" {
		meeting.MeetingURL = created.HTMLLink
	}
	if err := uc.repo.UpdateMeeting(ctx, meeting); err != nil {
		log.Printf("booking %d: failed to record mirror result: %v", meeting.ID, err)
	}

	out.CalendarAdded = true
	out.MeetLink = created.MeetLink
}
