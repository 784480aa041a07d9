package models

import "time"

type Meeting struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OrganizerID uint `json:"organizer_id"`
	Organizer   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	ActivityID uint     `gorm:"uniqueIndex" json:"activity_id"`
	Activity   Activity `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"activity"`

	ContactID *uint    `json:"contact_id"`
	Contact   *Contact `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"contact,omitempty"`

	SchedulingLinkID *uint `json:"scheduling_link_id"`

	// Denormalized from Activity so the organizer+start uniqueness guard
	// and conflict scans work on this table alone.
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Timezone       string `gorm:"size:64;default:'UTC'" json:"timezone"`
	MeetingStatus  string `gorm:"size:20;default:'scheduled'" json:"meeting_status"`
	RecurrenceRule string `gorm:"size:255" json:"recurrence_rule"`
	MeetingURL     string `gorm:"size:512" json:"meeting_url"`
	OrganizerEmail string `gorm:"size:100" json:"organizer_email"`

	// Unique calendar-invite identifier carried on the ICS invite.
	InviteUID string `gorm:"size:64;uniqueIndex" json:"invite_uid"`

	// External mirror bookkeeping.
	CalendarEventID      string `gorm:"size:255" json:"calendar_event_id"`
	CalendarMirrorStatus string `gorm:"size:20;default:'skipped'" json:"calendar_mirror_status"`

	// JSON list of {name,email} guests outside the CRM.
	ExternalAttendees string `gorm:"type:text" json:"external_attendees"`

	// JSON object of answers to the link's custom booking questions.
	CustomFields string `gorm:"type:text" json:"custom_fields"`

	CancelledAt  *time.Time `json:"cancelled_at"`
	CancelledBy  *uint      `json:"cancelled_by"`
	CancelReason string     `gorm:"size:255" json:"cancel_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Attendees []MeetingAttendee `gorm:"constraint:OnDelete:CASCADE;" json:"attendees,omitempty"`
}

// MeetingAttendee links an internal CRM user as a meeting participant.
type MeetingAttendee struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	MeetingID uint `gorm:"index" json:"meeting_id"`
	UserID    uint `gorm:"index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}
