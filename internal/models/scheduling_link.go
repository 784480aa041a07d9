package models

import "time"

// SchedulingLink is an organizer's publishable booking configuration.
type SchedulingLink struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Public, unguessable token used in the booking URL.
	Token string `gorm:"size:64;uniqueIndex;not null" json:"token"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	DurationMinutes    int    `gorm:"default:30" json:"duration_minutes"`
	Timezone           string `gorm:"size:64;default:'UTC'" json:"timezone"`
	BufferTimeBefore   int    `gorm:"default:0" json:"buffer_time_before"`
	BufferTimeAfter    int    `gorm:"default:0" json:"buffer_time_after"`
	AdvanceBookingDays int    `gorm:"default:30" json:"advance_booking_days"`

	// JSON map weekday "0".."6" -> {"start":"HH:mm","end":"HH:mm"}.
	WorkingHours string `gorm:"type:text" json:"working_hours"`

	RequireEmail bool `gorm:"default:true" json:"require_email"`
	RequireName  bool `gorm:"default:true" json:"require_name"`
	RequirePhone bool `gorm:"default:false" json:"require_phone"`

	AutoConfirm bool `gorm:"default:true" json:"auto_confirm"`
	IsActive    bool `gorm:"default:true" json:"is_active"`

	BookingCount int        `gorm:"default:0" json:"booking_count"`
	LastUsedAt   *time.Time `json:"last_used_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
