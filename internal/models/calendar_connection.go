package models

import "time"

// CalendarConnection stores a user's external calendar provider link.
type CalendarConnection struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint `gorm:"uniqueIndex" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Provider       string    `gorm:"size:20;default:'google'" json:"provider"`
	AccessToken    string    `gorm:"size:2048" json:"-"`
	RefreshToken   string    `gorm:"size:2048" json:"-"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
	CalendarEmail  string    `gorm:"size:100" json:"calendar_email"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
