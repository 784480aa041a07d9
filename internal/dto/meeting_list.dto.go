package dto

import "time"

type MeetingListDTO struct {
	ID            uint      `json:"id"`
	Subject       string    `json:"subject"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	MeetingStatus string    `json:"meeting_status"`
	ContactName   string    `json:"contact_name"`
	MeetingURL    string    `json:"meeting_url"`
}
