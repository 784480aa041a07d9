package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crmforge/meeting-scheduler/internal/config"
	"github.com/crmforge/meeting-scheduler/internal/interval"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

// GoogleProvider talks to the Google Calendar v3 REST API using the oauth
// tokens stored per user in calendar_connections.
type GoogleProvider struct {
	db     *gorm.DB
	cfg    *config.Config
	client *http.Client
}

func NewGoogleProvider(db *gorm.DB, cfg *config.Config) *GoogleProvider {
	return &GoogleProvider{
		db:  db,
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.CalendarTimeoutSecs) * time.Second,
		},
	}
}

func (p *GoogleProvider) IsConnected(ctx context.Context, userID uint) bool {
	var count int64
	if err := p.db.WithContext(ctx).
		Model(&models.CalendarConnection{}).
		Where("user_id = ? AND is_active = true", userID).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// --------------------------------------------------
// Token handling
// --------------------------------------------------

func (p *GoogleProvider) accessToken(ctx context.Context, userID uint) (string, error) {
	var conn models.CalendarConnection
	if err := p.db.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		First(&conn).Error; err != nil {
		return "", fmt.Errorf("no active calendar connection: %w", err)
	}

	if time.Now().Before(conn.TokenExpiresAt.Add(-time.Minute)) {
		return conn.AccessToken, nil
	}

	return p.refreshToken(ctx, &conn)
}

func (p *GoogleProvider) refreshToken(ctx context.Context, conn *models.CalendarConnection) (string, error) {
	form := url.Values{}
	form.Set("client_id", p.cfg.GoogleClientID)
	form.Set("client_secret", p.cfg.GoogleClientSecret)
	form.Set("refresh_token", conn.RefreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.GoogleTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh failed with status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	conn.AccessToken = result.AccessToken
	conn.TokenExpiresAt = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	p.db.WithContext(ctx).Save(conn)

	return conn.AccessToken, nil
}

// --------------------------------------------------
// Free/busy
// --------------------------------------------------

func (p *GoogleProvider) BusyIntervals(
	ctx context.Context,
	userID uint,
	window interval.Interval,
) ([]interval.Interval, error) {

	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"timeMin": window.Start.UTC().Format(time.RFC3339),
		"timeMax": window.End.UTC().Format(time.RFC3339),
		"items":   []map[string]string{{"id": "primary"}},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.GoogleCalendarURL+"/freeBusy", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("freebusy query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freebusy query failed with status %d", resp.StatusCode)
	}

	var result struct {
		Calendars map[string]struct {
			Busy []struct {
				Start time.Time `json:"start"`
				End   time.Time `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode freebusy response: %w", err)
	}

	var busy []interval.Interval
	for _, cal := range result.Calendars {
		for _, b := range cal.Busy {
			busy = append(busy, interval.Interval{Start: b.Start, End: b.End})
		}
	}
	return interval.Merge(busy), nil
}

// --------------------------------------------------
// Events
// --------------------------------------------------

type googleEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleAttendee struct {
	Email string `json:"email"`
}

func eventPayload(ev Event) map[string]any {
	payload := map[string]any{
		"summary":     ev.Summary,
		"description": ev.Description,
		"start": googleEventTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		"end": googleEventTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
	}

	if len(ev.AttendeeEmails) > 0 {
		attendees := make([]googleAttendee, 0, len(ev.AttendeeEmails))
		for _, email := range ev.AttendeeEmails {
			attendees = append(attendees, googleAttendee{Email: email})
		}
		payload["attendees"] = attendees
	}

	if ev.RecurrenceRule != "" {
		payload["recurrence"] = []string{"RRULE:" + ev.RecurrenceRule}
	}

	if ev.WithMeetLink {
		payload["conferenceData"] = map[string]any{
			"createRequest": map[string]any{
				"requestId": uuid.NewString(),
				"conferenceSolutionKey": map[string]string{
					"type": "hangoutsMeet",
				},
			},
		}
	}

	return payload
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, userID uint, ev Event) (*CreatedEvent, error) {
	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(eventPayload(ev))
	if err != nil {
		return nil, err
	}

	endpoint := p.cfg.GoogleCalendarURL + "/calendars/primary/events?conferenceDataVersion=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("event create failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("event create failed with status %d", resp.StatusCode)
	}

	var result struct {
		ID          string `json:"id"`
		HTMLLink    string `json:"htmlLink"`
		HangoutLink string `json:"hangoutLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode event response: %w", err)
	}

	return &CreatedEvent{
		EventID:  result.ID,
		HTMLLink: result.HTMLLink,
		MeetLink: result.HangoutLink,
	}, nil
}

func (p *GoogleProvider) UpdateEvent(ctx context.Context, userID uint, eventID string, ev Event) error {
	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(eventPayload(ev))
	if err != nil {
		return err
	}

	endpoint := p.cfg.GoogleCalendarURL + "/calendars/primary/events/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("event update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event update failed with status %d", resp.StatusCode)
	}
	return nil
}

func (p *GoogleProvider) DeleteEvent(ctx context.Context, userID uint, eventID string) error {
	token, err := p.accessToken(ctx, userID)
	if err != nil {
		return err
	}

	endpoint := p.cfg.GoogleCalendarURL + "/calendars/primary/events/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("event delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusGone {
		return fmt.Errorf("event delete failed with status %d", resp.StatusCode)
	}
	return nil
}

// Compile-time check
var _ Provider = (*GoogleProvider)(nil)
