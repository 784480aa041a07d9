package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/crmforge/meeting-scheduler/internal/domain/scheduling"
	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/models"
)

type SchedulingGormRepository struct {
	db *gorm.DB
}

func NewSchedulingGormRepository(db *gorm.DB) *SchedulingGormRepository {
	return &SchedulingGormRepository{db: db}
}

// --------------------------------------------------
// Scheduling links
// --------------------------------------------------

func (r *SchedulingGormRepository) GetLinkByToken(
	ctx context.Context,
	token string,
) (*models.SchedulingLink, error) {

	var link models.SchedulingLink
	if err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SchedulingGormRepository) GetLinkForUser(
	ctx context.Context,
	linkID uint,
	userID uint,
) (*models.SchedulingLink, error) {

	var link models.SchedulingLink
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, userID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *SchedulingGormRepository) ListLinksForUser(
	ctx context.Context,
	userID uint,
) ([]models.SchedulingLink, error) {

	var links []models.SchedulingLink
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *SchedulingGormRepository) CreateLink(
	ctx context.Context,
	link *models.SchedulingLink,
) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *SchedulingGormRepository) UpdateLink(
	ctx context.Context,
	link *models.SchedulingLink,
) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *SchedulingGormRepository) DeleteLink(
	ctx context.Context,
	linkID uint,
	userID uint,
) error {

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, userID).
		Delete(&models.SchedulingLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrBusiness("link_not_found")
	}
	return nil
}

// --------------------------------------------------
// Users / contacts
// --------------------------------------------------

func (r *SchedulingGormRepository) GetUserByID(
	ctx context.Context,
	id uint,
) (*models.User, error) {

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *SchedulingGormRepository) UpsertContactByEmail(
	ctx context.Context,
	name string,
	email string,
	phone string,
) (*models.Contact, error) {

	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&contact).Error

	if err == nil {
		// Non-destructive patch: only fill what is missing.
		updates := map[string]any{}
		if contact.Name == "" && name != "" {
			updates["name"] = name
		}
		if contact.Phone == "" && phone != "" {
			updates["phone"] = phone
		}
		if len(updates) > 0 {
			if err := r.db.WithContext(ctx).
				Model(&contact).
				Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &contact, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	contact = models.Contact{
		Name:  name,
		Email: email,
		Phone: phone,
	}
	if err := r.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// --------------------------------------------------
// Busy / conflict reads
// --------------------------------------------------

func (r *SchedulingGormRepository) ListMeetingsForUser(
	ctx context.Context,
	userID uint,
	start time.Time,
	end time.Time,
	excludeMeetingID uint,
) ([]models.Meeting, error) {

	q := r.db.WithContext(ctx).
		Preload("Activity").
		Where("meeting_status <> ?", string(domain.StatusCancelled)).
		Where("start_time < ? AND end_time > ?", end, start).
		Where(
			"organizer_id = ? OR id IN (?)",
			userID,
			r.db.Model(&models.MeetingAttendee{}).
				Select("meeting_id").
				Where("user_id = ?", userID),
		)

	if excludeMeetingID != 0 {
		q = q.Where("id <> ?", excludeMeetingID)
	}

	var meetings []models.Meeting
	if err := q.Order("start_time ASC").Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// --------------------------------------------------
// Booking (validate-then-persist)
// --------------------------------------------------

func (r *SchedulingGormRepository) CreateBooking(
	ctx context.Context,
	rec *domain.BookingRecords,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var count int64
		if err := tx.
			Model(&models.Meeting{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"organizer_id = ? AND meeting_status <> ? AND start_time < ? AND end_time > ?",
				rec.Meeting.OrganizerID,
				string(domain.StatusCancelled),
				rec.Meeting.EndTime,
				rec.Meeting.StartTime,
			).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusiness("SLOT_UNAVAILABLE")
		}

		if err := tx.Create(rec.Activity).Error; err != nil {
			return err
		}

		rec.Meeting.ActivityID = rec.Activity.ID
		if err := tx.Create(rec.Meeting).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		rec.Link.BookingCount++
		rec.Link.LastUsedAt = &now
		return tx.Model(rec.Link).Updates(map[string]any{
			"booking_count": rec.Link.BookingCount,
			"last_used_at":  now,
		}).Error
	})

	if isUniqueViolation(err) {
		// The partial unique index on (organizer_id, start_time) caught a
		// race the lock scan missed.
		return httperr.ErrBusiness("SLOT_UNAVAILABLE")
	}
	return err
}

// --------------------------------------------------
// Meetings (organizer side)
// --------------------------------------------------

func (r *SchedulingGormRepository) CreateMeeting(
	ctx context.Context,
	activity *models.Activity,
	meeting *models.Meeting,
	attendeeIDs []uint,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var count int64
		if err := tx.
			Model(&models.Meeting{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"organizer_id = ? AND meeting_status <> ? AND start_time < ? AND end_time > ?",
				meeting.OrganizerID,
				string(domain.StatusCancelled),
				meeting.EndTime,
				meeting.StartTime,
			).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusiness("time_conflict")
		}

		if err := tx.Create(activity).Error; err != nil {
			return err
		}

		meeting.ActivityID = activity.ID
		if err := tx.Create(meeting).Error; err != nil {
			return err
		}

		for _, userID := range attendeeIDs {
			att := models.MeetingAttendee{
				MeetingID: meeting.ID,
				UserID:    userID,
			}
			if err := tx.Create(&att).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if isUniqueViolation(err) {
		return httperr.ErrBusiness("time_conflict")
	}
	return err
}

func (r *SchedulingGormRepository) GetMeetingForOrganizer(
	ctx context.Context,
	meetingID uint,
	organizerID uint,
) (*models.Meeting, error) {

	var meeting models.Meeting
	if err := r.db.WithContext(ctx).
		Preload("Activity").
		Preload("Contact").
		Where("id = ? AND organizer_id = ?", meetingID, organizerID).
		First(&meeting).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *SchedulingGormRepository) UpdateMeeting(
	ctx context.Context,
	meeting *models.Meeting,
) error {
	return r.db.WithContext(ctx).Save(meeting).Error
}

func (r *SchedulingGormRepository) RescheduleMeeting(
	ctx context.Context,
	meeting *models.Meeting,
	newStart time.Time,
	newEnd time.Time,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var count int64
		if err := tx.
			Model(&models.Meeting{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(
				"organizer_id = ? AND id <> ? AND meeting_status <> ? AND start_time < ? AND end_time > ?",
				meeting.OrganizerID,
				meeting.ID,
				string(domain.StatusCancelled),
				newEnd,
				newStart,
			).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return httperr.ErrBusiness("time_conflict")
		}

		if err := tx.Model(&models.Activity{}).
			Where("id = ?", meeting.ActivityID).
			Updates(map[string]any{
				"start_time": newStart,
				"end_time":   newEnd,
			}).Error; err != nil {
			return err
		}

		meeting.StartTime = newStart
		meeting.EndTime = newEnd
		return tx.Model(meeting).Updates(map[string]any{
			"start_time": newStart,
			"end_time":   newEnd,
		}).Error
	})

	if isUniqueViolation(err) {
		return httperr.ErrBusiness("time_conflict")
	}
	return err
}

func (r *SchedulingGormRepository) ListMeetingsForPeriod(
	ctx context.Context,
	organizerID uint,
	start time.Time,
	end time.Time,
) ([]models.Meeting, error) {

	var meetings []models.Meeting
	if err := r.db.WithContext(ctx).
		Preload("Activity").
		Preload("Contact").
		Where(
			"organizer_id = ? AND start_time >= ? AND start_time < ?",
			organizerID, start, end,
		).
		Order("start_time ASC").
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}

// Compile-time check
var _ domain.Repository = (*SchedulingGormRepository)(nil)
