package db

import (
	"log"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/config"
	"github.com/crmforge/meeting-scheduler/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.Activity{},
		&models.Meeting{},
		&models.MeetingAttendee{},
		&models.SchedulingLink{},
		&models.CalendarConnection{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// Authoritative guard against two bookers claiming the same start time.
	// Partial so a cancelled meeting frees the slot for rebooking.
	db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS idx_meetings_organizer_start_live
        ON meetings (organizer_id, start_time)
        WHERE meeting_status NOT IN ('cancelled')
    `)

	return db
}
