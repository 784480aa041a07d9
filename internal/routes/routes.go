package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/crmforge/meeting-scheduler/internal/audit"
	"github.com/crmforge/meeting-scheduler/internal/calendar"
	"github.com/crmforge/meeting-scheduler/internal/config"
	"github.com/crmforge/meeting-scheduler/internal/handlers"
	infraRepo "github.com/crmforge/meeting-scheduler/internal/infra/repository"
	"github.com/crmforge/meeting-scheduler/internal/middleware"
	"github.com/crmforge/meeting-scheduler/internal/notify"
	"github.com/crmforge/meeting-scheduler/internal/slothold"
	ucScheduling "github.com/crmforge/meeting-scheduler/internal/usecase/scheduling"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	schedulingRepo := infraRepo.NewSchedulingGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	provider := calendar.NewGoogleProvider(db, cfg)
	holder := slothold.New(rdb)
	mailer := notify.NewMailer()

	// ======================================================
	// USE CASES — SCHEDULING
	// ======================================================
	availabilityUC := ucScheduling.NewGetAvailability(schedulingRepo, provider)
	conflictsUC := ucScheduling.NewCheckConflicts(schedulingRepo)

	bookSlotUC := ucScheduling.NewBookSlot(
		schedulingRepo,
		availabilityUC,
		provider,
		holder,
		mailer,
		auditDispatcher,
		cfg.NotifyOrganizerEmail,
	)

	createMeetingUC := ucScheduling.NewCreateMeeting(
		schedulingRepo,
		conflictsUC,
		provider,
		auditDispatcher,
	)

	cancelMeetingUC := ucScheduling.NewCancelMeeting(
		schedulingRepo,
		provider,
		mailer,
		auditDispatcher,
	)

	rescheduleMeetingUC := ucScheduling.NewRescheduleMeeting(
		schedulingRepo,
		conflictsUC,
		provider,
		auditDispatcher,
	)

	completeMeetingUC := ucScheduling.NewCompleteMeeting(
		schedulingRepo,
		auditDispatcher,
	)

	listMeetingsUC := ucScheduling.NewListMeetings(schedulingRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)

	linkHandler := handlers.NewSchedulingLinkHandler(
		schedulingRepo,
		availabilityUC,
		auditDispatcher,
	)

	publicHandler := handlers.NewPublicSchedulingHandler(
		schedulingRepo,
		availabilityUC,
		bookSlotUC,
	)

	meetingHandler := handlers.NewMeetingHandler(
		createMeetingUC,
		cancelMeetingUC,
		rescheduleMeetingUC,
		completeMeetingUC,
		listMeetingsUC,
		conflictsUC,
	)

	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC BOOKING
		// ------------------------------
		publicAPI := api.Group("/scheduling")
		{
			publicAPI.GET("/:token", publicHandler.GetLink)
			publicAPI.GET("/:token/available-slots", publicHandler.AvailableSlots)
			publicAPI.POST("/:token/book", publicHandler.Book)
		}

		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PUT("/me", meHandler.UpdateMe)

			secured.POST("/me/scheduling-links", linkHandler.Create)
			secured.GET("/me/scheduling-links", linkHandler.List)
			secured.GET("/me/scheduling-links/:id", linkHandler.Get)
			secured.PUT("/me/scheduling-links/:id", linkHandler.Update)
			secured.DELETE("/me/scheduling-links/:id", linkHandler.Delete)
			secured.GET("/me/scheduling-links/:id/available-slots", linkHandler.AvailableSlots)

			secured.POST("/me/meetings", meetingHandler.Create)
			secured.GET("/me/meetings", meetingHandler.List)
			secured.POST("/me/meetings/check-conflicts", meetingHandler.CheckConflicts)
			secured.PUT("/me/meetings/:id/cancel", meetingHandler.Cancel)
			secured.PUT("/me/meetings/:id/reschedule", meetingHandler.Reschedule)
			secured.PUT("/me/meetings/:id/complete", meetingHandler.Complete)
			secured.PUT("/me/meetings/:id/no-show", meetingHandler.NoShow)

			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}
}
