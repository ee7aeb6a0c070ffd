package services

import (
	"time"

	"github.com/voxhub/backend/internal/infrastructure/cache"
	"github.com/voxhub/backend/internal/infrastructure/database"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/internal/infrastructure/stream"
	"github.com/voxhub/backend/pkg/expression"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db    *database.Connection
	Redis *cache.Client

	// Core services
	EventBus      *EventBus
	Outbox        *OutboxService
	Audit         *AuditService
	Auth          *AuthService
	Users         *UserService
	Tenants       *TenantService
	Contacts      *ContactService
	Calls         *CallService
	Voice         *VoiceService
	Intent        *IntentService
	Workflows     *WorkflowService
	Executor      *WorkflowExecutor
	Conferences   *ConferenceService
	Transcription *TranscriptionService
	Forecasts     *ForecastService
	Analytics     *AnalyticsService
	Settings      *SettingService
	Notifications *NotificationService
	Scheduler     *SchedulerService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.Connection, redisClient *cache.Client, publisher *stream.Publisher) *ServiceManager {
	sm := &ServiceManager{
		db:    db,
		Redis: redisClient,
	}

	sqlDB := db.DB()

	// Repositories
	userRepo := persistence.NewUserRepository(sqlDB)
	sessionRepo := persistence.NewSessionRepository(sqlDB)
	tenantRepo := persistence.NewTenantRepository(sqlDB)
	contactRepo := persistence.NewContactRepository(sqlDB)
	callRepo := persistence.NewCallRepository(sqlDB)
	voiceRepo := persistence.NewVoiceProfileRepository(sqlDB)
	workflowRepo := persistence.NewWorkflowRepository(sqlDB)
	conferenceRepo := persistence.NewConferenceRepository(sqlDB)
	transcriptionRepo := persistence.NewTranscriptionRepository(sqlDB)
	settingRepo := persistence.NewSettingRepository(sqlDB)
	notificationRepo := persistence.NewNotificationRepository(sqlDB)
	auditRepo := persistence.NewAuditRepository(sqlDB)
	forecastRepo := persistence.NewForecastRepository(sqlDB)

	// Initialize services in dependency order
	sm.EventBus = NewEventBus()
	sm.Outbox = NewOutboxService(sqlDB, sm.EventBus, publisher)
	sm.Audit = NewAuditService(auditRepo)
	sm.Settings = NewSettingService(settingRepo, sm.Audit, sm.Outbox)
	sm.Auth = NewAuthService(userRepo, sessionRepo, sm.Audit)
	sm.Users = NewUserService(userRepo, tenantRepo)
	sm.Tenants = NewTenantService(tenantRepo)
	sm.Contacts = NewContactService(contactRepo, sm.Outbox)
	sm.Calls = NewCallService(callRepo, contactRepo, sm.Settings, sm.Outbox)
	sm.Voice = NewVoiceService(voiceRepo, contactRepo, sm.Outbox)
	sm.Intent = NewIntentService(redisClient)
	sm.Conferences = NewConferenceService(conferenceRepo)

	engine := expression.NewEngine()
	sm.Executor = NewWorkflowExecutor(workflowRepo, engine, sm.Outbox)
	sm.Workflows = NewWorkflowService(workflowRepo, engine, sm.Executor, sm.Outbox, sm.Audit)

	sm.Transcription = NewTranscriptionService(transcriptionRepo, sm.Calls, sm.Settings, NewTranscriptionProviderFromEnv())
	sm.Forecasts = NewForecastService(callRepo, forecastRepo, sm.Settings, sm.Outbox)
	sm.Analytics = NewAnalyticsService(sqlDB, sm.Audit)
	sm.Notifications = NewNotificationService(notificationRepo)

	sm.Scheduler = NewSchedulerService(workflowRepo, tenantRepo, sm.Executor,
		sm.Transcription, sm.Forecasts, sm.Auth, sm.Outbox)

	// Domain event fan-out to in-app notifications
	sm.Notifications.RegisterEventHandlers(sm.EventBus)

	return sm
}

// StartWorkers starts the outbox publisher and the scheduler loop. Call this
// during server startup.
func (sm *ServiceManager) StartWorkers() {
	sm.Outbox.StartWorker(500 * time.Millisecond)
	go sm.Scheduler.Start()
}

// StopWorkers stops background workers gracefully. Call this during server
// shutdown.
func (sm *ServiceManager) StopWorkers() {
	sm.Scheduler.Stop()
	sm.Outbox.StopWorker()
}
