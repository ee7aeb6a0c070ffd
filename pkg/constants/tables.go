package constants

// Database table names. All SQL in the persistence layer is built from these
// constants so a rename stays a one-line change.
const (
	TableUser              = "users"
	TableSession           = "sessions"
	TableTenant            = "tenants"
	TableContact           = "contacts"
	TableActivity          = "activities"
	TableCallRecord        = "call_records"
	TableVoiceProfile      = "voice_profiles"
	TableWorkflow          = "workflows"
	TableWorkflowRun       = "workflow_runs"
	TableConference        = "conference_sessions"
	TableTranscriptionJob  = "transcription_jobs"
	TableAdminSetting      = "admin_settings"
	TableNotification      = "notifications"
	TableAuditEvent        = "audit_events"
	TableOutboxEvent       = "outbox_events"
	TableStaffingForecast  = "staffing_forecasts"
)

// AnalyticsTableAllowlist lists the tables the sentinel ad-hoc SQL endpoint
// may read. Session and outbox tables are deliberately absent.
var AnalyticsTableAllowlist = map[string]bool{
	TableContact:          true,
	TableActivity:         true,
	TableCallRecord:       true,
	TableVoiceProfile:     true,
	TableWorkflow:         true,
	TableWorkflowRun:      true,
	TableConference:       true,
	TableTranscriptionJob: true,
	TableAuditEvent:       true,
	TableStaffingForecast: true,
}
