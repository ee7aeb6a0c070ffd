package constants

// HTTP and gin context keys.
const (
	HeaderAuthorization = "Authorization"

	ContextKeyUser  = "user"
	ContextKeyToken = "token"

	ResponseError = "error"
	FieldMessage  = "message"
)

// Background processing knobs.
const (
	// ScheduleCheckIntervalSecs is how often the scheduler looks for due work.
	ScheduleCheckIntervalSecs = 30

	// ScheduleMaxRuntimeMins bounds a single scheduled workflow execution.
	ScheduleMaxRuntimeMins = 10

	// OutboxMaxRetryAttempts is the retry budget for outbox event delivery.
	OutboxMaxRetryAttempts = 5

	// TranscriptionMaxAttempts is the retry budget for transcription jobs.
	TranscriptionMaxAttempts = 5

	// WorkflowStepBudget bounds a workflow run to protect against node cycles.
	WorkflowStepBudget = 100
)

// Admin setting keys read by services. Global defaults are seeded at
// bootstrap; tenants override per key.
const (
	SettingForecastServiceLevel   = "forecast.service_level"
	SettingForecastTargetWaitSecs = "forecast.target_wait_seconds"
	SettingForecastHandleSecs     = "forecast.avg_handle_seconds"
	SettingTranscriptionLanguage  = "transcription.default_language"
	SettingRedactionEnabled       = "redaction.enabled"
)

// SystemUserID identifies background workers in audit trails and ownership
// columns. Not a real login.
const SystemUserID = "00000000-0000-0000-0000-000000000000"
