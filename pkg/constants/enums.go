package constants

// UserRole is the coarse authorization level of a platform user.
type UserRole string

const (
	RolePlatformAdmin UserRole = "platform_admin" // cross-tenant operator
	RoleTenantAdmin   UserRole = "tenant_admin"
	RoleSupervisor    UserRole = "supervisor"
	RoleAgent         UserRole = "agent"
)

// IsPlatformAdmin reports whether the role may operate across tenants.
func IsPlatformAdmin(role string) bool {
	return UserRole(role) == RolePlatformAdmin
}

// IsTenantAdmin reports whether the role may administer its own tenant.
func IsTenantAdmin(role string) bool {
	r := UserRole(role)
	return r == RolePlatformAdmin || r == RoleTenantAdmin
}

// Tenant lifecycle.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusChurned   = "churned"
)

// Call record lifecycle.
const (
	CallStatusQueued    = "queued"
	CallStatusRinging   = "ringing"
	CallStatusAnswered  = "answered"
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
	CallStatusAbandoned = "abandoned"
)

// Answering machine detection results.
const (
	AMDResultHuman   = "human"
	AMDResultMachine = "machine"
	AMDResultUnknown = "unknown"
)

// Call directions.
const (
	CallDirectionInbound  = "inbound"
	CallDirectionOutbound = "outbound"
)

// Voice profile enrollment lifecycle.
const (
	VoiceProfileStatusPending  = "pending"
	VoiceProfileStatusEnrolled = "enrolled"
	VoiceProfileStatusFailed   = "failed"
)

// Workflow definition lifecycle.
const (
	WorkflowStatusDraft    = "draft"
	WorkflowStatusActive   = "active"
	WorkflowStatusArchived = "archived"
)

// Workflow node types.
const (
	NodeTypeMessage   = "message"
	NodeTypeMenu      = "menu"
	NodeTypeCondition = "condition"
	NodeTypeTransfer  = "transfer"
	NodeTypeWebhook   = "webhook"
	NodeTypeHangup    = "hangup"
)

// Conference session lifecycle.
const (
	ConferenceStatusScheduled = "scheduled"
	ConferenceStatusLive      = "live"
	ConferenceStatusEnded     = "ended"
)

// Transcription job lifecycle.
const (
	TranscriptionStatusPending    = "pending"
	TranscriptionStatusProcessing = "processing"
	TranscriptionStatusCompleted  = "completed"
	TranscriptionStatusFailed     = "failed"
)

// Outbox event delivery lifecycle.
const (
	OutboxStatusPending    = "pending"
	OutboxStatusProcessing = "processing"
	OutboxStatusProcessed  = "processed"
	OutboxStatusFailed     = "failed"
)

// Activity types.
const (
	ActivityTypeCall  = "call"
	ActivityTypeEmail = "email"
	ActivityTypeNote  = "note"
)

// Admin setting value types.
const (
	SettingTypeString = "string"
	SettingTypeInt    = "int"
	SettingTypeFloat  = "float"
	SettingTypeBool   = "bool"
)

// Audit event severities.
const (
	AuditSeverityInfo     = "info"
	AuditSeverityWarning  = "warning"
	AuditSeverityCritical = "critical"
)

// Intent decision outcomes.
const (
	IntentDecisionProceed  = "proceed"
	IntentDecisionClarify  = "clarify"
	IntentDecisionTransfer = "transfer_to_agent"
)
