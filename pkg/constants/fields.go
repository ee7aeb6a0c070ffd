package constants

// Common column names shared across tables.
const (
	FieldID               = "id"
	FieldTenantID         = "tenant_id"
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldRole             = "role"
	FieldIsActive         = "is_active"
	FieldIsDeleted        = "is_deleted"
	FieldIsRevoked        = "is_revoked"
	FieldStatus           = "status"
	FieldCreatedAt        = "created_at"
	FieldUpdatedAt        = "updated_at"
	FieldLastActivityAt   = "last_activity_at"
	FieldLastLoginAt      = "last_login_at"
	FieldOwnerID          = "owner_id"
)

// Call record columns used outside the call repository (KPI, forecasts).
const (
	FieldCallDirection  = "direction"
	FieldCallStatus     = "status"
	FieldCallAMDResult  = "amd_result"
	FieldCallDurationS  = "duration_seconds"
	FieldCallStartedAt  = "started_at"
)
