package models

import "time"

// User is a platform login. TenantID is nil for platform admins who operate
// across tenants.
type User struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	TenantID    *string    `json:"tenant_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Session is a DB-backed login session. The JWT jti is the session ID so a
// token can be revoked server-side.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Token          string    `json:"-"`
	ExpiresAt      time.Time `json:"expires_at"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	IsRevoked      bool      `json:"is_revoked"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Tenant is a BPO client of the platform. All domain records hang off a
// tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	MaxAgents int       `json:"max_agents"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminSetting is a typed key/value configuration entry. TenantID nil means
// the setting is platform-global; a tenant row overrides the global one.
type AdminSetting struct {
	ID        string    `json:"id"`
	TenantID  *string   `json:"tenant_id,omitempty"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ValueType string    `json:"value_type"` // string, int, float, bool
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is a per-user in-app notification.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEvent is a sentinel security/audit record.
type AuditEvent struct {
	ID        string    `json:"id"`
	TenantID  *string   `json:"tenant_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Severity  string    `json:"severity"`
	IPAddress string    `json:"ip_address"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// OutboxEvent is a pending domain event awaiting delivery by the outbox
// worker.
type OutboxEvent struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	Payload    string    `json:"payload"`
	Status     string    `json:"status"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
