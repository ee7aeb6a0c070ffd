package models

import "time"

// Contact is a CRM contact belonging to a tenant.
type Contact struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	OwnerID   string    `json:"owner_id"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity is a timeline entry (call, email, note) on a contact.
type Activity struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	ContactID string    `json:"contact_id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body,omitempty"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CallRecord is one handled call. Transcript is stored redacted; the raw
// transcript never reaches the database.
type CallRecord struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	ContactID       *string    `json:"contact_id,omitempty"`
	AgentID         *string    `json:"agent_id,omitempty"`
	Direction       string     `json:"direction"`
	FromNumber      string     `json:"from_number"`
	ToNumber        string     `json:"to_number"`
	Queue           string     `json:"queue,omitempty"`
	Status          string     `json:"status"`
	AMDResult       string     `json:"amd_result"`
	DurationSeconds int        `json:"duration_seconds"`
	Disposition     string     `json:"disposition,omitempty"`
	Transcript      string     `json:"transcript,omitempty"`
	RedactionCount  int        `json:"redaction_count"`
	IsDeleted       bool       `json:"-"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// VoiceProfile is a voice-biometric enrollment for a contact.
type VoiceProfile struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ContactID   string    `json:"contact_id"`
	Status      string    `json:"status"`
	SampleCount int       `json:"sample_count"`
	Threshold   float64   `json:"threshold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TranscriptionJob is a queued speech-to-text request for a call recording.
type TranscriptionJob struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	CallID    string     `json:"call_id"`
	Language  string     `json:"language"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DoneAt    *time.Time `json:"done_at,omitempty"`
}

// KPISummary aggregates call metrics for the dashboard.
type KPISummary struct {
	TotalCalls      int     `json:"total_calls"`
	AnsweredCalls   int     `json:"answered_calls"`
	AbandonedCalls  int     `json:"abandoned_calls"`
	AnswerRate      float64 `json:"answer_rate"`
	AvgDurationSecs float64 `json:"avg_duration_seconds"`
	MachineDetected int     `json:"machine_detected"`
}
