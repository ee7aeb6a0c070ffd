package models

import (
	"encoding/json"
	"time"
)

// ConferenceSession is a multi-party call room.
type ConferenceSession struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	Title        string     `json:"title"`
	HostID       string     `json:"host_id"`
	Status       string     `json:"status"`
	Participants []string   `json:"participants"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// MarshalParticipants serializes the participant list for storage.
func (c ConferenceSession) MarshalParticipants() (string, error) {
	b, err := json.Marshal(c.Participants)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalParticipants parses a stored participants column.
func UnmarshalParticipants(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	err := json.Unmarshal([]byte(raw), &out)
	return out, err
}

// StaffingForecast is one forecast interval for WFM planning.
type StaffingForecast struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	IntervalStart  time.Time `json:"interval_start"`
	ForecastCalls  float64   `json:"forecast_calls"`
	AvgHandleSecs  float64   `json:"avg_handle_seconds"`
	RequiredAgents int       `json:"required_agents"`
	GeneratedAt    time.Time `json:"generated_at"`
}
