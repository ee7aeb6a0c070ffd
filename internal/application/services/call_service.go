package services

import (
	"context"
	"log"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/redact"
	"github.com/voxhub/backend/pkg/utils"
)

// CallService manages call records. Transcripts pass through PII redaction
// before they are stored unless the tenant has disabled it via the
// redaction.enabled setting.
type CallService struct {
	calls    *persistence.CallRepository
	contacts *persistence.ContactRepository
	settings *SettingService
	outbox   *OutboxService
}

func NewCallService(calls *persistence.CallRepository, contacts *persistence.ContactRepository, settings *SettingService, outbox *OutboxService) *CallService {
	return &CallService{calls: calls, contacts: contacts, settings: settings, outbox: outbox}
}

type CreateCallRequest struct {
	ContactID  *string    `json:"contact_id"`
	AgentID    *string    `json:"agent_id"`
	Direction  string     `json:"direction" binding:"required"`
	FromNumber string     `json:"from_number" binding:"required"`
	ToNumber   string     `json:"to_number" binding:"required"`
	Queue      string     `json:"queue"`
	Status     string     `json:"status"`
	AMDResult  string     `json:"amd_result"`
	StartedAt  *time.Time `json:"started_at"`
}

type UpdateCallRequest struct {
	Status          *string    `json:"status"`
	AMDResult       *string    `json:"amd_result"`
	DurationSeconds *int       `json:"duration_seconds"`
	Disposition     *string    `json:"disposition"`
	AgentID         *string    `json:"agent_id"`
	EndedAt         *time.Time `json:"ended_at"`
}

func validCallStatus(status string) bool {
	switch status {
	case constants.CallStatusQueued, constants.CallStatusRinging, constants.CallStatusAnswered,
		constants.CallStatusCompleted, constants.CallStatusFailed, constants.CallStatusAbandoned:
		return true
	}
	return false
}

func (s *CallService) Create(ctx context.Context, req CreateCallRequest, actor *auth.UserSession) (*models.CallRecord, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	if req.Direction != constants.CallDirectionInbound && req.Direction != constants.CallDirectionOutbound {
		return nil, errors.NewValidationError("direction", "direction must be inbound or outbound")
	}

	status := req.Status
	if status == "" {
		status = constants.CallStatusQueued
	}
	if !validCallStatus(status) {
		return nil, errors.NewValidationError("status", "Unknown status: "+status)
	}

	amd := req.AMDResult
	if amd == "" {
		amd = constants.AMDResultUnknown
	}
	switch amd {
	case constants.AMDResultHuman, constants.AMDResultMachine, constants.AMDResultUnknown:
	default:
		return nil, errors.NewValidationError("amd_result", "Unknown AMD result: "+amd)
	}

	if req.ContactID != nil {
		contact, err := s.contacts.FindByID(ctx, tenantID, *req.ContactID)
		if err != nil {
			return nil, err
		}
		if contact == nil {
			return nil, errors.NewNotFoundError("contact", *req.ContactID)
		}
	}

	startedAt := time.Now()
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	}

	call := &models.CallRecord{
		ID:         utils.GenerateID(),
		TenantID:   tenantID,
		ContactID:  req.ContactID,
		AgentID:    req.AgentID,
		Direction:  req.Direction,
		FromNumber: req.FromNumber,
		ToNumber:   req.ToNumber,
		Queue:      req.Queue,
		Status:     status,
		AMDResult:  amd,
		StartedAt:  startedAt,
	}

	if err := s.calls.Insert(ctx, call); err != nil {
		return nil, err
	}

	if err := s.outbox.Enqueue(ctx, nil, EventCallCreated, map[string]interface{}{
		"call_id":   call.ID,
		"tenant_id": call.TenantID,
		"direction": call.Direction,
	}); err != nil {
		return nil, err
	}

	return call, nil
}

func (s *CallService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.CallRecord, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	call, err := s.calls.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, errors.NewNotFoundError("call", id)
	}
	return call, nil
}

func (s *CallService) List(ctx context.Context, status, direction string, limit, offset int, actor *auth.UserSession) ([]*models.CallRecord, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.calls.FindAll(ctx, tenantID, status, direction, limit, offset)
}

func (s *CallService) Update(ctx context.Context, id string, req UpdateCallRequest, actor *auth.UserSession) (*models.CallRecord, error) {
	call, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		if !validCallStatus(*req.Status) {
			return nil, errors.NewValidationError("status", "Unknown status: "+*req.Status)
		}
		updates[constants.FieldCallStatus] = *req.Status
	}
	if req.AMDResult != nil {
		updates[constants.FieldCallAMDResult] = *req.AMDResult
	}
	if req.DurationSeconds != nil {
		if *req.DurationSeconds < 0 {
			return nil, errors.NewValidationError("duration_seconds", "duration cannot be negative")
		}
		updates[constants.FieldCallDurationS] = *req.DurationSeconds
	}
	if req.Disposition != nil {
		updates["disposition"] = *req.Disposition
	}
	if req.AgentID != nil {
		updates["agent_id"] = *req.AgentID
	}
	if req.EndedAt != nil {
		updates["ended_at"] = *req.EndedAt
	}

	if err := s.calls.Update(ctx, call.TenantID, call.ID, updates); err != nil {
		return nil, err
	}
	return s.calls.FindByID(ctx, call.TenantID, call.ID)
}

func (s *CallService) Delete(ctx context.Context, id string, actor *auth.UserSession) error {
	call, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	return s.calls.SoftDelete(ctx, call.TenantID, call.ID)
}

// AttachTranscript redacts PII from the transcript and stores the result on
// the call record.
func (s *CallService) AttachTranscript(ctx context.Context, id, transcript string, actor *auth.UserSession) (*models.CallRecord, error) {
	call, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return s.attachRedacted(ctx, call, transcript)
}

// AttachTranscriptSystem is the worker entry point; it skips actor scoping
// because the transcription pipeline runs under the system user.
func (s *CallService) AttachTranscriptSystem(ctx context.Context, tenantID, callID, transcript string) (*models.CallRecord, error) {
	call, err := s.calls.FindByID(ctx, tenantID, callID)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, errors.NewNotFoundError("call", callID)
	}
	return s.attachRedacted(ctx, call, transcript)
}

func (s *CallService) attachRedacted(ctx context.Context, call *models.CallRecord, transcript string) (*models.CallRecord, error) {
	result := redact.Result{Text: transcript}
	if s.settings.GetBool(ctx, &call.TenantID, constants.SettingRedactionEnabled, true) {
		result = redact.Redact(transcript)
	}
	if len(result.Findings) > 0 {
		log.Printf("🔐 Redacted %d PII findings from transcript of call %s", len(result.Findings), call.ID)
	}

	if err := s.calls.AttachTranscript(ctx, call.TenantID, call.ID, result.Text, len(result.Findings)); err != nil {
		return nil, err
	}

	agentID := ""
	if call.AgentID != nil {
		agentID = *call.AgentID
	}
	if err := s.outbox.Enqueue(ctx, nil, EventCallTranscribed, map[string]interface{}{
		"call_id":         call.ID,
		"tenant_id":       call.TenantID,
		"agent_id":        agentID,
		"redaction_count": len(result.Findings),
	}); err != nil {
		return nil, err
	}

	call.Transcript = result.Text
	call.RedactionCount = len(result.Findings)
	return call, nil
}

// KPISummary aggregates dashboard metrics over a time range.
func (s *CallService) KPISummary(ctx context.Context, from, to time.Time, actor *auth.UserSession) (*models.KPISummary, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	if !to.After(from) {
		return nil, errors.NewValidationError("to", "time range is empty")
	}
	return s.calls.KPISummary(ctx, tenantID, from, to)
}
