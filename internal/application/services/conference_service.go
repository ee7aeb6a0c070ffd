package services

import (
	"context"
	"strings"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// ConferenceService manages multi-party call rooms. A conference starts live
// on the first join and is immutable once ended.
type ConferenceService struct {
	repo *persistence.ConferenceRepository
}

func NewConferenceService(repo *persistence.ConferenceRepository) *ConferenceService {
	return &ConferenceService{repo: repo}
}

type CreateConferenceRequest struct {
	Title       string     `json:"title" binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (s *ConferenceService) Create(ctx context.Context, req CreateConferenceRequest, actor *auth.UserSession) (*models.ConferenceSession, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.NewValidationError("title", "Title is required")
	}

	scheduledAt := time.Now()
	if req.ScheduledAt != nil {
		scheduledAt = *req.ScheduledAt
	}

	conf := &models.ConferenceSession{
		ID:           utils.GenerateID(),
		TenantID:     tenantID,
		Title:        title,
		HostID:       actor.ID,
		Status:       constants.ConferenceStatusScheduled,
		Participants: []string{},
		ScheduledAt:  scheduledAt,
	}

	if err := s.repo.Insert(ctx, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func (s *ConferenceService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.ConferenceSession, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	conf, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, errors.NewNotFoundError("conference", id)
	}
	return conf, nil
}

func (s *ConferenceService) List(ctx context.Context, status string, actor *auth.UserSession) ([]*models.ConferenceSession, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, tenantID, status)
}

// Join adds the caller to the room. The first join of a scheduled conference
// flips it live.
func (s *ConferenceService) Join(ctx context.Context, id string, actor *auth.UserSession) (*models.ConferenceSession, error) {
	conf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if conf.Status == constants.ConferenceStatusEnded {
		return nil, errors.NewValidationError("status", "Conference has ended")
	}

	for _, p := range conf.Participants {
		if p == actor.ID {
			return conf, nil
		}
	}
	conf.Participants = append(conf.Participants, actor.ID)

	participants, err := conf.MarshalParticipants()
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"participants": participants}
	if conf.Status == constants.ConferenceStatusScheduled {
		now := time.Now()
		conf.Status = constants.ConferenceStatusLive
		conf.StartedAt = &now
		updates[constants.FieldStatus] = conf.Status
		updates["started_at"] = now
	}

	if err := s.repo.Update(ctx, conf.TenantID, conf.ID, updates); err != nil {
		return nil, err
	}
	return conf, nil
}

// Leave removes the caller from the room.
func (s *ConferenceService) Leave(ctx context.Context, id string, actor *auth.UserSession) (*models.ConferenceSession, error) {
	conf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(conf.Participants))
	found := false
	for _, p := range conf.Participants {
		if p == actor.ID {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return nil, errors.NewValidationError("participant", "Not a participant of this conference")
	}
	conf.Participants = remaining

	participants, err := conf.MarshalParticipants()
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, conf.TenantID, conf.ID, map[string]interface{}{
		"participants": participants,
	}); err != nil {
		return nil, err
	}
	return conf, nil
}

// End closes the room. Only the host or a tenant admin may end it.
func (s *ConferenceService) End(ctx context.Context, id string, actor *auth.UserSession) (*models.ConferenceSession, error) {
	conf, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if conf.Status == constants.ConferenceStatusEnded {
		return conf, nil
	}
	if conf.HostID != actor.ID && !actor.IsTenantAdmin() {
		return nil, errors.NewPermissionError("end", "conference")
	}

	now := time.Now()
	conf.Status = constants.ConferenceStatusEnded
	conf.EndedAt = &now

	if err := s.repo.Update(ctx, conf.TenantID, conf.ID, map[string]interface{}{
		constants.FieldStatus: conf.Status,
		"ended_at":            now,
	}); err != nil {
		return nil, err
	}
	return conf, nil
}
