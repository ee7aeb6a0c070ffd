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

// ContactService manages CRM contacts and their activity timelines.
type ContactService struct {
	repo   *persistence.ContactRepository
	outbox *OutboxService
}

func NewContactService(repo *persistence.ContactRepository, outbox *OutboxService) *ContactService {
	return &ContactService{repo: repo, outbox: outbox}
}

type CreateContactRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

type UpdateContactRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
}

type CreateActivityRequest struct {
	Type    string `json:"type" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body"`
}

func tenantOf(actor *auth.UserSession) (string, error) {
	if actor.TenantID == nil {
		return "", errors.NewValidationError("tenant_id", "Operation requires a tenant context")
	}
	return *actor.TenantID, nil
}

func (s *ContactService) Create(ctx context.Context, req CreateContactRequest, actor *auth.UserSession) (*models.Contact, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && !auth.IsValidEmail(req.Email) {
		return nil, errors.NewValidationError("email", "Invalid email format")
	}

	now := time.Now()
	contact := &models.Contact{
		ID:        utils.GenerateID(),
		TenantID:  tenantID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Company:   strings.TrimSpace(req.Company),
		OwnerID:   actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, contact); err != nil {
		return nil, err
	}

	if err := s.outbox.Enqueue(ctx, nil, EventContactCreated, map[string]interface{}{
		"contact_id": contact.ID,
		"tenant_id":  contact.TenantID,
		"owner_id":   contact.OwnerID,
	}); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.Contact, error) {
	tenantID, err := tenantOf(actor)
	if err != nil {
		return nil, err
	}

	contact, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, errors.NewNotFoundError("contact", id)
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, search string, limit, offset int, actor *auth.UserSession) ([]*models.Contact, error) {
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
	return s.repo.FindAll(ctx, tenantID, search, limit, offset)
}

func (s *ContactService) Update(ctx context.Context, id string, req UpdateContactRequest, actor *auth.UserSession) (*models.Contact, error) {
	contact, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		if *req.Email != "" && !auth.IsValidEmail(*req.Email) {
			return nil, errors.NewValidationError("email", "Invalid email format")
		}
		updates[constants.FieldEmail] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Company != nil {
		updates["company"] = strings.TrimSpace(*req.Company)
	}

	if err := s.repo.Update(ctx, contact.TenantID, contact.ID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, contact.TenantID, contact.ID)
}

func (s *ContactService) Delete(ctx context.Context, id string, actor *auth.UserSession) error {
	contact, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, contact.TenantID, contact.ID)
}

// AddActivity appends a timeline entry to a contact.
func (s *ContactService) AddActivity(ctx context.Context, contactID string, req CreateActivityRequest, actor *auth.UserSession) (*models.Activity, error) {
	contact, err := s.Get(ctx, contactID, actor)
	if err != nil {
		return nil, err
	}

	switch req.Type {
	case constants.ActivityTypeCall, constants.ActivityTypeEmail, constants.ActivityTypeNote:
	default:
		return nil, errors.NewValidationError("type", "Unknown activity type: "+req.Type)
	}

	activity := &models.Activity{
		ID:        utils.GenerateID(),
		TenantID:  contact.TenantID,
		ContactID: contact.ID,
		Type:      req.Type,
		Subject:   strings.TrimSpace(req.Subject),
		Body:      req.Body,
		AuthorID:  actor.ID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertActivity(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ContactService) ListActivities(ctx context.Context, contactID string, actor *auth.UserSession) ([]*models.Activity, error) {
	contact, err := s.Get(ctx, contactID, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.FindActivities(ctx, contact.TenantID, contact.ID)
}
