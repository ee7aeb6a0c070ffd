package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// TenantService manages BPO client accounts. Platform admin only; handlers
// enforce the role.
type TenantService struct {
	repo *persistence.TenantRepository
}

func NewTenantService(repo *persistence.TenantRepository) *TenantService {
	return &TenantService{repo: repo}
}

type CreateTenantRequest struct {
	Name      string `json:"name" binding:"required"`
	Plan      string `json:"plan"`
	MaxAgents int    `json:"max_agents"`
}

type UpdateTenantRequest struct {
	Name      *string `json:"name"`
	Plan      *string `json:"plan"`
	Status    *string `json:"status"`
	MaxAgents *int    `json:"max_agents"`
}

func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*models.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "name is required")
	}

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError("tenant", "name", name)
	}

	plan := req.Plan
	if plan == "" {
		plan = "standard"
	}
	maxAgents := req.MaxAgents
	if maxAgents <= 0 {
		maxAgents = 25
	}

	now := time.Now()
	tenant := &models.Tenant{
		ID:        utils.GenerateID(),
		Name:      name,
		Plan:      plan,
		Status:    constants.TenantStatusActive,
		MaxAgents: maxAgents,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, tenant); err != nil {
		return nil, err
	}

	log.Printf("✅ Tenant created: %s (%s)", tenant.Name, tenant.ID)
	return tenant, nil
}

func (s *TenantService) Get(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.NewNotFoundError("tenant", id)
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]*models.Tenant, error) {
	return s.repo.FindAll(ctx)
}

func (s *TenantService) Update(ctx context.Context, id string, req UpdateTenantRequest) (*models.Tenant, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.NewValidationError("name", "name cannot be empty")
		}
		updates[constants.FieldName] = name
	}
	if req.Plan != nil {
		updates["plan"] = *req.Plan
	}
	if req.Status != nil {
		switch *req.Status {
		case constants.TenantStatusActive, constants.TenantStatusSuspended, constants.TenantStatusChurned:
		default:
			return nil, errors.NewValidationError("status", "Unknown status: "+*req.Status)
		}
		updates[constants.FieldStatus] = *req.Status
	}
	if req.MaxAgents != nil {
		if *req.MaxAgents < 1 {
			return nil, errors.NewValidationError("max_agents", "max_agents must be positive")
		}
		updates["max_agents"] = *req.MaxAgents
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete retires a tenant account. The row is kept for audit and billing
// history; status moves to churned. Idempotent.
func (s *TenantService) Delete(ctx context.Context, id string) (*models.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.Status == constants.TenantStatusChurned {
		return tenant, nil
	}

	updates := map[string]interface{}{constants.FieldStatus: constants.TenantStatusChurned}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	log.Printf("✅ Tenant deactivated: %s (%s)", tenant.Name, tenant.ID)
	return s.Get(ctx, id)
}
