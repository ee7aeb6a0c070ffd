package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// UserService manages platform users. Tenant admins manage their own tenant's
// users; platform admins manage everyone.
type UserService struct {
	users   *persistence.UserRepository
	tenants *persistence.TenantRepository
}

func NewUserService(users *persistence.UserRepository, tenants *persistence.TenantRepository) *UserService {
	return &UserService{users: users, tenants: tenants}
}

// CreateUserRequest carries the fields accepted on user creation.
type CreateUserRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	TenantID *string `json:"tenant_id"`
}

// UpdateUserRequest carries the optional fields of a user update.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func validRole(role string) bool {
	switch constants.UserRole(role) {
	case constants.RolePlatformAdmin, constants.RoleTenantAdmin, constants.RoleSupervisor, constants.RoleAgent:
		return true
	}
	return false
}

// Create validates and inserts a new user. The actor's scope restricts the
// target: tenant admins may only create users in their own tenant and may
// not mint platform admins.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *auth.UserSession) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !auth.IsValidEmail(email) {
		return nil, errors.NewValidationError("email", "Invalid email format")
	}
	if !validRole(req.Role) {
		return nil, errors.NewValidationError("role", "Unknown role: "+req.Role)
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	if !actor.IsPlatformAdmin() {
		if req.Role == string(constants.RolePlatformAdmin) {
			return nil, errors.NewPermissionError("create", "platform_admin user")
		}
		if req.TenantID == nil || actor.TenantID == nil || *req.TenantID != *actor.TenantID {
			return nil, errors.NewPermissionError("create", "user outside own tenant")
		}
	}

	if req.Role != string(constants.RolePlatformAdmin) && req.TenantID == nil {
		return nil, errors.NewValidationError("tenant_id", "tenant_id is required for tenant roles")
	}

	if req.TenantID != nil {
		tenant, err := s.tenants.FindByID(ctx, *req.TenantID)
		if err != nil {
			return nil, err
		}
		if tenant == nil {
			return nil, errors.NewNotFoundError("tenant", *req.TenantID)
		}
		if tenant.Status != constants.TenantStatusActive {
			return nil, errors.NewValidationError("tenant_id", "Tenant is not active")
		}

		// Seat limit check for agents
		if constants.UserRole(req.Role) == constants.RoleAgent && tenant.MaxAgents > 0 {
			existing, err := s.users.FindAll(ctx, req.TenantID)
			if err != nil {
				return nil, err
			}
			agents := 0
			for _, u := range existing {
				if constants.UserRole(u.Role) == constants.RoleAgent && u.IsActive {
					agents++
				}
			}
			if agents >= tenant.MaxAgents {
				return nil, errors.NewValidationError("role",
					fmt.Sprintf("Tenant agent limit reached (%d)", tenant.MaxAgents))
			}
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError("user", "email", email)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        utils.GenerateID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Role:      req.Role,
		TenantID:  req.TenantID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.users.Insert(ctx, user, hash); err != nil {
		return nil, err
	}

	log.Printf("✅ User created: %s (%s, role=%s)", user.Name, user.Email, user.Role)
	return user, nil
}

// Get returns a user visible to the actor.
func (s *UserService) Get(ctx context.Context, id string, actor *auth.UserSession) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", id)
	}
	if !actor.IsPlatformAdmin() && !sameTenant(user.TenantID, actor.TenantID) {
		return nil, errors.NewNotFoundError("user", id)
	}
	return user, nil
}

// List returns the users the actor may see.
func (s *UserService) List(ctx context.Context, actor *auth.UserSession) ([]*models.User, error) {
	if actor.IsPlatformAdmin() {
		return s.users.FindAll(ctx, nil)
	}
	return s.users.FindAll(ctx, actor.TenantID)
}

// Update applies a partial update after scope checks.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor *auth.UserSession) (*models.User, error) {
	user, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates[constants.FieldName] = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			return nil, errors.NewValidationError("role", "Unknown role: "+*req.Role)
		}
		if *req.Role == string(constants.RolePlatformAdmin) && !actor.IsPlatformAdmin() {
			return nil, errors.NewPermissionError("grant", "platform_admin role")
		}
		updates[constants.FieldRole] = *req.Role
	}
	if req.IsActive != nil {
		updates[constants.FieldIsActive] = *req.IsActive
	}

	if err := s.users.Update(ctx, user.ID, updates); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, user.ID)
}

// Delete removes a user. Self-deletion is rejected.
func (s *UserService) Delete(ctx context.Context, id string, actor *auth.UserSession) error {
	if id == actor.ID {
		return errors.NewValidationError("id", "Cannot delete your own account")
	}

	if _, err := s.Get(ctx, id, actor); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

func sameTenant(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}
