package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// SettingService manages typed admin settings. Values are stored as strings
// with a declared type; typed getters coerce on the way out. A tenant row
// overrides the platform-global row for the same key.
type SettingService struct {
	repo   *persistence.SettingRepository
	audit  *AuditService
	outbox *OutboxService
}

func NewSettingService(repo *persistence.SettingRepository, audit *AuditService, outbox *OutboxService) *SettingService {
	return &SettingService{
		repo:   repo,
		audit:  audit,
		outbox: outbox,
	}
}

type SaveSettingRequest struct {
	Key       string `json:"key" binding:"required"`
	Value     string `json:"value" binding:"required"`
	ValueType string `json:"value_type"`
	Global    bool   `json:"global"` // platform admins only
}

func validValueType(t string) bool {
	switch t {
	case constants.SettingTypeString, constants.SettingTypeInt,
		constants.SettingTypeFloat, constants.SettingTypeBool:
		return true
	}
	return false
}

// checkCoercible rejects values that do not parse as their declared type, so
// typed getters never fail later.
func checkCoercible(value, valueType string) error {
	var err error
	switch valueType {
	case constants.SettingTypeInt:
		_, err = cast.ToInt64E(value)
	case constants.SettingTypeFloat:
		_, err = cast.ToFloat64E(value)
	case constants.SettingTypeBool:
		_, err = cast.ToBoolE(value)
	}
	if err != nil {
		return errors.NewValidationError("value", "Value does not parse as "+valueType)
	}
	return nil
}

// Save upserts a setting in the caller's scope. Global rows require platform
// admin.
func (s *SettingService) Save(ctx context.Context, req SaveSettingRequest, actor *auth.UserSession) (*models.AdminSetting, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, errors.NewValidationError("key", "Key is required")
	}

	valueType := req.ValueType
	if valueType == "" {
		valueType = constants.SettingTypeString
	}
	if !validValueType(valueType) {
		return nil, errors.NewValidationError("value_type", "Invalid value type: "+valueType)
	}
	if err := checkCoercible(req.Value, valueType); err != nil {
		return nil, err
	}

	var scope *string
	if req.Global {
		if !actor.IsPlatformAdmin() {
			return nil, errors.NewPermissionError("update", "global setting")
		}
	} else {
		tenantID, err := tenantOf(actor)
		if err != nil {
			return nil, err
		}
		scope = &tenantID
	}

	setting := &models.AdminSetting{
		ID:        utils.GenerateID(),
		TenantID:  scope,
		Key:       key,
		Value:     req.Value,
		ValueType: valueType,
		UpdatedBy: actor.ID,
		UpdatedAt: time.Now(),
	}

	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, scope, actor.ID, "setting.changed", "setting:"+key,
		constants.AuditSeverityInfo, "", req.Value)
	if err := s.outbox.Enqueue(ctx, nil, EventSettingChanged, map[string]interface{}{
		"key":       key,
		"tenant_id": scope,
	}); err != nil {
		log.Printf("⚠️ Failed to enqueue setting event for %s: %v", key, err)
	}

	return setting, nil
}

// Get returns the effective setting for a key in the caller's scope.
func (s *SettingService) Get(ctx context.Context, key string, actor *auth.UserSession) (*models.AdminSetting, error) {
	setting, err := s.repo.Find(ctx, actor.TenantID, key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, errors.NewNotFoundError("setting", key)
	}
	return setting, nil
}

// List returns the effective settings for the caller's scope.
func (s *SettingService) List(ctx context.Context, actor *auth.UserSession) ([]*models.AdminSetting, error) {
	return s.repo.FindAll(ctx, actor.TenantID)
}

// Delete removes a setting in the caller's scope. Global rows require
// platform admin.
func (s *SettingService) Delete(ctx context.Context, key string, global bool, actor *auth.UserSession) error {
	var scope *string
	if global {
		if !actor.IsPlatformAdmin() {
			return errors.NewPermissionError("delete", "global setting")
		}
	} else {
		tenantID, err := tenantOf(actor)
		if err != nil {
			return err
		}
		scope = &tenantID
	}

	if err := s.repo.Delete(ctx, scope, key); err != nil {
		return err
	}
	s.audit.Record(ctx, scope, actor.ID, "setting.deleted", "setting:"+key,
		constants.AuditSeverityInfo, "", "")
	return nil
}

// GetInt returns a key as int64, falling back when unset or untyped.
func (s *SettingService) GetInt(ctx context.Context, tenantID *string, key string, fallback int64) int64 {
	setting, err := s.repo.Find(ctx, tenantID, key)
	if err != nil || setting == nil {
		return fallback
	}
	if v, err := cast.ToInt64E(setting.Value); err == nil {
		return v
	}
	return fallback
}

// GetFloat returns a key as float64.
func (s *SettingService) GetFloat(ctx context.Context, tenantID *string, key string, fallback float64) float64 {
	setting, err := s.repo.Find(ctx, tenantID, key)
	if err != nil || setting == nil {
		return fallback
	}
	if v, err := cast.ToFloat64E(setting.Value); err == nil {
		return v
	}
	return fallback
}

// GetBool returns a key as bool.
func (s *SettingService) GetBool(ctx context.Context, tenantID *string, key string, fallback bool) bool {
	setting, err := s.repo.Find(ctx, tenantID, key)
	if err != nil || setting == nil {
		return fallback
	}
	if v, err := cast.ToBoolE(setting.Value); err == nil {
		return v
	}
	return fallback
}

// GetString returns a key as string.
func (s *SettingService) GetString(ctx context.Context, tenantID *string, key, fallback string) string {
	setting, err := s.repo.Find(ctx, tenantID, key)
	if err != nil || setting == nil {
		return fallback
	}
	return setting.Value
}
