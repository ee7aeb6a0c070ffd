package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/database"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
)

const (
	defaultAdminEmail = "admin@voxhub.local"
	defaultAdminName  = "Platform Admin"
	defaultTenantName = "Default Tenant"
)

// defaultSettings are the platform-global knobs seeded on first boot. Tenants
// can override any of them with a tenant-scoped row.
var defaultSettings = []struct {
	key       string
	value     string
	valueType string
}{
	{constants.SettingForecastServiceLevel, "0.80", constants.SettingTypeFloat},
	{constants.SettingForecastTargetWaitSecs, "20", constants.SettingTypeInt},
	{constants.SettingForecastHandleSecs, "240", constants.SettingTypeFloat},
	{constants.SettingTranscriptionLanguage, "en-US", constants.SettingTypeString},
	{constants.SettingRedactionEnabled, "true", constants.SettingTypeBool},
}

// InitializeSystemData seeds the platform admin account, a default tenant and
// the global settings. All steps are guarded by existence checks so repeated
// startups are no-ops.
func InitializeSystemData(db *database.Connection) error {
	ctx := context.Background()
	sqlDB := db.DB()

	if err := seedPlatformAdmin(ctx, persistence.NewUserRepository(sqlDB)); err != nil {
		return err
	}
	if err := seedDefaultTenant(ctx, persistence.NewTenantRepository(sqlDB)); err != nil {
		return err
	}
	if err := seedGlobalSettings(ctx, persistence.NewSettingRepository(sqlDB)); err != nil {
		return err
	}
	return nil
}

func seedPlatformAdmin(ctx context.Context, users *persistence.UserRepository) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}

	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if exists {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe!" + uuid.NewString()[:8]
		log.Printf("⚠️ ADMIN_PASSWORD not set, generated one-time password for %s: %s", email, password)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		ID:        uuid.NewString(),
		Name:      defaultAdminName,
		Email:     email,
		Role:      string(constants.RolePlatformAdmin),
		TenantID:  nil,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := users.Insert(ctx, admin, hash); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	log.Printf("✅ Seeded platform admin %s", email)
	return nil
}

func seedDefaultTenant(ctx context.Context, tenants *persistence.TenantRepository) error {
	exists, err := tenants.ExistsByName(ctx, defaultTenantName)
	if err != nil {
		return fmt.Errorf("check default tenant: %w", err)
	}
	if exists {
		return nil
	}

	now := time.Now()
	tenant := &models.Tenant{
		ID:        uuid.NewString(),
		Name:      defaultTenantName,
		Plan:      "standard",
		Status:    constants.TenantStatusActive,
		MaxAgents: 25,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tenants.Insert(ctx, tenant); err != nil {
		return fmt.Errorf("seed default tenant: %w", err)
	}

	log.Printf("✅ Seeded tenant %q", defaultTenantName)
	return nil
}

func seedGlobalSettings(ctx context.Context, settings *persistence.SettingRepository) error {
	for _, def := range defaultSettings {
		existing, err := settings.Find(ctx, nil, def.key)
		if err != nil {
			return fmt.Errorf("check setting %s: %w", def.key, err)
		}
		if existing != nil {
			continue
		}

		err = settings.Upsert(ctx, &models.AdminSetting{
			ID:        uuid.NewString(),
			TenantID:  nil,
			Key:       def.key,
			Value:     def.value,
			ValueType: def.valueType,
			UpdatedBy: constants.SystemUserID,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", def.key, err)
		}
	}

	log.Println("✅ Global settings ready")
	return nil
}
