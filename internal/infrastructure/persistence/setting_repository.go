package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type SettingRepository struct {
	db *sql.DB
}

func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Upsert inserts or replaces a setting. Uniqueness is (tenant_id, key); a nil
// tenant ID is the platform-global row.
func (r *SettingRepository) Upsert(ctx context.Context, s *models.AdminSetting) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, setting_key, setting_value, value_type, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			setting_value = VALUES(setting_value),
			value_type = VALUES(value_type),
			updated_by = VALUES(updated_by),
			updated_at = VALUES(updated_at)`,
		constants.TableAdminSetting)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.Key, s.Value, s.ValueType, s.UpdatedBy, s.UpdatedAt)
	return err
}

// Find returns the setting for a key, preferring the tenant row over the
// global one. Returns nil when neither exists.
func (r *SettingRepository) Find(ctx context.Context, tenantID *string, key string) (*models.AdminSetting, error) {
	// Tenant rows sort before the global NULL row.
	query := fmt.Sprintf(`
		SELECT id, tenant_id, setting_key, setting_value, value_type, updated_by, updated_at
		FROM %s WHERE setting_key = ? AND (tenant_id = ? OR tenant_id IS NULL)
		ORDER BY tenant_id IS NULL ASC LIMIT 1`,
		constants.TableAdminSetting)

	var tid interface{}
	if tenantID != nil {
		tid = *tenantID
	}

	var s models.AdminSetting
	var rowTenant sql.NullString
	err := r.db.QueryRowContext(ctx, query, key, tid).Scan(
		&s.ID, &rowTenant, &s.Key, &s.Value, &s.ValueType, &s.UpdatedBy, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if rowTenant.Valid {
		s.TenantID = &rowTenant.String
	}
	return &s, nil
}

// FindAll lists all settings visible to a tenant: its own rows plus the
// global rows it has not overridden. A nil tenant ID lists global rows only.
func (r *SettingRepository) FindAll(ctx context.Context, tenantID *string) ([]*models.AdminSetting, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, setting_key, setting_value, value_type, updated_by, updated_at
		FROM %s`, constants.TableAdminSetting)

	var args []interface{}
	if tenantID != nil {
		query += " WHERE tenant_id = ? OR tenant_id IS NULL"
		args = append(args, *tenantID)
	} else {
		query += " WHERE tenant_id IS NULL"
	}
	query += " ORDER BY setting_key ASC, tenant_id IS NULL ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]*models.AdminSetting, 0)
	seen := map[string]bool{}
	for rows.Next() {
		var s models.AdminSetting
		var rowTenant sql.NullString
		if err := rows.Scan(&s.ID, &rowTenant, &s.Key, &s.Value, &s.ValueType, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if rowTenant.Valid {
			s.TenantID = &rowTenant.String
		}
		// Tenant override shadows the global row for the same key.
		if seen[s.Key] {
			continue
		}
		seen[s.Key] = true
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

// Delete removes a setting row for exactly the given scope.
func (r *SettingRepository) Delete(ctx context.Context, tenantID *string, key string) error {
	var query string
	var args []interface{}
	if tenantID != nil {
		query = fmt.Sprintf("DELETE FROM %s WHERE setting_key = ? AND tenant_id = ?", constants.TableAdminSetting)
		args = []interface{}{key, *tenantID}
	} else {
		query = fmt.Sprintf("DELETE FROM %s WHERE setting_key = ? AND tenant_id IS NULL", constants.TableAdminSetting)
		args = []interface{}{key}
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
