package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Insert(ctx context.Context, t *models.Tenant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, plan, status, max_agents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		constants.TableTenant)

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Plan, t.Status, t.MaxAgents, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := fmt.Sprintf(`
		SELECT id, name, plan, status, max_agents, created_at, updated_at
		FROM %s WHERE id = ? LIMIT 1`, constants.TableTenant)

	var t models.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Plan, &t.Status, &t.MaxAgents, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) FindAll(ctx context.Context) ([]*models.Tenant, error) {
	query := fmt.Sprintf(`
		SELECT id, name, plan, status, max_agents, created_at, updated_at
		FROM %s ORDER BY created_at DESC`, constants.TableTenant)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]*models.Tenant, 0)
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.MaxAgents, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableTenant, constants.FieldName)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}

func (r *TenantRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}
	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}
	setClauses = append(setClauses, fmt.Sprintf("%s = NOW()", constants.FieldUpdatedAt))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TableTenant, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
