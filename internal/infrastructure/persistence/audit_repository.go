package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, e *models.AuditEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, actor_id, action, resource, severity, ip_address, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableAuditEvent)

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.TenantID, e.ActorID, e.Action, e.Resource, e.Severity, e.IPAddress, e.Detail, e.CreatedAt)
	return err
}

// FindAll lists audit events, newest first. A nil tenantID is the platform
// admin view across tenants; severity narrows further when set.
func (r *AuditRepository) FindAll(ctx context.Context, tenantID *string, severity string, limit, offset int) ([]*models.AuditEvent, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, actor_id, action, resource, severity, ip_address, detail, created_at
		FROM %s WHERE 1=1`, constants.TableAuditEvent)

	args := []interface{}{}
	if tenantID != nil {
		query += fmt.Sprintf(" AND %s = ?", constants.FieldTenantID)
		args = append(args, *tenantID)
	}
	if severity != "" {
		query += " AND severity = ?"
		args = append(args, severity)
	}
	query += fmt.Sprintf(" ORDER BY %s DESC LIMIT ? OFFSET ?", constants.FieldCreatedAt)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.AuditEvent, 0)
	for rows.Next() {
		var e models.AuditEvent
		var rowTenant sql.NullString
		if err := rows.Scan(&e.ID, &rowTenant, &e.ActorID, &e.Action, &e.Resource, &e.Severity, &e.IPAddress, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if rowTenant.Valid {
			e.TenantID = &rowTenant.String
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
