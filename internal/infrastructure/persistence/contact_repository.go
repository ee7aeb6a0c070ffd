package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

// ContactRepository covers contacts and their activity timeline.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Insert(ctx context.Context, c *models.Contact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, first_name, last_name, email, phone, company, owner_id, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		constants.TableContact)

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.OwnerID, c.CreatedAt, c.UpdatedAt)
	return err
}

// FindByID returns a non-deleted contact scoped to the tenant, or nil.
func (r *ContactRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, first_name, last_name, email, phone, company, owner_id, created_at, updated_at
		FROM %s WHERE id = ? AND tenant_id = ? AND is_deleted = 0 LIMIT 1`,
		constants.TableContact)

	var c models.Contact
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// FindAll lists non-deleted contacts for a tenant, optionally filtered by a
// case-insensitive name/company search term.
func (r *ContactRepository) FindAll(ctx context.Context, tenantID, search string, limit, offset int) ([]*models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, first_name, last_name, email, phone, company, owner_id, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND is_deleted = 0`, constants.TableContact)

	args := []interface{}{tenantID}
	if search != "" {
		query += " AND (LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(company) LIKE ?)"
		term := "%" + strings.ToLower(search) + "%"
		args = append(args, term, term, term)
	}
	query += " ORDER BY updated_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]*models.Contact, 0)
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) Update(ctx context.Context, tenantID, id string, updates map[string]interface{}) error {
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

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND tenant_id = ?",
		constants.TableContact, strings.Join(setClauses, ", "))
	args = append(args, id, tenantID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// SoftDelete flags a contact as deleted without removing the row.
func (r *ContactRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_deleted = 1, updated_at = NOW() WHERE id = ? AND tenant_id = ?",
		constants.TableContact)
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	return err
}

// InsertActivity appends a timeline entry to a contact.
func (r *ContactRepository) InsertActivity(ctx context.Context, a *models.Activity) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, contact_id, type, subject, body, author_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableActivity)

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.TenantID, a.ContactID, a.Type, a.Subject, a.Body, a.AuthorID, a.CreatedAt)
	return err
}

// FindActivities lists a contact's timeline, newest first.
func (r *ContactRepository) FindActivities(ctx context.Context, tenantID, contactID string) ([]*models.Activity, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contact_id, type, subject, body, author_id, created_at
		FROM %s WHERE tenant_id = ? AND contact_id = ?
		ORDER BY created_at DESC`, constants.TableActivity)

	rows, err := r.db.QueryContext(ctx, query, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ContactID, &a.Type, &a.Subject, &a.Body, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}
