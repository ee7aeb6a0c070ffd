package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type VoiceProfileRepository struct {
	db *sql.DB
}

func NewVoiceProfileRepository(db *sql.DB) *VoiceProfileRepository {
	return &VoiceProfileRepository{db: db}
}

func (r *VoiceProfileRepository) Insert(ctx context.Context, p *models.VoiceProfile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, contact_id, status, sample_count, threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableVoiceProfile)

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.TenantID, p.ContactID, p.Status, p.SampleCount, p.Threshold, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *VoiceProfileRepository) FindByID(ctx context.Context, tenantID, id string) (*models.VoiceProfile, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contact_id, status, sample_count, threshold, created_at, updated_at
		FROM %s WHERE id = ? AND tenant_id = ? LIMIT 1`,
		constants.TableVoiceProfile)

	var p models.VoiceProfile
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(
		&p.ID, &p.TenantID, &p.ContactID, &p.Status, &p.SampleCount, &p.Threshold, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindByContact returns the enrollment for one contact, or nil. A contact has
// at most one profile.
func (r *VoiceProfileRepository) FindByContact(ctx context.Context, tenantID, contactID string) (*models.VoiceProfile, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contact_id, status, sample_count, threshold, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND contact_id = ? LIMIT 1`,
		constants.TableVoiceProfile)

	var p models.VoiceProfile
	err := r.db.QueryRowContext(ctx, query, tenantID, contactID).Scan(
		&p.ID, &p.TenantID, &p.ContactID, &p.Status, &p.SampleCount, &p.Threshold, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *VoiceProfileRepository) FindAll(ctx context.Context, tenantID, status string) ([]*models.VoiceProfile, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, contact_id, status, sample_count, threshold, created_at, updated_at
		FROM %s WHERE tenant_id = ?`, constants.TableVoiceProfile)

	args := []interface{}{tenantID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*models.VoiceProfile, 0)
	for rows.Next() {
		var p models.VoiceProfile
		if err := rows.Scan(&p.ID, &p.TenantID, &p.ContactID, &p.Status, &p.SampleCount, &p.Threshold, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

func (r *VoiceProfileRepository) Update(ctx context.Context, tenantID, id string, updates map[string]interface{}) error {
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
		constants.TableVoiceProfile, strings.Join(setClauses, ", "))
	args = append(args, id, tenantID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *VoiceProfileRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND tenant_id = ?", constants.TableVoiceProfile)
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	return err
}
