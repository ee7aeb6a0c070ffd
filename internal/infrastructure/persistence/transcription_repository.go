package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type TranscriptionRepository struct {
	db *sql.DB
}

func NewTranscriptionRepository(db *sql.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

func (r *TranscriptionRepository) Insert(ctx context.Context, j *models.TranscriptionJob) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, call_id, language, status, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		constants.TableTranscriptionJob)

	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.TenantID, j.CallID, j.Language, j.Status, j.CreatedAt)
	return err
}

func (r *TranscriptionRepository) scanJob(row interface{ Scan(...interface{}) error }) (*models.TranscriptionJob, error) {
	var j models.TranscriptionJob
	var lastError sql.NullString
	var doneAt sql.NullTime

	err := row.Scan(&j.ID, &j.TenantID, &j.CallID, &j.Language, &j.Status,
		&j.Attempts, &lastError, &j.CreatedAt, &doneAt)
	if err != nil {
		return nil, err
	}

	j.LastError = lastError.String
	if doneAt.Valid {
		j.DoneAt = &doneAt.Time
	}
	return &j, nil
}

func (r *TranscriptionRepository) FindByID(ctx context.Context, tenantID, id string) (*models.TranscriptionJob, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, call_id, language, status, attempts, last_error, created_at, done_at
		FROM %s WHERE id = ? AND tenant_id = ? LIMIT 1`,
		constants.TableTranscriptionJob)

	j, err := r.scanJob(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *TranscriptionRepository) FindAll(ctx context.Context, tenantID, status string, limit int) ([]*models.TranscriptionJob, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, call_id, language, status, attempts, last_error, created_at, done_at
		FROM %s WHERE tenant_id = ?`, constants.TableTranscriptionJob)

	args := []interface{}{tenantID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*models.TranscriptionJob, 0)
	for rows.Next() {
		j, err := r.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ClaimOldestPending atomically moves the oldest pending job to processing
// and returns it. Returns nil when the queue is empty. The claim runs in a
// transaction so concurrent workers never pick the same job.
func (r *TranscriptionRepository) ClaimOldestPending(ctx context.Context) (*models.TranscriptionJob, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		SELECT id, tenant_id, call_id, language, status, attempts, last_error, created_at, done_at
		FROM %s WHERE status = ? ORDER BY created_at ASC LIMIT 1 FOR UPDATE`,
		constants.TableTranscriptionJob)

	j, err := r.scanJob(tx.QueryRowContext(ctx, query, constants.TranscriptionStatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	claim := fmt.Sprintf("UPDATE %s SET status = ?, attempts = attempts + 1 WHERE id = ?",
		constants.TableTranscriptionJob)
	if _, err := tx.ExecContext(ctx, claim, constants.TranscriptionStatusProcessing, j.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	j.Status = constants.TranscriptionStatusProcessing
	j.Attempts++
	return j, nil
}

// MarkCompleted finishes a job.
func (r *TranscriptionRepository) MarkCompleted(ctx context.Context, id string, doneAt time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET status = ?, last_error = NULL, done_at = ? WHERE id = ?",
		constants.TableTranscriptionJob)
	_, err := r.db.ExecContext(ctx, query, constants.TranscriptionStatusCompleted, doneAt, id)
	return err
}

// MarkFailed records a failed attempt. The job goes back to pending until the
// attempt budget is spent, then stays failed.
func (r *TranscriptionRepository) MarkFailed(ctx context.Context, id string, attempts int, errMsg string) error {
	status := constants.TranscriptionStatusPending
	if attempts >= constants.TranscriptionMaxAttempts {
		status = constants.TranscriptionStatusFailed
	}

	query := fmt.Sprintf("UPDATE %s SET status = ?, last_error = ? WHERE id = ?",
		constants.TableTranscriptionJob)
	_, err := r.db.ExecContext(ctx, query, status, errMsg, id)
	return err
}
