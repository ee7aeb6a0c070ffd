package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
	"github.com/voxhub/backend/pkg/utils"
)

// Execer lets Enqueue run inside a caller's transaction so the event commits
// atomically with the domain change.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue inserts a pending event. Pass a *sql.Tx to enqueue within the same
// transaction as the change the event describes.
func (r *OutboxRepository) Enqueue(ctx context.Context, execer Execer, eventType, payload string) (string, error) {
	if execer == nil {
		execer = r.db
	}

	id := utils.GenerateID()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, event_type, payload, status, retry_count, created_at)
		VALUES (?, ?, ?, ?, 0, NOW())`,
		constants.TableOutboxEvent)

	_, err := execer.ExecContext(ctx, query, id, eventType, payload, constants.OutboxStatusPending)
	if err != nil {
		return "", fmt.Errorf("enqueue outbox event: %w", err)
	}
	return id, nil
}

// GetPendingEvents fetches the oldest pending events for the delivery worker.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	query := fmt.Sprintf(`
		SELECT id, event_type, payload, status, retry_count, COALESCE(last_error, ''), created_at
		FROM %s WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		constants.TableOutboxEvent)

	rows, err := r.db.QueryContext(ctx, query, constants.OutboxStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.OutboxEvent, 0)
	for rows.Next() {
		var e models.OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.Status, &e.RetryCount, &e.LastError, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// ClaimEvent moves a pending event to processing inside the worker's
// transaction. Returns false when another worker claimed it first.
func (r *OutboxRepository) ClaimEvent(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ? AND status = ?",
		constants.TableOutboxEvent)

	res, err := tx.ExecContext(ctx, query, constants.OutboxStatusProcessing, id, constants.OutboxStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// UpdateStatus records the terminal status of a delivery attempt.
func (r *OutboxRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id, status, errMsg string) error {
	query := fmt.Sprintf("UPDATE %s SET status = ?, last_error = ? WHERE id = ?",
		constants.TableOutboxEvent)
	_, err := tx.ExecContext(ctx, query, status, errMsg, id)
	return err
}

// IncrementRetry puts a failed event back to pending with a bumped retry
// count, or marks it failed when the retry budget is spent.
func (r *OutboxRepository) IncrementRetry(ctx context.Context, tx *sql.Tx, id string, retryCount int, errMsg string) error {
	status := constants.OutboxStatusPending
	if retryCount >= constants.OutboxMaxRetryAttempts {
		status = constants.OutboxStatusFailed
	}

	query := fmt.Sprintf("UPDATE %s SET status = ?, retry_count = ?, last_error = ? WHERE id = ?",
		constants.TableOutboxEvent)
	_, err := tx.ExecContext(ctx, query, status, retryCount, errMsg, id)
	return err
}

// CleanupProcessed removes delivered events older than the cutoff.
func (r *OutboxRepository) CleanupProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE status = ? AND created_at < ?",
		constants.TableOutboxEvent)

	res, err := r.db.ExecContext(ctx, query, constants.OutboxStatusProcessed, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *OutboxRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
