package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, body, is_read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		constants.TableNotification)

	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Body, n.CreatedAt)
	return err
}

// FindByUser lists a user's notifications, newest first. unreadOnly narrows
// to unread ones.
func (r *NotificationRepository) FindByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, body, is_read, created_at
		FROM %s WHERE user_id = ?`, constants.TableNotification)

	args := []interface{}{userID}
	if unreadOnly {
		query += " AND is_read = 0"
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE user_id = ? AND is_read = 0",
		constants.TableNotification)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

// MarkRead flags one notification as read, scoped to its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_read = 1 WHERE id = ? AND user_id = ?",
		constants.TableNotification)
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}

// MarkAllRead flags every unread notification of a user as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf("UPDATE %s SET is_read = 1 WHERE user_id = ? AND is_read = 0",
		constants.TableNotification)
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
