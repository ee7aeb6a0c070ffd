package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a new login session. The session ID is the JWT jti.
func (r *SessionRepository) Insert(ctx context.Context, s *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableSession)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Token, s.ExpiresAt, s.IPAddress, s.UserAgent, s.IsRevoked, s.LastActivityAt)
	return err
}

// IsRevoked reports the revocation flag of a session.
// Returns sql.ErrNoRows when the session does not exist.
func (r *SessionRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	var revoked bool
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		constants.FieldIsRevoked, constants.TableSession, constants.FieldID)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&revoked)
	return revoked, err
}

// Revoke marks a session as revoked.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = 1 WHERE %s = ?",
		constants.TableSession, constants.FieldIsRevoked, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// Touch updates the last activity timestamp.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = ?",
		constants.TableSession, constants.FieldLastActivityAt, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// DeleteExpired removes sessions whose expiry is older than the cutoff.
// Called by the maintenance scheduler.
func (r *SessionRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", constants.TableSession)
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
