package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type ConferenceRepository struct {
	db *sql.DB
}

func NewConferenceRepository(db *sql.DB) *ConferenceRepository {
	return &ConferenceRepository{db: db}
}

func (r *ConferenceRepository) Insert(ctx context.Context, c *models.ConferenceSession) error {
	participants, err := c.MarshalParticipants()
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, title, host_id, status, participants, scheduled_at, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableConference)

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.Title, c.HostID, c.Status, participants, c.ScheduledAt, c.StartedAt, c.EndedAt)
	return err
}

func (r *ConferenceRepository) scanConference(row interface{ Scan(...interface{}) error }) (*models.ConferenceSession, error) {
	var c models.ConferenceSession
	var participants string
	var startedAt, endedAt sql.NullTime

	err := row.Scan(&c.ID, &c.TenantID, &c.Title, &c.HostID, &c.Status, &participants,
		&c.ScheduledAt, &startedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	c.Participants, err = models.UnmarshalParticipants(participants)
	if err != nil {
		return nil, fmt.Errorf("unmarshal participants for conference %s: %w", c.ID, err)
	}

	if startedAt.Valid {
		c.StartedAt = &startedAt.Time
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}
	return &c, nil
}

func (r *ConferenceRepository) FindByID(ctx context.Context, tenantID, id string) (*models.ConferenceSession, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, title, host_id, status, participants, scheduled_at, started_at, ended_at
		FROM %s WHERE id = ? AND tenant_id = ? LIMIT 1`,
		constants.TableConference)

	c, err := r.scanConference(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ConferenceRepository) FindAll(ctx context.Context, tenantID, status string) ([]*models.ConferenceSession, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, title, host_id, status, participants, scheduled_at, started_at, ended_at
		FROM %s WHERE tenant_id = ?`, constants.TableConference)

	args := []interface{}{tenantID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY scheduled_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*models.ConferenceSession, 0)
	for rows.Next() {
		c, err := r.scanConference(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, c)
	}
	return sessions, rows.Err()
}

func (r *ConferenceRepository) Update(ctx context.Context, tenantID, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}
	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND tenant_id = ?",
		constants.TableConference, strings.Join(setClauses, ", "))
	args = append(args, id, tenantID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
