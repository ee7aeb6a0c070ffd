package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type CallRepository struct {
	db *sql.DB
}

func NewCallRepository(db *sql.DB) *CallRepository {
	return &CallRepository{db: db}
}

const callColumns = "id, tenant_id, contact_id, agent_id, direction, from_number, to_number, queue, status, amd_result, duration_seconds, disposition, transcript, redaction_count, started_at, ended_at"

func (r *CallRepository) Insert(ctx context.Context, c *models.CallRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		constants.TableCallRecord, callColumns)

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.TenantID, c.ContactID, c.AgentID, c.Direction, c.FromNumber, c.ToNumber,
		c.Queue, c.Status, c.AMDResult, c.DurationSeconds, c.Disposition,
		c.Transcript, c.RedactionCount, c.StartedAt, c.EndedAt)
	return err
}

func (r *CallRepository) scanCall(row interface{ Scan(...interface{}) error }) (*models.CallRecord, error) {
	var c models.CallRecord
	var contactID, agentID sql.NullString
	var endedAt sql.NullTime

	err := row.Scan(&c.ID, &c.TenantID, &contactID, &agentID, &c.Direction, &c.FromNumber,
		&c.ToNumber, &c.Queue, &c.Status, &c.AMDResult, &c.DurationSeconds, &c.Disposition,
		&c.Transcript, &c.RedactionCount, &c.StartedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	if contactID.Valid {
		c.ContactID = &contactID.String
	}
	if agentID.Valid {
		c.AgentID = &agentID.String
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}
	return &c, nil
}

func (r *CallRepository) FindByID(ctx context.Context, tenantID, id string) (*models.CallRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? AND tenant_id = ? AND is_deleted = 0 LIMIT 1`,
		callColumns, constants.TableCallRecord)

	c, err := r.scanCall(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// FindAll lists calls for a tenant, newest first, with optional status and
// direction filters.
func (r *CallRepository) FindAll(ctx context.Context, tenantID, status, direction string, limit, offset int) ([]*models.CallRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ? AND is_deleted = 0`,
		callColumns, constants.TableCallRecord)

	args := []interface{}{tenantID}
	if status != "" {
		query += fmt.Sprintf(" AND %s = ?", constants.FieldCallStatus)
		args = append(args, status)
	}
	if direction != "" {
		query += fmt.Sprintf(" AND %s = ?", constants.FieldCallDirection)
		args = append(args, direction)
	}
	query += fmt.Sprintf(" ORDER BY %s DESC LIMIT ? OFFSET ?", constants.FieldCallStartedAt)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := make([]*models.CallRecord, 0)
	for rows.Next() {
		c, err := r.scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (r *CallRepository) Update(ctx context.Context, tenantID, id string, updates map[string]interface{}) error {
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
		constants.TableCallRecord, strings.Join(setClauses, ", "))
	args = append(args, id, tenantID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// AttachTranscript stores the redacted transcript on a call record.
func (r *CallRepository) AttachTranscript(ctx context.Context, tenantID, id, transcript string, redactionCount int) error {
	query := fmt.Sprintf("UPDATE %s SET transcript = ?, redaction_count = ? WHERE id = ? AND tenant_id = ?",
		constants.TableCallRecord)
	_, err := r.db.ExecContext(ctx, query, transcript, redactionCount, id, tenantID)
	return err
}

// SoftDelete flags a call record as deleted.
func (r *CallRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_deleted = 1 WHERE id = ? AND tenant_id = ?",
		constants.TableCallRecord)
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	return err
}

// KPISummary aggregates call metrics for a tenant over a time range.
func (r *CallRepository) KPISummary(ctx context.Context, tenantID string, from, to time.Time) (*models.KPISummary, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN %s IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN %s = ? THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN %s > 0 THEN %s END), 0),
			COALESCE(SUM(CASE WHEN %s = ? THEN 1 ELSE 0 END), 0)
		FROM %s
		WHERE tenant_id = ? AND is_deleted = 0 AND %s >= ? AND %s < ?`,
		constants.FieldCallStatus, constants.FieldCallStatus,
		constants.FieldCallDurationS, constants.FieldCallDurationS,
		constants.FieldCallAMDResult,
		constants.TableCallRecord,
		constants.FieldCallStartedAt, constants.FieldCallStartedAt)

	var s models.KPISummary
	err := r.db.QueryRowContext(ctx, query,
		constants.CallStatusAnswered, constants.CallStatusCompleted,
		constants.CallStatusAbandoned,
		constants.AMDResultMachine,
		tenantID, from, to).Scan(
		&s.TotalCalls, &s.AnsweredCalls, &s.AbandonedCalls, &s.AvgDurationSecs, &s.MachineDetected)
	if err != nil {
		return nil, err
	}

	if s.TotalCalls > 0 {
		s.AnswerRate = float64(s.AnsweredCalls) / float64(s.TotalCalls)
	}
	return &s, nil
}

// IntervalVolume is an aggregated answered-call count for one half-hour
// interval, used by the WFM forecaster.
type IntervalVolume struct {
	IntervalStart time.Time
	Calls         int
	AvgHandleSecs float64
}

// VolumeByInterval aggregates answered calls into half-hour buckets for a
// tenant over a time range.
func (r *CallRepository) VolumeByInterval(ctx context.Context, tenantID string, from, to time.Time) ([]IntervalVolume, error) {
	// Bucket started_at to 30-minute boundaries.
	query := fmt.Sprintf(`
		SELECT
			FROM_UNIXTIME(FLOOR(UNIX_TIMESTAMP(%s) / 1800) * 1800),
			COUNT(*),
			COALESCE(AVG(%s), 0)
		FROM %s
		WHERE tenant_id = ? AND is_deleted = 0
			AND %s IN (?, ?)
			AND %s >= ? AND %s < ?
		GROUP BY 1
		ORDER BY 1`,
		constants.FieldCallStartedAt,
		constants.FieldCallDurationS,
		constants.TableCallRecord,
		constants.FieldCallStatus,
		constants.FieldCallStartedAt, constants.FieldCallStartedAt)

	rows, err := r.db.QueryContext(ctx, query,
		tenantID, constants.CallStatusAnswered, constants.CallStatusCompleted, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	volumes := make([]IntervalVolume, 0)
	for rows.Next() {
		var v IntervalVolume
		if err := rows.Scan(&v.IntervalStart, &v.Calls, &v.AvgHandleSecs); err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}
