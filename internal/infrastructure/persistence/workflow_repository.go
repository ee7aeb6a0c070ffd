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

// WorkflowRepository covers workflow definitions and their runs.
type WorkflowRepository struct {
	db *sql.DB
}

func NewWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) Insert(ctx context.Context, w *models.Workflow) error {
	graph, err := w.Graph.Marshal()
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, name, description, status, graph, schedule, is_running, next_run_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		constants.TableWorkflow)

	_, err = r.db.ExecContext(ctx, query,
		w.ID, w.TenantID, w.Name, w.Description, w.Status, graph, w.Schedule, w.NextRunAt, w.CreatedBy, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r *WorkflowRepository) scanWorkflow(row interface{ Scan(...interface{}) error }) (*models.Workflow, error) {
	var w models.Workflow
	var graph string
	var description, schedule sql.NullString
	var lastRun, nextRun sql.NullTime

	err := row.Scan(&w.ID, &w.TenantID, &w.Name, &description, &w.Status, &graph,
		&schedule, &w.IsRunning, &lastRun, &nextRun, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}

	w.Graph, err = models.UnmarshalGraph(graph)
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph for workflow %s: %w", w.ID, err)
	}

	if description.Valid {
		w.Description = description.String
	}
	if schedule.Valid {
		w.Schedule = &schedule.String
	}
	if lastRun.Valid {
		w.LastRunAt = &lastRun.Time
	}
	if nextRun.Valid {
		w.NextRunAt = &nextRun.Time
	}
	return &w, nil
}

const workflowColumns = "id, tenant_id, name, description, status, graph, schedule, is_running, last_run_at, next_run_at, created_by, created_at, updated_at"

func (r *WorkflowRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? AND tenant_id = ? LIMIT 1`,
		workflowColumns, constants.TableWorkflow)

	w, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

func (r *WorkflowRepository) FindAll(ctx context.Context, tenantID, status string) ([]*models.Workflow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ?`, workflowColumns, constants.TableWorkflow)

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

	workflows := make([]*models.Workflow, 0)
	for rows.Next() {
		w, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// FindDueScheduled returns active workflows with a schedule whose next run
// time has passed and which are not already executing.
func (r *WorkflowRepository) FindDueScheduled(ctx context.Context, now time.Time) ([]*models.Workflow, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = ? AND schedule IS NOT NULL AND is_running = 0
			AND next_run_at IS NOT NULL AND next_run_at <= ?`,
		workflowColumns, constants.TableWorkflow)

	rows, err := r.db.QueryContext(ctx, query, constants.WorkflowStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := make([]*models.Workflow, 0)
	for rows.Next() {
		w, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

// AcquireRunLock atomically flips is_running from 0 to 1. Returns false when
// another scheduler instance already holds the lock.
func (r *WorkflowRepository) AcquireRunLock(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET is_running = 1 WHERE id = ? AND is_running = 0",
		constants.TableWorkflow)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ReleaseRunLock clears the execution lock and stamps the run bookkeeping.
func (r *WorkflowRepository) ReleaseRunLock(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET is_running = 0, last_run_at = ?, next_run_at = ? WHERE id = ?",
		constants.TableWorkflow)
	_, err := r.db.ExecContext(ctx, query, lastRun, nextRun, id)
	return err
}

func (r *WorkflowRepository) Update(ctx context.Context, tenantID, id string, updates map[string]interface{}) error {
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
		constants.TableWorkflow, strings.Join(setClauses, ", "))
	args = append(args, id, tenantID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *WorkflowRepository) Delete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND tenant_id = ?", constants.TableWorkflow)
	_, err := r.db.ExecContext(ctx, query, id, tenantID)
	return err
}

// --- runs ---

const runColumns = "id, tenant_id, workflow_id, state, current_node, context, step_log, error, started_by, started_at, ended_at"

func (r *WorkflowRepository) InsertRun(ctx context.Context, run *models.WorkflowRun) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowRun, runColumns)

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.TenantID, run.WorkflowID, run.State, run.CurrentNode,
		run.Context, run.StepLog, run.Error, run.StartedBy, run.StartedAt, run.EndedAt)
	return err
}

func (r *WorkflowRepository) scanRun(row interface{ Scan(...interface{}) error }) (*models.WorkflowRun, error) {
	var run models.WorkflowRun
	var currentNode, runCtx, stepLog, runErr sql.NullString
	var endedAt sql.NullTime

	err := row.Scan(&run.ID, &run.TenantID, &run.WorkflowID, &run.State, &currentNode,
		&runCtx, &stepLog, &runErr, &run.StartedBy, &run.StartedAt, &endedAt)
	if err != nil {
		return nil, err
	}

	run.CurrentNode = currentNode.String
	run.Context = runCtx.String
	run.StepLog = stepLog.String
	run.Error = runErr.String
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return &run, nil
}

func (r *WorkflowRepository) FindRunByID(ctx context.Context, tenantID, runID string) (*models.WorkflowRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ? AND tenant_id = ? LIMIT 1`,
		runColumns, constants.TableWorkflowRun)

	run, err := r.scanRun(r.db.QueryRowContext(ctx, query, runID, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// FindRuns lists runs of one workflow, newest first.
func (r *WorkflowRepository) FindRuns(ctx context.Context, tenantID, workflowID string, limit int) ([]*models.WorkflowRun, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE tenant_id = ? AND workflow_id = ?
		ORDER BY started_at DESC LIMIT ?`,
		runColumns, constants.TableWorkflowRun)

	rows, err := r.db.QueryContext(ctx, query, tenantID, workflowID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.WorkflowRun, 0)
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateRun persists executor progress on a run.
func (r *WorkflowRepository) UpdateRun(ctx context.Context, runID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}
	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TableWorkflowRun, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, runID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
