package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/pkg/constants"
)

type ForecastRepository struct {
	db *sql.DB
}

func NewForecastRepository(db *sql.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// ReplaceForGeneration swaps out a tenant's forecast rows for a fresh
// generation in one transaction.
func (r *ForecastRepository) ReplaceForGeneration(ctx context.Context, tenantID string, forecasts []*models.StaffingForecast) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ?", constants.TableStaffingForecast)
	if _, err := tx.ExecContext(ctx, del, tenantID); err != nil {
		return err
	}

	ins := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, interval_start, forecast_calls, avg_handle_seconds, required_agents, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		constants.TableStaffingForecast)

	for _, f := range forecasts {
		if _, err := tx.ExecContext(ctx, ins,
			f.ID, f.TenantID, f.IntervalStart, f.ForecastCalls, f.AvgHandleSecs, f.RequiredAgents, f.GeneratedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindRange lists forecast intervals for a tenant within a window.
func (r *ForecastRepository) FindRange(ctx context.Context, tenantID string, from, to time.Time) ([]*models.StaffingForecast, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, interval_start, forecast_calls, avg_handle_seconds, required_agents, generated_at
		FROM %s WHERE tenant_id = ? AND interval_start >= ? AND interval_start < ?
		ORDER BY interval_start ASC`,
		constants.TableStaffingForecast)

	rows, err := r.db.QueryContext(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forecasts := make([]*models.StaffingForecast, 0)
	for rows.Next() {
		var f models.StaffingForecast
		if err := rows.Scan(&f.ID, &f.TenantID, &f.IntervalStart, &f.ForecastCalls, &f.AvgHandleSecs, &f.RequiredAgents, &f.GeneratedAt); err != nil {
			return nil, err
		}
		forecasts = append(forecasts, &f)
	}
	return forecasts, rows.Err()
}
