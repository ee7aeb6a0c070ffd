package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/constants"
)

func tenantRows(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "plan", "status", "max_agents", "created_at", "updated_at"}).
		AddRow("tenant-1", "Acme BPO", "standard", status, 25, now, now)
}

func TestTenantDeleteMarksChurned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewTenantService(persistence.NewTenantRepository(db))

	mock.ExpectQuery("SELECT id, name, plan, status").WithArgs("tenant-1").
		WillReturnRows(tenantRows(constants.TenantStatusActive))
	mock.ExpectExec("UPDATE tenants SET status = \\?, updated_at = NOW\\(\\)").
		WithArgs(constants.TenantStatusChurned, "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, plan, status").WithArgs("tenant-1").
		WillReturnRows(tenantRows(constants.TenantStatusChurned))

	tenant, err := svc.Delete(context.Background(), "tenant-1")
	assert.NoError(t, err)
	assert.Equal(t, constants.TenantStatusChurned, tenant.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantDeleteIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewTenantService(persistence.NewTenantRepository(db))

	// Already churned: no update is issued.
	mock.ExpectQuery("SELECT id, name, plan, status").WithArgs("tenant-1").
		WillReturnRows(tenantRows(constants.TenantStatusChurned))

	tenant, err := svc.Delete(context.Background(), "tenant-1")
	assert.NoError(t, err)
	assert.Equal(t, constants.TenantStatusChurned, tenant.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantDeleteUnknownTenant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewTenantService(persistence.NewTenantRepository(db))

	mock.ExpectQuery("SELECT id, name, plan, status").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "plan", "status", "max_agents", "created_at", "updated_at"}))

	_, err = svc.Delete(context.Background(), "ghost")
	assert.Error(t, err)
}
