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

func settingRows(key, value, valueType string, tenantID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "setting_key", "setting_value", "value_type", "updated_by", "updated_at"}).
		AddRow("setting-1", tenantID, key, value, valueType, constants.SystemUserID, time.Now())
}

func emptySettingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "setting_key", "setting_value", "value_type", "updated_by", "updated_at"})
}

func newSettingServiceForTest(t *testing.T) (*SettingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewSettingService(
		persistence.NewSettingRepository(db),
		NewAuditService(persistence.NewAuditRepository(db)),
		NewOutboxService(db, NewEventBus(), nil),
	)
	return svc, mock
}

func TestGetFloatReturnsStoredValue(t *testing.T) {
	svc, mock := newSettingServiceForTest(t)
	tenantID := "tenant-1"

	mock.ExpectQuery("SELECT id, tenant_id, setting_key").
		WithArgs(constants.SettingForecastServiceLevel, tenantID).
		WillReturnRows(settingRows(constants.SettingForecastServiceLevel, "0.92", constants.SettingTypeFloat, tenantID))

	got := svc.GetFloat(context.Background(), &tenantID, constants.SettingForecastServiceLevel, 0.80)
	assert.InDelta(t, 0.92, got, 0.0001)
}

func TestGetFloatFallsBackWhenUnset(t *testing.T) {
	svc, mock := newSettingServiceForTest(t)
	tenantID := "tenant-1"

	mock.ExpectQuery("SELECT id, tenant_id, setting_key").
		WithArgs(constants.SettingForecastServiceLevel, tenantID).
		WillReturnRows(emptySettingRows())

	got := svc.GetFloat(context.Background(), &tenantID, constants.SettingForecastServiceLevel, 0.80)
	assert.InDelta(t, 0.80, got, 0.0001)
}

func TestGetBoolReadsStoredValue(t *testing.T) {
	svc, mock := newSettingServiceForTest(t)
	tenantID := "tenant-1"

	mock.ExpectQuery("SELECT id, tenant_id, setting_key").
		WithArgs(constants.SettingRedactionEnabled, tenantID).
		WillReturnRows(settingRows(constants.SettingRedactionEnabled, "false", constants.SettingTypeBool, nil))

	assert.False(t, svc.GetBool(context.Background(), &tenantID, constants.SettingRedactionEnabled, true))
}

func TestGetStringFallsBackWhenUnset(t *testing.T) {
	svc, mock := newSettingServiceForTest(t)
	tenantID := "tenant-1"

	mock.ExpectQuery("SELECT id, tenant_id, setting_key").
		WithArgs(constants.SettingTranscriptionLanguage, tenantID).
		WillReturnRows(emptySettingRows())

	got := svc.GetString(context.Background(), &tenantID, constants.SettingTranscriptionLanguage, "en-US")
	assert.Equal(t, "en-US", got)
}
