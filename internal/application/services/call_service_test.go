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

func newCallServiceForTest(t *testing.T) (*CallService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	outbox := NewOutboxService(db, NewEventBus(), nil)
	settings := NewSettingService(
		persistence.NewSettingRepository(db),
		NewAuditService(persistence.NewAuditRepository(db)),
		outbox,
	)
	svc := NewCallService(persistence.NewCallRepository(db), persistence.NewContactRepository(db), settings, outbox)
	return svc, mock
}

func callRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "contact_id", "agent_id", "direction", "from_number", "to_number",
		"queue", "status", "amd_result", "duration_seconds", "disposition", "transcript",
		"redaction_count", "started_at", "ended_at",
	}).AddRow("call-1", "tenant-1", nil, nil, constants.CallDirectionInbound, "+15550001111",
		"+15550002222", "support", constants.CallStatusCompleted, constants.AMDResultHuman,
		120, "", "", 0, time.Now(), nil)
}

func TestAttachTranscriptRedactsByDefault(t *testing.T) {
	svc, mock := newCallServiceForTest(t)

	mock.ExpectQuery("SELECT id, tenant_id, contact_id, agent_id").
		WithArgs("call-1", "tenant-1").WillReturnRows(callRow())
	// No redaction.enabled row anywhere: the toggle defaults to on.
	mock.ExpectQuery("SELECT id, tenant_id, setting_key").
		WithArgs(constants.SettingRedactionEnabled, "tenant-1").
		WillReturnRows(emptySettingRows())
	mock.ExpectExec("UPDATE call_records SET transcript").
		WithArgs("my social is ***-**-**** ok", 1, "call-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))

	call, err := svc.AttachTranscriptSystem(context.Background(), "tenant-1", "call-1", "my social is 123-45-6789 ok")
	require.NoError(t, err)
	assert.Equal(t, "my social is ***-**-**** ok", call.Transcript)
	assert.Equal(t, 1, call.RedactionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachTranscriptHonorsRedactionToggle(t *testing.T) {
	svc, mock := newCallServiceForTest(t)

	mock.ExpectQuery("SELECT id, tenant_id, contact_id, agent_id").
		WithArgs("call-1", "tenant-1").WillReturnRows(callRow())
	mock.ExpectQuery("SELECT id, tenant_id, setting_key").
		WithArgs(constants.SettingRedactionEnabled, "tenant-1").
		WillReturnRows(settingRows(constants.SettingRedactionEnabled, "false", constants.SettingTypeBool, "tenant-1"))
	// Toggle off: the transcript is stored verbatim with zero findings.
	mock.ExpectExec("UPDATE call_records SET transcript").
		WithArgs("my social is 123-45-6789 ok", 0, "call-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))

	call, err := svc.AttachTranscriptSystem(context.Background(), "tenant-1", "call-1", "my social is 123-45-6789 ok")
	require.NoError(t, err)
	assert.Equal(t, "my social is 123-45-6789 ok", call.Transcript)
	assert.Equal(t, 0, call.RedactionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
