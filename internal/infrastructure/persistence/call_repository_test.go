package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/voxhub/backend/pkg/constants"
)

func TestFindCallByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCallRepository(db)

	now := time.Now()
	cols := []string{"id", "tenant_id", "contact_id", "agent_id", "direction", "from_number", "to_number",
		"queue", "status", "amd_result", "duration_seconds", "disposition", "transcript", "redaction_count",
		"started_at", "ended_at"}

	rows := sqlmock.NewRows(cols).
		AddRow("call-1", "tenant-1", nil, "agent-1", constants.CallDirectionInbound, "+15551234567", "+15557654321",
			"support", constants.CallStatusCompleted, constants.AMDResultHuman, 240, "resolved",
			"caller asked about billing", 0, now, now)

	mock.ExpectQuery("SELECT id, tenant_id, contact_id").WithArgs("call-1", "tenant-1").WillReturnRows(rows)

	c, err := repo.FindByID(context.Background(), "tenant-1", "call-1")
	assert.NoError(t, err)
	assert.NotNil(t, c)
	assert.Nil(t, c.ContactID)
	assert.NotNil(t, c.AgentID)
	assert.Equal(t, "agent-1", *c.AgentID)
	assert.Equal(t, 240, c.DurationSeconds)

	// Missing call returns nil without error
	mock.ExpectQuery("SELECT id, tenant_id, contact_id").WithArgs("call-404", "tenant-1").
		WillReturnRows(sqlmock.NewRows(cols))

	c, err = repo.FindByID(context.Background(), "tenant-1", "call-404")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestAttachTranscript(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCallRepository(db)

	query := fmt.Sprintf("UPDATE %s SET transcript = ?, redaction_count = ? WHERE id = ? AND tenant_id = ?",
		constants.TableCallRecord)
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs("card ending **** **** **** 1111", 1, "call-1", "tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.AttachTranscript(context.Background(), "tenant-1", "call-1", "card ending **** **** **** 1111", 1)
	assert.NoError(t, err)
}

func TestKPISummaryComputesAnswerRate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCallRepository(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{"total", "answered", "abandoned", "avg_duration", "machine"}).
		AddRow(100, 80, 15, 210.5, 5)

	mock.ExpectQuery("SELECT").WithArgs(
		constants.CallStatusAnswered, constants.CallStatusCompleted,
		constants.CallStatusAbandoned,
		constants.AMDResultMachine,
		"tenant-1", from, to).WillReturnRows(rows)

	s, err := repo.KPISummary(context.Background(), "tenant-1", from, to)
	assert.NoError(t, err)
	assert.Equal(t, 100, s.TotalCalls)
	assert.Equal(t, 80, s.AnsweredCalls)
	assert.InDelta(t, 0.8, s.AnswerRate, 1e-9)
	assert.InDelta(t, 210.5, s.AvgDurationSecs, 1e-9)
}

func TestVolumeByInterval(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewCallRepository(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	rows := sqlmock.NewRows([]string{"interval_start", "calls", "avg_handle"}).
		AddRow(from, 12, 180.0).
		AddRow(from.Add(30*time.Minute), 18, 200.0)

	mock.ExpectQuery("SELECT").WithArgs(
		"tenant-1", constants.CallStatusAnswered, constants.CallStatusCompleted, from, to).
		WillReturnRows(rows)

	volumes, err := repo.VolumeByInterval(context.Background(), "tenant-1", from, to)
	assert.NoError(t, err)
	assert.Len(t, volumes, 2)
	assert.Equal(t, 12, volumes[0].Calls)
	assert.InDelta(t, 200.0, volumes[1].AvgHandleSecs, 1e-9)
}
