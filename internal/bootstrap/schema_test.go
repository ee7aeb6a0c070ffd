package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voxhub/backend/pkg/constants"
)

func ddlFor(t *testing.T, table string) string {
	t.Helper()
	for _, d := range tableDDL() {
		if d.name == table {
			return d.ddl
		}
	}
	t.Fatalf("no DDL for table %s", table)
	return ""
}

func TestSchemaCoversAllTables(t *testing.T) {
	want := []string{
		constants.TableUser, constants.TableSession, constants.TableTenant,
		constants.TableContact, constants.TableActivity, constants.TableCallRecord,
		constants.TableVoiceProfile, constants.TableWorkflow, constants.TableWorkflowRun,
		constants.TableConference, constants.TableTranscriptionJob, constants.TableAdminSetting,
		constants.TableNotification, constants.TableAuditEvent, constants.TableOutboxEvent,
		constants.TableStaffingForecast,
	}

	seen := map[string]bool{}
	for _, d := range tableDDL() {
		seen[d.name] = true
		assert.Contains(t, d.ddl, "CREATE TABLE IF NOT EXISTS "+d.name)
	}
	for _, table := range want {
		assert.True(t, seen[table], "missing DDL for %s", table)
	}
}

func TestCallRecordOptionalColumnsAreNullable(t *testing.T) {
	ddl := ddlFor(t, constants.TableCallRecord)

	// These columns back pointer fields on the model; an agentless inbound
	// call must insert cleanly.
	for _, col := range []string{
		"contact_id VARCHAR(36) NULL",
		"agent_id VARCHAR(36) NULL",
		"ended_at DATETIME NULL",
	} {
		assert.Contains(t, ddl, col)
	}
	assert.False(t, strings.Contains(ddl, "agent_id VARCHAR(36) NOT NULL"))
}
