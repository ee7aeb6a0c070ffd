package bootstrap

import (
	"fmt"
	"log"

	"github.com/voxhub/backend/internal/infrastructure/database"
	"github.com/voxhub/backend/pkg/constants"
)

// tableDDL maps each table to its CREATE statement. Statements are idempotent
// so startup can run against an existing database.
func tableDDL() []struct {
	name string
	ddl  string
} {
	return []struct {
		name string
		ddl  string
	}{
		{constants.TableTenant, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				name VARCHAR(255) NOT NULL UNIQUE,
				plan VARCHAR(32) NOT NULL,
				status VARCHAR(32) NOT NULL,
				max_agents INT NOT NULL DEFAULT 25,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`, constants.TableTenant)},

		{constants.TableUser, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL UNIQUE,
				password VARCHAR(255) NOT NULL,
				role VARCHAR(32) NOT NULL,
				tenant_id VARCHAR(36) NULL,
				is_active TINYINT(1) NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL,
				last_login_at DATETIME NULL,
				INDEX idx_users_tenant (tenant_id)
			)`, constants.TableUser)},

		{constants.TableSession, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL,
				token TEXT NOT NULL,
				expires_at DATETIME NOT NULL,
				ip_address VARCHAR(45) NOT NULL DEFAULT '',
				user_agent VARCHAR(512) NOT NULL DEFAULT '',
				is_revoked TINYINT(1) NOT NULL DEFAULT 0,
				last_activity_at DATETIME NOT NULL,
				INDEX idx_sessions_user (user_id),
				INDEX idx_sessions_expires (expires_at)
			)`, constants.TableSession)},

		{constants.TableContact, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				first_name VARCHAR(128) NOT NULL,
				last_name VARCHAR(128) NOT NULL,
				email VARCHAR(255) NOT NULL DEFAULT '',
				phone VARCHAR(64) NOT NULL DEFAULT '',
				company VARCHAR(255) NOT NULL DEFAULT '',
				owner_id VARCHAR(36) NOT NULL,
				is_deleted TINYINT(1) NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				INDEX idx_contacts_tenant (tenant_id, is_deleted)
			)`, constants.TableContact)},

		{constants.TableActivity, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				contact_id VARCHAR(36) NOT NULL,
				type VARCHAR(32) NOT NULL,
				subject VARCHAR(255) NOT NULL,
				body TEXT,
				author_id VARCHAR(36) NOT NULL,
				created_at DATETIME NOT NULL,
				INDEX idx_activities_contact (tenant_id, contact_id)
			)`, constants.TableActivity)},

		{constants.TableCallRecord, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				contact_id VARCHAR(36) NULL,
				agent_id VARCHAR(36) NULL,
				direction VARCHAR(16) NOT NULL,
				from_number VARCHAR(64) NOT NULL,
				to_number VARCHAR(64) NOT NULL,
				queue VARCHAR(128) NOT NULL DEFAULT '',
				status VARCHAR(32) NOT NULL,
				amd_result VARCHAR(16) NULL,
				duration_seconds INT NOT NULL DEFAULT 0,
				disposition VARCHAR(128) NOT NULL DEFAULT '',
				transcript MEDIUMTEXT NULL,
				redaction_count INT NOT NULL DEFAULT 0,
				started_at DATETIME NOT NULL,
				ended_at DATETIME NULL,
				is_deleted TINYINT(1) NOT NULL DEFAULT 0,
				INDEX idx_calls_tenant_started (tenant_id, started_at),
				INDEX idx_calls_status (tenant_id, status)
			)`, constants.TableCallRecord)},

		{constants.TableVoiceProfile, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				contact_id VARCHAR(36) NOT NULL,
				status VARCHAR(32) NOT NULL,
				sample_count INT NOT NULL DEFAULT 0,
				threshold DOUBLE NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE KEY uniq_voice_contact (tenant_id, contact_id)
			)`, constants.TableVoiceProfile)},

		{constants.TableWorkflow, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				status VARCHAR(32) NOT NULL,
				graph MEDIUMTEXT NOT NULL,
				schedule VARCHAR(128) NULL,
				is_running TINYINT(1) NOT NULL DEFAULT 0,
				last_run_at DATETIME NULL,
				next_run_at DATETIME NULL,
				created_by VARCHAR(36) NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				INDEX idx_workflows_tenant (tenant_id, status),
				INDEX idx_workflows_due (status, is_running, next_run_at)
			)`, constants.TableWorkflow)},

		{constants.TableWorkflowRun, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				workflow_id VARCHAR(36) NOT NULL,
				state VARCHAR(32) NOT NULL,
				current_node VARCHAR(128) NOT NULL DEFAULT '',
				context MEDIUMTEXT NULL,
				step_log MEDIUMTEXT NULL,
				error TEXT NULL,
				started_by VARCHAR(36) NOT NULL,
				started_at DATETIME NOT NULL,
				ended_at DATETIME NULL,
				INDEX idx_runs_workflow (tenant_id, workflow_id, started_at)
			)`, constants.TableWorkflowRun)},

		{constants.TableConference, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				title VARCHAR(255) NOT NULL,
				host_id VARCHAR(36) NOT NULL,
				status VARCHAR(32) NOT NULL,
				participants TEXT NOT NULL,
				scheduled_at DATETIME NOT NULL,
				started_at DATETIME NULL,
				ended_at DATETIME NULL,
				INDEX idx_conferences_tenant (tenant_id, scheduled_at)
			)`, constants.TableConference)},

		{constants.TableTranscriptionJob, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				call_id VARCHAR(36) NOT NULL,
				language VARCHAR(16) NOT NULL,
				status VARCHAR(32) NOT NULL,
				attempts INT NOT NULL DEFAULT 0,
				last_error TEXT NULL,
				created_at DATETIME NOT NULL,
				done_at DATETIME NULL,
				INDEX idx_transcriptions_queue (status, created_at)
			)`, constants.TableTranscriptionJob)},

		{constants.TableAdminSetting, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) NOT NULL,
				tenant_id VARCHAR(36) NULL,
				setting_key VARCHAR(128) NOT NULL,
				setting_value TEXT NOT NULL,
				value_type VARCHAR(16) NOT NULL,
				updated_by VARCHAR(36) NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE KEY uniq_settings_scope (tenant_id, setting_key)
			)`, constants.TableAdminSetting)},

		{constants.TableNotification, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				user_id VARCHAR(36) NOT NULL,
				title VARCHAR(255) NOT NULL,
				body TEXT,
				is_read TINYINT(1) NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				INDEX idx_notifications_user (user_id, is_read, created_at)
			)`, constants.TableNotification)},

		{constants.TableAuditEvent, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NULL,
				actor_id VARCHAR(36) NOT NULL,
				action VARCHAR(128) NOT NULL,
				resource VARCHAR(255) NOT NULL,
				severity VARCHAR(16) NOT NULL,
				ip_address VARCHAR(45) NOT NULL DEFAULT '',
				detail TEXT,
				created_at DATETIME NOT NULL,
				INDEX idx_audit_tenant (tenant_id, created_at)
			)`, constants.TableAuditEvent)},

		{constants.TableOutboxEvent, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				event_type VARCHAR(128) NOT NULL,
				payload MEDIUMTEXT NOT NULL,
				status VARCHAR(32) NOT NULL,
				retry_count INT NOT NULL DEFAULT 0,
				last_error TEXT NULL,
				created_at DATETIME NOT NULL,
				INDEX idx_outbox_pending (status, created_at)
			)`, constants.TableOutboxEvent)},

		{constants.TableStaffingForecast, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(36) PRIMARY KEY,
				tenant_id VARCHAR(36) NOT NULL,
				interval_start DATETIME NOT NULL,
				forecast_calls DOUBLE NOT NULL,
				avg_handle_seconds DOUBLE NOT NULL,
				required_agents INT NOT NULL,
				generated_at DATETIME NOT NULL,
				UNIQUE KEY uniq_forecast_interval (tenant_id, interval_start)
			)`, constants.TableStaffingForecast)},
	}
}

// InitializeSchema creates all tables on startup.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing database schema...")

	for _, t := range tableDDL() {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}

	log.Printf("✅ Schema ready (%d tables)", len(tableDDL()))
	return nil
}
