package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
)

func analyticsActor(role string, tenantID *string) *auth.UserSession {
	return &auth.UserSession{
		ID:       "user-1",
		Email:    "admin@example.com",
		Role:     role,
		TenantID: tenantID,
	}
}

func TestAnalyticsRewriteInjectsTenantScope(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	tenantID := "tenant-1"
	actor := analyticsActor(string(constants.RoleTenantAdmin), &tenantID)

	rewritten, err := svc.ValidateAndRewrite("SELECT status, COUNT(*) FROM call_records GROUP BY status", actor)
	require.NoError(t, err)
	assert.Contains(t, rewritten, "tenant_id")
	assert.Contains(t, rewritten, "tenant-1")
	assert.Contains(t, rewritten, "LIMIT")
}

func TestAnalyticsRewritePreservesExistingWhere(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	tenantID := "tenant-1"
	actor := analyticsActor(string(constants.RoleTenantAdmin), &tenantID)

	rewritten, err := svc.ValidateAndRewrite("SELECT id FROM contacts WHERE is_deleted = 0", actor)
	require.NoError(t, err)
	assert.Contains(t, rewritten, "is_deleted")
	assert.Contains(t, rewritten, "tenant-1")
}

func TestAnalyticsPlatformAdminSkipsTenantScope(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	actor := analyticsActor(string(constants.RolePlatformAdmin), nil)

	rewritten, err := svc.ValidateAndRewrite("SELECT COUNT(*) FROM call_records", actor)
	require.NoError(t, err)
	assert.NotContains(t, rewritten, "tenant_id")
	assert.Contains(t, rewritten, "LIMIT")
}

func TestAnalyticsRewriteKeepsExplicitLimit(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	actor := analyticsActor(string(constants.RolePlatformAdmin), nil)

	rewritten, err := svc.ValidateAndRewrite("SELECT id FROM contacts LIMIT 5", actor)
	require.NoError(t, err)
	assert.Contains(t, rewritten, "LIMIT 5")
}

func TestAnalyticsRejectsDisallowedTable(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	actor := analyticsActor(string(constants.RolePlatformAdmin), nil)

	_, err := svc.ValidateAndRewrite("SELECT * FROM sessions", actor)
	assert.Error(t, err)

	// Disallowed tables hide inside subqueries too.
	_, err = svc.ValidateAndRewrite(
		"SELECT * FROM contacts WHERE id IN (SELECT user_id FROM sessions)", actor)
	assert.Error(t, err)
}

func TestAnalyticsRejectsNonSelect(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	actor := analyticsActor(string(constants.RolePlatformAdmin), nil)

	_, err := svc.ValidateAndRewrite("DELETE FROM contacts", actor)
	assert.Error(t, err)

	_, err = svc.ValidateAndRewrite("UPDATE contacts SET first_name = 'x'", actor)
	assert.Error(t, err)
}

func TestAnalyticsRejectsMultipleStatements(t *testing.T) {
	svc := NewAnalyticsService(nil, nil)
	actor := analyticsActor(string(constants.RolePlatformAdmin), nil)

	_, err := svc.ValidateAndRewrite("SELECT 1; SELECT 2", actor)
	assert.Error(t, err)
}
