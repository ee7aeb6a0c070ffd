package services

import (
	"context"
	"log"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/utils"
)

// AuditService records sentinel security events. Recording never fails the
// calling operation; failures are logged and dropped.
type AuditService struct {
	repo *persistence.AuditRepository
}

func NewAuditService(repo *persistence.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record writes one audit event.
func (s *AuditService) Record(ctx context.Context, tenantID *string, actorID, action, resource, severity, ip, detail string) {
	event := &models.AuditEvent{
		ID:        utils.GenerateID(),
		TenantID:  tenantID,
		ActorID:   actorID,
		Action:    action,
		Resource:  resource,
		Severity:  severity,
		IPAddress: ip,
		Detail:    detail,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		log.Printf("⚠️ Failed to record audit event %s/%s: %v", action, resource, err)
	}
}

// List returns audit events. Platform admins pass a nil tenantID to see all
// tenants.
func (s *AuditService) List(ctx context.Context, tenantID *string, severity string, limit, offset int) ([]*models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.FindAll(ctx, tenantID, severity, limit, offset)
}
