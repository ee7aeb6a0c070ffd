package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/voxhub/backend/internal/domain/models"
	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/pkg/errors"
	"github.com/voxhub/backend/pkg/utils"
)

// NotificationService manages in-app notifications and subscribes to the
// domain events users care about.
type NotificationService struct {
	repo *persistence.NotificationRepository
}

func NewNotificationService(repo *persistence.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify creates a notification for one user.
func (s *NotificationService) Notify(ctx context.Context, userID, title, body string) error {
	if userID == "" {
		return errors.NewValidationError("user_id", "user_id is required")
	}

	n := &models.Notification{
		ID:        utils.GenerateID(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	return s.repo.Insert(ctx, n)
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.FindByUser(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// RegisterEventHandlers subscribes to run failures and transcription
// completions so the owning users hear about them.
func (s *NotificationService) RegisterEventHandlers(bus *EventBus) {
	bus.Subscribe(EventWorkflowRunFailed, func(ctx context.Context, payload interface{}) error {
		data, ok := payload.(map[string]interface{})
		if !ok {
			return nil
		}
		userID, _ := data["started_by"].(string)
		runID, _ := data["run_id"].(string)
		workflowName, _ := data["workflow_name"].(string)
		if userID == "" {
			return nil
		}
		return s.Notify(ctx, userID, "Workflow run failed",
			fmt.Sprintf("Run %s of workflow %q failed", runID, workflowName))
	})

	bus.Subscribe(EventCallTranscribed, func(ctx context.Context, payload interface{}) error {
		data, ok := payload.(map[string]interface{})
		if !ok {
			return nil
		}
		userID, _ := data["agent_id"].(string)
		callID, _ := data["call_id"].(string)
		if userID == "" {
			return nil
		}
		return s.Notify(ctx, userID, "Transcript ready",
			fmt.Sprintf("Transcript for call %s is available", callID))
	})

	log.Printf("✅ Notification event handlers registered")
}
