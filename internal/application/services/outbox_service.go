package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voxhub/backend/internal/infrastructure/persistence"
	"github.com/voxhub/backend/internal/infrastructure/stream"
	"github.com/voxhub/backend/pkg/constants"
)

// OutboxService stores domain events transactionally and publishes them
// asynchronously. It implements the Outbox Pattern for guaranteed delivery.
// Events are mirrored to Kafka when a publisher is configured; the bus is the
// source of truth, the stream is best effort.
type OutboxService struct {
	db       *sql.DB
	repo     *persistence.OutboxRepository
	eventBus *EventBus
	stream   *stream.Publisher

	// Worker control
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewOutboxService(db *sql.DB, eventBus *EventBus, publisher *stream.Publisher) *OutboxService {
	return &OutboxService{
		db:       db,
		repo:     persistence.NewOutboxRepository(db),
		eventBus: eventBus,
		stream:   publisher,
		stopCh:   make(chan struct{}),
	}
}

// Enqueue stores an event in the outbox. Pass a transaction to persist the
// event atomically with the business operation; nil enqueues directly.
func (os *OutboxService) Enqueue(ctx context.Context, tx *sql.Tx, eventType EventType, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	var execer persistence.Execer
	if tx != nil {
		execer = tx
	}

	id, err := os.repo.Enqueue(ctx, execer, string(eventType), string(body))
	if err != nil {
		return err
	}
	log.Printf("✅ [Outbox] Enqueued event %s (ID: %s)", eventType, id)
	return nil
}

// StartWorker starts the background worker that processes pending outbox
// events at the given interval.
func (os *OutboxService) StartWorker(interval time.Duration) {
	os.wg.Add(1)
	go func() {
		defer os.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("📤 Outbox worker started with %v interval", interval)

		for {
			select {
			case <-os.stopCh:
				log.Printf("📤 Outbox worker stopping...")
				return
			case <-ticker.C:
				if err := os.ProcessOutbox(context.Background()); err != nil {
					log.Printf("⚠️ Outbox worker error: %v", err)
				}
			}
		}
	}()
}

// StopWorker stops the background worker gracefully
func (os *OutboxService) StopWorker() {
	os.stopOnce.Do(func() {
		close(os.stopCh)
	})
	os.wg.Wait()
	log.Printf("📤 Outbox worker stopped")
}

// ProcessOutbox processes all pending events. Each event is claimed,
// published, and status-updated in its own transaction.
func (os *OutboxService) ProcessOutbox(ctx context.Context) error {
	events, err := os.repo.GetPendingEvents(ctx, 100)
	if err != nil {
		return err
	}

	if len(events) > 0 {
		log.Printf("🔄 [Outbox] Processing %d pending events", len(events))
	}

	for _, e := range events {
		if err := os.processEventAtomic(ctx, e.ID, e.EventType, e.Payload, e.RetryCount); err != nil {
			log.Printf("⚠️ Failed to process outbox event %s: %v", e.ID, err)
		}
	}

	return nil
}

// processEventAtomic claims an event, publishes it, and updates status atomically
func (os *OutboxService) processEventAtomic(ctx context.Context, id, eventType, payloadJSON string, retryCount int) error {
	tx, err := os.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Skip if already claimed by another worker
	claimed, err := os.repo.ClaimEvent(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to claim event: %w", err)
	}
	if !claimed {
		return nil
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		log.Printf("❌ [Outbox] Event %s failed payload unmarshal: %v", id, err)
		if markErr := os.repo.UpdateStatus(ctx, tx, id, constants.OutboxStatusFailed, fmt.Sprintf("invalid payload: %v", err)); markErr != nil {
			return fmt.Errorf("failed to mark event as failed: %w", markErr)
		}
		return tx.Commit()
	}

	if err := os.eventBus.Publish(ctx, EventType(eventType), payload); err != nil {
		newRetryCount := retryCount + 1
		if updateErr := os.repo.IncrementRetry(ctx, tx, id, newRetryCount, err.Error()); updateErr != nil {
			return fmt.Errorf("failed to update retry count: %w", updateErr)
		}
		log.Printf("⚠️ [Outbox] Event %s failed (Attempt %d/%d). Error: %v", id, newRetryCount, constants.OutboxMaxRetryAttempts, err)
		return tx.Commit()
	}

	if err := os.repo.UpdateStatus(ctx, tx, id, constants.OutboxStatusProcessed, ""); err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// Stream mirror is best effort; the row is already processed.
	if err := os.stream.Publish(ctx, eventType, payload); err != nil {
		log.Printf("⚠️ [Outbox] Kafka mirror failed for event %s: %v", id, err)
	}

	log.Printf("✅ [Outbox] Successfully processed event %s (Type: %s)", id, eventType)
	return nil
}

// CleanupProcessed removes old processed events. Called periodically by the
// scheduler to keep the table small.
func (os *OutboxService) CleanupProcessed(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return os.repo.CleanupProcessed(ctx, cutoff)
}
