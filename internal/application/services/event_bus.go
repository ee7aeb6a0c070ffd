package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// EventType names a domain event topic.
type EventType string

const (
	EventCallCreated          EventType = "call.created"
	EventCallTranscribed      EventType = "call.transcribed"
	EventContactCreated       EventType = "contact.created"
	EventWorkflowActivated    EventType = "workflow.activated"
	EventWorkflowRunCompleted EventType = "workflow_run.completed"
	EventWorkflowRunFailed    EventType = "workflow_run.failed"
	EventTranscriptionFailed  EventType = "transcription.failed"
	EventVoiceProfileEnrolled EventType = "voice_profile.enrolled"
	EventSettingChanged       EventType = "setting.changed"
	EventForecastGenerated    EventType = "forecast.generated"
)

// EventHandler handles a published event payload.
type EventHandler func(ctx context.Context, payload interface{}) error

// DomainEvent is the envelope passed to handlers and mirrored to the outbox.
type DomainEvent struct {
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id,omitempty"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// subscription pairs a handler with a stable identity so unsubscribing stays
// correct after earlier removals compact the slice.
type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus is the in-process publish-subscribe system.
type EventBus struct {
	subs   map[EventType][]subscription
	nextID uint64
	mu     sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[EventType][]subscription),
	}
}

// Subscribe registers a handler for an event type and returns an unsubscribe
// function.
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.subs[eventType] = append(eb.subs[eventType], subscription{id: id, handler: handler})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()

		subs := eb.subs[eventType]
		for i, s := range subs {
			if s.id == id {
				eb.subs[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers an event to all registered handlers in sequence.
func (eb *EventBus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.subs[eventType]))
	for _, s := range eb.subs[eventType] {
		handlers = append(handlers, s.handler)
	}
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	event := DomainEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	for _, handler := range handlers {
		if err := handler(ctx, event.Payload); err != nil {
			return fmt.Errorf("EventBus handler error for %s: %w", eventType, err)
		}
	}

	return nil
}

// PublishAsync publishes an event in a goroutine, decoupled from the caller's
// request or transaction.
func (eb *EventBus) PublishAsync(eventType EventType, payload interface{}) {
	go func() {
		if err := eb.Publish(context.Background(), eventType, payload); err != nil {
			log.Printf("EventBus async publish error: %v", err)
		}
	}()
}

// Clear removes all handlers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subs = make(map[EventType][]subscription)
}
