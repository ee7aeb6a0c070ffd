package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(EventCallTranscribed, func(ctx context.Context, payload interface{}) error {
		got = append(got, payload.(string))
		return nil
	})
	bus.Subscribe(EventCallTranscribed, func(ctx context.Context, payload interface{}) error {
		got = append(got, "second:"+payload.(string))
		return nil
	})

	err := bus.Publish(context.Background(), EventCallTranscribed, "call-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"call-1", "second:call-1"}, got)
}

func TestEventBusPublishNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	err := bus.Publish(context.Background(), EventWorkflowRunFailed, "run-1")
	assert.NoError(t, err)
}

func TestEventBusHandlerErrorStopsChain(t *testing.T) {
	bus := NewEventBus()

	called := 0
	bus.Subscribe(EventSettingChanged, func(ctx context.Context, payload interface{}) error {
		called++
		return errors.New("boom")
	})
	bus.Subscribe(EventSettingChanged, func(ctx context.Context, payload interface{}) error {
		called++
		return nil
	})

	err := bus.Publish(context.Background(), EventSettingChanged, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, called)
}

func TestEventBusUnsubscribeRemovesOwnHandler(t *testing.T) {
	bus := NewEventBus()

	var got []string
	record := func(name string) EventHandler {
		return func(ctx context.Context, payload interface{}) error {
			got = append(got, name)
			return nil
		}
	}

	unsubA := bus.Subscribe(EventCallCreated, record("a"))
	unsubB := bus.Subscribe(EventCallCreated, record("b"))
	bus.Subscribe(EventCallCreated, record("c"))

	// Removing an earlier subscriber compacts the list; a later unsubscribe
	// must still remove its own handler, not a neighbor.
	unsubA()
	unsubB()

	err := bus.Publish(context.Background(), EventCallCreated, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)
}

func TestEventBusClear(t *testing.T) {
	bus := NewEventBus()

	called := false
	bus.Subscribe(EventContactCreated, func(ctx context.Context, payload interface{}) error {
		called = true
		return nil
	})

	bus.Clear()

	err := bus.Publish(context.Background(), EventContactCreated, nil)
	assert.NoError(t, err)
	assert.False(t, called)
}
