package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jitsi/jicofo-go/internal/logger"
)

func TestEventBusPubSub(t *testing.T) {
	bus := NewEventBus(newLogger(t))

	// Subscribe to the event topic
	ch := bus.Subscribe(TopicBridgeUp)

	// Publish an event
	event := CreateBridgeUp("jvb1@example.org")
	bus.Publish(event)

	// Verify the event was received
	select {
	case e := <-ch:
		require.Equal(t, event, e)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Event was not received within timeout")
	}
}

func TestEventBusPublishToMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(newLogger(t))

	ch1 := bus.Subscribe(TopicBridgeDown)
	ch2 := bus.Subscribe(TopicBridgeDown)

	event := CreateBridgeDown("jvb1@example.org")
	bus.Publish(event)

	select {
	case e := <-ch1:
		require.Equal(t, event, e)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "First subscriber did not receive event within timeout")
	}

	select {
	case e := <-ch2:
		require.Equal(t, event, e)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "Second subscriber did not receive event within timeout")
	}
}

func TestEventBusSubscribeMultipleTopics(t *testing.T) {
	bus := NewEventBus(newLogger(t), WithSubscriberBuffer(4))

	// duplicate topics must not result in duplicate deliveries
	ch := bus.Subscribe(TopicBridgeUp, TopicBridgeDown, TopicBridgeUp)

	bus.Publish(CreateBridgeUp("jvb1@example.org"))
	bus.Publish(CreateBridgeDown("jvb1@example.org"))
	bus.Publish(NewEvent("some/other/topic", nil))

	require.Len(t, ch, 2)
	require.Equal(t, TopicBridgeUp, (<-ch).Topic())
	require.Equal(t, TopicBridgeDown, (<-ch).Topic())
}

func TestEventBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewEventBus(newLogger(t))
	ch := bus.Subscribe(TopicBridgeUp)

	first := CreateBridgeUp("jvb1@example.org")
	bus.Publish(first)
	bus.Publish(CreateBridgeUp("jvb2@example.org"))

	require.Len(t, ch, 1)
	require.Equal(t, first, <-ch)
}

func TestEventBusPublishNil(t *testing.T) {
	bus := NewEventBus(newLogger(t))
	ch := bus.Subscribe(TopicBridgeUp)

	require.NotPanics(t, func() { bus.Publish(nil) })
	require.Empty(t, ch)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(newLogger(t))

	ch1 := bus.Subscribe(TopicBridgeUp)
	ch2 := bus.Subscribe(TopicBridgeUp)
	ch3 := bus.Subscribe(TopicBridgeUp)

	// Unsubscribe ch2
	err := bus.Unsubscribe(TopicBridgeUp, ch2)
	require.NoError(t, err)

	// Try to unsubscribe ch2 again - should return error
	err = bus.Unsubscribe(TopicBridgeUp, ch2)
	require.ErrorContains(t, err, "subscriber not found")

	// Try to unsubscribe ch2 on wrong topic - should return error
	err = bus.Unsubscribe("invalid-topic", ch2)
	require.ErrorContains(t, err, "topic not found")

	event := CreateBridgeUp("jvb1@example.org")
	bus.Publish(event)

	select {
	case e := <-ch1:
		require.Equal(t, event, e)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "ch1 should have received the event")
	}

	select {
	case e := <-ch3:
		require.Equal(t, event, e)
	case <-time.After(100 * time.Millisecond):
		require.Fail(t, "ch3 should have received the event")
	}

	// Verify ch2 did not receive the event
	select {
	case <-ch2:
		require.Fail(t, "ch2 should not have received the event")
	default:
	}

	// Removing the last subscriber removes the topic
	require.NoError(t, bus.Unsubscribe(TopicBridgeUp, ch1))
	require.NoError(t, bus.Unsubscribe(TopicBridgeUp, ch3))
	require.ErrorContains(t, bus.Unsubscribe(TopicBridgeUp, ch3), "topic not found")
}

func newLogger(t *testing.T) *logger.Logger {
	testLogger, err := logger.New("info", "text", "stdout", false)
	require.NoError(t, err)
	return testLogger
}
