package events

import (
	"fmt"
	"slices"
	"sync"

	"github.com/jitsi/jicofo-go/internal/logger"
)

const defaultSubscriberBuffer = 1

type (
	EventBus struct {
		logger *logger.Logger
		buffer int

		mu          sync.RWMutex
		subscribers map[Topic][]chan Event
	}

	Option func(*EventBus)
)

// WithSubscriberBuffer sets the channel capacity of new subscriptions.
func WithSubscriberBuffer(size int) Option {
	return func(bus *EventBus) {
		if size > 0 {
			bus.buffer = size
		}
	}
}

func NewEventBus(log *logger.Logger, opts ...Option) *EventBus {
	bus := &EventBus{
		logger:      log,
		buffer:      defaultSubscriberBuffer,
		subscribers: make(map[Topic][]chan Event),
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Subscribe creates a channel, adds it to the subscribers list of every given topic,
// and returns it to the caller.
func (bus *EventBus) Subscribe(topics ...Topic) <-chan Event {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	ch := make(chan Event, bus.buffer)
	for _, topic := range slices.Compact(slices.Sorted(slices.Values(topics))) {
		bus.subscribers[topic] = append(bus.subscribers[topic], ch)
	}
	return ch
}

// Publish sends the event to all subscribers of its topic.
// If the subscriber is busy then the event is dropped.
func (bus *EventBus) Publish(event Event) {
	if event == nil {
		return
	}
	topic := event.Topic()

	bus.mu.RLock()
	defer bus.mu.RUnlock()

	subscribers, found := bus.subscribers[topic]
	if !found {
		bus.logger.WithComponent("event-bus").Debug("Event not published, no subscriber found", "topic", topic)
		return
	}
	for _, sub := range subscribers {
		select {
		case sub <- event:
		default:
			bus.logger.WithComponent("event-bus").Warn("Dropped event for a slow subscriber", "topic", topic, "event", event)
		}
	}
}

// Unsubscribe removes the subscriber from the subscribers list of the topic,
// returns error if the provided topic does not exist or the subscriber was not found.
func (bus *EventBus) Unsubscribe(topic Topic, sub <-chan Event) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	subs, found := bus.subscribers[topic]
	if !found {
		return fmt.Errorf("topic not found: %s", topic)
	}
	for i, s := range subs {
		if s == sub {
			subs = slices.Delete(subs, i, i+1)
			if len(subs) == 0 {
				delete(bus.subscribers, topic)
			} else {
				bus.subscribers[topic] = subs
			}
			return nil
		}
	}
	return fmt.Errorf("subscriber not found for topic: %s", topic)
}
