package events

import "maps"

type (
	// Topic routes events to subscribers of the EventBus.
	Topic string

	// Event is the untyped shape every bus event carries: a topic and a
	// string-keyed property bag.
	Event interface {
		Topic() Topic
		Property(key string) (any, bool)
	}

	// GenericEvent is the plain Event implementation used by producers that
	// have no typed event of their own.
	GenericEvent struct {
		topic      Topic
		properties map[string]any
	}
)

// NewEvent creates an event for the given topic. The properties map is copied.
func NewEvent(topic Topic, properties map[string]any) *GenericEvent {
	return &GenericEvent{
		topic:      topic,
		properties: maps.Clone(properties),
	}
}

func (e *GenericEvent) Topic() Topic {
	return e.topic
}

func (e *GenericEvent) Property(key string) (any, bool) {
	v, ok := e.properties[key]
	return v, ok
}

// Properties returns a copy of the event properties.
func (e *GenericEvent) Properties() map[string]any {
	if e.properties == nil {
		return map[string]any{}
	}
	return maps.Clone(e.properties)
}
