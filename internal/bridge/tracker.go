package bridge

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/jitsi/jicofo-go/internal/events"
	"github.com/jitsi/jicofo-go/internal/logger"
)

// Tracker is a thread safe view of the bridges that are currently available,
// built from the bridge events received on the event bus.
type Tracker struct {
	logger *logger.Logger

	mu        sync.RWMutex
	available map[string]struct{}
}

func NewTracker(log *logger.Logger) *Tracker {
	return &Tracker{
		logger:    log,
		available: make(map[string]struct{}),
	}
}

// Run subscribes to the bridge topics and applies the received events until
// the context is done.
func (t *Tracker) Run(ctx context.Context, bus *events.EventBus) {
	ch := bus.Subscribe(events.TopicBridgeUp, events.TopicBridgeDown)
	defer func() {
		for _, topic := range []events.Topic{events.TopicBridgeUp, events.TopicBridgeDown} {
			if err := bus.Unsubscribe(topic, ch); err != nil {
				t.logger.WithComponent("bridge-tracker").Warn("Failed to unsubscribe", "topic", topic, "error", err.Error())
			}
		}
	}()

	t.Consume(ctx, ch)
}

// Consume applies events from ch until the context is done or ch is closed.
func (t *Tracker) Consume(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			t.Handle(e)
		}
	}
}

// Handle applies a single event. Events that are not bridge events or
// do not carry a bridge JID are ignored.
func (t *Tracker) Handle(e events.Event) {
	log := t.logger.WithComponent("bridge-tracker")

	be, ok := events.AsBridgeEvent(e)
	if !ok {
		if e != nil {
			log.Debug("Ignoring non bridge event", "topic", e.Topic())
		}
		return
	}
	jid, ok := be.BridgeJID()
	if !ok {
		log.Warn("Ignoring bridge event without bridge JID", "topic", be.Topic())
		return
	}

	t.mu.Lock()
	switch be.Kind() {
	case events.BridgeUp:
		t.available[jid] = struct{}{}
	case events.BridgeDown:
		delete(t.available, jid)
	}
	t.mu.Unlock()

	t.logger.WithBridge(jid).Debug("Applied bridge event", "component", "bridge-tracker", "state", be.Kind().String())
}

// Available returns the JIDs of the available bridges in sorted order.
func (t *Tracker) Available() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.available))
}

func (t *Tracker) IsAvailable(bridgeJID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, found := t.available[bridgeJID]
	return found
}
