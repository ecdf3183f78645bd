package events

import "fmt"

const (
	// TopicBridgeUp is published whenever a new functional bridge has been discovered.
	TopicBridgeUp Topic = "org/jitsi/jicofo/JVB/UP"
	// TopicBridgeDown is published whenever a bridge stops working or disconnects.
	TopicBridgeDown Topic = "org/jitsi/jicofo/JVB/DOWN"

	// BridgeJIDKey is the property under which the bridge JID travels on the bus.
	BridgeJIDKey = "bridge.jid"
)

// BridgeEventKind tells whether a bridge became reachable or unreachable.
type BridgeEventKind uint8

const (
	BridgeUp BridgeEventKind = iota + 1
	BridgeDown
)

func (k BridgeEventKind) String() string {
	switch k {
	case BridgeUp:
		return "up"
	case BridgeDown:
		return "down"
	default:
		return fmt.Sprintf("BridgeEventKind(%d)", uint8(k))
	}
}

func (k BridgeEventKind) topic() Topic {
	switch k {
	case BridgeUp:
		return TopicBridgeUp
	case BridgeDown:
		return TopicBridgeDown
	default:
		return ""
	}
}

// BridgeEvent reports an availability change of a single JVB.
// Values are immutable and only produced by CreateBridgeUp, CreateBridgeDown
// and AsBridgeEvent, so they can be shared between goroutines freely.
type BridgeEvent struct {
	kind      BridgeEventKind
	bridgeJID string
	hasJID    bool
}

var _ Event = BridgeEvent{}

// CreateBridgeUp creates a TopicBridgeUp event for the given bridge JID.
// The JID is not validated.
func CreateBridgeUp(bridgeJID string) BridgeEvent {
	return BridgeEvent{kind: BridgeUp, bridgeJID: bridgeJID, hasJID: true}
}

// CreateBridgeDown creates a TopicBridgeDown event for the given bridge JID.
// The JID is not validated.
func CreateBridgeDown(bridgeJID string) BridgeEvent {
	return BridgeEvent{kind: BridgeDown, bridgeJID: bridgeJID, hasJID: true}
}

// IsBridgeEvent reports whether the event topic is one of the bridge topics.
func IsBridgeEvent(e Event) bool {
	if e == nil {
		return false
	}
	_, ok := kindOf(e.Topic())
	return ok
}

// AsBridgeEvent decodes a bus event into a BridgeEvent. It returns false if
// the event is not a bridge event. An event published without a string
// BridgeJIDKey property decodes with an absent JID, see BridgeJID.
func AsBridgeEvent(e Event) (BridgeEvent, bool) {
	if e == nil {
		return BridgeEvent{}, false
	}
	switch be := e.(type) {
	case BridgeEvent:
		return be, IsBridgeEvent(be)
	case *BridgeEvent:
		if be == nil {
			return BridgeEvent{}, false
		}
		return *be, IsBridgeEvent(*be)
	}

	kind, ok := kindOf(e.Topic())
	if !ok {
		return BridgeEvent{}, false
	}
	out := BridgeEvent{kind: kind}
	if v, found := e.Property(BridgeJIDKey); found {
		out.bridgeJID, out.hasJID = v.(string)
	}
	return out, true
}

func kindOf(topic Topic) (BridgeEventKind, bool) {
	switch topic {
	case TopicBridgeUp:
		return BridgeUp, true
	case TopicBridgeDown:
		return BridgeDown, true
	default:
		return 0, false
	}
}

func (e BridgeEvent) Kind() BridgeEventKind {
	return e.kind
}

func (e BridgeEvent) Topic() Topic {
	return e.kind.topic()
}

// BridgeJID returns the JID of the bridge this event was created for.
// The second result is false when the event was decoded from a bus event
// that did not carry the JID.
func (e BridgeEvent) BridgeJID() (string, bool) {
	return e.bridgeJID, e.hasJID
}

func (e BridgeEvent) Property(key string) (any, bool) {
	if key != BridgeJIDKey || !e.hasJID {
		return nil, false
	}
	return e.bridgeJID, true
}

// Properties returns the property bag representation of the event.
func (e BridgeEvent) Properties() map[string]any {
	props := make(map[string]any, 1)
	if e.hasJID {
		props[BridgeJIDKey] = e.bridgeJID
	}
	return props
}

// Equal reports whether other is a BridgeEvent with the same topic and JID.
// Absent JIDs are equal to each other and differ from every present JID.
func (e BridgeEvent) Equal(other any) bool {
	var o BridgeEvent
	switch v := other.(type) {
	case BridgeEvent:
		o = v
	case *BridgeEvent:
		if v == nil {
			return false
		}
		o = *v
	default:
		return false
	}
	return e.Topic() == o.Topic() && e.hasJID == o.hasJID && e.bridgeJID == o.bridgeJID
}

func (e BridgeEvent) String() string {
	jid := "<absent>"
	if e.hasJID {
		jid = e.bridgeJID
	}
	return fmt.Sprintf("BridgeEvent{topic=%s, jid=%s}", e.Topic(), jid)
}
