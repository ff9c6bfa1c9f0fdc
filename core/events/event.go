package events

import "github.com/StorkBison/escrow-sell-SC/core/types"

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Multi fans every event out to each emitter in order.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(evt)
		}
	}
}

// Committed wraps a program event with the transaction that produced it.
type Committed struct {
	TxID  string      `json:"txId"`
	Slot  uint64      `json:"slot"`
	Event types.Event `json:"event"`
}

// EventType implements Event.
func (c Committed) EventType() string { return c.Event.Type }

// Attr returns an attribute of the wrapped event.
func (c Committed) Attr(key string) string {
	if c.Event.Attributes == nil {
		return ""
	}
	return c.Event.Attributes[key]
}
