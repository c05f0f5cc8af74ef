// Package journal provides the append-only transaction journal backing
// the chain sandbox. Every committed call appends one receipt event
// plus one event per emitted log to the stream named by the contract's
// address. Stores come in two flavors, in-memory and SQLite, behind the
// same optimistic-concurrency interface.
package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a single journal entry.
type Event struct {
	// ID is a unique event identifier.
	ID string `json:"id"`

	// StreamID names the stream the event belongs to. The chain uses
	// the hex form of the contract address.
	StreamID string `json:"stream_id"`

	// Version is the event's position in its stream, starting at 0.
	// Assigned by the store on append.
	Version int `json:"version"`

	// Type classifies the event, e.g. "receipt.mint" or "log.Transfer".
	Type string `json:"type"`

	// Data is the JSON-encoded payload.
	Data json.RawMessage `json:"data,omitempty"`

	// Timestamp records when the event was created.
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event for a stream, JSON-encoding data. A nil
// data leaves the payload empty.
func NewEvent(streamID, eventType string, data any) (*Event, error) {
	ev := &Event{
		ID:        uuid.NewString(),
		StreamID:  streamID,
		Type:      eventType,
		Version:   -1,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("journal: encode %s event: %w", eventType, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("journal: event %s has no payload", e.ID)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("journal: decode %s event: %w", e.Type, err)
	}
	return nil
}

// EventFilter selects events for ReadAll. Zero fields match everything.
type EventFilter struct {
	// StreamID restricts results to a single stream.
	StreamID string

	// Types restricts results to the given event types.
	Types []string
}

func (f EventFilter) matches(e *Event) bool {
	if f.StreamID != "" && e.StreamID != f.StreamID {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if e.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
