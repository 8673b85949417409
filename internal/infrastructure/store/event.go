package store

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrVersionConflict is returned by Append when another writer already
	// committed an event at one of the requested (aggregate_id, version) slots.
	// The whole batch is rejected; callers must reload and retry.
	ErrVersionConflict = errors.New("event version conflict")
)

// Event is the immutable envelope for one committed state transition of one
// aggregate. Versions per aggregate form a contiguous sequence starting at 0.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// MarshalJSON returns the JSON encoding of the event
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	return json.Marshal(&struct{ Alias }{Alias: Alias(e)})
}
