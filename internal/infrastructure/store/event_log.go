package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryEventLog is an in-memory EventLog for tests and single-process setups.
// It enforces the same (aggregate_id, version) uniqueness as the SQL backends.
type MemoryEventLog struct {
	mu     sync.RWMutex
	events map[string][]Event // aggregateID -> events ordered by version
	order  []Event            // global commit order, for ReadAll
}

func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{events: make(map[string][]Event)}
}

// Append stores a batch of events atomically. The whole batch is rejected with
// ErrVersionConflict if any requested version slot is already taken.
func (l *MemoryEventLog) Append(_ context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate every slot before writing anything
	for _, event := range events {
		for _, existing := range l.events[event.AggregateID] {
			if existing.Version == event.Version {
				return ErrVersionConflict
			}
		}
	}

	for _, event := range events {
		l.events[event.AggregateID] = append(l.events[event.AggregateID], event)
		l.order = append(l.order, event)
	}
	for _, event := range events {
		stream := l.events[event.AggregateID]
		sort.Slice(stream, func(i, j int) bool { return stream[i].Version < stream[j].Version })
	}
	return nil
}

// Read returns events for an aggregate at or after fromVersion, ascending
func (l *MemoryEventLog) Read(_ context.Context, aggregateID string, fromVersion int) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var events []Event
	for _, event := range l.events[aggregateID] {
		if event.Version >= fromVersion {
			events = append(events, event)
		}
	}
	return events, nil
}

// ReadAll returns every event in commit order
func (l *MemoryEventLog) ReadAll(_ context.Context) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := make([]Event, len(l.order))
	copy(all, l.order)
	return all, nil
}
