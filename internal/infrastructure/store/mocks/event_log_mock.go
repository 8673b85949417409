package mocks

import (
	"context"
	"sync"

	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// MockEventLog is a mock implementation of store.EventLog for testing
type MockEventLog struct {
	mu     sync.RWMutex
	events map[string][]store.Event
	order  []store.Event

	// For tracking calls in tests
	AppendCalls    [][]store.Event
	AppendErr      error
	AppendCallback func(ctx context.Context, events []store.Event) error
}

// NewMockEventLog creates a new MockEventLog
func NewMockEventLog() *MockEventLog {
	return &MockEventLog{
		events:      make(map[string][]store.Event),
		AppendCalls: make([][]store.Event, 0),
	}
}

// Append records the call and stores the batch, enforcing version uniqueness
func (m *MockEventLog) Append(ctx context.Context, events []store.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, events)

	if m.AppendCallback != nil {
		return m.AppendCallback(ctx, events)
	}
	if m.AppendErr != nil {
		return m.AppendErr
	}

	for _, event := range events {
		for _, existing := range m.events[event.AggregateID] {
			if existing.Version == event.Version {
				return store.ErrVersionConflict
			}
		}
	}
	for _, event := range events {
		m.events[event.AggregateID] = append(m.events[event.AggregateID], event)
		m.order = append(m.order, event)
	}
	return nil
}

// Read returns events for an aggregate at or after fromVersion
func (m *MockEventLog) Read(_ context.Context, aggregateID string, fromVersion int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []store.Event
	for _, event := range m.events[aggregateID] {
		if event.Version >= fromVersion {
			events = append(events, event)
		}
	}
	return events, nil
}

// ReadAll returns every stored event in commit order
func (m *MockEventLog) ReadAll(_ context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]store.Event, len(m.order))
	copy(all, m.order)
	return all, nil
}

// Reset clears all events and recorded calls
func (m *MockEventLog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.order = nil
	m.AppendCalls = make([][]store.Event, 0)
	m.AppendErr = nil
	m.AppendCallback = nil
}

// SetEvents seeds events directly for testing
func (m *MockEventLog) SetEvents(aggregateID string, events []store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[aggregateID] = events
	m.order = append(m.order, events...)
}
