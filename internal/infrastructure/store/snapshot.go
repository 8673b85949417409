package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Snapshot represents a point-in-time state of an aggregate
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"` // Event version at snapshot time
	State         json.RawMessage `json:"state"`   // Serialized aggregate state
	CreatedAt     time.Time       `json:"created_at"`
}

// MemorySnapshotStore keeps the latest snapshot per aggregate in memory
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot // aggregateID -> latest snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string]*Snapshot)}
}

// Save stores a snapshot, replacing any prior snapshot for the aggregate
func (s *MemorySnapshotStore) Save(_ context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snapshot
	s.snapshots[snapshot.AggregateID] = &cp
	return nil
}

// Latest returns the most recent snapshot for an aggregate, or nil if none exists
func (s *MemorySnapshotStore) Latest(_ context.Context, aggregateID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[aggregateID]
	if !ok {
		return nil, nil
	}
	cp := *snapshot
	return &cp, nil
}
