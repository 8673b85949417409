package store

import "context"

// EventLog is the append-only source of truth. Append is all-or-nothing: if any
// (aggregate_id, version) pair in the batch already exists, nothing is written
// and ErrVersionConflict is returned.
type EventLog interface {
	Append(ctx context.Context, events []Event) error
	Read(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	ReadAll(ctx context.Context) ([]Event, error)
}

// SnapshotStore persists point-in-time aggregate state. Snapshots are a cache:
// always reproducible by replaying the log from version 0.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Latest(ctx context.Context, aggregateID string) (*Snapshot, error)
}
