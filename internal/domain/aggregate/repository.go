package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/workflow-platform/internal/bus"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// Repository loads aggregates by snapshot fast-forward plus tail replay and
// persists staged events with optimistic concurrency. On a successful save the
// committed events are published on the bus so subscribed policies react
// before Save returns.
type Repository[T Aggregate] struct {
	log           store.EventLog
	snapshots     store.SnapshotStore
	eventBus      *bus.Bus
	aggregateType string
	newAggregate  func() T
}

// NewRepository creates a repository for one aggregate type. The snapshot
// store may be nil for aggregates that are never snapshotted.
func NewRepository[T Aggregate](
	log store.EventLog,
	snapshots store.SnapshotStore,
	eventBus *bus.Bus,
	aggregateType string,
	newAggregate func() T,
) *Repository[T] {
	return &Repository[T]{
		log:           log,
		snapshots:     snapshots,
		eventBus:      eventBus,
		aggregateType: aggregateType,
		newAggregate:  newAggregate,
	}
}

// Get rehydrates an aggregate: latest snapshot (if any), then events after the
// snapshot's version, folded in ascending order. Returns ErrNotFound when the
// id has neither events nor a snapshot.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	agg := r.newAggregate()

	fromVersion := 0
	hasSnapshot := false
	if r.snapshots != nil {
		snapshot, err := r.snapshots.Latest(ctx, id)
		if err != nil {
			return zero, fmt.Errorf("failed to get snapshot: %w", err)
		}
		if snapshot != nil {
			if err := json.Unmarshal(snapshot.State, agg); err != nil {
				return zero, fmt.Errorf("failed to unmarshal snapshot: %w", err)
			}
			fromVersion = snapshot.Version + 1
			hasSnapshot = true
		}
	}

	events, err := r.log.Read(ctx, id, fromVersion)
	if err != nil {
		return zero, fmt.Errorf("failed to read events: %w", err)
	}
	if !hasSnapshot && len(events) == 0 {
		return zero, ErrNotFound
	}

	for _, event := range events {
		if err := agg.Apply(event); err != nil {
			return zero, fmt.Errorf("failed to apply event: %w", err)
		}
	}
	return agg, nil
}

// Save appends the aggregate's staged events to the log and publishes them.
// On store.ErrVersionConflict nothing was written and nothing is published;
// the caller must reload and retry. Retrying is never done here. An error from
// a subscriber comes back as a PublishError: at that point the aggregate's
// events are already committed, so retrying the whole operation would
// duplicate them.
func (r *Repository[T]) Save(ctx context.Context, agg T) error {
	pending := agg.Uncommitted()
	if len(pending) == 0 {
		return nil
	}

	if err := r.log.Append(ctx, pending); err != nil {
		return err
	}
	agg.ClearUncommitted()

	if r.eventBus != nil {
		if err := r.eventBus.Publish(ctx, pending); err != nil {
			return &PublishError{Err: err}
		}
	}
	return nil
}

// TakeSnapshot folds the aggregate's events up to and including upToVersion
// from an empty shell and stores the result, replacing any prior snapshot.
// Folding from version 0 keeps the invariant that a snapshot at V equals the
// direct replay of events [0..V].
func (r *Repository[T]) TakeSnapshot(ctx context.Context, id string, upToVersion int) error {
	if r.snapshots == nil {
		return fmt.Errorf("no snapshot store configured for %s", r.aggregateType)
	}

	events, err := r.log.Read(ctx, id, 0)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	if len(events) == 0 {
		return ErrNotFound
	}

	agg := r.newAggregate()
	for _, event := range events {
		if event.Version > upToVersion {
			break
		}
		if err := agg.Apply(event); err != nil {
			return fmt.Errorf("failed to apply event: %w", err)
		}
	}

	state, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}

	return r.snapshots.Save(ctx, &store.Snapshot{
		AggregateID:   id,
		AggregateType: r.aggregateType,
		Version:       agg.GetVersion(),
		State:         state,
		CreatedAt:     time.Now(),
	})
}
