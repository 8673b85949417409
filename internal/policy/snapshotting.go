// Package policy holds the bus subscribers that keep derived state in step
// with the event log: snapshotting, the collection projection, the Kafka
// relay, and audit logging. Each policy owns its subscriptions and tears them
// down in Close.
package policy

import (
	"context"

	"github.com/example/workflow-platform/internal/bus"
	"github.com/example/workflow-platform/internal/domain/aggregate"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// DefaultSnapshotPeriod is the number of versions between snapshots
const DefaultSnapshotPeriod = 2

// SnapshottingPolicy snapshots an aggregate every period versions. It triggers
// when (version+1) is divisible by the period, so with period 2 snapshots land
// on versions 1, 3, 5, ... and replay cost stays bounded by the period.
type SnapshottingPolicy[T aggregate.Aggregate] struct {
	repo *aggregate.Repository[T]
	sub  *bus.Subscription
	b    *bus.Bus
}

// NewSnapshottingPolicy subscribes the policy for one aggregate type
func NewSnapshottingPolicy[T aggregate.Aggregate](
	b *bus.Bus,
	repo *aggregate.Repository[T],
	aggregateType string,
	period int,
) *SnapshottingPolicy[T] {
	if period <= 0 {
		period = DefaultSnapshotPeriod
	}

	p := &SnapshottingPolicy[T]{repo: repo, b: b}
	p.sub = b.Subscribe(
		func(e store.Event) bool {
			return e.AggregateType == aggregateType && (e.Version+1)%period == 0
		},
		p.takeSnapshot,
	)
	return p
}

func (p *SnapshottingPolicy[T]) takeSnapshot(ctx context.Context, e store.Event) error {
	return p.repo.TakeSnapshot(ctx, e.AggregateID, e.Version)
}

// Close unsubscribes the policy; safe to call more than once
func (p *SnapshottingPolicy[T]) Close() {
	p.b.Unsubscribe(p.sub)
	p.sub = nil
}
