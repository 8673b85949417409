package policy

import (
	"context"

	"github.com/example/workflow-platform/internal/bus"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// Publisher forwards a committed event to an external feed, keyed by
// aggregate id so per-aggregate ordering survives partitioning.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// RelayPolicy mirrors every committed event onto an external feed (Kafka in
// production) so out-of-process consumers can follow the log without polling
// the store.
type RelayPolicy struct {
	publisher Publisher
	b         *bus.Bus
	sub       *bus.Subscription
}

// NewRelayPolicy subscribes the relay for all committed events
func NewRelayPolicy(b *bus.Bus, publisher Publisher) *RelayPolicy {
	p := &RelayPolicy{publisher: publisher, b: b}
	p.sub = b.Subscribe(
		func(store.Event) bool { return true },
		func(ctx context.Context, e store.Event) error {
			return p.publisher.Publish(ctx, e.AggregateID, e)
		},
	)
	return p
}

// Close unsubscribes the relay; safe to call more than once
func (p *RelayPolicy) Close() {
	p.b.Unsubscribe(p.sub)
	p.sub = nil
}
