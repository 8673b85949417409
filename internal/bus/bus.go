package bus

import (
	"context"
	"sync"

	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// Predicate decides whether a subscriber wants an event. Predicates must be
// pure functions of the event.
type Predicate func(store.Event) bool

// Handler processes one matching event. Handlers run synchronously inside
// Publish and must complete before the next event is delivered.
type Handler func(ctx context.Context, event store.Event) error

// Subscription identifies a registered listener so it can be removed again
type Subscription struct {
	id        uint64
	predicate Predicate
	handler   Handler
}

// Bus is a single-process, synchronous publish/subscribe fan-out. Delivery is
// in subscription order, one event at a time, with no queuing or cross-thread
// handoff. Snapshotting and projection policies stay consistent with the log
// by subscribing here.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []*Subscription
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns its subscription handle
func (b *Bus) Subscribe(predicate Predicate, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, predicate: predicate, handler: handler}
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes a listener. Removing a nil or already-removed
// subscription is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers each event to every matching subscriber in subscription
// order. Handlers run to completion before Publish returns; the first handler
// error aborts delivery and is returned to the caller.
func (b *Bus) Publish(ctx context.Context, events []store.Event) error {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, event := range events {
		for _, sub := range subs {
			if !sub.predicate(event) {
				continue
			}
			if err := sub.handler(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}
