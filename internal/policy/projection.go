package policy

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/example/workflow-platform/internal/bus"
	"github.com/example/workflow-platform/internal/domain/aggregate"
	"github.com/example/workflow-platform/internal/domain/collection"
	"github.com/example/workflow-platform/internal/domain/user"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// UserCollectionPolicy files user ids into per-domain collections. It adds the
// id to the default domain's collection on creation and removes it from the
// collection recorded in the discard event. Removal from a missing collection
// is a no-op so the projection stays idempotent under replay.
type UserCollectionPolicy struct {
	collections *aggregate.Repository[*collection.Collection]
	b           *bus.Bus
	subs        []*bus.Subscription
}

// NewUserCollectionPolicy subscribes the policy for user lifecycle events
func NewUserCollectionPolicy(b *bus.Bus, collections *aggregate.Repository[*collection.Collection]) *UserCollectionPolicy {
	p := &UserCollectionPolicy{collections: collections, b: b}
	p.subs = []*bus.Subscription{
		b.Subscribe(matchUserEvent(user.EventUserCreated), p.addUserToCollection),
		b.Subscribe(matchUserEvent(user.EventUserDiscarded), p.removeUserFromCollection),
	}
	return p
}

func matchUserEvent(eventType string) bus.Predicate {
	return func(e store.Event) bool {
		return e.AggregateType == user.AggregateType && e.EventType == eventType
	}
}

func (p *UserCollectionPolicy) addUserToCollection(ctx context.Context, event store.Event) error {
	var e user.UserCreated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	col, err := p.collections.Get(ctx, collection.IDForDomain(e.DefaultDomain))
	if errors.Is(err, aggregate.ErrNotFound) {
		col, err = collection.Create(e.DefaultDomain)
	}
	if err != nil {
		return err
	}

	if err := col.AddItem(e.UserID); err != nil {
		return err
	}
	return p.collections.Save(ctx, col)
}

func (p *UserCollectionPolicy) removeUserFromCollection(ctx context.Context, event store.Event) error {
	var e user.UserDiscarded
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	col, err := p.collections.Get(ctx, collection.IDForDomain(e.DomainNamespace))
	if errors.Is(err, aggregate.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := col.RemoveItem(e.UserID); err != nil {
		return err
	}
	return p.collections.Save(ctx, col)
}

// Close unsubscribes the policy; safe to call more than once
func (p *UserCollectionPolicy) Close() {
	for _, sub := range p.subs {
		p.b.Unsubscribe(sub)
	}
	p.subs = nil
}
