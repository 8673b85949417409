package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/workflow-platform/internal/infrastructure/store"
)

func eventOfType(eventType string) store.Event {
	return store.Event{ID: eventType + "-id", EventType: eventType}
}

func matchType(eventType string) Predicate {
	return func(e store.Event) bool { return e.EventType == eventType }
}

func TestBus_PublishDeliversMatchingEvents(t *testing.T) {
	b := New()
	ctx := context.Background()

	var seen []string
	b.Subscribe(matchType("Created"), func(_ context.Context, e store.Event) error {
		seen = append(seen, e.EventType)
		return nil
	})

	err := b.Publish(ctx, []store.Event{eventOfType("Created"), eventOfType("Updated")})

	require.NoError(t, err)
	assert.Equal(t, []string{"Created"}, seen)
}

func TestBus_DeliveryInSubscriptionOrder(t *testing.T) {
	b := New()
	ctx := context.Background()

	var order []string
	all := func(store.Event) bool { return true }
	b.Subscribe(all, func(context.Context, store.Event) error {
		order = append(order, "first")
		return nil
	})
	b.Subscribe(all, func(context.Context, store.Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, b.Publish(ctx, []store.Event{eventOfType("Created")}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBus_EventsDeliveredInPublishedOrder(t *testing.T) {
	b := New()
	ctx := context.Background()

	var seen []string
	b.Subscribe(func(store.Event) bool { return true }, func(_ context.Context, e store.Event) error {
		seen = append(seen, e.EventType)
		return nil
	})

	events := []store.Event{eventOfType("A"), eventOfType("B"), eventOfType("C")}
	require.NoError(t, b.Publish(ctx, events))
	assert.Equal(t, []string{"A", "B", "C"}, seen)
}

func TestBus_HandlerErrorAbortsDelivery(t *testing.T) {
	b := New()
	ctx := context.Background()
	boom := errors.New("boom")

	var delivered int
	b.Subscribe(func(store.Event) bool { return true }, func(context.Context, store.Event) error {
		return boom
	})
	b.Subscribe(func(store.Event) bool { return true }, func(context.Context, store.Event) error {
		delivered++
		return nil
	})

	err := b.Publish(ctx, []store.Event{eventOfType("Created"), eventOfType("Updated")})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, delivered)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ctx := context.Background()

	var delivered int
	sub := b.Subscribe(func(store.Event) bool { return true }, func(context.Context, store.Event) error {
		delivered++
		return nil
	})

	require.NoError(t, b.Publish(ctx, []store.Event{eventOfType("Created")}))
	b.Unsubscribe(sub)
	require.NoError(t, b.Publish(ctx, []store.Event{eventOfType("Created")}))

	assert.Equal(t, 1, delivered)
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	b := New()

	sub := b.Subscribe(func(store.Event) bool { return true }, func(context.Context, store.Event) error { return nil })
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
}
