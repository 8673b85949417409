package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(aggregateID string, version int) Event {
	return Event{
		ID:            aggregateID + "-evt",
		AggregateID:   aggregateID,
		AggregateType: "Test",
		EventType:     "SomethingHappened",
		Data:          json.RawMessage(`{}`),
		Timestamp:     time.Now(),
		Version:       version,
	}
}

func TestMemoryEventLog_AppendAndRead(t *testing.T) {
	log := NewMemoryEventLog()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, []Event{testEvent("a", 0), testEvent("a", 1)}))
	require.NoError(t, log.Append(ctx, []Event{testEvent("b", 0)}))

	events, err := log.Read(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Version)
	assert.Equal(t, 1, events[1].Version)
}

func TestMemoryEventLog_ReadFromVersion(t *testing.T) {
	log := NewMemoryEventLog()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, []Event{
		testEvent("a", 0), testEvent("a", 1), testEvent("a", 2),
	}))

	events, err := log.Read(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Version)
}

func TestMemoryEventLog_TakenVersionSlotIsRejected(t *testing.T) {
	log := NewMemoryEventLog()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, []Event{testEvent("a", 0)}))

	err := log.Append(ctx, []Event{testEvent("a", 0)})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMemoryEventLog_ConflictingBatchWritesNothing(t *testing.T) {
	log := NewMemoryEventLog()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, []Event{testEvent("a", 0)}))

	// Version 1 is free, version 0 is taken; neither may land.
	err := log.Append(ctx, []Event{testEvent("a", 1), testEvent("a", 0)})
	require.ErrorIs(t, err, ErrVersionConflict)

	events, err := log.Read(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryEventLog_ReadAllPreservesCommitOrder(t *testing.T) {
	log := NewMemoryEventLog()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, []Event{testEvent("a", 0)}))
	require.NoError(t, log.Append(ctx, []Event{testEvent("b", 0)}))
	require.NoError(t, log.Append(ctx, []Event{testEvent("a", 1)}))

	all, err := log.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].AggregateID)
	assert.Equal(t, "b", all[1].AggregateID)
	assert.Equal(t, "a", all[2].AggregateID)
}

func TestMemoryEventLog_EmptyAppendIsNoOp(t *testing.T) {
	log := NewMemoryEventLog()
	require.NoError(t, log.Append(context.Background(), nil))
}

func TestMemorySnapshotStore_SaveReplacesAndLatestCopies(t *testing.T) {
	s := NewMemorySnapshotStore()
	ctx := context.Background()

	missing, err := s.Latest(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.Save(ctx, &Snapshot{
		AggregateID: "a", AggregateType: "Test", Version: 1, State: json.RawMessage(`{"v":1}`),
	}))
	require.NoError(t, s.Save(ctx, &Snapshot{
		AggregateID: "a", AggregateType: "Test", Version: 3, State: json.RawMessage(`{"v":3}`),
	}))

	latest, err := s.Latest(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.Version)

	latest.Version = 99
	again, err := s.Latest(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Version)
}
