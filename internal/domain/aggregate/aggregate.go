package aggregate

import (
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// Aggregate defines the interface for event-sourced aggregates. State is
// derived solely from the aggregate's own event history: commands stage
// events, Apply folds them, and the repository persists and publishes them.
type Aggregate interface {
	GetID() string
	GetType() string
	GetVersion() int
	Apply(store.Event) error
	Uncommitted() []store.Event
	ClearUncommitted()
}

// Root carries the staged-event bookkeeping shared by all aggregates. The
// pending list is unexported so snapshots never serialize uncommitted events.
type Root struct {
	pending []store.Event
}

// Stage records an already-folded event for later persistence
func (r *Root) Stage(event store.Event) {
	r.pending = append(r.pending, event)
}

// Uncommitted returns the staged events in staging order
func (r *Root) Uncommitted() []store.Event {
	return r.pending
}

// ClearUncommitted drops the staged events after a successful save
func (r *Root) ClearUncommitted() {
	r.pending = nil
}
