// Package projection maintains the out-of-process read model: a queryable
// listing of user ids per domain namespace, fed by the committed-event feed.
package projection

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/example/workflow-platform/internal/domain/user"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// Projector folds user lifecycle events into the read store. Handling is
// idempotent, so replaying the whole log over an existing read model is safe.
type Projector struct {
	readStore store.DomainUsersReadStore
	logger    *logrus.Logger
}

func NewProjector(readStore store.DomainUsersReadStore, logger *logrus.Logger) *Projector {
	return &Projector{readStore: readStore, logger: logger}
}

// HandleEvent decodes one feed message and applies it to the read model
func (p *Projector) HandleEvent(ctx context.Context, _, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	if event.AggregateType != user.AggregateType {
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
		"version":      event.Version,
	}).Debug("projecting event")

	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.AddUser(ctx, e.DefaultDomain, e.UserID)

	case user.EventUserDiscarded:
		var e user.UserDiscarded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.RemoveUser(ctx, e.DomainNamespace, e.UserID)
	}

	return nil
}

// Replay rebuilds the read model from the full event log
func (p *Projector) Replay(ctx context.Context, log store.EventLog) error {
	events, err := log.ReadAll(ctx)
	if err != nil {
		return err
	}

	p.logger.WithField("events", len(events)).Info("replaying event log")
	for _, event := range events {
		data, err := event.MarshalJSON()
		if err != nil {
			return err
		}
		if err := p.HandleEvent(ctx, []byte(event.AggregateID), data); err != nil {
			return err
		}
	}
	return nil
}
