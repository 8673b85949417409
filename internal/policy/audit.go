package policy

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/example/workflow-platform/internal/bus"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

// AuditPolicy logs every committed event. Payloads are not logged: the user
// stream carries password hashes.
type AuditPolicy struct {
	logger *logrus.Logger
	b      *bus.Bus
	sub    *bus.Subscription
}

// NewAuditPolicy subscribes the audit log for all committed events
func NewAuditPolicy(b *bus.Bus, logger *logrus.Logger) *AuditPolicy {
	p := &AuditPolicy{logger: logger, b: b}
	p.sub = b.Subscribe(
		func(store.Event) bool { return true },
		func(_ context.Context, e store.Event) error {
			p.logger.WithFields(logrus.Fields{
				"aggregate_type": e.AggregateType,
				"aggregate_id":   e.AggregateID,
				"event_type":     e.EventType,
				"version":        e.Version,
			}).Info("event committed")
			return nil
		},
	)
	return p
}

// Close unsubscribes the audit log; safe to call more than once
func (p *AuditPolicy) Close() {
	p.b.Unsubscribe(p.sub)
	p.sub = nil
}
