// Package collection implements the derived index of user ids per domain
// namespace. Collections are themselves event-sourced aggregates persisted in
// the same log, so the index is durable yet always rebuildable from the
// user stream.
package collection

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/workflow-platform/internal/domain/aggregate"
	"github.com/example/workflow-platform/internal/infrastructure/store"
)

const AggregateType = "Collection"

// userNamespace is the fixed UUID namespace for deriving collection ids from
// domain names. Namespacing keeps them from colliding with unrelated
// collections sharing the log.
var userNamespace = uuid.MustParse("8800a281-84d4-4c62-8a21-731548b57a70")

// IDForDomain derives the deterministic collection id for a domain namespace
// (a version-5 UUID of the domain string under the user namespace).
func IDForDomain(domainNamespace string) string {
	return uuid.NewSHA1(userNamespace, []byte(domainNamespace)).String()
}

// Collection is the set of item ids filed under one domain namespace
type Collection struct {
	aggregate.Root

	ID              string          `json:"id"`
	Version         int             `json:"version"`
	DomainNamespace string          `json:"domain_namespace"`
	Items           map[string]bool `json:"items"`
	CreatedOn       time.Time       `json:"created_on"`
	LastModifiedOn  time.Time       `json:"last_modified_on"`
}

// New returns an empty shell ready for replay
func New() *Collection {
	return &Collection{Items: make(map[string]bool)}
}

func (c *Collection) GetID() string   { return c.ID }
func (c *Collection) GetType() string { return AggregateType }
func (c *Collection) GetVersion() int { return c.Version }

// Create registers a new collection for a domain namespace. The id is derived
// from the namespace, never random, so every writer lands on the same stream.
func Create(domainNamespace string) (*Collection, error) {
	c := New()
	now := time.Now()
	err := c.stage(IDForDomain(domainNamespace), 0, EventCollectionCreated, now, CollectionCreated{
		CollectionID:    IDForDomain(domainNamespace),
		DomainNamespace: domainNamespace,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds an id to the collection. Adding an id that is already present
// stages nothing, keeping the projection idempotent under redelivery.
func (c *Collection) AddItem(itemID string) error {
	if c.Items[itemID] {
		return nil
	}
	now := time.Now()
	return c.stage(c.ID, c.Version+1, EventCollectionItemAdded, now,
		CollectionItemAdded{CollectionID: c.ID, ItemID: itemID, AddedAt: now})
}

// RemoveItem removes an id from the collection. Removing an absent id is a
// no-op, not an error.
func (c *Collection) RemoveItem(itemID string) error {
	if !c.Items[itemID] {
		return nil
	}
	now := time.Now()
	return c.stage(c.ID, c.Version+1, EventCollectionItemRemoved, now,
		CollectionItemRemoved{CollectionID: c.ID, ItemID: itemID, RemovedAt: now})
}

// ItemIDs returns the collection members in sorted order
func (c *Collection) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Collection) stage(aggregateID string, version int, eventType string, now time.Time, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: AggregateType,
		EventType:     eventType,
		Data:          data,
		Timestamp:     now,
		Version:       version,
	}
	if err := c.Apply(event); err != nil {
		return err
	}
	c.Stage(event)
	return nil
}

// Apply is the exhaustive fold over collection event kinds
func (c *Collection) Apply(event store.Event) error {
	switch event.EventType {
	case EventCollectionCreated:
		var e CollectionCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		c.ID = e.CollectionID
		c.DomainNamespace = e.DomainNamespace
		c.Items = make(map[string]bool)
		c.CreatedOn = e.CreatedAt

	case EventCollectionItemAdded:
		var e CollectionItemAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		c.Items[e.ItemID] = true

	case EventCollectionItemRemoved:
		var e CollectionItemRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		delete(c.Items, e.ItemID)

	default:
		return fmt.Errorf("unknown event type %q for %s aggregate", event.EventType, AggregateType)
	}

	c.Version = event.Version
	c.LastModifiedOn = event.Timestamp
	return nil
}
