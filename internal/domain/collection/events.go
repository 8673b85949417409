package collection

import "time"

const (
	EventCollectionCreated     = "CollectionCreated"
	EventCollectionItemAdded   = "CollectionItemAdded"
	EventCollectionItemRemoved = "CollectionItemRemoved"
)

// CollectionCreated is emitted when a collection is first registered for a
// domain namespace
type CollectionCreated struct {
	CollectionID    string    `json:"collection_id"`
	DomainNamespace string    `json:"domain_namespace"`
	CreatedAt       time.Time `json:"created_at"`
}

// CollectionItemAdded is emitted when an id joins the collection
type CollectionItemAdded struct {
	CollectionID string    `json:"collection_id"`
	ItemID       string    `json:"item_id"`
	AddedAt      time.Time `json:"added_at"`
}

// CollectionItemRemoved is emitted when an id leaves the collection
type CollectionItemRemoved struct {
	CollectionID string    `json:"collection_id"`
	ItemID       string    `json:"item_id"`
	RemovedAt    time.Time `json:"removed_at"`
}
