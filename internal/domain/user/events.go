package user

import "time"

const (
	EventUserCreated          = "UserCreated"
	EventUserAttributeChanged = "UserAttributeChanged"
	EventUserDomainAdded      = "UserDomainAdded"
	EventUserDomainDiscarded  = "UserDomainDiscarded"
	EventUserDiscarded        = "UserDiscarded"
)

// UserCreated is emitted when a new user is created. It seeds the domain set
// with the default domain.
type UserCreated struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"password_hash"`
	Email         string    `json:"email"`
	DefaultDomain string    `json:"default_domain"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserAttributeChanged is emitted when a mutable scalar field changes
type UserAttributeChanged struct {
	UserID    string    `json:"user_id"`
	Attribute string    `json:"attribute"`
	Value     string    `json:"value"`
	ChangedAt time.Time `json:"changed_at"`
}

// UserDomainAdded is emitted when a domain joins the user's domain set
type UserDomainAdded struct {
	UserID  string    `json:"user_id"`
	Domain  string    `json:"domain"`
	AddedAt time.Time `json:"added_at"`
}

// UserDomainDiscarded is emitted when a domain leaves the user's domain set
type UserDomainDiscarded struct {
	UserID      string    `json:"user_id"`
	Domain      string    `json:"domain"`
	DiscardedAt time.Time `json:"discarded_at"`
}

// UserDiscarded is emitted when a user is terminally discarded. It records the
// default domain at discard time so the collection projection knows which
// listing to remove the id from.
type UserDiscarded struct {
	UserID          string    `json:"user_id"`
	DomainNamespace string    `json:"domain_namespace"`
	DiscardedAt     time.Time `json:"discarded_at"`
}
