package user

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/workflow-platform/internal/domain/aggregate"
	"github.com/example/workflow-platform/internal/infrastructure/store"
	"github.com/example/workflow-platform/internal/parse"
)

const AggregateType = "User"

// SanitizedPassword replaces the real hash on every aggregate handed out of a
// use-case operation.
const SanitizedPassword = "********"

var (
	// ErrUserDiscarded is returned by every command invoked on a discarded user
	ErrUserDiscarded = fmt.Errorf("%w: user is discarded", aggregate.ErrInvariantViolation)

	// ErrDefaultDomainProtected is returned when discarding the default domain
	ErrDefaultDomainProtected = fmt.Errorf("%w: cannot discard the default domain", aggregate.ErrInvariantViolation)
)

// User is the event-sourced user aggregate. A user is a namespace for the
// platform's resources; its domain set always contains the default domain.
// Each load produces an independent in-memory copy owned by one session.
type User struct {
	aggregate.Root

	ID             string          `json:"id"`
	Version        int             `json:"version"`
	Name           string          `json:"name"`
	PasswordHash   string          `json:"password_hash"`
	Email          string          `json:"email"`
	DefaultDomain  string          `json:"default_domain"`
	Domains        map[string]bool `json:"domains"`
	IsDiscarded    bool            `json:"is_discarded"`
	CreatedOn      time.Time       `json:"created_on"`
	LastModifiedOn time.Time       `json:"last_modified_on"`
}

// New returns an empty shell ready for replay
func New() *User {
	return &User{Domains: make(map[string]bool)}
}

func (u *User) GetID() string   { return u.ID }
func (u *User) GetType() string { return AggregateType }
func (u *User) GetVersion() int { return u.Version }

// Create validates every field and stages the UserCreated event at version 0.
// The password must already be encrypted; plaintext handling belongs to the
// unit of work.
func Create(name, passwordHash, email, defaultDomain string) (*User, error) {
	if name == "" {
		return nil, aggregate.NewValidationError("name", "must be a non-empty string")
	}
	if !parse.ValidEmail(email) {
		return nil, aggregate.NewValidationError("email", "must be a valid address like 'name@domain.com'")
	}
	if !parse.ValidDomain(defaultDomain) {
		return nil, aggregate.NewValidationError("default_domain", "must be a domain like 'domain.com'")
	}
	if !parse.ValidEncryptedPassword(passwordHash) {
		return nil, aggregate.NewValidationError("password", "must be an encrypted password hash")
	}

	u := New()
	userID := uuid.New().String()
	now := time.Now()
	err := u.stage(userID, 0, EventUserCreated, now, UserCreated{
		UserID:        userID,
		Name:          name,
		PasswordHash:  passwordHash,
		Email:         email,
		DefaultDomain: defaultDomain,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ChangeAttribute is the generic setter for mutable scalar fields. Password
// and domain changes carry extra invariants, so they are rejected here and
// routed to their dedicated operations. The default domain is immutable after
// creation: the collection projection keys listings by it.
func (u *User) ChangeAttribute(attribute, value string) error {
	if u.IsDiscarded {
		return ErrUserDiscarded
	}

	switch attribute {
	case "name":
		if value == "" {
			return aggregate.NewValidationError("name", "must be a non-empty string")
		}
	case "email":
		if !parse.ValidEmail(value) {
			return aggregate.NewValidationError("email", "must be a valid address like 'name@domain.com'")
		}
	case "password":
		return fmt.Errorf("%w: use ChangePassword to change a user's password", aggregate.ErrNotSupported)
	case "domains":
		return fmt.Errorf("%w: use AddDomain/DiscardDomain to change a user's domains", aggregate.ErrNotSupported)
	case "default_domain":
		return fmt.Errorf("%w: the default domain is fixed at creation", aggregate.ErrNotSupported)
	default:
		return aggregate.NewValidationError(attribute, "unknown attribute")
	}

	return u.stageChange(attribute, value)
}

// SetPasswordHash stages a password change with an already-encrypted hash.
// This is the dedicated path ChangeAttribute refuses to take.
func (u *User) SetPasswordHash(passwordHash string) error {
	if u.IsDiscarded {
		return ErrUserDiscarded
	}
	if !parse.ValidEncryptedPassword(passwordHash) {
		return aggregate.NewValidationError("password", "must be an encrypted password hash")
	}
	return u.stageChange("password", passwordHash)
}

// AddDomain adds a domain to the user's domain set
func (u *User) AddDomain(domain string) error {
	if u.IsDiscarded {
		return ErrUserDiscarded
	}
	if !parse.ValidDomain(domain) {
		return aggregate.NewValidationError("domain", "must be a domain like 'domain.com'")
	}

	now := time.Now()
	return u.stage(u.ID, u.Version+1, EventUserDomainAdded, now,
		UserDomainAdded{UserID: u.ID, Domain: domain, AddedAt: now})
}

// DiscardDomain removes a domain from the user's domain set. The default
// domain cannot be discarded.
func (u *User) DiscardDomain(domain string) error {
	if u.IsDiscarded {
		return ErrUserDiscarded
	}
	if !parse.ValidDomain(domain) {
		return aggregate.NewValidationError("domain", "must be a domain like 'domain.com'")
	}
	if domain == u.DefaultDomain {
		return ErrDefaultDomainProtected
	}

	now := time.Now()
	return u.stage(u.ID, u.Version+1, EventUserDomainDiscarded, now,
		UserDomainDiscarded{UserID: u.ID, Domain: domain, DiscardedAt: now})
}

// Discard marks the user terminally discarded, recording the default domain
// at discard time for the collection projection.
func (u *User) Discard() error {
	if u.IsDiscarded {
		return ErrUserDiscarded
	}

	now := time.Now()
	return u.stage(u.ID, u.Version+1, EventUserDiscarded, now,
		UserDiscarded{UserID: u.ID, DomainNamespace: u.DefaultDomain, DiscardedAt: now})
}

func (u *User) stageChange(attribute, value string) error {
	now := time.Now()
	return u.stage(u.ID, u.Version+1, EventUserAttributeChanged, now,
		UserAttributeChanged{UserID: u.ID, Attribute: attribute, Value: value, ChangedAt: now})
}

// stage constructs the event at the given version, folds it immediately so
// later commands in the same session see the effect, and records it for the
// repository to persist. A failed fold leaves nothing staged.
func (u *User) stage(aggregateID string, version int, eventType string, now time.Time, payload any) error {
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
	if err := u.Apply(event); err != nil {
		return err
	}
	u.Stage(event)
	return nil
}

// Apply is the single exhaustive fold function. Given the same prior state
// and event it always produces the same next state, which is what makes
// replay deterministic.
func (u *User) Apply(event store.Event) error {
	switch event.EventType {
	case EventUserCreated:
		var e UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		u.ID = e.UserID
		u.Name = e.Name
		u.PasswordHash = e.PasswordHash
		u.Email = e.Email
		u.DefaultDomain = e.DefaultDomain
		u.Domains = map[string]bool{e.DefaultDomain: true}
		u.CreatedOn = e.CreatedAt

	case EventUserAttributeChanged:
		var e UserAttributeChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		// Fixed attribute dispatch keeps replay type-safe: unknown names are
		// rejected at command time, so one here means a corrupt log.
		switch e.Attribute {
		case "name":
			u.Name = e.Value
		case "email":
			u.Email = e.Value
		case "password":
			u.PasswordHash = e.Value
		default:
			return fmt.Errorf("unknown attribute %q in %s event", e.Attribute, event.EventType)
		}

	case EventUserDomainAdded:
		var e UserDomainAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		u.Domains[e.Domain] = true

	case EventUserDomainDiscarded:
		var e UserDomainDiscarded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		delete(u.Domains, e.Domain)

	case EventUserDiscarded:
		u.IsDiscarded = true

	default:
		return fmt.Errorf("unknown event type %q for %s aggregate", event.EventType, AggregateType)
	}

	u.Version = event.Version
	u.LastModifiedOn = event.Timestamp
	return nil
}

// Sanitized returns a copy safe to hand to callers: the password hash is
// replaced with a fixed marker and never leaks.
func (u *User) Sanitized() *User {
	cp := *u
	cp.Root = aggregate.Root{}
	cp.PasswordHash = SanitizedPassword
	cp.Domains = make(map[string]bool, len(u.Domains))
	for domain := range u.Domains {
		cp.Domains[domain] = true
	}
	return &cp
}

// DomainList returns the user's domains in sorted order
func (u *User) DomainList() []string {
	domains := make([]string, 0, len(u.Domains))
	for domain := range u.Domains {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}
