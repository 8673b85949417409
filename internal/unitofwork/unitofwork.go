// Package unitofwork wires one event log, one snapshot store, and the policy
// subscribers into a scoped session exposing the user use cases.
package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/workflow-platform/internal/auth"
	"github.com/example/workflow-platform/internal/bus"
	"github.com/example/workflow-platform/internal/domain/aggregate"
	"github.com/example/workflow-platform/internal/domain/collection"
	"github.com/example/workflow-platform/internal/domain/user"
	"github.com/example/workflow-platform/internal/infrastructure/store"
	"github.com/example/workflow-platform/internal/parse"
	"github.com/example/workflow-platform/internal/policy"
)

// PasswordPolicyMessage names the strength rules reported on a rejected
// password.
const PasswordPolicyMessage = "must be at least 8 characters and contain a capital letter, a number, and one of !@#$%^&*<>?"

var (
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrNoTokenService     = errors.New("no token service configured")
)

// TokenPair is the result of a successful authentication
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type options struct {
	snapshotPeriod int
	publisher      policy.Publisher
	auditLogger    *logrus.Logger
	tokens         *auth.JWTService
}

// Option configures optional collaborators of a UnitOfWork
type Option func(*options)

// WithSnapshotPeriod overrides the default snapshotting period
func WithSnapshotPeriod(period int) Option {
	return func(o *options) { o.snapshotPeriod = period }
}

// WithPublisher mirrors committed events onto an external feed
func WithPublisher(p policy.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithAuditLogger logs every committed event
func WithAuditLogger(logger *logrus.Logger) Option {
	return func(o *options) { o.auditLogger = logger }
}

// WithTokenService enables Authenticate
func WithTokenService(tokens *auth.JWTService) Option {
	return func(o *options) { o.tokens = tokens }
}

// UnitOfWork is a scoped session against one event log. Construction wires
// the repositories and policies; Close tears the policies down so no stale
// listener outlives the session. Instances are not shared across goroutines;
// concurrency control happens at the log's append path.
type UnitOfWork struct {
	eventBus    *bus.Bus
	users       *aggregate.Repository[*user.User]
	collections *aggregate.Repository[*collection.Collection]

	snapshotting *policy.SnapshottingPolicy[*user.User]
	projection   *policy.UserCollectionPolicy
	relay        *policy.RelayPolicy
	audit        *policy.AuditPolicy

	tokens *auth.JWTService
	closed bool
}

// New constructs a session over the given log and snapshot store
func New(log store.EventLog, snapshots store.SnapshotStore, opts ...Option) *UnitOfWork {
	o := options{snapshotPeriod: policy.DefaultSnapshotPeriod}
	for _, opt := range opts {
		opt(&o)
	}

	b := bus.New()
	uow := &UnitOfWork{
		eventBus:    b,
		users:       aggregate.NewRepository(log, snapshots, b, user.AggregateType, user.New),
		collections: aggregate.NewRepository(log, nil, b, collection.AggregateType, collection.New),
		tokens:      o.tokens,
	}

	// Subscription order is delivery order. The relay and audit log go first
	// so the external feed records a user event before the collection events
	// the projection appends behind it.
	if o.publisher != nil {
		uow.relay = policy.NewRelayPolicy(b, o.publisher)
	}
	if o.auditLogger != nil {
		uow.audit = policy.NewAuditPolicy(b, o.auditLogger)
	}
	uow.snapshotting = policy.NewSnapshottingPolicy(b, uow.users, user.AggregateType, o.snapshotPeriod)
	uow.projection = policy.NewUserCollectionPolicy(b, uow.collections)
	return uow
}

// Close unsubscribes every policy. Idempotent, and safe on a UnitOfWork that
// was never fully initialized.
func (uow *UnitOfWork) Close() {
	if uow.closed {
		return
	}
	uow.closed = true

	if uow.snapshotting != nil {
		uow.snapshotting.Close()
	}
	if uow.projection != nil {
		uow.projection.Close()
	}
	if uow.relay != nil {
		uow.relay.Close()
	}
	if uow.audit != nil {
		uow.audit.Close()
	}
}

// NewUser creates a user. The plaintext password is checked against the
// strength policy and encrypted before it reaches the aggregate; the returned
// copy carries the sanitized password marker, never the hash.
func (uow *UnitOfWork) NewUser(ctx context.Context, name, password, email, defaultDomain string) (*user.User, error) {
	if !parse.ValidUnencryptedPassword(password) {
		return nil, aggregate.NewValidationError("password", PasswordPolicyMessage)
	}
	if defaultDomain == "" {
		defaultDomain = parse.DefaultDomain
	}

	passwordHash, err := auth.EncryptPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt password: %w", err)
	}

	u, err := user.Create(name, passwordHash, email, parse.WhitelistDomain(defaultDomain))
	if err != nil {
		return nil, err
	}
	if err := uow.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// GetUser returns a sanitized copy of the user
func (uow *UnitOfWork) GetUser(ctx context.Context, userID string) (*user.User, error) {
	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// ModifyUser changes one mutable scalar attribute via the generic setter
func (uow *UnitOfWork) ModifyUser(ctx context.Context, userID, attribute, value string) (*user.User, error) {
	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeAttribute(attribute, value); err != nil {
		return nil, err
	}
	if err := uow.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// ChangePassword validates the new password's strength, encrypts it, and
// stores the change through the dedicated aggregate path.
func (uow *UnitOfWork) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if !parse.ValidUnencryptedPassword(newPassword) {
		return aggregate.NewValidationError("password", PasswordPolicyMessage)
	}

	passwordHash, err := auth.EncryptPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}

	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.SetPasswordHash(passwordHash); err != nil {
		return err
	}
	return uow.users.Save(ctx, u)
}

// AddDomainToUser adds a domain to the user's domain set
func (uow *UnitOfWork) AddDomainToUser(ctx context.Context, userID, domain string) (*user.User, error) {
	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.AddDomain(domain); err != nil {
		return nil, err
	}
	if err := uow.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// RemoveDomainFromUser removes a domain from the user's domain set
func (uow *UnitOfWork) RemoveDomainFromUser(ctx context.Context, userID, domain string) (*user.User, error) {
	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.DiscardDomain(domain); err != nil {
		return nil, err
	}
	if err := uow.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

// DiscardUser terminally discards a user and removes it from its default
// domain's collection via the projection.
func (uow *UnitOfWork) DiscardUser(ctx context.Context, userID string) error {
	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.Discard(); err != nil {
		return err
	}
	return uow.users.Save(ctx, u)
}

// GetUserIDs lists the ids filed under a domain namespace. An unknown
// namespace yields an empty listing, not an error.
func (uow *UnitOfWork) GetUserIDs(ctx context.Context, domainNamespace string) ([]string, error) {
	if domainNamespace == "" {
		domainNamespace = parse.DefaultDomain
	}
	if !parse.ValidDomain(domainNamespace) {
		return nil, aggregate.NewValidationError("domain_namespace", "must be a domain like 'domain.com'")
	}

	col, err := uow.collections.Get(ctx, collection.IDForDomain(domainNamespace))
	if errors.Is(err, aggregate.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return col.ItemIDs(), nil
}

// Authenticate verifies a user's password and issues a token pair. Requires
// WithTokenService; discarded users cannot authenticate.
func (uow *UnitOfWork) Authenticate(ctx context.Context, userID, password string) (*TokenPair, error) {
	if uow.tokens == nil {
		return nil, ErrNoTokenService
	}

	u, err := uow.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, aggregate.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.IsDiscarded || !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, accessExpiry, err := uow.tokens.GenerateAccessToken(u.ID, u.Email, u.DefaultDomain)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiry, err := uow.tokens.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}
