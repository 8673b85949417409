package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/workflow-platform/internal/domain/aggregate"
)

const testPasswordHash = "$pbkdf2-sha512$200000$c2FsdHNhbHRzYWx0c2FsdA$ZGlnZXN0ZGlnZXN0ZGlnZXN0"

func newCreatedUser(t *testing.T) *User {
	t.Helper()
	u, err := Create("Ann", testPasswordHash, "ann@example.com", "example.com")
	require.NoError(t, err)
	return u
}

func TestCreate_StagesCreatedEventAtVersionZero(t *testing.T) {
	u := newCreatedUser(t)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, 0, u.Version)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "example.com", u.DefaultDomain)
	assert.Equal(t, testPasswordHash, u.PasswordHash)
	assert.False(t, u.IsDiscarded)

	pending := u.Uncommitted()
	require.Len(t, pending, 1)
	assert.Equal(t, EventUserCreated, pending[0].EventType)
	assert.Equal(t, 0, pending[0].Version)
	assert.Equal(t, u.ID, pending[0].AggregateID)
	assert.Equal(t, AggregateType, pending[0].AggregateType)
}

func TestCreate_DefaultDomainIsInDomainSet(t *testing.T) {
	u := newCreatedUser(t)
	assert.Equal(t, []string{"example.com"}, u.DomainList())
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name          string
		userName      string
		passwordHash  string
		email         string
		defaultDomain string
		field         string
	}{
		{"empty name", "", testPasswordHash, "ann@example.com", "example.com", "name"},
		{"bad email", "Ann", testPasswordHash, "not-an-email", "example.com", "email"},
		{"bad domain", "Ann", testPasswordHash, "ann@example.com", "nodots", "default_domain"},
		{"plaintext password", "Ann", "Secret1!x", "ann@example.com", "example.com", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.userName, tt.passwordHash, tt.email, tt.defaultDomain)
			var verr *aggregate.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestChangeAttribute_NameAndEmail(t *testing.T) {
	u := newCreatedUser(t)

	require.NoError(t, u.ChangeAttribute("name", "Ann B"))
	require.NoError(t, u.ChangeAttribute("email", "ann.b@example.com"))

	assert.Equal(t, "Ann B", u.Name)
	assert.Equal(t, "ann.b@example.com", u.Email)
	assert.Equal(t, 2, u.Version)

	pending := u.Uncommitted()
	require.Len(t, pending, 3)
	assert.Equal(t, EventUserAttributeChanged, pending[1].EventType)
	assert.Equal(t, 1, pending[1].Version)
	assert.Equal(t, 2, pending[2].Version)
}

func TestChangeAttribute_RoutedAttributesAreNotSupported(t *testing.T) {
	u := newCreatedUser(t)

	for _, attribute := range []string{"password", "domains", "default_domain"} {
		err := u.ChangeAttribute(attribute, "anything")
		assert.ErrorIs(t, err, aggregate.ErrNotSupported, attribute)
	}
	assert.Equal(t, 0, u.Version)
}

func TestChangeAttribute_UnknownAttribute(t *testing.T) {
	u := newCreatedUser(t)

	err := u.ChangeAttribute("shoe_size", "42")
	var verr *aggregate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "shoe_size", verr.Field)
}

func TestChangeAttribute_InvalidValues(t *testing.T) {
	u := newCreatedUser(t)

	var verr *aggregate.ValidationError
	require.ErrorAs(t, u.ChangeAttribute("name", ""), &verr)
	require.ErrorAs(t, u.ChangeAttribute("email", "not-an-email"), &verr)
	assert.Equal(t, 0, u.Version)
}

func TestSetPasswordHash(t *testing.T) {
	u := newCreatedUser(t)
	newHash := "$pbkdf2-sha512$200000$bmV3c2FsdA$bmV3ZGlnZXN0"

	require.NoError(t, u.SetPasswordHash(newHash))

	assert.Equal(t, newHash, u.PasswordHash)
	pending := u.Uncommitted()
	require.Len(t, pending, 2)
	assert.Equal(t, EventUserAttributeChanged, pending[1].EventType)
}

func TestSetPasswordHash_RejectsPlaintext(t *testing.T) {
	u := newCreatedUser(t)

	var verr *aggregate.ValidationError
	require.ErrorAs(t, u.SetPasswordHash("Secret1!x"), &verr)
	assert.Equal(t, testPasswordHash, u.PasswordHash)
}

func TestAddDomain_AndDiscardDomain(t *testing.T) {
	u := newCreatedUser(t)

	require.NoError(t, u.AddDomain("extra.example.com"))
	assert.Equal(t, []string{"example.com", "extra.example.com"}, u.DomainList())

	require.NoError(t, u.DiscardDomain("extra.example.com"))
	assert.Equal(t, []string{"example.com"}, u.DomainList())
	assert.Equal(t, 2, u.Version)
}

func TestDiscardDomain_DefaultDomainIsProtected(t *testing.T) {
	u := newCreatedUser(t)

	err := u.DiscardDomain("example.com")
	assert.ErrorIs(t, err, ErrDefaultDomainProtected)
	assert.ErrorIs(t, err, aggregate.ErrInvariantViolation)
	assert.Equal(t, []string{"example.com"}, u.DomainList())
}

func TestAddDomain_RejectsMalformedDomain(t *testing.T) {
	u := newCreatedUser(t)

	var verr *aggregate.ValidationError
	require.ErrorAs(t, u.AddDomain("nodots"), &verr)
	require.ErrorAs(t, u.DiscardDomain("user@host.com"), &verr)
}

func TestDiscard_RecordsDomainNamespaceAndBlocksCommands(t *testing.T) {
	u := newCreatedUser(t)

	require.NoError(t, u.Discard())
	assert.True(t, u.IsDiscarded)

	pending := u.Uncommitted()
	require.Len(t, pending, 2)
	assert.Equal(t, EventUserDiscarded, pending[1].EventType)

	assert.ErrorIs(t, u.ChangeAttribute("name", "x"), ErrUserDiscarded)
	assert.ErrorIs(t, u.SetPasswordHash(testPasswordHash), ErrUserDiscarded)
	assert.ErrorIs(t, u.AddDomain("a.com"), ErrUserDiscarded)
	assert.ErrorIs(t, u.DiscardDomain("a.com"), ErrUserDiscarded)
	assert.ErrorIs(t, u.Discard(), ErrUserDiscarded)
	assert.ErrorIs(t, u.Discard(), aggregate.ErrInvariantViolation)
}

func TestApply_ReplayReproducesState(t *testing.T) {
	u := newCreatedUser(t)
	require.NoError(t, u.ChangeAttribute("name", "Ann B"))
	require.NoError(t, u.AddDomain("extra.example.com"))
	require.NoError(t, u.DiscardDomain("extra.example.com"))
	require.NoError(t, u.Discard())

	replayed := New()
	for _, event := range u.Uncommitted() {
		require.NoError(t, replayed.Apply(event))
	}

	assert.Equal(t, u.ID, replayed.ID)
	assert.Equal(t, u.Version, replayed.Version)
	assert.Equal(t, u.Name, replayed.Name)
	assert.Equal(t, u.Email, replayed.Email)
	assert.Equal(t, u.PasswordHash, replayed.PasswordHash)
	assert.Equal(t, u.DefaultDomain, replayed.DefaultDomain)
	assert.Equal(t, u.Domains, replayed.Domains)
	assert.Equal(t, u.IsDiscarded, replayed.IsDiscarded)
}

func TestApply_UnknownEventTypeFails(t *testing.T) {
	u := newCreatedUser(t)
	event := u.Uncommitted()[0]
	event.EventType = "UserTeleported"

	assert.Error(t, New().Apply(event))
}

func TestSanitized_MasksPasswordAndCopiesDomains(t *testing.T) {
	u := newCreatedUser(t)
	require.NoError(t, u.AddDomain("extra.example.com"))

	s := u.Sanitized()

	assert.Equal(t, SanitizedPassword, s.PasswordHash)
	assert.Equal(t, testPasswordHash, u.PasswordHash)
	assert.Empty(t, s.Uncommitted())

	s.Domains["other.example.com"] = true
	assert.NotContains(t, u.Domains, "other.example.com")
}
