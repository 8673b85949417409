package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptPassword_ProducesExpectedShape(t *testing.T) {
	hash, err := EncryptPassword("Abcdef1!")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$pbkdf2-sha512$200000$"))
	assert.Len(t, strings.Split(hash, "$"), 5)
}

func TestEncryptPassword_SaltsAreUnique(t *testing.T) {
	first, err := EncryptPassword("Abcdef1!")
	require.NoError(t, err)
	second, err := EncryptPassword("Abcdef1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCheckPassword_RoundTrip(t *testing.T) {
	hash, err := EncryptPassword("Str0ng!pw")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Str0ng!pw", hash))
	assert.False(t, CheckPassword("Wr0ng!pw", hash))
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	malformed := []string{
		"",
		"plaintext",
		"$pbkdf2-sha512$notanumber$c2FsdA$aGFzaA",
		"$bcrypt$12$c2FsdA$aGFzaA",
		"$pbkdf2-sha512$200000$!!!$aGFzaA",
	}

	for _, hash := range malformed {
		assert.False(t, CheckPassword("Abcdef1!", hash), "hash %q should not verify", hash)
	}
}
