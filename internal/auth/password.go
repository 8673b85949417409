package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrMalformedHash = errors.New("malformed password hash")
)

const (
	pbkdf2Rounds   = 200000
	pbkdf2SaltSize = 16
	pbkdf2KeySize  = 64
)

// EncryptPassword derives a one-way salted hash of the password using
// PBKDF2-SHA512 and encodes it as $pbkdf2-sha512$200000$<salt>$<digest>.
// The rounds count is embedded so the work factor is versioned with the hash.
func EncryptPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, pbkdf2KeySize, sha512.New)
	return fmt.Sprintf("$pbkdf2-sha512$%d$%s$%s",
		pbkdf2Rounds,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// CheckPassword compares a plaintext password with a stored hash in constant
// time. It returns false for malformed hashes rather than erroring.
func CheckPassword(password, hash string) bool {
	rounds, salt, key, err := decodePasswordHash(hash)
	if err != nil {
		return false
	}

	derived := pbkdf2.Key([]byte(password), salt, rounds, len(key), sha512.New)
	return subtle.ConstantTimeCompare(derived, key) == 1
}

func decodePasswordHash(hash string) (rounds int, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	// Leading "$" yields an empty first element
	if len(parts) != 5 || parts[0] != "" || parts[1] != "pbkdf2-sha512" {
		return 0, nil, nil, ErrMalformedHash
	}

	rounds, err = strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return 0, nil, nil, ErrMalformedHash
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return 0, nil, nil, ErrMalformedHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, ErrMalformedHash
	}
	return rounds, salt, key, nil
}
