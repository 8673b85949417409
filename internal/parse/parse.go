// Package parse holds the pure validation helpers consumed by the user domain:
// email shape, domain shape, and password checks. No state, no I/O.
package parse

import (
	"regexp"
	"strings"
)

// DefaultDomain is the fallback namespace for users created with a
// blacklisted or missing default domain.
const DefaultDomain = "public.example.com"

// EncryptedPasswordPrefix is the modular-crypt prefix every stored password
// hash must carry. The work factor is fixed and versioned through it.
const EncryptedPasswordPrefix = "$pbkdf2-sha512$200000$"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// blacklistDomains are consumer mail namespaces that cannot be claimed as a
// user's default domain.
var blacklistDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
}

// ValidEmail reports whether s looks like an RFC-shaped email address
func ValidEmail(s string) bool {
	if len(s) == 0 || len(s) > 254 {
		return false
	}
	return emailRegex.MatchString(s)
}

// ValidDomain reports whether s looks like a domain name: it must contain a
// "." and no "@".
func ValidDomain(s string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(s, ".") && !strings.Contains(s, "@")
}

// ValidUnencryptedPassword reports whether a plaintext password meets the
// strength policy: at least 8 characters with a digit, an uppercase letter,
// and a symbol from !@#$%^&*<>?.
func ValidUnencryptedPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var hasDigit, hasUpper, hasSymbol bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case strings.ContainsRune("!@#$%^&*<>?", r):
			hasSymbol = true
		}
	}
	return hasDigit && hasUpper && hasSymbol
}

// ValidEncryptedPassword reports whether s has the shape of a stored password
// hash: the fixed pbkdf2-sha512 prefix followed by salt and digest fields.
func ValidEncryptedPassword(s string) bool {
	if !strings.HasPrefix(s, EncryptedPasswordPrefix) {
		return false
	}
	rest := strings.TrimPrefix(s, EncryptedPasswordPrefix)
	parts := strings.SplitN(rest, "$", 2)
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// WhitelistDomain returns the domain unchanged unless it is blacklisted, in
// which case the public default namespace is returned instead.
func WhitelistDomain(domain string) string {
	if _, blacklisted := blacklistDomains[domain]; blacklisted {
		return DefaultDomain
	}
	return domain
}
