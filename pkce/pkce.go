// Package pkce generates the per-login CSRF state token and the PKCE
// code verifier/challenge pair (RFC 7636).
package pkce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// MethodS256 is the only code challenge method this package produces.
const MethodS256 = "S256"

// stateBytes gives 256 bits of randomness; encoded it is 43 characters.
const stateBytes = 32

// Challenge is a PKCE verifier with its derived challenge.
type Challenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// NewState returns a URL-safe random state token. The alphabet is
// base64url without padding, which is also valid in a cookie name.
func NewState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[pkce NewState] failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewChallenge returns a fresh verifier and its S256 challenge.
func NewChallenge() Challenge {
	verifier := oauth2.GenerateVerifier()
	return Challenge{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
		Method:    MethodS256,
	}
}

// ValidVerifier reports whether v satisfies the RFC 7636 verifier rules:
// 43 to 128 characters from [A-Z] [a-z] [0-9] "-" "." "_" "~".
func ValidVerifier(v string) bool {
	if len(v) < 43 || len(v) > 128 {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-', c == '.', c == '_', c == '~':
		default:
			return false
		}
	}
	return true
}
