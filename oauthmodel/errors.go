package oauthmodel

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals bad or missing configuration, including a
	// request that cannot be mapped to a tenant.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidLoginState covers missing, corrupt, expired or mismatched
	// login-state cookies.
	ErrInvalidLoginState = errors.New("invalid login state")

	// ErrStateMismatch is the CSRF signal: the decrypted login state does
	// not carry the state the identity provider returned.
	ErrStateMismatch = fmt.Errorf("state mismatch: %w", ErrInvalidLoginState)

	// ErrInvalidGrant means the refresh token can no longer be used and the
	// user has to log in again.
	ErrInvalidGrant = errors.New("invalid grant")
)

// ProviderError is a non-2xx response from an identity provider endpoint.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Code       string
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider %s returned HTTP %d (%s): %s", e.Endpoint, e.StatusCode, e.Code, e.Body)
	}
	return fmt.Sprintf("identity provider %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// InvalidGrantError is returned by refresh when the provider rejects the
// refresh token with invalid_grant.
type InvalidGrantError struct {
	Description string
}

func (e *InvalidGrantError) Error() string {
	if e.Description == "" {
		return ErrInvalidGrant.Error()
	}
	return ErrInvalidGrant.Error() + ": " + e.Description
}

// Is makes errors.Is(err, ErrInvalidGrant) hold.
func (e *InvalidGrantError) Is(target error) bool {
	return target == ErrInvalidGrant
}
