// Package idp talks to the identity provider's token, userinfo and
// revocation endpoints on behalf of the orchestrators in package auth.
package idp

import (
	"context"

	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
)

// Provider is the narrow identity provider surface the login flow needs.
// Every method takes the origin to call so one provider serves all tenants.
type Provider interface {
	// ExchangeCode performs the authorization_code grant.
	ExchangeCode(ctx context.Context, origin, code, redirectURI, codeVerifier string) (*oauthmodel.TokenData, error)
	// RefreshToken performs the refresh_token grant. An invalid_grant
	// response is returned as *oauthmodel.InvalidGrantError.
	RefreshToken(ctx context.Context, origin, refreshToken string) (*oauthmodel.TokenData, error)
	// UserInfo fetches the userinfo claims for accessToken.
	UserInfo(ctx context.Context, origin, accessToken string) (map[string]any, error)
	// RevokeRefreshToken revokes refreshToken.
	RevokeRefreshToken(ctx context.Context, origin, refreshToken string) error
	// VerifyIDToken checks the ID token signature, issuer, audience and
	// expiry, and returns its claims.
	VerifyIDToken(ctx context.Context, origin, rawIDToken string) (map[string]any, error)
}
