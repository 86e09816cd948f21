package loginsession

import (
	"errors"
	"time"

	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
)

var ErrNotFound = errors.New("session not found")

// Session is what the example server keeps after a completed login.
type Session struct {
	TenantDomainName   string
	TenantCustomDomain string
	Subject            string
	Email              string
	UserInfo           map[string]any

	AccessToken  string
	RefreshToken string
	IDToken      string
	Scope        string
	// ExpiresAt is the access token expiry in Unix milliseconds.
	ExpiresAt int64

	CreatedAt time.Time
}

// FromCallback builds a session from a completed callback.
func FromCallback(data *oauthmodel.CallbackData, now time.Time) Session {
	s := Session{
		TenantDomainName:   data.TenantDomainName,
		TenantCustomDomain: data.TenantCustomDomain,
		UserInfo:           data.UserInfo,
		AccessToken:        data.AccessToken,
		RefreshToken:       data.RefreshToken,
		IDToken:            data.IDToken,
		Scope:              data.Scope,
		ExpiresAt:          data.ExpiresAt,
		CreatedAt:          now,
	}
	s.Subject, _ = data.UserInfo["sub"].(string)
	s.Email, _ = data.UserInfo["email"].(string)
	return s
}

// Refreshed applies a token refresh. The refresh token is kept when the
// provider did not rotate it.
func (s Session) Refreshed(tokens *oauthmodel.TokenData, now time.Time) Session {
	s.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		s.RefreshToken = tokens.RefreshToken
	}
	if tokens.IDToken != "" {
		s.IDToken = tokens.IDToken
	}
	if tokens.Scope != "" {
		s.Scope = tokens.Scope
	}
	s.ExpiresAt = tokens.ExpiryMillis(now)
	return s
}

type Repo interface {
	Upsert(tenantDomainName, sessionID string, session Session) error
	Get(tenantDomainName, sessionID string) (Session, error)
	Delete(tenantDomainName, sessionID string) error
}
