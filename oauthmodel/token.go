package oauthmodel

import "time"

// TokenData is the token endpoint response (RFC 6749 section 5.1).
type TokenData struct {
	// AccessToken is used as a Bearer credential against resource servers.
	AccessToken string `json:"access_token"`
	// RefreshToken is present when offline_access was granted.
	RefreshToken string `json:"refresh_token,omitempty"`
	// IDToken is present when openid was granted.
	IDToken   string `json:"id_token,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64  `json:"expires_in,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// ExpiryMillis converts ExpiresIn into a Unix millisecond timestamp
// relative to now. This is the value callers hand back to the refresh guard.
func (t *TokenData) ExpiryMillis(now time.Time) int64 {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second).UnixMilli()
}

// CallbackData is the result of a successful callback.
type CallbackData struct {
	TokenData
	// ExpiresAt is the access token expiry in Unix milliseconds.
	ExpiresAt          int64          `json:"expires_at"`
	UserInfo           map[string]any `json:"userinfo"`
	CustomState        map[string]any `json:"custom_state,omitempty"`
	ReturnURL          string         `json:"return_url,omitempty"`
	TenantDomainName   string         `json:"tenant_domain_name"`
	TenantCustomDomain string         `json:"tenant_custom_domain,omitempty"`
	// IDTokenClaims holds the verified ID token claims when verification
	// is enabled.
	IDTokenClaims map[string]any `json:"id_token_claims,omitempty"`
}
