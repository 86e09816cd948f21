package oauthmodel

import "time"

// LoginState is everything an in-flight login needs to survive the browser
// round-trip to the identity provider. It is never stored server side: it
// is serialised, encrypted and carried in the login-state cookie.
type LoginState struct {
	State              string         `json:"state"`
	CodeVerifier       string         `json:"codeVerifier"`
	RedirectURI        string         `json:"redirectUri"`
	ReturnURL          string         `json:"returnUrl,omitempty"`
	CustomState        map[string]any `json:"customState,omitempty"`
	TenantDomainName   string         `json:"tenantDomainName"`
	TenantCustomDomain string         `json:"tenantCustomDomain,omitempty"`
	FlowID             string         `json:"flowId"`
	// ExpiresAt is the end of the login window in Unix milliseconds.
	ExpiresAt int64 `json:"expiresAt"`
}

// Expired reports whether the login window has closed at now.
func (s *LoginState) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.UnixMilli() >= s.ExpiresAt
}
