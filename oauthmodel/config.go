package oauthmodel

// LoginConfig customises a single Login call.
type LoginConfig struct {
	// Scopes overrides the service's scopes for this call.
	Scopes []string
	// CustomState is returned untouched in CallbackData.
	CustomState map[string]any
	// TenantDomainName names the tenant explicitly.
	TenantDomainName string
	// TenantCustomDomain names the tenant's custom identity provider host.
	TenantCustomDomain string
	// ExtraParams are added to, or override, authorize query parameters.
	ExtraParams map[string]string
}

// LogoutConfig customises a single Logout call.
type LogoutConfig struct {
	// RefreshToken is revoked before redirecting, when set.
	RefreshToken       string
	TenantDomainName   string
	TenantCustomDomain string
	// RedirectURL is where the identity provider sends the browser after
	// ending its session.
	RedirectURL string
}
