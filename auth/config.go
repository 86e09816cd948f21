package auth

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-tenant-auth/logincrypt"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/jrsteele09/go-tenant-auth/tenants"
)

const (
	defaultLoginStateMaxAge      = 10 * time.Minute
	defaultTokenExpirationBuffer = 60 * time.Second
	defaultHTTPTimeout           = 30 * time.Second
)

// Config is the process-wide authentication configuration. It is copied
// into the service at construction and never mutated afterwards.
type Config struct {
	ClientID     string
	ClientSecret string
	// LoginStateSecret keys the login-state cookie encryption. At least 32
	// characters; never logged.
	LoginStateSecret string
	// LoginURL is the application's login entry point. It may contain the
	// {tenant_domain} placeholder.
	LoginURL string
	// RedirectURI is the callback URL registered with the identity
	// provider. It may contain the {tenant_domain} placeholder.
	RedirectURI string
	// ApplicationDomain is the identity provider application domain, e.g.
	// "auth.invotastic.com".
	ApplicationDomain string
	// RootDomain is this application's domain that tenant subdomains sit
	// under, e.g. "business.invotastic.com".
	RootDomain          string
	UseCustomDomains    bool
	UseTenantSubdomains bool
	CustomDomainPattern string
	// DefaultTenantDomainName is used when the request names no tenant.
	DefaultTenantDomainName string
	// Scopes requested at login. Defaults to oauthmodel.DefaultScopes.
	Scopes []string
	// TokenExpirationBuffer is the clock-skew allowance applied by
	// RefreshTokenIfExpired.
	TokenExpirationBuffer time.Duration
	// LoginStateMaxAge bounds the login window.
	LoginStateMaxAge time.Duration
	// ErrorRedirectURL receives provider-reported callback errors. Defaults
	// to LoginURL.
	ErrorRedirectURL string
	// VerifyIDToken enables signature and claims verification of the ID
	// token returned at callback.
	VerifyIDToken bool
	// HTTPTimeout bounds every call to the identity provider.
	HTTPTimeout time.Duration
}

// Validate reports the first missing or malformed setting.
func (c Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"ClientID", c.ClientID},
		{"ClientSecret", c.ClientSecret},
		{"LoginStateSecret", c.LoginStateSecret},
		{"LoginURL", c.LoginURL},
		{"RedirectURI", c.RedirectURI},
		{"ApplicationDomain", c.ApplicationDomain},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", oauthmodel.ErrConfiguration, r.name)
		}
	}

	if len(c.LoginStateSecret) < logincrypt.MinSecretLength {
		return fmt.Errorf("%w: LoginStateSecret must be at least %d characters", oauthmodel.ErrConfiguration, logincrypt.MinSecretLength)
	}
	if c.UseTenantSubdomains && c.RootDomain == "" {
		return fmt.Errorf("%w: RootDomain is required when UseTenantSubdomains is set", oauthmodel.ErrConfiguration)
	}
	if strings.Contains(c.ApplicationDomain, "/") {
		return fmt.Errorf("%w: ApplicationDomain must be a bare host name", oauthmodel.ErrConfiguration)
	}

	for name, raw := range map[string]string{"LoginURL": c.LoginURL, "RedirectURI": c.RedirectURI, "ErrorRedirectURL": c.ErrorRedirectURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(strings.ReplaceAll(raw, tenants.TenantDomainPlaceholder, "tenant"))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", oauthmodel.ErrConfiguration, name)
		}
	}

	if c.TokenExpirationBuffer < 0 || c.LoginStateMaxAge < 0 || c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", oauthmodel.ErrConfiguration)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = oauthmodel.DefaultScopes
	}
	if c.TokenExpirationBuffer == 0 {
		c.TokenExpirationBuffer = defaultTokenExpirationBuffer
	}
	if c.LoginStateMaxAge == 0 {
		c.LoginStateMaxAge = defaultLoginStateMaxAge
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.ErrorRedirectURL == "" {
		c.ErrorRedirectURL = c.LoginURL
	}
	c.Scopes = append([]string(nil), c.Scopes...)
	return c
}

func (c Config) tenantRules() tenants.Rules {
	return tenants.Rules{
		RootDomain:              c.RootDomain,
		ApplicationDomain:       c.ApplicationDomain,
		UseTenantSubdomains:     c.UseTenantSubdomains,
		UseCustomDomains:        c.UseCustomDomains,
		CustomDomainPattern:     c.CustomDomainPattern,
		DefaultTenantDomainName: c.DefaultTenantDomainName,
	}
}

// callbackPath is the cookie path for login-state cookies: the path of the
// redirect URI, so the cookies are only sent to the callback route.
func (c Config) callbackPath() string {
	u, err := url.Parse(strings.ReplaceAll(c.RedirectURI, tenants.TenantDomainPlaceholder, "tenant"))
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
