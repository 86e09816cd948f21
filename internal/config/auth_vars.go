package config

import (
	"time"

	"github.com/jrsteele09/go-tenant-auth/auth"
)

// AuthVars are the authentication settings, read with AuthEnvPrefix.
type AuthVars struct {
	ClientID                string        `env:"CLIENT_ID,required"`
	ClientSecret            string        `env:"CLIENT_SECRET,required,unset"`
	LoginStateSecret        string        `env:"LOGIN_STATE_SECRET,required,unset"`
	LoginURL                string        `env:"LOGIN_URL,required"`
	RedirectURI             string        `env:"REDIRECT_URI,required"`
	ApplicationDomain       string        `env:"APPLICATION_DOMAIN,required"`
	RootDomain              string        `env:"ROOT_DOMAIN"`
	UseCustomDomains        bool          `env:"USE_CUSTOM_DOMAINS"`
	UseTenantSubdomains     bool          `env:"USE_TENANT_SUBDOMAINS"`
	CustomDomainPattern     string        `env:"CUSTOM_DOMAIN_PATTERN"`
	DefaultTenantDomainName string        `env:"DEFAULT_TENANT_DOMAIN"`
	Scopes                  []string      `env:"SCOPES" envSeparator:","`
	TokenExpirationBuffer   time.Duration `env:"TOKEN_EXPIRATION_BUFFER" envDefault:"60s"`
	LoginStateMaxAge        time.Duration `env:"LOGIN_STATE_MAX_AGE" envDefault:"10m"`
	ErrorRedirectURL        string        `env:"ERROR_REDIRECT_URL"`
	VerifyIDToken           bool          `env:"VERIFY_ID_TOKEN"`
	HTTPTimeout             time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
}

var _ AuthConfig = AuthVars{}

func (a AuthVars) GetAuthConfig() auth.Config {
	return auth.Config{
		ClientID:                a.ClientID,
		ClientSecret:            a.ClientSecret,
		LoginStateSecret:        a.LoginStateSecret,
		LoginURL:                a.LoginURL,
		RedirectURI:             a.RedirectURI,
		ApplicationDomain:       a.ApplicationDomain,
		RootDomain:              a.RootDomain,
		UseCustomDomains:        a.UseCustomDomains,
		UseTenantSubdomains:     a.UseTenantSubdomains,
		CustomDomainPattern:     a.CustomDomainPattern,
		DefaultTenantDomainName: a.DefaultTenantDomainName,
		Scopes:                  a.Scopes,
		TokenExpirationBuffer:   a.TokenExpirationBuffer,
		LoginStateMaxAge:        a.LoginStateMaxAge,
		ErrorRedirectURL:        a.ErrorRedirectURL,
		VerifyIDToken:           a.VerifyIDToken,
		HTTPTimeout:             a.HTTPTimeout,
	}
}
