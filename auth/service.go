package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-tenant-auth/idp"
	"github.com/jrsteele09/go-tenant-auth/tenants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// AuthenticationService runs the relying-party side of the authorization
// code + PKCE flow: Login, Callback, Logout and RefreshTokenIfExpired. It
// keeps no per-request state and is safe for concurrent use.
type AuthenticationService struct {
	config        Config
	rules         tenants.Rules
	provider      idp.Provider
	logger        zerolog.Logger
	nowTime       func() time.Time
	cookiePath    string
	secureCookies bool
	refreshGroup  singleflight.Group
}

// AuthenticationServiceOption modifies the AuthenticationService at construction.
type AuthenticationServiceOption func(*AuthenticationService)

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) AuthenticationServiceOption {
	return func(s *AuthenticationService) {
		s.nowTime = nowFunc
	}
}

// WithProvider replaces the HTTP identity provider client.
func WithProvider(provider idp.Provider) AuthenticationServiceOption {
	return func(s *AuthenticationService) {
		s.provider = provider
	}
}

// WithLogger sets the logger. The global zerolog logger is used otherwise.
func WithLogger(logger zerolog.Logger) AuthenticationServiceOption {
	return func(s *AuthenticationService) {
		s.logger = logger
	}
}

// WithInsecureCookies drops the Secure attribute from login-state cookies.
// Only for local development over plain http.
func WithInsecureCookies() AuthenticationServiceOption {
	return func(s *AuthenticationService) {
		s.secureCookies = false
	}
}

// NewAuthenticationService validates config and builds the service.
func NewAuthenticationService(config Config, opts ...AuthenticationServiceOption) (*AuthenticationService, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("[auth NewAuthenticationService] %w", err)
	}
	config = config.withDefaults()

	s := &AuthenticationService{
		config:        config,
		rules:         config.tenantRules(),
		logger:        log.Logger,
		nowTime:       time.Now,
		cookiePath:    config.callbackPath(),
		secureCookies: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.provider == nil {
		s.provider = idp.NewClient(
			config.ClientID,
			config.ClientSecret,
			idp.WithHTTPClient(&http.Client{Timeout: config.HTTPTimeout}),
			idp.WithLogger(s.logger),
		)
	}
	s.logger = s.logger.With().Str("component", "auth").Logger()
	return s, nil
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
