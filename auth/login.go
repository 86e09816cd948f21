package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/jrsteele09/go-tenant-auth/pkce"
	"github.com/jrsteele09/go-tenant-auth/tenants"
)

// protectedAuthorizeParams cannot be overridden by LoginConfig.ExtraParams.
var protectedAuthorizeParams = map[string]struct{}{
	"state":                 {},
	"code_challenge":        {},
	"code_challenge_method": {},
}

// Login starts a login attempt. It resolves the tenant, seals a fresh
// LoginState into a cookie and redirects (302) to the tenant's authorize
// endpoint. No network calls are made. A tenant that cannot be resolved is
// reported as oauthmodel.ErrConfiguration and nothing is written.
func (s *AuthenticationService) Login(w http.ResponseWriter, r *http.Request, config *oauthmodel.LoginConfig) error {
	if config == nil {
		config = &oauthmodel.LoginConfig{}
	}
	query := r.URL.Query()

	tenant, err := tenants.Resolve(r.Host, s.rules, s.requestHints(query, config.TenantDomainName, config.TenantCustomDomain))
	if err != nil {
		return fmt.Errorf("[auth Login] %w: %w", oauthmodel.ErrConfiguration, err)
	}

	state, err := pkce.NewState()
	if err != nil {
		return fmt.Errorf("[auth Login] %w", err)
	}
	challenge := pkce.NewChallenge()
	now := s.nowTime()

	loginState := &oauthmodel.LoginState{
		State:              state,
		CodeVerifier:       challenge.Verifier,
		RedirectURI:        tenant.Substitute(s.config.RedirectURI),
		ReturnURL:          s.returnURL(query),
		CustomState:        config.CustomState,
		TenantDomainName:   tenant.DomainName,
		TenantCustomDomain: tenant.CustomDomain,
		FlowID:             uuid.NewString(),
		ExpiresAt:          now.Add(s.config.LoginStateMaxAge).UnixMilli(),
	}

	sealed, err := s.sealLoginState(loginState)
	if err != nil {
		return fmt.Errorf("[auth Login] %w", err)
	}
	cookieName := loginStateCookieName(state, now)
	if len(cookieName)+len(sealed) > maxCookieSize {
		return fmt.Errorf("[auth Login] %w: login state of %d bytes exceeds the cookie size limit; reduce CustomState", oauthmodel.ErrConfiguration, len(sealed))
	}

	s.setLoginStateCookie(w, cookieName, sealed)

	scopes := s.config.Scopes
	if len(config.Scopes) > 0 {
		scopes = config.Scopes
	}
	authorizeURL := s.authorizeURL(tenant, loginState, challenge, scopes, query.Get(oauthmodel.QueryLoginHint), config.ExtraParams)

	s.logger.Info().
		Str("flow_id", loginState.FlowID).
		Str("tenant", tenant.String()).
		Msg("login started")

	noStore(w)
	http.Redirect(w, r, authorizeURL, http.StatusFound)
	return nil
}

func (s *AuthenticationService) authorizeURL(tenant tenants.Tenant, loginState *oauthmodel.LoginState, challenge pkce.Challenge, scopes []string, loginHint string, extra map[string]string) string {
	params := url.Values{}
	params.Set("response_type", string(oauthmodel.CodeResponseType))
	params.Set("client_id", s.config.ClientID)
	params.Set("redirect_uri", loginState.RedirectURI)
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("state", loginState.State)
	params.Set("code_challenge", challenge.Challenge)
	params.Set("code_challenge_method", string(oauthmodel.CodeMethodTypeS256))
	if loginHint != "" {
		params.Set("login_hint", loginHint)
	}

	for k, v := range extra {
		if _, protected := protectedAuthorizeParams[k]; protected {
			s.logger.Warn().Str("param", k).Msg("ignoring override of protected authorize parameter")
			continue
		}
		params.Set(k, v)
	}

	return tenant.Endpoint(oauthmodel.AuthorizePath) + "?" + params.Encode()
}

// requestHints picks the explicit tenant identifiers for a request.
// Explicit configuration wins; query parameters only name the tenant when
// it is not taken from the subdomain.
func (s *AuthenticationService) requestHints(query url.Values, tenantDomainName, tenantCustomDomain string) tenants.Hints {
	hints := tenants.Hints{
		TenantDomainName:   tenantDomainName,
		TenantCustomDomain: tenantCustomDomain,
	}
	if hints.TenantDomainName == "" && !s.config.UseTenantSubdomains {
		hints.TenantDomainName = query.Get(oauthmodel.QueryTenantDomain)
	}
	if hints.TenantCustomDomain == "" {
		hints.TenantCustomDomain = query.Get(oauthmodel.QueryTenantCustomDomain)
	}
	return hints
}

func (s *AuthenticationService) returnURL(query url.Values) string {
	returnURL := query.Get(oauthmodel.QueryReturnURL)
	if len(returnURL) > oauthmodel.MaxReturnURLLength {
		s.logger.Warn().Int("length", len(returnURL)).Msg("return_url too long, dropping it")
		return ""
	}
	return returnURL
}
