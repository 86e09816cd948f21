package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/jrsteele09/go-tenant-auth/pkce"
	"github.com/jrsteele09/go-tenant-auth/tenants"
)

// loginRequiredError is the provider error that means "start again".
const loginRequiredError = "login_required"

// Callback completes a login attempt.
//
// It returns (data, nil) on success. It returns (nil, nil) when it has
// already written a redirect because the attempt could not continue in an
// expected way: the provider reported an error, or the login-state cookie
// is missing, undecryptable or expired. Anything else, including a state
// mismatch (oauthmodel.ErrStateMismatch) and provider failures
// (*oauthmodel.ProviderError), is returned as an error and nothing is
// written except the cookie deletion.
//
// The matched login-state cookie is cleared on every path.
func (s *AuthenticationService) Callback(w http.ResponseWriter, r *http.Request) (*oauthmodel.CallbackData, error) {
	query := r.URL.Query()
	state := query.Get(oauthmodel.QueryState)
	noStore(w)

	cookie := findLoginStateCookie(r, state)
	consumed := ""
	if cookie != nil {
		consumed = cookie.cookie.Name
		s.clearLoginStateCookie(w, consumed)
	}
	s.pruneLoginStateCookies(w, r, consumed)

	if providerErr := query.Get(oauthmodel.QueryError); providerErr != "" {
		s.logger.Info().
			Str("error", providerErr).
			Str("error_description", query.Get(oauthmodel.QueryErrorDescription)).
			Msg("identity provider reported a callback error")
		if providerErr == loginRequiredError {
			s.redirectToLogin(w, r, "")
			return nil, nil
		}
		s.redirectToError(w, r, providerErr, query.Get(oauthmodel.QueryErrorDescription))
		return nil, nil
	}

	if cookie == nil {
		s.logger.Info().Bool("has_state", state != "").Msg("no login state cookie for callback, restarting login")
		s.redirectToLogin(w, r, "")
		return nil, nil
	}

	loginState, err := s.openLoginState(cookie.cookie.Value)
	if err == nil && !pkce.ValidVerifier(loginState.CodeVerifier) {
		err = fmt.Errorf("%w: malformed code verifier", oauthmodel.ErrInvalidLoginState)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("login state cookie rejected, restarting login")
		s.redirectToLogin(w, r, "")
		return nil, nil
	}
	logger := s.logger.With().Str("flow_id", loginState.FlowID).Str("tenant", loginState.TenantDomainName).Logger()

	if loginState.State != cookie.state || loginState.State != state {
		logger.Warn().Msg("login state does not match callback state")
		return nil, fmt.Errorf("[auth Callback] %w", oauthmodel.ErrStateMismatch)
	}

	if loginState.Expired(s.nowTime()) {
		logger.Info().Msg("login window expired, restarting login")
		s.redirectToLogin(w, r, loginState.TenantDomainName)
		return nil, nil
	}

	code := query.Get(oauthmodel.QueryCode)
	if code == "" {
		logger.Info().Msg("callback without code, restarting login")
		s.redirectToLogin(w, r, loginState.TenantDomainName)
		return nil, nil
	}

	tenant, err := tenants.Resolve("", s.rules, tenants.Hints{
		TenantDomainName:   loginState.TenantDomainName,
		TenantCustomDomain: loginState.TenantCustomDomain,
	})
	if err != nil {
		return nil, fmt.Errorf("[auth Callback] %w: %w", oauthmodel.ErrConfiguration, err)
	}
	origin := tenant.AuthOrigin()
	ctx := r.Context()

	tokens, err := s.provider.ExchangeCode(ctx, origin, code, loginState.RedirectURI, loginState.CodeVerifier)
	if err != nil {
		logger.Error().Err(err).Msg("authorization code exchange failed")
		return nil, fmt.Errorf("[auth Callback] token exchange failed: %w", err)
	}
	now := s.nowTime()

	var idTokenClaims map[string]any
	if s.config.VerifyIDToken {
		if tokens.IDToken == "" {
			return nil, fmt.Errorf("[auth Callback] id token verification is enabled but the token response has no id_token")
		}
		idTokenClaims, err = s.provider.VerifyIDToken(ctx, origin, tokens.IDToken)
		if err != nil {
			logger.Error().Err(err).Msg("id token verification failed")
			return nil, fmt.Errorf("[auth Callback] id token verification failed: %w", err)
		}
	}

	userInfo, err := s.provider.UserInfo(ctx, origin, tokens.AccessToken)
	if err != nil {
		logger.Error().Err(err).Msg("userinfo request failed")
		return nil, fmt.Errorf("[auth Callback] userinfo request failed: %w", err)
	}

	logger.Info().Msg("login completed")

	return &oauthmodel.CallbackData{
		TokenData:          *tokens,
		ExpiresAt:          tokens.ExpiryMillis(now),
		UserInfo:           userInfo,
		CustomState:        loginState.CustomState,
		ReturnURL:          loginState.ReturnURL,
		TenantDomainName:   loginState.TenantDomainName,
		TenantCustomDomain: loginState.TenantCustomDomain,
		IDTokenClaims:      idTokenClaims,
	}, nil
}

// redirectToLogin sends the browser back to the application's login entry
// point. tenantDomainName may be empty; it is then taken from the request
// when possible.
func (s *AuthenticationService) redirectToLogin(w http.ResponseWriter, r *http.Request, tenantDomainName string) {
	if tenantDomainName == "" {
		if t, err := tenants.Resolve(r.Host, s.rules, s.requestHints(r.URL.Query(), "", "")); err == nil {
			tenantDomainName = t.DomainName
		}
	}
	loginURL := s.config.LoginURL
	if tenantDomainName != "" {
		loginURL = tenants.Tenant{DomainName: tenantDomainName}.Substitute(loginURL)
	} else {
		loginURL = withoutTenantHost(loginURL)
	}

	if tenantDomainName != "" && !s.config.UseTenantSubdomains {
		if u, err := url.Parse(loginURL); err == nil {
			q := u.Query()
			q.Set(oauthmodel.QueryTenantDomain, tenantDomainName)
			u.RawQuery = q.Encode()
			loginURL = u.String()
		}
	}
	http.Redirect(w, r, loginURL, http.StatusFound)
}

func (s *AuthenticationService) redirectToError(w http.ResponseWriter, r *http.Request, errorCode, description string) {
	target := s.config.ErrorRedirectURL
	if t, err := tenants.Resolve(r.Host, s.rules, s.requestHints(r.URL.Query(), "", "")); err == nil {
		target = t.Substitute(target)
	} else {
		target = withoutTenantHost(target)
	}

	u, err := url.Parse(target)
	if err != nil {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	q := u.Query()
	q.Set(oauthmodel.QueryError, errorCode)
	if description != "" {
		q.Set(oauthmodel.QueryErrorDescription, description)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// withoutTenantHost reduces a URL that still needs a tenant to its path
// and query, so the browser stays on the current host.
func withoutTenantHost(raw string) string {
	const stand = "unresolved-tenant"
	if !strings.Contains(raw, tenants.TenantDomainPlaceholder) {
		return raw
	}
	u, err := url.Parse(strings.ReplaceAll(raw, tenants.TenantDomainPlaceholder, stand))
	if err != nil || strings.Contains(u.RequestURI(), stand) {
		return "/"
	}
	return u.RequestURI()
}
