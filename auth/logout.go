package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/jrsteele09/go-tenant-auth/tenants"
)

// Logout ends the identity provider session. When config carries a refresh
// token it is revoked first; a failed revocation is logged and ignored. The
// browser is then redirected (302) to the tenant's logout endpoint.
//
// If the request cannot be mapped to a tenant the refresh token is revoked
// at the application origin and the browser is sent to the post-logout
// redirect URL (or the login URL) instead.
func (s *AuthenticationService) Logout(w http.ResponseWriter, r *http.Request, config *oauthmodel.LogoutConfig) error {
	if config == nil {
		config = &oauthmodel.LogoutConfig{}
	}
	noStore(w)

	tenant, err := tenants.Resolve(r.Host, s.rules, s.requestHints(r.URL.Query(), config.TenantDomainName, config.TenantCustomDomain))
	if err != nil {
		if !errors.Is(err, tenants.ErrUnresolved) {
			return fmt.Errorf("[auth Logout] %w: %w", oauthmodel.ErrConfiguration, err)
		}
		return s.logoutWithoutTenant(w, r, config, err)
	}
	origin := tenant.AuthOrigin()

	if config.RefreshToken != "" {
		if err := s.provider.RevokeRefreshToken(r.Context(), origin, config.RefreshToken); err != nil {
			s.logger.Warn().Err(err).Str("tenant", tenant.String()).Msg("refresh token revocation failed, continuing logout")
		}
	}

	params := url.Values{}
	params.Set("client_id", s.config.ClientID)
	if redirectURL := tenant.Substitute(config.RedirectURL); redirectURL != "" {
		params.Set("redirect_url", redirectURL)
	}

	s.logger.Info().Str("tenant", tenant.String()).Msg("logout")
	http.Redirect(w, r, tenant.Endpoint(oauthmodel.LogoutPath)+"?"+params.Encode(), http.StatusFound)
	return nil
}

func (s *AuthenticationService) logoutWithoutTenant(w http.ResponseWriter, r *http.Request, config *oauthmodel.LogoutConfig, cause error) error {
	if config.RefreshToken != "" {
		if err := s.provider.RevokeRefreshToken(r.Context(), tenants.ApplicationOrigin(s.rules), config.RefreshToken); err != nil {
			s.logger.Warn().Err(err).Msg("refresh token revocation failed, continuing logout")
		}
	}

	target := config.RedirectURL
	if target == "" {
		target = s.config.LoginURL
	}
	if strings.Contains(target, tenants.TenantDomainPlaceholder) {
		return fmt.Errorf("[auth Logout] %w: %w", oauthmodel.ErrConfiguration, cause)
	}
	s.logger.Info().Err(cause).Msg("logout without a tenant, skipping identity provider logout")
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}
