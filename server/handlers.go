package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/jrsteele09/go-tenant-auth/server/loginsession"
)

// IndexHandler reports whether the browser has a session.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, session, loggedIn := s.currentSession(r)
		resp := map[string]any{
			"app":       s.config.GetAppName(),
			"logged_in": loggedIn,
		}
		if loggedIn {
			resp["tenant"] = session.TenantDomainName
			resp["email"] = session.Email
			resp["logout"] = RouteLogout
		} else {
			resp["login"] = RouteLogin
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LoginHandler starts the authorization code flow for the request's tenant.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Login(w, r, nil); err != nil {
			if errors.Is(err, oauthmodel.ErrConfiguration) {
				s.logger.Warn().Err(err).Str("host", r.Host).Msg("login for unknown tenant")
				http.Error(w, "Unknown tenant", http.StatusBadRequest)
				return
			}
			s.logger.Error().Err(err).Msg("login failed")
			http.Error(w, "Login failed", http.StatusInternalServerError)
		}
	}
}

// CallbackHandler completes the flow, stores the session and sends the
// browser to its return URL.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.auth.Callback(w, r)
		if err != nil {
			s.writeCallbackError(w, err)
			return
		}
		if data == nil {
			return // redirect already written
		}

		sessionID := uuid.NewString()
		session := loginsession.FromCallback(data, s.nowTime())
		if err := s.sessions.Upsert(data.TenantDomainName, sessionID, session); err != nil {
			s.logger.Error().Err(err).Msg("failed to store session")
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		s.setSessionCookie(w, data.TenantDomainName, sessionID)
		http.Redirect(w, r, localReturnURL(data.ReturnURL), http.StatusSeeOther)
	}
}

func (s *Server) writeCallbackError(w http.ResponseWriter, err error) {
	var providerErr *oauthmodel.ProviderError
	switch {
	case errors.Is(err, oauthmodel.ErrInvalidLoginState):
		s.logger.Warn().Err(err).Msg("rejected callback")
		http.Error(w, "Invalid login state", http.StatusBadRequest)
	case errors.As(err, &providerErr):
		s.logger.Error().Err(err).Int("status", providerErr.StatusCode).Msg("identity provider call failed")
		http.Error(w, "Identity provider error", http.StatusBadGateway)
	default:
		s.logger.Error().Err(err).Msg("callback failed")
		http.Error(w, "Login failed", http.StatusInternalServerError)
	}
}

// LogoutHandler drops the local session and ends the provider session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logoutConfig := &oauthmodel.LogoutConfig{RedirectURL: s.config.GetPostLogoutRedirectURL()}

		if tenant, sessionID, session, ok := s.currentSession(r); ok {
			logoutConfig.RefreshToken = session.RefreshToken
			logoutConfig.TenantDomainName = session.TenantDomainName
			logoutConfig.TenantCustomDomain = session.TenantCustomDomain
			if err := s.sessions.Delete(tenant, sessionID); err != nil {
				s.logger.Warn().Err(err).Msg("failed to delete session")
			}
		}
		s.clearSessionCookie(w)

		if err := s.auth.Logout(w, r, logoutConfig); err != nil {
			s.logger.Warn().Err(err).Str("host", r.Host).Msg("logout failed")
			http.Error(w, "Unknown tenant", http.StatusBadRequest)
		}
	}
}

type sessionResponse struct {
	Tenant    string         `json:"tenant"`
	Subject   string         `json:"sub,omitempty"`
	Email     string         `json:"email,omitempty"`
	UserInfo  map[string]any `json:"userinfo,omitempty"`
	ExpiresAt int64          `json:"expires_at"`
	Refreshed bool           `json:"refreshed"`
}

// SessionHandler returns the current session, refreshing its access token
// first when it is (nearly) expired.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		tenant, sessionID, session, ok := s.currentSession(r)
		if !ok {
			writeJSONError(w, "unauthenticated", "No session", http.StatusUnauthorized)
			return
		}

		endSession := func(description string) {
			_ = s.sessions.Delete(tenant, sessionID)
			s.clearSessionCookie(w)
			writeJSONError(w, "login_required", description, http.StatusUnauthorized)
		}

		refreshed := false
		if session.RefreshToken == "" {
			if s.nowTime().UnixMilli() >= session.ExpiresAt {
				endSession("Access token expired")
				return
			}
		} else {
			tokens, err := s.auth.RefreshTokenIfExpired(r.Context(), session.RefreshToken, session.ExpiresAt)
			switch {
			case errors.Is(err, oauthmodel.ErrInvalidGrant):
				endSession("Refresh token is no longer valid")
				return
			case err != nil:
				s.logger.Error().Err(err).Str("tenant", tenant).Msg("token refresh failed")
				writeJSONError(w, "server_error", "Token refresh failed", http.StatusBadGateway)
				return
			case tokens != nil:
				session = session.Refreshed(tokens, s.nowTime())
				if err := s.sessions.Upsert(tenant, sessionID, session); err != nil {
					s.logger.Error().Err(err).Msg("failed to store refreshed session")
					writeJSONError(w, "server_error", "Failed to store session", http.StatusInternalServerError)
					return
				}
				refreshed = true
			}
		}

		writeJSON(w, http.StatusOK, sessionResponse{
			Tenant:    session.TenantDomainName,
			Subject:   session.Subject,
			Email:     session.Email,
			UserInfo:  session.UserInfo,
			ExpiresAt: session.ExpiresAt,
			Refreshed: refreshed,
		})
	}
}

// localReturnURL only honours same-site absolute paths.
func localReturnURL(returnURL string) string {
	if !strings.HasPrefix(returnURL, "/") || strings.HasPrefix(returnURL, "//") || strings.HasPrefix(returnURL, "/\\") {
		return RouteIndex
	}
	return returnURL
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an OAuth2-style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
