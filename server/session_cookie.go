package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-tenant-auth/server/loginsession"
)

// sessionCookieName holds "{tenant}.{sessionID}" for a completed login.
const sessionCookieName = "app_session"

func (s *Server) setSessionCookie(w http.ResponseWriter, tenant, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    tenant + "." + sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.config.GetInsecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.config.GetInsecureCookies(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// currentSession looks up the session named by the request's cookie.
func (s *Server) currentSession(r *http.Request) (tenant, sessionID string, session loginsession.Session, ok bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", "", loginsession.Session{}, false
	}
	tenant, sessionID, found := strings.Cut(cookie.Value, ".")
	if !found || tenant == "" || sessionID == "" {
		return "", "", loginsession.Session{}, false
	}
	session, err = s.sessions.Get(tenant, sessionID)
	if err != nil {
		return "", "", loginsession.Session{}, false
	}
	return tenant, sessionID, session, true
}
