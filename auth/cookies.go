package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-tenant-auth/logincrypt"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
)

const (
	// loginStateCookiePrefix starts every login-state cookie name. The full
	// name is login_state.{state}.{unix_ms}, so the callback can find the
	// cookie for its state among several tabs' logins.
	loginStateCookiePrefix = "login_state."

	// maxLoginStateCookies is how many in-flight logins a browser keeps
	// once a callback has pruned the rest.
	maxLoginStateCookies = 3

	// maxCookieSize is the per-cookie limit browsers reliably honour.
	maxCookieSize = 4096
)

type loginStateCookie struct {
	cookie    *http.Cookie
	state     string
	createdAt int64
}

func loginStateCookieName(state string, createdAt time.Time) string {
	return loginStateCookiePrefix + state + "." + strconv.FormatInt(createdAt.UnixMilli(), 10)
}

func parseLoginStateCookieName(name string) (state string, createdAt int64, ok bool) {
	rest, found := strings.CutPrefix(name, loginStateCookiePrefix)
	if !found {
		return "", 0, false
	}
	state, ts, found := strings.Cut(rest, ".")
	if !found || state == "" {
		return "", 0, false
	}
	createdAt, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return state, createdAt, true
}

// loginStateCookies returns the request's login-state cookies, oldest first.
func loginStateCookies(r *http.Request) []loginStateCookie {
	var found []loginStateCookie
	for _, c := range r.Cookies() {
		state, createdAt, ok := parseLoginStateCookieName(c.Name)
		if !ok {
			continue
		}
		found = append(found, loginStateCookie{cookie: c, state: state, createdAt: createdAt})
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].createdAt < found[j].createdAt
	})
	return found
}

// findLoginStateCookie returns the cookie whose name carries state.
func findLoginStateCookie(r *http.Request, state string) *loginStateCookie {
	if state == "" {
		return nil
	}
	for _, c := range loginStateCookies(r) {
		if c.state == state {
			return &c
		}
	}
	return nil
}

func (s *AuthenticationService) setLoginStateCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookiePath,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.LoginStateMaxAge.Seconds()),
	})
}

func (s *AuthenticationService) clearLoginStateCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     s.cookiePath,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// pruneLoginStateCookies clears abandoned login-state cookies seen on a
// callback. The cookies are scoped to the callback path, so this is the
// only request that carries them. Cookies past LoginStateMaxAge are
// cleared, and of the rest only the newest maxLoginStateCookies-1 besides
// consumed are kept.
func (s *AuthenticationService) pruneLoginStateCookies(w http.ResponseWriter, r *http.Request, consumed string) {
	oldest := s.nowTime().Add(-s.config.LoginStateMaxAge).UnixMilli()

	var live []loginStateCookie
	for _, c := range loginStateCookies(r) {
		switch {
		case c.cookie.Name == consumed:
		case c.createdAt < oldest:
			s.clearLoginStateCookie(w, c.cookie.Name)
		default:
			live = append(live, c)
		}
	}
	for len(live) > maxLoginStateCookies-1 {
		s.clearLoginStateCookie(w, live[0].cookie.Name)
		live = live[1:]
	}
}

func (s *AuthenticationService) sealLoginState(state *oauthmodel.LoginState) (string, error) {
	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to serialise login state: %w", err)
	}
	sealed, err := logincrypt.Encrypt(plaintext, s.config.LoginStateSecret)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt login state: %w", err)
	}
	return sealed, nil
}

func (s *AuthenticationService) openLoginState(value string) (*oauthmodel.LoginState, error) {
	plaintext, err := logincrypt.Decrypt(value, s.config.LoginStateSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oauthmodel.ErrInvalidLoginState, err)
	}
	var state oauthmodel.LoginState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", oauthmodel.ErrInvalidLoginState, err)
	}
	return &state, nil
}
