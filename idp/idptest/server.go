// Package idptest runs an in-process identity provider exposing the token,
// userinfo, revocation and JWKS endpoints, for tests of the HTTP client and
// of the full login flow.
package idptest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
)

const (
	AccessToken  = "at-1"
	RefreshToken = "rt-1"
	Subject      = "user-1"
	Email        = "john.doe@example.com"
)

// Server is the test identity provider. Issued ID tokens name
// scheme://Host of the token request as issuer, so a routed client sees the
// tenant origin it called.
type Server struct {
	*httptest.Server
	Keys *KeyPair

	clientID     string
	clientSecret string

	mu            sync.Mutex
	tokenRequests []url.Values
	revoked       []string
	tokenError    *tokenError
	revokeStatus  int
	extraClaims   jwt.MapClaims
}

type tokenError struct {
	status      int
	code        string
	description string
}

// New starts a plain http provider, closed when the test ends.
func New(t testing.TB, clientID, clientSecret string) *Server {
	t.Helper()
	s := newServer(t, clientID, clientSecret)
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// NewTLS starts an https provider. Use RoutingClient to reach it under any
// host name.
func NewTLS(t testing.TB, clientID, clientSecret string) *Server {
	t.Helper()
	s := newServer(t, clientID, clientSecret)
	s.Server = httptest.NewTLSServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func newServer(t testing.TB, clientID, clientSecret string) *Server {
	keys, err := GenerateRSAKeyPair("key-1")
	if err != nil {
		t.Fatalf("idptest: %v", err)
	}
	return &Server{
		Keys:         keys,
		clientID:     clientID,
		clientSecret: clientSecret,
		revokeStatus: http.StatusOK,
	}
}

// RoutingClient returns an http.Client that sends every request to this
// server whatever the URL's host, skipping certificate verification.
func (s *Server) RoutingClient() *http.Client {
	addr := s.Listener.Addr().String()
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // test server certificate
		},
	}
}

// FailToken makes the token endpoint answer with an OAuth error.
func (s *Server) FailToken(status int, code, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenError = &tokenError{status: status, code: code, description: description}
}

// FailRevoke makes the revocation endpoint answer with status.
func (s *Server) FailRevoke(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeStatus = status
}

// AddIDTokenClaims adds or overrides claims of issued ID tokens.
func (s *Server) AddIDTokenClaims(claims jwt.MapClaims) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.extraClaims == nil {
		s.extraClaims = jwt.MapClaims{}
	}
	for k, v := range claims {
		s.extraClaims[k] = v
	}
}

// TokenRequests returns the form of every token endpoint call.
func (s *Server) TokenRequests() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.tokenRequests...)
}

// RevokedTokens returns every token passed to the revocation endpoint.
func (s *Server) RevokedTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revoked...)
}

// MintIDToken signs claims with the server's key.
func (s *Server) MintIDToken(claims jwt.MapClaims) (string, error) {
	return s.Keys.Sign(claims)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+oauthmodel.TokenPath, s.handleToken)
	mux.HandleFunc("GET "+oauthmodel.UserInfoPath, s.handleUserInfo)
	mux.HandleFunc("POST "+oauthmodel.RevokePath, s.handleRevoke)
	mux.HandleFunc("GET "+oauthmodel.JWKSPath, s.handleJWKS)
	return mux
}

func (s *Server) clientAuthenticated(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	return ok && user == s.clientID && pass == s.clientSecret
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if !s.clientAuthenticated(r) {
		writeError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.mu.Lock()
	s.tokenRequests = append(s.tokenRequests, r.PostForm)
	failure := s.tokenError
	extra := s.extraClaims
	s.mu.Unlock()

	if failure != nil {
		writeError(w, failure.status, failure.code, failure.description)
		return
	}

	resp := map[string]any{
		"access_token":  AccessToken,
		"refresh_token": RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    1800,
		"scope":         "openid offline_access email",
	}
	if r.PostForm.Get("grant_type") == string(oauthmodel.AuthorizationCodeGrant) {
		now := time.Now()
		claims := jwt.MapClaims{
			"iss":   requestOrigin(r),
			"aud":   s.clientID,
			"sub":   Subject,
			"email": Email,
			"iat":   now.Unix(),
			"exp":   now.Add(time.Hour).Unix(),
		}
		for k, v := range extra {
			claims[k] = v
		}
		idToken, err := s.Keys.Sign(claims)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		resp["id_token"] = idToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+AccessToken {
		writeError(w, http.StatusUnauthorized, "invalid_token", "unknown access token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sub": Subject, "email": Email})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if !s.clientAuthenticated(r) {
		writeError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.mu.Lock()
	s.revoked = append(s.revoked, r.PostForm.Get("token"))
	status := s.revokeStatus
	s.mu.Unlock()

	w.WriteHeader(status)
}

func (s *Server) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, JWKS{Keys: []JWK{s.Keys.ToJWK()}})
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
