package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-tenant-auth/auth"
	"github.com/jrsteele09/go-tenant-auth/internal/config"
	"github.com/jrsteele09/go-tenant-auth/server/loginsession"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is an example relying-party application: it mounts the
// authentication flows on a ServeMux and keeps completed logins in a
// session repo.
type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	auth     *auth.AuthenticationService
	sessions loginsession.Repo
	logger   zerolog.Logger
	nowTime  func() time.Time
}

// New builds the server. authOpts are passed to the authentication service.
func New(c config.Config, sessions loginsession.Repo, authOpts ...auth.AuthenticationServiceOption) (*Server, error) {
	logger := log.Logger.With().Str("component", "server").Logger()

	opts := []auth.AuthenticationServiceOption{auth.WithLogger(log.Logger)}
	if c.GetInsecureCookies() {
		opts = append(opts, auth.WithInsecureCookies())
	}
	opts = append(opts, authOpts...)

	authService, err := auth.NewAuthenticationService(c.GetAuthConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create authentication service: %w", err)
	}

	s := &Server{
		env:      c.GetEnv(),
		mux:      http.NewServeMux(),
		config:   c,
		auth:     authService,
		sessions: sessions,
		logger:   logger,
		nowTime:  time.Now,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}
