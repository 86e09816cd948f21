package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/go-tenant-auth/auth"
)

// AuthEnvPrefix prefixes every authentication setting, e.g.
// TENANT_AUTH_CLIENT_ID.
const AuthEnvPrefix = "TENANT_AUTH_"

type Config interface {
	EnvConfig
	AuthConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogFormat() string
	GetLogLevel() string
	GetInsecureCookies() bool
	GetPostLogoutRedirectURL() string
}

type AuthConfig interface {
	GetAuthConfig() auth.Config
}

type mainConfig struct {
	EnvVars
	AuthVars
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFromEnvironment(environ())
}

// LoadFromEnvironment reads configuration from the given variables instead
// of the process environment.
func LoadFromEnvironment(environment map[string]string) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c.EnvVars, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := env.ParseWithOptions(&c.AuthVars, env.Options{Environment: environment, Prefix: AuthEnvPrefix}); err != nil {
		return nil, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := c.GetAuthConfig().Validate(); err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	return c, nil
}

func environ() map[string]string {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars
}
