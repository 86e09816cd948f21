package config

import "strings"

// EnvVars are the process-level settings of the example server binary.
type EnvVars struct {
	Port                  string `env:"PORT" envDefault:"8080"`
	AppName               string `env:"APP_NAME" envDefault:"Tenant Auth"`
	Env                   string `env:"ENV" envDefault:"DEV"`
	LogFormat             string `env:"LOG_FORMAT" envDefault:"console"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
	InsecureCookies       bool   `env:"INSECURE_COOKIES"`
	PostLogoutRedirectURL string `env:"POST_LOGOUT_REDIRECT_URL"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.Env)
}

// GetLogFormat is "console" or "json".
func (e EnvVars) GetLogFormat() string {
	return strings.ToLower(e.LogFormat)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.LogLevel)
}

// GetInsecureCookies drops the Secure cookie attribute, for plain http
// development only.
func (e EnvVars) GetInsecureCookies() bool {
	return e.InsecureCookies
}

func (e EnvVars) GetPostLogoutRedirectURL() string {
	return e.PostLogoutRedirectURL
}
