package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	apperrors "github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	OAuthConfig
	KintoneConfig
	CorsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// Settings is the environment-sourced configuration. It is parsed once at
// startup and injected into the components that need it.
type Settings struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"PKCE Gateway"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OAuth
	Kintone
	Cors
	Security
}

var _ Config = Settings{}

// Load reads an optional dotenv file, parses the environment and validates
// the result. A missing dotenv file is not an error.
func Load(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("[config Load] reading %s: %w", envFile, err)
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("[config Load] parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every missing or invalid required setting at once.
func (s Settings) Validate() error {
	var errs []error
	missing := func(name string) {
		errs = append(errs, fmt.Errorf("%s is required", name))
	}

	if s.ClientID == "" {
		missing(clientIDVar)
	}
	if s.ClientSecret == "" {
		missing(clientSecretVar)
	}
	if (s.AuthorizationEndpoint == "" || s.TokenEndpoint == "") && s.Issuer == "" {
		errs = append(errs, fmt.Errorf("%s and %s are required unless %s is set", authorizationEndpointVar, tokenEndpointVar, issuerVar))
	}
	if len(s.Scopes) == 0 {
		missing(scopeVar)
	}
	if s.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", httpTimeoutVar))
	}
	if s.Subdomain == "" && s.BaseURL == "" {
		missing(kintoneSubdomainVar)
	}
	if s.AppID == "" {
		missing(kintoneAppIDVar)
	}
	if s.FlowStore != FlowStoreCookie && s.FlowStore != FlowStoreMemory {
		errs = append(errs, fmt.Errorf("%s must be %q or %q", flowStoreVar, FlowStoreCookie, FlowStoreMemory))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrMisconfigured, errors.Join(errs...))
	}
	return nil
}
