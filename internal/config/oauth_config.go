package config

import "time"

// DefaultScope is the kintone scope needed to read app records.
const DefaultScope = "k:app_record:read"

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetAuthorizationEndpoint() string
	GetTokenEndpoint() string
	GetIssuer() string
	GetScopes() []string
	GetHTTPTimeout() time.Duration
	GetPendingFlowTTL() time.Duration
	GetAccessTokenTTL() time.Duration
}

type OAuth struct {
	ClientID              string        `env:"CLIENT_ID"`
	ClientSecret          string        `env:"CLIENT_SECRET"`
	AuthorizationEndpoint string        `env:"AUTHORIZATION_ENDPOINT"`
	TokenEndpoint         string        `env:"TOKEN_ENDPOINT"`
	Issuer                string        `env:"OAUTH_ISSUER"`
	Scopes                []string      `env:"OAUTH_SCOPE" envSeparator:" " envDefault:"k:app_record:read"`
	HTTPTimeout           time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return o.ClientID
}

func (o OAuth) GetClientSecret() string {
	return o.ClientSecret
}

func (o OAuth) GetAuthorizationEndpoint() string {
	return o.AuthorizationEndpoint
}

func (o OAuth) GetTokenEndpoint() string {
	return o.TokenEndpoint
}

// GetIssuer returns the issuer used for endpoint discovery when the explicit
// endpoints are not configured.
func (o OAuth) GetIssuer() string {
	return o.Issuer
}

func (o OAuth) GetScopes() []string {
	return o.Scopes
}

func (o OAuth) GetHTTPTimeout() time.Duration {
	return o.HTTPTimeout
}

func (OAuth) GetPendingFlowTTL() time.Duration {
	return 10 * time.Minute
}

func (OAuth) GetAccessTokenTTL() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}
