package config

import "strings"

const (
	clientIDVar              = "CLIENT_ID"
	clientSecretVar          = "CLIENT_SECRET"
	authorizationEndpointVar = "AUTHORIZATION_ENDPOINT"
	tokenEndpointVar         = "TOKEN_ENDPOINT"
	issuerVar                = "OAUTH_ISSUER"
	scopeVar                 = "OAUTH_SCOPE"
	httpTimeoutVar           = "HTTP_TIMEOUT"
	kintoneSubdomainVar      = "KINTONE_SUBDOMAIN"
	kintoneAppIDVar          = "KINTONE_APP_ID"
	flowStoreVar             = "FLOW_STORE"
)

func (s Settings) GetPort() string {
	if strings.HasPrefix(s.Port, ":") {
		return s.Port
	}
	return ":" + s.Port
}

func (s Settings) GetAppName() string {
	return s.AppName
}

func (s Settings) GetEnv() string {
	if s.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(s.Env)
}

func (s Settings) GetLogLevel() string {
	return s.LogLevel
}
