package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-pkce-gateway/internal/config"
	"github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLIENT_ID", "client-1")
	t.Setenv("CLIENT_SECRET", "secret-1")
	t.Setenv("AUTHORIZATION_ENDPOINT", "https://example.cybozu.com/oauth2/authorization")
	t.Setenv("TOKEN_ENDPOINT", "https://example.cybozu.com/oauth2/token")
	t.Setenv("KINTONE_SUBDOMAIN", "example.cybozu.com")
	t.Setenv("KINTONE_APP_ID", "42")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "info", c.GetLogLevel())
	require.Equal(t, []string{config.DefaultScope}, c.GetScopes())
	require.Equal(t, 10*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 600*time.Second, c.GetPendingFlowTTL())
	require.Equal(t, 7*24*time.Hour, c.GetAccessTokenTTL())
	require.Equal(t, "https://example.cybozu.com", c.GetKintoneBaseURL())
	require.Equal(t, "42", c.GetKintoneAppID())
	require.Equal(t, config.FlowStoreCookie, c.GetFlowStore())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", ":9000")
	t.Setenv("ENV", "prod")
	t.Setenv("OAUTH_SCOPE", "k:app_record:read k:app_settings:read")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("KINTONE_BASE_URL", "http://127.0.0.1:4000/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("FLOW_STORE", "memory")

	c, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
	require.Equal(t, []string{"k:app_record:read", "k:app_settings:read"}, c.GetScopes())
	require.Equal(t, 3*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "http://127.0.0.1:4000", c.GetKintoneBaseURL())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, c.GetAllowedOrigins())
	require.Equal(t, config.FlowStoreMemory, c.GetFlowStore())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "CLIENT_ID=from-file\nCLIENT_SECRET=s\nOAUTH_ISSUER=https://issuer.example\nKINTONE_SUBDOMAIN=x.cybozu.com\nKINTONE_APP_ID=7\n"
	require.NoError(t, os.WriteFile(envFile, []byte(contents), 0o600))

	// godotenv never overrides variables that are already set. t.Setenv
	// restores the originals once the test ends.
	for _, k := range []string{"CLIENT_ID", "CLIENT_SECRET", "OAUTH_ISSUER", "KINTONE_SUBDOMAIN", "KINTONE_APP_ID"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	c, err := config.Load(envFile)
	require.NoError(t, err)
	require.Equal(t, "from-file", c.GetClientID())
	require.Equal(t, "https://issuer.example", c.GetIssuer())
}

func TestLoad_MissingDotEnvFileIsIgnored(t *testing.T) {
	setRequiredEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Settings {
		return config.Settings{
			OAuth: config.OAuth{
				ClientID:              "client",
				ClientSecret:          "secret",
				AuthorizationEndpoint: "https://idp/authorize",
				TokenEndpoint:         "https://idp/token",
				Scopes:                []string{config.DefaultScope},
				HTTPTimeout:           time.Second,
			},
			Kintone:  config.Kintone{Subdomain: "x.cybozu.com", AppID: "1"},
			Security: config.Security{FlowStore: config.FlowStoreCookie},
		}
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("issuer replaces endpoints", func(t *testing.T) {
		s := valid()
		s.AuthorizationEndpoint = ""
		s.TokenEndpoint = ""
		s.Issuer = "https://idp"
		require.NoError(t, s.Validate())
	})

	t.Run("reports every missing field", func(t *testing.T) {
		err := config.Settings{}.Validate()
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrMisconfigured))
		for _, name := range []string{"CLIENT_ID", "CLIENT_SECRET", "AUTHORIZATION_ENDPOINT", "OAUTH_SCOPE", "HTTP_TIMEOUT", "KINTONE_SUBDOMAIN", "KINTONE_APP_ID", "FLOW_STORE"} {
			require.Contains(t, err.Error(), name)
		}
	})

	t.Run("unknown flow store", func(t *testing.T) {
		s := valid()
		s.FlowStore = "redis"
		err := s.Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "FLOW_STORE")
	})
}
