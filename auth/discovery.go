package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ResolveEndpoint returns the authorization server endpoints. Explicitly
// configured URLs win; anything missing is discovered from the issuer's
// OpenID configuration document.
func ResolveEndpoint(ctx context.Context, authURL, tokenURL, issuer string, client *http.Client) (oauth2.Endpoint, error) {
	endpoint := oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
	if endpoint.AuthURL != "" && endpoint.TokenURL != "" {
		return endpoint, nil
	}
	if issuer == "" {
		return oauth2.Endpoint{}, fmt.Errorf("[auth ResolveEndpoint] no endpoints configured and no issuer to discover them from")
	}

	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("[auth ResolveEndpoint] discovering %s: %w", issuer, err)
	}

	discovered := provider.Endpoint()
	if endpoint.AuthURL == "" {
		endpoint.AuthURL = discovered.AuthURL
	}
	if endpoint.TokenURL == "" {
		endpoint.TokenURL = discovered.TokenURL
	}
	return endpoint, nil
}
