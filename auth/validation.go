package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-pkce-gateway/internal/errors"
	"github.com/jrsteele09/go-pkce-gateway/pkce"
)

// Validate checks the initiate parameters. A supplied verifier must satisfy
// RFC 7636.
func (r InitiateRequest) Validate() error {
	if err := ValidateRedirectURI(r.RedirectURI); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidRequest, err)
	}
	if r.CodeVerifier != "" {
		if err := pkce.ValidateCodeVerifier(r.CodeVerifier); err != nil {
			return fmt.Errorf("%w: %s", errors.ErrInvalidRequest, err)
		}
	}
	return nil
}

// Validate checks the parameters needed for the token request. State is
// checked separately against the pending flow.
func (r ExchangeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("%w: code is required", errors.ErrInvalidRequest)
	}
	if err := ValidateRedirectURI(r.RedirectURI); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidRequest, err)
	}
	return nil
}

// ValidateRedirectURI validates redirect URI format
func ValidateRedirectURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return fmt.Errorf("redirect_uri is required")
	}
	if uri != strings.TrimSpace(uri) {
		return fmt.Errorf("redirect_uri must not contain surrounding whitespace")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("redirect_uri is not a valid URL")
	}

	// Must be absolute http:// or https://
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("redirect_uri must be an absolute http or https URL")
	}

	// Should not contain fragments
	if u.Fragment != "" || strings.Contains(uri, "#") {
		return fmt.Errorf("redirect_uri must not contain fragments")
	}

	return nil
}

// ValidateScopes validates the configured scope tokens
func ValidateScopes(scopes []string) error {
	if len(scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}
	for _, s := range scopes {
		if s == "" || strings.ContainsAny(s, " \n\r\t\"\\") {
			return fmt.Errorf("scope %q contains invalid characters", s)
		}
	}
	return nil
}
