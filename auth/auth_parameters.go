package auth

// ResponseType represents the OAuth 2.0 response type requested at the
// authorization endpoint. Only the authorization code flow is used.
type ResponseType string

const CodeResponseType ResponseType = "code"

// CodeMethodType represents the PKCE challenge method sent with the
// authorization request. Only S256 is ever sent; "plain" would expose the
// verifier in the redirect.
type CodeMethodType string

const CodeMethodTypeS256 CodeMethodType = "S256"

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const AuthorizationCodeGrant GrantType = "authorization_code"

// InitiateRequest starts a flow. CodeVerifier is the deprecated
// browser-owned variant: when empty the server generates and keeps the
// verifier itself.
type InitiateRequest struct {
	RedirectURI  string
	CodeVerifier string
}

// InitiateResult is what the browser needs to follow the redirect. State is
// echoed for clients that check it on the callback page.
type InitiateResult struct {
	AuthorizationURL string
	State            string
}

// ExchangeRequest carries the callback parameters back from the browser.
// CodeVerifier is only consulted when the server does not hold one.
type ExchangeRequest struct {
	Code         string
	RedirectURI  string
	State        string
	CodeVerifier string
}
