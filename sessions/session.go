package sessions

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-pkce-gateway/server/cookiestore"
)

// AccessTokenCookieName holds the bearer token issued by the authorization server.
const AccessTokenCookieName = "access_token"

// DefaultAccessTokenTTL matches the lifetime of the access_token cookie.
const DefaultAccessTokenTTL = 7 * 24 * time.Hour

// AccessToken is owned exclusively by the access_token cookie.
type AccessToken struct {
	Value    string
	IssuedAt time.Time
}

// Guard answers "is this browser signed in" by the presence of the access
// token cookie. It never validates the token against the resource server.
type Guard struct {
	store  *cookiestore.Store
	policy cookiestore.Policy
}

func NewGuard(store *cookiestore.Store, ttl time.Duration) *Guard {
	return &Guard{
		store:  store,
		policy: cookiestore.Policy{SameSite: http.SameSiteStrictMode, MaxAge: ttl},
	}
}

// IsAuthenticated is true iff a non-empty access token cookie is present.
func (g *Guard) IsAuthenticated(r *http.Request) bool {
	_, ok := g.BearerToken(r)
	return ok
}

// BearerToken returns the stored access token for downstream calls.
func (g *Guard) BearerToken(r *http.Request) (AccessToken, bool) {
	entry, ok := g.store.Get(r, AccessTokenCookieName)
	if !ok || entry.Value == "" {
		return AccessToken{}, false
	}
	return AccessToken{Value: entry.Value, IssuedAt: entry.IssuedAt}, true
}

// Persist writes the access token cookie, replacing any earlier token.
func (g *Guard) Persist(w http.ResponseWriter, token AccessToken) {
	if token.Value == "" {
		return
	}
	g.store.Put(w, AccessTokenCookieName, token.Value, g.policy)
}

// Logout deletes the access token cookie. It is safe to call when signed out.
func (g *Guard) Logout(w http.ResponseWriter) {
	g.store.Clear(w, AccessTokenCookieName, g.policy)
}
