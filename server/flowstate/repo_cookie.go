package flowstate

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-pkce-gateway/server/cookiestore"
)

const (
	StateCookieName    = "oauth_state"
	VerifierCookieName = "code_verifier"
)

// CookieRepo keeps the pending flow in the browser: the state in
// oauth_state and, when the server generated it, the verifier in
// code_verifier.
type CookieRepo struct {
	store  *cookiestore.Store
	policy cookiestore.Policy
}

var _ Repo = (*CookieRepo)(nil)

func NewCookieRepo(store *cookiestore.Store, ttl time.Duration) *CookieRepo {
	return &CookieRepo{
		store:  store,
		policy: cookiestore.Policy{SameSite: http.SameSiteLaxMode, MaxAge: ttl},
	}
}

func (c *CookieRepo) Save(w http.ResponseWriter, _ *http.Request, flow PendingFlow) {
	c.store.Put(w, StateCookieName, flow.State, c.policy)
	if flow.CodeVerifier == "" {
		// A verifier left over from an earlier server-owned flow must not be
		// paired with this state
		c.store.Clear(w, VerifierCookieName, c.policy)
		return
	}
	c.store.Put(w, VerifierCookieName, flow.CodeVerifier, c.policy)
}

func (c *CookieRepo) Load(r *http.Request) (PendingFlow, bool) {
	state, ok := c.store.Get(r, StateCookieName)
	if !ok || state.Value == "" {
		return PendingFlow{}, false
	}

	flow := PendingFlow{State: state.Value, CreatedAt: state.IssuedAt}
	if verifier, ok := c.store.Get(r, VerifierCookieName); ok {
		flow.CodeVerifier = verifier.Value
	}
	return flow, true
}

// Take returns the flow and expires its cookies. The browser holds the
// only copy, so a request replaying the old cookies still finds it.
func (c *CookieRepo) Take(w http.ResponseWriter, r *http.Request) (PendingFlow, bool) {
	flow, ok := c.Load(r)
	c.Clear(w, r)
	return flow, ok
}

func (c *CookieRepo) Clear(w http.ResponseWriter, _ *http.Request) {
	c.store.Clear(w, StateCookieName, c.policy)
	c.store.Clear(w, VerifierCookieName, c.policy)
}
