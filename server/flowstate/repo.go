package flowstate

import (
	"net/http"
	"time"
)

// DefaultTTL bounds how long a pending flow can wait for its callback.
const DefaultTTL = 600 * time.Second

// PendingFlow is the server-held half of an authorization request that has
// been initiated but not yet exchanged. CodeVerifier is empty when the
// browser owns the verifier.
type PendingFlow struct {
	State        string
	CodeVerifier string
	CreatedAt    time.Time
}

// Expired reports whether the flow is older than ttl at now.
func (p PendingFlow) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(p.CreatedAt.Add(ttl))
}

// Repo holds at most one pending flow per browser. Saving replaces any
// earlier flow. Operations are fire-and-forget: failures surface as a
// missing flow on the next Load.
//
// Take loads and clears in one step. Of any number of concurrent Takes for
// the same flow at most one returns it.
type Repo interface {
	Save(w http.ResponseWriter, r *http.Request, flow PendingFlow)
	Load(r *http.Request) (PendingFlow, bool)
	Take(w http.ResponseWriter, r *http.Request) (PendingFlow, bool)
	Clear(w http.ResponseWriter, r *http.Request)
}
