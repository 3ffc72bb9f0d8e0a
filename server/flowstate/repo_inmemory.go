package flowstate

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-pkce-gateway/server/cookiestore"
)

const (
	FlowCookieName = "oauth_flow"

	// DefaultMaxFlows caps how many pending flows are held at once.
	DefaultMaxFlows = 10000
)

// InMemoryRepo is a thread-safe server-side Repo. The browser only holds an
// opaque flow id in the oauth_flow cookie; state and verifier never leave
// the process.
type InMemoryRepo struct {
	mu     sync.RWMutex
	flows  map[string]PendingFlow
	store  *cookiestore.Store
	policy cookiestore.Policy
	ttl    time.Duration
	max    int
	now    func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryOption func(*InMemoryRepo)

// WithInMemoryClock overrides the time source used for expiry.
func WithInMemoryClock(now func() time.Time) InMemoryOption {
	return func(m *InMemoryRepo) {
		m.now = now
	}
}

// WithMaxFlows bounds the number of pending flows. When full, saving a new
// flow evicts the oldest one.
func WithMaxFlows(n int) InMemoryOption {
	return func(m *InMemoryRepo) {
		if n > 0 {
			m.max = n
		}
	}
}

// NewInMemoryRepo creates a new in-memory pending flow repository
func NewInMemoryRepo(store *cookiestore.Store, ttl time.Duration, opts ...InMemoryOption) *InMemoryRepo {
	m := &InMemoryRepo{
		flows:  make(map[string]PendingFlow),
		store:  store,
		policy: cookiestore.Policy{SameSite: http.SameSiteLaxMode, MaxAge: ttl},
		ttl:    ttl,
		max:    DefaultMaxFlows,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save stores the flow under the browser's existing flow id, or a new one.
func (m *InMemoryRepo) Save(w http.ResponseWriter, r *http.Request, flow PendingFlow) {
	id, ok := m.flowID(r)
	if !ok {
		id = uuid.NewString()
	}
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = m.now()
	}

	m.mu.Lock()
	if _, exists := m.flows[id]; !exists && len(m.flows) >= m.max {
		m.sweepLocked()
		if len(m.flows) >= m.max {
			m.evictOldestLocked()
		}
	}
	m.flows[id] = flow
	m.mu.Unlock()

	m.store.Put(w, FlowCookieName, id, m.policy)
}

func (m *InMemoryRepo) Load(r *http.Request) (PendingFlow, bool) {
	id, ok := m.flowID(r)
	if !ok {
		return PendingFlow{}, false
	}

	m.mu.RLock()
	flow, exists := m.flows[id]
	m.mu.RUnlock()

	if !exists || flow.Expired(m.now(), m.ttl) {
		return PendingFlow{}, false
	}
	return flow, true
}

// Take removes the flow under the write lock, so only one of several
// concurrent callers holding the same flow id gets it.
func (m *InMemoryRepo) Take(w http.ResponseWriter, r *http.Request) (PendingFlow, bool) {
	id, ok := m.flowID(r)
	m.store.Clear(w, FlowCookieName, m.policy)
	if !ok {
		return PendingFlow{}, false
	}

	m.mu.Lock()
	flow, exists := m.flows[id]
	delete(m.flows, id)
	m.mu.Unlock()

	if !exists || flow.Expired(m.now(), m.ttl) {
		return PendingFlow{}, false
	}
	return flow, true
}

func (m *InMemoryRepo) Clear(w http.ResponseWriter, r *http.Request) {
	if id, ok := m.flowID(r); ok {
		m.mu.Lock()
		delete(m.flows, id)
		m.mu.Unlock()
	}
	m.store.Clear(w, FlowCookieName, m.policy)
}

// Sweep drops expired flows and returns how many remain.
func (m *InMemoryRepo) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.flows)
}

// Run sweeps expired flows every interval until ctx is done.
func (m *InMemoryRepo) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *InMemoryRepo) sweepLocked() {
	now := m.now()
	for id, flow := range m.flows {
		if flow.Expired(now, m.ttl) {
			delete(m.flows, id)
		}
	}
}

func (m *InMemoryRepo) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, flow := range m.flows {
		if oldestID == "" || flow.CreatedAt.Before(oldest) {
			oldestID, oldest = id, flow.CreatedAt
		}
	}
	delete(m.flows, oldestID)
}

func (m *InMemoryRepo) flowID(r *http.Request) (string, bool) {
	entry, ok := m.store.Get(r, FlowCookieName)
	if !ok || entry.Value == "" {
		return "", false
	}
	return entry.Value, true
}
