package flowstate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-pkce-gateway/server/cookiestore"
	"github.com/jrsteele09/go-pkce-gateway/server/flowstate"
	"github.com/stretchr/testify/require"
)

const (
	testState    = "0123456789abcdef0123456789abcdef"
	testVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

// browser is a minimal cookie jar: it applies Set-Cookie headers from a
// response and replays the survivors on the next request.
type browser map[string]string

func (b browser) apply(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b, c.Name)
			continue
		}
		b[c.Name] = c.Value
	}
}

func (b browser) request() *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth", nil)
	for name, value := range b {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func newCookieStore(t *testing.T, opts ...cookiestore.Option) *cookiestore.Store {
	t.Helper()
	s, err := cookiestore.New([]byte("flowstate-test-secret"), opts...)
	require.NoError(t, err)
	return s
}

func TestPendingFlow_Expired(t *testing.T) {
	created := time.Now()
	flow := flowstate.PendingFlow{CreatedAt: created}
	require.False(t, flow.Expired(created.Add(599*time.Second), flowstate.DefaultTTL))
	require.True(t, flow.Expired(created.Add(600*time.Second), flowstate.DefaultTTL))
}

func TestCookieRepo(t *testing.T) {
	repo := flowstate.NewCookieRepo(newCookieStore(t), flowstate.DefaultTTL)

	t.Run("absent", func(t *testing.T) {
		_, ok := repo.Load(browser{}.request())
		require.False(t, ok)
	})

	t.Run("server owned verifier round trip", func(t *testing.T) {
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState, CodeVerifier: testVerifier})
		b.apply(rec)

		require.Contains(t, b, flowstate.StateCookieName)
		require.Contains(t, b, flowstate.VerifierCookieName)
		for _, c := range rec.Result().Cookies() {
			require.Equal(t, 600, c.MaxAge)
			require.Equal(t, http.SameSiteLaxMode, c.SameSite)
		}

		flow, ok := repo.Load(b.request())
		require.True(t, ok)
		require.Equal(t, testState, flow.State)
		require.Equal(t, testVerifier, flow.CodeVerifier)
		require.False(t, flow.CreatedAt.IsZero())
	})

	t.Run("client owned verifier clears a stale one", func(t *testing.T) {
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: "first", CodeVerifier: testVerifier})
		b.apply(rec)

		rec = httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: "second"})
		b.apply(rec)

		require.NotContains(t, b, flowstate.VerifierCookieName)
		flow, ok := repo.Load(b.request())
		require.True(t, ok)
		require.Equal(t, "second", flow.State)
		require.Empty(t, flow.CodeVerifier)
	})

	t.Run("clear", func(t *testing.T) {
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState, CodeVerifier: testVerifier})
		b.apply(rec)

		rec = httptest.NewRecorder()
		repo.Clear(rec, b.request())
		b.apply(rec)

		require.Empty(t, b)
		_, ok := repo.Load(b.request())
		require.False(t, ok)
	})

	t.Run("take returns the flow and clears the cookies", func(t *testing.T) {
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState, CodeVerifier: testVerifier})
		b.apply(rec)

		rec = httptest.NewRecorder()
		flow, ok := repo.Take(rec, b.request())
		b.apply(rec)

		require.True(t, ok)
		require.Equal(t, testState, flow.State)
		require.Equal(t, testVerifier, flow.CodeVerifier)
		require.Empty(t, b)
	})

	t.Run("expired", func(t *testing.T) {
		now := time.Now()
		repo := flowstate.NewCookieRepo(newCookieStore(t, cookiestore.WithClock(func() time.Time { return now })), flowstate.DefaultTTL)

		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState, CodeVerifier: testVerifier})
		b.apply(rec)

		now = now.Add(flowstate.DefaultTTL + time.Second)
		_, ok := repo.Load(b.request())
		require.False(t, ok)
	})
}

func TestInMemoryRepo(t *testing.T) {
	t.Run("round trip keeps secrets server side", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState, CodeVerifier: testVerifier})
		b.apply(rec)

		require.Len(t, b, 1)
		require.Contains(t, b, flowstate.FlowCookieName)

		flow, ok := repo.Load(b.request())
		require.True(t, ok)
		require.Equal(t, testState, flow.State)
		require.Equal(t, testVerifier, flow.CodeVerifier)
		require.False(t, flow.CreatedAt.IsZero())
	})

	t.Run("absent without cookie", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)
		_, ok := repo.Load(browser{}.request())
		require.False(t, ok)
	})

	t.Run("second save replaces the first", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)
		b := browser{}
		for _, state := range []string{"first", "second"} {
			rec := httptest.NewRecorder()
			repo.Save(rec, b.request(), flowstate.PendingFlow{State: state})
			b.apply(rec)
		}

		flow, ok := repo.Load(b.request())
		require.True(t, ok)
		require.Equal(t, "second", flow.State)
		require.Equal(t, 1, repo.Sweep())
	})

	t.Run("clear", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState})
		b.apply(rec)
		stale := b.request()

		rec = httptest.NewRecorder()
		repo.Clear(rec, b.request())
		b.apply(rec)

		require.Empty(t, b)
		_, ok := repo.Load(stale)
		require.False(t, ok, "a replayed flow cookie must not resurrect the flow")
		require.Equal(t, 0, repo.Sweep())
	})

	t.Run("expiry and sweep", func(t *testing.T) {
		now := time.Now()
		clock := func() time.Time { return now }
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL, flowstate.WithInMemoryClock(clock))

		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState})
		b.apply(rec)

		now = now.Add(flowstate.DefaultTTL)
		_, ok := repo.Load(b.request())
		require.False(t, ok)
		require.Equal(t, 0, repo.Sweep())
	})

	t.Run("take is single use", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState, CodeVerifier: testVerifier})
		b.apply(rec)

		const takers = 50
		requests := make([]*http.Request, takers)
		for i := range requests {
			requests[i] = b.request()
		}

		var taken atomic.Int32
		var wg sync.WaitGroup
		for _, r := range requests {
			wg.Add(1)
			go func(r *http.Request) {
				defer wg.Done()
				rec := httptest.NewRecorder()
				if flow, ok := repo.Take(rec, r); ok {
					taken.Add(1)
					if flow.CodeVerifier != testVerifier {
						t.Errorf("unexpected verifier %q", flow.CodeVerifier)
					}
				}
				for _, c := range rec.Result().Cookies() {
					if c.Name == flowstate.FlowCookieName && c.MaxAge >= 0 {
						t.Errorf("flow cookie not cleared")
					}
				}
			}(r)
		}
		wg.Wait()

		require.Equal(t, int32(1), taken.Load())
		require.Equal(t, 0, repo.Sweep())
	})

	t.Run("take of an expired flow", func(t *testing.T) {
		now := time.Now()
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL,
			flowstate.WithInMemoryClock(func() time.Time { return now }))
		b := browser{}
		rec := httptest.NewRecorder()
		repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState})
		b.apply(rec)

		now = now.Add(flowstate.DefaultTTL)
		_, ok := repo.Take(httptest.NewRecorder(), b.request())
		require.False(t, ok)
		require.Equal(t, 0, repo.Sweep())
	})

	t.Run("max flows evicts the oldest", func(t *testing.T) {
		now := time.Now()
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL,
			flowstate.WithInMemoryClock(func() time.Time { return now }),
			flowstate.WithMaxFlows(2))

		browsers := []browser{{}, {}, {}}
		for _, b := range browsers {
			rec := httptest.NewRecorder()
			repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState})
			b.apply(rec)
			now = now.Add(time.Second)
		}

		_, ok := repo.Load(browsers[0].request())
		require.False(t, ok)
		for _, b := range browsers[1:] {
			_, ok := repo.Load(b.request())
			require.True(t, ok)
		}
		require.Equal(t, 2, repo.Sweep())

		// resaving an existing flow does not evict
		rec := httptest.NewRecorder()
		repo.Save(rec, browsers[1].request(), flowstate.PendingFlow{State: "again"})
		_, ok = repo.Load(browsers[2].request())
		require.True(t, ok)
	})

	t.Run("run stops with its context", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			repo.Run(ctx, time.Millisecond)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})

	t.Run("concurrent browsers", func(t *testing.T) {
		repo := flowstate.NewInMemoryRepo(newCookieStore(t), flowstate.DefaultTTL)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b := browser{}
				rec := httptest.NewRecorder()
				repo.Save(rec, b.request(), flowstate.PendingFlow{State: testState})
				b.apply(rec)

				flow, ok := repo.Load(b.request())
				if !ok || flow.State != testState {
					t.Errorf("flow not found for concurrent browser")
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 50, repo.Sweep())
	})
}
