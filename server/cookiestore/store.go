package cookiestore

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"
)

const (
	// MaxLifetime caps every cookie written through the store
	MaxLifetime = 7 * 24 * time.Hour
	minLifetime = time.Second

	keyLength = 32
	keyInfo   = "go-pkce-gateway cookie signing"
)

// Policy holds the per-cookie knobs. HttpOnly, Secure and Path=/ are not
// configurable.
type Policy struct {
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Entry is a value read back from a verified cookie.
type Entry struct {
	Value    string
	IssuedAt time.Time
}

// Store reads and writes signed cookies. Values are wrapped in a compact
// HS256 JWT whose subject is the cookie name, so a value copied into another
// cookie fails verification.
type Store struct {
	key []byte
	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source used for issuing and verifying cookies.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type cookieClaims struct {
	Value string `json:"v"`
	jwt.RegisteredClaims
}

// New derives the signing key from secret with HKDF-SHA256.
func New(secret []byte, opts ...Option) (*Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("[cookiestore New] secret cannot be empty")
	}

	key := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("[cookiestore New] deriving key: %w", err)
	}

	s := &Store{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put sets the cookie, replacing any previous value under name.
func (s *Store) Put(w http.ResponseWriter, name, value string, p Policy) {
	maxAge := clampLifetime(p.MaxAge)
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		Value: value,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(maxAge)),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		log.Err(err).Str("cookie", name).Msg("Failed to sign cookie")
		return
	}

	http.SetCookie(w, newCookie(name, signed, p.SameSite, int(maxAge/time.Second)))
}

// Get returns the verified cookie value. Missing, tampered and expired
// cookies all read as absent.
func (s *Store) Get(r *http.Request, name string) (Entry, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return Entry{}, false
	}

	var claims cookieClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims,
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(name),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		log.Debug().Err(err).Str("cookie", name).Msg("Ignoring unverifiable cookie")
		return Entry{}, false
	}

	entry := Entry{Value: claims.Value}
	if claims.IssuedAt != nil {
		entry.IssuedAt = claims.IssuedAt.Time
	}
	return entry, true
}

// Clear deletes the cookie. Clearing an absent cookie is harmless.
func (s *Store) Clear(w http.ResponseWriter, name string, p Policy) {
	http.SetCookie(w, newCookie(name, "", p.SameSite, -1))
}

func newCookie(name, value string, sameSite http.SameSite, maxAge int) *http.Cookie {
	if sameSite != http.SameSiteStrictMode {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
		MaxAge:   maxAge,
	}
}

func clampLifetime(d time.Duration) time.Duration {
	switch {
	case d > MaxLifetime:
		return MaxLifetime
	case d < minLifetime:
		return minLifetime
	}
	return d
}
