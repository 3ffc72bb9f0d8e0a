package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	// verifierEntropyBytes yields a 43 character verifier once encoded
	verifierEntropyBytes = 32
	stateEntropyBytes    = 16

	MinVerifierLength = 43
	MaxVerifierLength = 128

	// MethodS256 is the only challenge method this gateway sends
	MethodS256 = "S256"
)

// RandomBytes returns n bytes from the operating system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("[pkce RandomBytes] reading %d random bytes: %w", n, err)
	}
	return b, nil
}

// SHA256 returns the 32 byte digest of input.
func SHA256(input []byte) []byte {
	sum := sha256.Sum256(input)
	return sum[:]
}

// Base64URLEncode encodes with the URL-safe alphabet and strips padding.
func Base64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateCodeVerifier creates a fresh high-entropy code_verifier (RFC 7636 §4.1).
func GenerateCodeVerifier() (string, error) {
	b, err := RandomBytes(verifierEntropyBytes)
	if err != nil {
		return "", err
	}
	return Base64URLEncode(b), nil
}

// GenerateCodeChallenge derives the S256 code_challenge for a verifier.
func GenerateCodeChallenge(verifier string) string {
	return Base64URLEncode(SHA256([]byte(verifier)))
}

// GenerateState creates the anti-CSRF state value: 16 random bytes, hex encoded.
func GenerateState() (string, error) {
	b, err := RandomBytes(stateEntropyBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidateCodeVerifier checks a caller supplied verifier against the RFC 7636
// length and character constraints.
func ValidateCodeVerifier(verifier string) error {
	if len(verifier) < MinVerifierLength || len(verifier) > MaxVerifierLength {
		return fmt.Errorf("code_verifier length must be between %d and %d characters", MinVerifierLength, MaxVerifierLength)
	}
	for i := 0; i < len(verifier); i++ {
		if !isUnreserved(verifier[i]) {
			return fmt.Errorf("code_verifier contains invalid character %q", verifier[i])
		}
	}
	return nil
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
