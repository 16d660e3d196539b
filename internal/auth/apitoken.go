package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// tokenBytes is the entropy of every API token and CSRF token: 256 bits.
const tokenBytes = 32

// APITokens issues opaque API tokens. A token is only a lookup key: its
// meaning lives entirely in the users table, which keeps it unique.
type APITokens struct {
	entropy io.Reader
}

// NewAPITokens returns an issuer reading from entropy, or from crypto/rand
// when entropy is nil.
func NewAPITokens(entropy io.Reader) *APITokens {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &APITokens{entropy: entropy}
}

// Generate returns a fresh URL-safe token of 43 characters.
func (a *APITokens) Generate() (string, error) {
	return randomToken(a.entropy)
}

func randomToken(entropy io.Reader) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := io.ReadFull(entropy, b); err != nil {
		return "", fmt.Errorf("auth: reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
