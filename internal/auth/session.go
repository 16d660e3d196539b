// Package auth holds the identity plumbing that sits below the service layer:
// GitHub OAuth, the OAuth state machine, session cookies, API tokens and the
// middleware that turns an incoming request into a caller.
//
// A request can carry identity in two ways:
//
//	browser  → "session" cookie, a signed JWT whose subject is the user id
//	CLI/API  → Authorization header holding the user's opaque API token
//
// The JWT needs no storage to verify; the API token is a lookup key into the
// users table and can be rotated at any time.
//
// LOGIN FLOW:
// 1. GET /authorize_url → a PendingState is created, its CSRF token goes into
//    the oauth_state cookie and the state= parameter of the GitHub URL
// 2. GitHub sends the browser back to /authorize?state=...&code=...
// 3. The state is compared with the cookie BEFORE GitHub or the DB is touched
// 4. The code is exchanged for a GitHub identity, which is reconciled into a user
// 5. A session JWT is set as the "session" cookie; oauth_state is cleared
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// SessionCookie carries the signed session JWT.
	SessionCookie = "session"

	sessionIssuer = "package-registry"
)

// SessionService signs and verifies session JWTs.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a SessionService. The secret must be at least
// 16 characters; ttl must be positive.
func NewSessionService(secret string, ttl time.Duration) (*SessionService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	return &SessionService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long an issued session stays valid.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a session for userID that expires after the configured TTL.
func (s *SessionService) Issue(userID int64) (string, error) {
	return s.IssueWithDuration(userID, s.ttl)
}

// IssueWithDuration signs a session with a custom lifetime. Tests use a
// negative duration to mint already-expired sessions.
func (s *SessionService) IssueWithDuration(userID int64, d time.Duration) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("auth: invalid user id %d", userID)
	}

	now := time.Now()
	c := jwt.RegisteredClaims{
		ID:        xid.New().String(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    sessionIssuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, nil
}

// Validate verifies a session JWT and returns the user id in its subject.
// Only HS256 tokens from this issuer with an expiry are accepted.
func (s *SessionService) Validate(tokenStr string) (int64, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errors.New("auth: session expired")
		}
		return 0, fmt.Errorf("auth: invalid session: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("auth: invalid session")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("auth: session has bad subject %q", c.Subject)
	}
	return userID, nil
}
