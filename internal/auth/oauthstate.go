package auth

import (
	"crypto/rand"
	"crypto/subtle"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
)

// StateCookie carries the pending CSRF token between /authorize_url and the
// OAuth callback.
const StateCookie = "oauth_state"

// PendingState is a login that has been started but not completed. The CSRF
// token was handed to the browser along with the authorize URL and must come
// back unchanged on the callback.
//
// STATE MACHINE:
//
//	(none) ──NewPendingState──▶ PendingState ──Complete(ok)──▶ Authenticated
//	                                 │
//	                                 └──Complete(bad)──▶ ErrInvalidState
//
// A PendingState is single-use: the callback handler clears the cookie on
// every outcome, so a replayed callback finds no pending login at all.
//
// WHY CHECK STATE FIRST?
// Without it, an attacker could send a victim to /authorize with the
// attacker's own code and sign the victim in as the attacker. Rejecting a
// mismatched state before the code exchange means a forged callback never
// reaches GitHub or the users table.
type PendingState struct {
	CSRFToken string
}

// Authenticated is a login that passed the state check and was reconciled
// into a stored user.
type Authenticated struct {
	User *model.User
}

// NewPendingState starts a login with a fresh random CSRF token.
func NewPendingState() (*PendingState, error) {
	token, err := randomToken(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PendingState{CSRFToken: token}, nil
}

// Complete checks the state returned by the provider. An empty or
// mismatching value fails with apperror.ErrInvalidState.
func (p *PendingState) Complete(state string) error {
	if p == nil || p.CSRFToken == "" || state == "" {
		return apperror.InvalidState()
	}
	if subtle.ConstantTimeCompare([]byte(p.CSRFToken), []byte(state)) != 1 {
		return apperror.InvalidState()
	}
	return nil
}
