// Package service holds the business rules between the HTTP handlers and the
// repositories:
//
//	Handler (HTTP) → Service (rules, orchestration) → Repository (SQL)
//
// Services take repository interfaces and small collaborator interfaces, so
// tests run them against in-memory fakes. They return apperror values and
// never know about status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/auth"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

// MaxTokenAttempts bounds how many fresh API tokens a single write draws
// before a collision is treated as an internal failure.
const MaxTokenAttempts = 5

// IdentityProvider is the OAuth provider as the auth service sees it.
// *auth.GitHubProvider satisfies it.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*model.Identity, error)
}

// TokenGenerator draws opaque API tokens. *auth.APITokens satisfies it.
type TokenGenerator interface {
	Generate() (string, error)
}

// SessionIssuer signs session cookies. *auth.SessionService satisfies it.
type SessionIssuer interface {
	Issue(userID int64) (string, error)
}

// AuthService runs sign-in, the API token lifecycle and user lookups.
type AuthService struct {
	users    repository.UserRepository
	provider IdentityProvider
	tokens   TokenGenerator
	sessions SessionIssuer
	logger   *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	provider IdentityProvider,
	tokens TokenGenerator,
	sessions SessionIssuer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		provider: provider,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// LoginResult is a completed sign-in plus the session to hand the browser.
type LoginResult struct {
	auth.Authenticated
	Session string
}

// AuthorizeURL starts a sign-in. The returned pending state must be kept by
// the caller (the handler puts it in a cookie) and passed to CompleteLogin.
func (s *AuthService) AuthorizeURL() (string, *auth.PendingState, error) {
	pending, err := auth.NewPendingState()
	if err != nil {
		return "", nil, fmt.Errorf("service/auth: starting login: %w", err)
	}
	return s.provider.AuthURL(pending.CSRFToken), pending, nil
}

// CompleteLogin finishes a sign-in started by AuthorizeURL.
//
// The state check runs before anything else: a mismatching state never
// reaches the provider or the Identity Store. The identity is then reconciled
// into a stored user and a session is issued for it.
func (s *AuthService) CompleteLogin(ctx context.Context, pending *auth.PendingState, state, code string) (*LoginResult, error) {
	if err := pending.Complete(state); err != nil {
		return nil, err
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth code exchange failed", slog.String("error", err.Error()))
		return nil, apperror.ValidationFailed("code", "could not complete sign-in with GitHub")
	}

	user, err := s.Reconcile(ctx, identity)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for user %d: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("login", user.Login),
	)

	return &LoginResult{
		Authenticated: auth.Authenticated{User: user},
		Session:       session,
	}, nil
}

// Reconcile creates or refreshes the user behind identity. A new user gets a
// freshly drawn API token; an existing one keeps theirs.
func (s *AuthService) Reconcile(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if identity == nil || identity.GitHubID == 0 {
		return nil, errors.New("service/auth: identity must have a GitHub id")
	}

	var user *model.User
	// A candidate API token is drawn on every sign-in, but the store only
	// uses it when the upsert inserts a new row. An existing user keeps their
	// token and this one is discarded.
	err := s.withFreshToken(ctx, "reconcile", func(token string) error {
		candidate := &model.User{
			GitHubID:          identity.GitHubID,
			Login:             identity.Login,
			Email:             identity.Email,
			AvatarURL:         identity.AvatarURL,
			Name:              identity.Name,
			GitHubAccessToken: identity.AccessToken,
			APIToken:          token,
		}
		if err := s.users.Reconcile(ctx, candidate); err != nil {
			return err
		}
		user = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: reconciling github user %d: %w", identity.GitHubID, err)
	}
	return user, nil
}

// Me returns the caller's full record, API token included.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, apperror.AuthRequired()
	}
	return s.users.GetUserByID(ctx, userID)
}

// RotateToken replaces the caller's API token. The previous token stops
// authenticating as soon as this returns.
func (s *AuthService) RotateToken(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, apperror.AuthRequired()
	}

	var user *model.User
	err := s.withFreshToken(ctx, "rotate", func(token string) error {
		rotated, err := s.users.RotateAPIToken(ctx, userID, token)
		if err != nil {
			return err
		}
		user = rotated
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: rotating token for user %d: %w", userID, err)
	}

	s.logger.Info("api token rotated", slog.Int64("userID", userID))
	return user, nil
}

// UserByLogin looks up a user for the public profile endpoint.
func (s *AuthService) UserByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperror.ValidationFailed("login", "login is required")
	}
	return s.users.GetByLogin(ctx, login)
}

// withFreshToken runs write with a newly drawn token, drawing again each time
// the store reports a collision. Once MaxTokenAttempts are spent the collision
// is reported as an internal failure that no longer matches ErrConflict.
func (s *AuthService) withFreshToken(ctx context.Context, op string, write func(token string) error) error {
	for attempt := 1; attempt <= MaxTokenAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		token, err := s.tokens.Generate()
		if err != nil {
			return err
		}

		err = write(token)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return err
		}

		s.logger.Warn("api token collision",
			slog.String("op", op),
			slog.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("no unique api token after %d attempts", MaxTokenAttempts)
}
