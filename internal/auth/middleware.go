package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
)

type contextKey string

const callerKey contextKey = "caller"

// UserLookup is the slice of the Identity Store the resolver needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetByAPIToken(ctx context.Context, token string) (*model.User, error)
}

// Resolver turns request credentials into a stored user.
type Resolver struct {
	sessions *SessionService
	users    UserLookup
}

func NewResolver(sessions *SessionService, users UserLookup) *Resolver {
	return &Resolver{sessions: sessions, users: users}
}

// ResolveCaller returns the user a request acts as, or (nil, nil) when the
// request carries no usable credentials.
//
// CREDENTIAL ORDER:
//
//	1. Cookie: session=<jwt>          (browser, set on login)
//	2. Authorization: <api token>     (CLI and scripts)
//	   Authorization: Bearer <token>  (also accepted)
//
// A bad or expired session
// falls through to the header. Only store failures other than NotFound are
// returned as errors.
func (res *Resolver) ResolveCaller(r *http.Request) (*model.User, error) {
	ctx := r.Context()

	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		if userID, err := res.sessions.Validate(c.Value); err == nil {
			user, err := res.users.GetUserByID(ctx, userID)
			switch {
			case err == nil:
				return user, nil
			case !errors.Is(err, apperror.ErrNotFound):
				return nil, err
			}
		}
	}

	token := apiToken(r)
	if token == "" {
		return nil, nil
	}
	user, err := res.users.GetByAPIToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func apiToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		h = strings.TrimSpace(h[len("Bearer "):])
	}
	return h
}

// Resolve stores the caller, if any, in the request context. It never
// rejects a request; pair it with RequireAuth on protected routes.
func Resolve(res *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := res.ResolveCaller(r)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, apperror.Response{
					Error:   "internal_error",
					Message: "an internal error occurred",
				})
				return
			}
			if user != nil {
				r = r.WithContext(WithCaller(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a resolved caller with 403.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CallerFromContext(r.Context()); !ok {
			err := apperror.AuthRequired()
			writeJSON(w, http.StatusForbidden, apperror.Response{
				Error:   "auth_required",
				Message: err.Message,
				Field:   err.Field,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithCaller returns a context carrying user as the caller.
func WithCaller(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, callerKey, user)
}

// CallerFromContext returns the resolved caller, if any.
func CallerFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(callerKey).(*model.User)
	return u, ok && u != nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
