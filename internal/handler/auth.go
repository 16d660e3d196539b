package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/package-registry/internal/auth"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/service"
)

const stateCookieTTL = 10 * time.Minute

// AuthHandler serves the sign-in flow and the caller's own account.
type AuthHandler struct {
	auth          *service.AuthService
	sessionTTL    time.Duration
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, sessionTTL time.Duration, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          svc,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type AuthorizeURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type MeResponse struct {
	User     *model.User `json:"user"`
	APIToken string      `json:"api_token"`
}

type TokenResponse struct {
	APIToken string `json:"api_token"`
}

// HandleAuthorizeURL starts a sign-in.
//
// HTTP: GET /authorize_url
//
// The CSRF token goes back in the body and in a short-lived HttpOnly cookie;
// the callback must present both.
func (h *AuthHandler) HandleAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	url, pending, err := h.auth.AuthorizeURL()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setCookie(w, auth.StateCookie, pending.CSRFToken, stateCookieTTL)
	writeJSON(w, http.StatusOK, AuthorizeURLResponse{URL: url, State: pending.CSRFToken})
}

// HandleAuthorize completes a sign-in.
//
// HTTP: GET /authorize?code=...&state=...
//
// The state cookie is single-use and cleared whatever the outcome.
func (h *AuthHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	var pending *auth.PendingState
	if c, err := r.Cookie(auth.StateCookie); err == nil {
		pending = &auth.PendingState{CSRFToken: c.Value}
	}
	h.clearCookie(w, auth.StateCookie)

	q := r.URL.Query()
	result, err := h.auth.CompleteLogin(r.Context(), pending, q.Get("state"), q.Get("code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setCookie(w, auth.SessionCookie, result.Session, h.sessionTTL)
	writeJSON(w, http.StatusOK, MeResponse{User: result.User, APIToken: result.User.APIToken})
}

// HandleLogout drops the session cookie. API tokens are unaffected.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, auth.SessionCookie)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleMe returns the caller with their API token.
//
// HTTP: GET /me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{User: user, APIToken: user.APIToken})
}

// HandleResetToken rotates the caller's API token.
//
// HTTP: PUT /me/reset_token
func (h *AuthHandler) HandleResetToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.RotateToken(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{APIToken: user.APIToken})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// callerID is the resolved caller's id, or 0 for an anonymous request. The
// services turn 0 into apperror.ErrAuthRequired.
func callerID(r *http.Request) int64 {
	if u, ok := auth.CallerFromContext(r.Context()); ok {
		return u.ID
	}
	return 0
}
