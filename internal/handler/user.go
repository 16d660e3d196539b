package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/service"
)

// UserHandler serves public user profiles.
type UserHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: svc, logger: logger}
}

type UserShowResponse struct {
	User model.PublicUser `json:"user"`
}

// HandleShow returns a user's public profile. Tokens are never included.
//
// HTTP: GET /api/v1/users/{login}
func (h *UserHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.UserByLogin(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UserShowResponse{User: user.Public()})
}
