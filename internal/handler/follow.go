package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/package-registry/internal/service"
)

// FollowHandler serves follow edges. All routes require a caller.
type FollowHandler struct {
	follows *service.FollowService
	logger  *slog.Logger
}

func NewFollowHandler(svc *service.FollowService, logger *slog.Logger) *FollowHandler {
	return &FollowHandler{follows: svc, logger: logger}
}

type FollowingResponse struct {
	Following bool `json:"following"`
}

// HandleFollow is idempotent.
//
// HTTP: PUT /api/v1/packages/{name}/follow
func (h *FollowHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	if err := h.follows.Follow(r.Context(), callerID(r), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleUnfollow succeeds even if the caller never followed the package.
//
// HTTP: DELETE /api/v1/packages/{name}/follow
func (h *FollowHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.follows.Unfollow(r.Context(), callerID(r), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleFollowing reports whether the caller follows the package.
//
// HTTP: GET /api/v1/packages/{name}/following
func (h *FollowHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.follows.IsFollowing(r.Context(), callerID(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FollowingResponse{Following: following})
}
