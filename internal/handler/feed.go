package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/service"
)

// FeedHandler serves the caller's update feed.
type FeedHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

func NewFeedHandler(svc *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: svc, logger: logger}
}

type UpdatesResponse struct {
	Versions []model.VersionSummary `json:"versions"`
	Meta     Meta                   `json:"meta"`
}

// HandleUpdates returns one page of versions of followed packages.
//
// HTTP: GET /me/updates?page=1&per_page=10
func (h *FeedHandler) HandleUpdates(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := paging(r, service.DefaultPerPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	feed, err := h.feed.Updates(r.Context(), callerID(r), page, perPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	versions := feed.Versions
	if versions == nil {
		versions = []model.VersionSummary{}
	}
	writeJSON(w, http.StatusOK, UpdatesResponse{Versions: versions, Meta: Meta{More: feed.More}})
}
