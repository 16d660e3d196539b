package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/service"
)

// PackageHandler serves read-only package endpoints.
type PackageHandler struct {
	packages *service.PackageService
	logger   *slog.Logger
}

func NewPackageHandler(svc *service.PackageService, logger *slog.Logger) *PackageHandler {
	return &PackageHandler{packages: svc, logger: logger}
}

type PackageListResponse struct {
	Packages []model.Package `json:"packages"`
	Meta     Meta            `json:"meta"`
}

type PackageShowResponse struct {
	Package *model.Package `json:"package"`
}

// HandleList lists the packages a user owns.
//
// HTTP: GET /api/v1/packages?user_id=...&page=...&per_page=...
func (h *PackageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("user_id") == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("user_id", "user_id is required"))
		return
	}
	ownerID, err := queryInt(r, "user_id", 0)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, perPage, err := paging(r, service.DefaultPerPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.packages.ListByOwner(r.Context(), int64(ownerID), page, perPage)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pkgs := result.Packages
	if pkgs == nil {
		pkgs = []model.Package{}
	}
	writeJSON(w, http.StatusOK, PackageListResponse{Packages: pkgs, Meta: Meta{More: result.More}})
}

// HandleShow returns a single package.
//
// HTTP: GET /api/v1/packages/{name}
func (h *PackageHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.packages.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, PackageShowResponse{Package: pkg})
}
