package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

// PackageService serves read-only package lookups.
type PackageService struct {
	packages repository.PackageRepository
	logger   *slog.Logger
}

func NewPackageService(packages repository.PackageRepository, logger *slog.Logger) *PackageService {
	return &PackageService{packages: packages, logger: logger}
}

// GetByName returns apperror.ErrNotFound for an unknown package.
func (s *PackageService) GetByName(ctx context.Context, name string) (*model.Package, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "package name is required")
	}
	return s.packages.GetPackageByName(ctx, name)
}

// ListByOwner returns one page of the packages ownerID owns, newest first.
func (s *PackageService) ListByOwner(ctx context.Context, ownerID int64, page, perPage int) (*model.PackagePage, error) {
	if ownerID <= 0 {
		return nil, apperror.ValidationFailed("user_id", "user_id must be a positive integer")
	}
	offset, err := pageWindow(page, perPage)
	if err != nil {
		return nil, err
	}

	pkgs, err := s.packages.ListByOwner(ctx, ownerID, repository.ListOptions{
		Limit:  perPage + 1,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list packages",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing packages for owner %d: %w", ownerID, err)
	}

	more := len(pkgs) > perPage
	if more {
		pkgs = pkgs[:perPage]
	}
	return &model.PackagePage{Packages: pkgs, More: more}, nil
}
