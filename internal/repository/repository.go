// Package repository declares the storage contracts the service layer depends on.
// internal/repository/sqlite is the only implementation; services are tested
// against in-memory fakes of these interfaces.
package repository

import (
	"context"

	"github.com/sakif/package-registry/internal/model"
)

// ListOptions is an offset window. Implementations return at most Limit rows
// starting after Offset rows; callers that need a "more" signal ask for one
// row past the page they intend to show.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the Identity Store.
type UserRepository interface {
	// Reconcile inserts the user keyed by GitHubID or, if that identity is
	// already known, overwrites its profile fields and GitHub access token.
	// user.APIToken is only used on insert. On success *user holds the
	// stored row. A collision on the API token yields apperror.ErrConflict.
	Reconcile(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetByAPIToken(ctx context.Context, token string) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	// RotateAPIToken replaces the user's API token. A collision yields
	// apperror.ErrConflict and leaves the old token in place.
	RotateAPIToken(ctx context.Context, userID int64, token string) (*model.User, error)
}

// PackageRepository reads packages and their versions.
type PackageRepository interface {
	CreatePackage(ctx context.Context, pkg *model.Package) error
	CreateVersion(ctx context.Context, v *model.Version) error
	GetPackageByName(ctx context.Context, name string) (*model.Package, error)
	ListByOwner(ctx context.Context, ownerID int64, opts ListOptions) ([]model.Package, error)
}

// FollowRepository is the Follow Registry. Packages are addressed by name;
// an unknown name yields apperror.ErrNotFound.
type FollowRepository interface {
	Follow(ctx context.Context, userID int64, packageName string) error
	Unfollow(ctx context.Context, userID int64, packageName string) error
	IsFollowing(ctx context.Context, userID int64, packageName string) (bool, error)
}

// FeedRepository reads versions of followed packages, newest first.
type FeedRepository interface {
	Updates(ctx context.Context, userID int64, opts ListOptions) ([]model.VersionSummary, error)
}
