package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
)

func newTestFollowService(t *testing.T) (*FollowService, *fakePackageRepo) {
	t.Helper()
	repo := newFakePackageRepo()
	if err := repo.CreatePackage(context.Background(), &model.Package{Name: "foo_fighters", OwnerID: 1}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return NewFollowService(repo, discardLogger()), repo
}

func TestFollowService_FollowAndUnfollow(t *testing.T) {
	svc, _ := newTestFollowService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.Follow(ctx, 1, "foo_fighters"); err != nil {
			t.Fatalf("Follow() call %d error = %v", i+1, err)
		}
	}
	following, err := svc.IsFollowing(ctx, 1, "foo_fighters")
	if err != nil || !following {
		t.Fatalf("IsFollowing() = %v, %v; want true, nil", following, err)
	}

	if err := svc.Unfollow(ctx, 1, "foo_fighters"); err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}
	following, err = svc.IsFollowing(ctx, 1, "foo_fighters")
	if err != nil || following {
		t.Fatalf("IsFollowing() = %v, %v; want false, nil", following, err)
	}
}

func TestFollowService_RequiresCaller(t *testing.T) {
	svc, _ := newTestFollowService(t)
	ctx := context.Background()

	if err := svc.Follow(ctx, 0, "foo_fighters"); !errors.Is(err, apperror.ErrAuthRequired) {
		t.Errorf("Follow() error = %v, want ErrAuthRequired", err)
	}
	if err := svc.Unfollow(ctx, -1, "foo_fighters"); !errors.Is(err, apperror.ErrAuthRequired) {
		t.Errorf("Unfollow() error = %v, want ErrAuthRequired", err)
	}
	if _, err := svc.IsFollowing(ctx, 0, "foo_fighters"); !errors.Is(err, apperror.ErrAuthRequired) {
		t.Errorf("IsFollowing() error = %v, want ErrAuthRequired", err)
	}
}

func TestFollowService_UnknownPackage(t *testing.T) {
	svc, _ := newTestFollowService(t)

	if err := svc.Follow(context.Background(), 1, "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Follow() error = %v, want ErrNotFound", err)
	}
}

func TestFollowService_EmptyName(t *testing.T) {
	svc, _ := newTestFollowService(t)

	if err := svc.Follow(context.Background(), 1, "  "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Follow() error = %v, want ErrValidation", err)
	}
}
