package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
)

func newTestPackageService(t *testing.T, owned int) *PackageService {
	t.Helper()
	repo := newFakePackageRepo()
	for i := 0; i < owned; i++ {
		pkg := &model.Package{Name: fmt.Sprintf("pkg-%d", i), OwnerID: 7}
		if err := repo.CreatePackage(context.Background(), pkg); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	repo.CreatePackage(context.Background(), &model.Package{Name: "other", OwnerID: 8})
	return NewPackageService(repo, discardLogger())
}

func TestPackageService_ListByOwner(t *testing.T) {
	svc := newTestPackageService(t, 3)

	page, err := svc.ListByOwner(context.Background(), 7, 1, 2)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(page.Packages) != 2 || !page.More {
		t.Fatalf("page 1: %d packages, more=%v", len(page.Packages), page.More)
	}

	page, _ = svc.ListByOwner(context.Background(), 7, 2, 2)
	if len(page.Packages) != 1 || page.More {
		t.Fatalf("page 2: %d packages, more=%v", len(page.Packages), page.More)
	}
}

func TestPackageService_ListByOwner_Validation(t *testing.T) {
	svc := newTestPackageService(t, 1)

	if _, err := svc.ListByOwner(context.Background(), 0, 1, 10); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("owner 0 error = %v, want ErrValidation", err)
	}
	if _, err := svc.ListByOwner(context.Background(), 7, 0, 10); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("page 0 error = %v, want ErrValidation", err)
	}
	if _, err := svc.ListByOwner(context.Background(), 7, math.MaxInt/10+2, 10); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("overflowing page error = %v, want ErrValidation", err)
	}
}

func TestPackageService_GetByName(t *testing.T) {
	svc := newTestPackageService(t, 1)

	pkg, err := svc.GetByName(context.Background(), "pkg-0")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if pkg.OwnerID != 7 {
		t.Errorf("OwnerID = %d, want 7", pkg.OwnerID)
	}

	if _, err := svc.GetByName(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByName(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty error = %v, want ErrValidation", err)
	}
}
