package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

// feedFixture: user foo owns foo_fighters and bar_fighters, one 1.0.0
// version each; bar_fighters was published later.
func feedFixture(t *testing.T) (*DB, *model.User) {
	t.Helper()
	db, u := newTestUserDB(t)
	user := reconcileTestUser(t, u, 1, "foo", "gh", "tok")

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	p1 := createTestPackage(t, db, user.ID, "foo_fighters")
	p2 := createTestPackage(t, db, user.ID, "bar_fighters")
	createTestVersion(t, db, p1.ID, "1.0.0", base)
	createTestVersion(t, db, p2.ID, "1.0.0", base.Add(time.Minute))
	return db, user
}

func TestUpdates_NoFollows(t *testing.T) {
	db, user := feedFixture(t)

	got, err := db.Feed().Updates(context.Background(), user.ID, repository.ListOptions{Limit: 11})
	if err != nil {
		t.Fatalf("Updates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestUpdates_NewestFirst(t *testing.T) {
	db, user := feedFixture(t)
	ctx := context.Background()
	for _, name := range []string{"foo_fighters", "bar_fighters"} {
		if err := db.Follows().Follow(ctx, user.ID, name); err != nil {
			t.Fatalf("Follow(%s): %v", name, err)
		}
	}

	got, err := db.Feed().Updates(ctx, user.ID, repository.ListOptions{Limit: 11})
	if err != nil {
		t.Fatalf("Updates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Package != "bar_fighters" || got[1].Package != "foo_fighters" {
		t.Errorf("order = [%s %s], want [bar_fighters foo_fighters]", got[0].Package, got[1].Package)
	}
	if got[0].Num != "1.0.0" {
		t.Errorf("Num = %q, want 1.0.0", got[0].Num)
	}
}

func TestUpdates_TiesBrokenByVersionID(t *testing.T) {
	db, u := newTestUserDB(t)
	user := reconcileTestUser(t, u, 1, "foo", "gh", "tok")
	pkg := createTestPackage(t, db, user.ID, "tied")

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	first := createTestVersion(t, db, pkg.ID, "0.1.0", at)
	second := createTestVersion(t, db, pkg.ID, "0.2.0", at)

	if err := db.Follows().Follow(context.Background(), user.ID, "tied"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := db.Feed().Updates(context.Background(), user.ID, repository.ListOptions{Limit: 10})
		if err != nil {
			t.Fatalf("Updates() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
			t.Fatalf("run %d: got %+v, want ids [%d %d]", i, got, second.ID, first.ID)
		}
	}
}

func TestUpdates_OffsetAndUnfollowAreLive(t *testing.T) {
	db, user := feedFixture(t)
	ctx := context.Background()
	for _, name := range []string{"foo_fighters", "bar_fighters"} {
		if err := db.Follows().Follow(ctx, user.ID, name); err != nil {
			t.Fatalf("Follow(%s): %v", name, err)
		}
	}

	page2, err := db.Feed().Updates(ctx, user.ID, repository.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Updates() error = %v", err)
	}
	if len(page2) != 1 || page2[0].Package != "foo_fighters" {
		t.Fatalf("page 2 = %+v, want [foo_fighters]", page2)
	}

	if err := db.Follows().Unfollow(ctx, user.ID, "bar_fighters"); err != nil {
		t.Fatalf("Unfollow() error = %v", err)
	}

	all, err := db.Feed().Updates(ctx, user.ID, repository.ListOptions{Limit: 11})
	if err != nil {
		t.Fatalf("Updates() after unfollow error = %v", err)
	}
	if len(all) != 1 || all[0].Package != "foo_fighters" {
		t.Errorf("after unfollow = %+v, want [foo_fighters]", all)
	}
}

func TestUpdates_NegativeOffsetRejected(t *testing.T) {
	db, user := feedFixture(t)
	ctx := context.Background()
	if err := db.Follows().Follow(ctx, user.ID, "foo_fighters"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}

	got, err := db.Feed().Updates(ctx, user.ID, repository.ListOptions{Limit: 11, Offset: -10})
	if err == nil {
		t.Fatalf("Updates() = %+v, want error for negative offset", got)
	}
}
