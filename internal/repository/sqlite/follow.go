package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/repository"
)

var _ repository.FollowRepository = (*FollowDB)(nil)

// FollowDB is the Follow Registry. Edges have set semantics: the
// (user_id, package_id) primary key admits at most one row per pair.
type FollowDB struct {
	db *DB
}

// Follow adds the edge. Following an already-followed package is a no-op.
func (f *FollowDB) Follow(ctx context.Context, userID int64, packageName string) error {
	return f.db.withTx(ctx, func(q querier) error {
		packageID, err := packageIDByName(ctx, q, packageName)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO follows (user_id, package_id, created_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT(user_id, package_id) DO NOTHING`,
			userID, packageID, toMillis(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("sqlite: following package %s: %w", packageName, err)
		}
		return nil
	})
}

// Unfollow removes the edge. Removing an edge that does not exist succeeds.
func (f *FollowDB) Unfollow(ctx context.Context, userID int64, packageName string) error {
	return f.db.withTx(ctx, func(q querier) error {
		packageID, err := packageIDByName(ctx, q, packageName)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`DELETE FROM follows WHERE user_id = ? AND package_id = ?`,
			userID, packageID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: unfollowing package %s: %w", packageName, err)
		}
		return nil
	})
}

// IsFollowing reports whether the edge exists.
func (f *FollowDB) IsFollowing(ctx context.Context, userID int64, packageName string) (bool, error) {
	packageID, err := packageIDByName(ctx, f.db.conn, packageName)
	if err != nil {
		return false, err
	}

	var following bool
	err = f.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = ? AND package_id = ?)`,
		userID, packageID,
	).Scan(&following)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow of %s: %w", packageName, err)
	}
	return following, nil
}

func packageIDByName(ctx context.Context, q querier, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM packages WHERE name = ?`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.NotFound("package", name)
		}
		return 0, fmt.Errorf("sqlite: looking up package %s: %w", name, err)
	}
	return id, nil
}
