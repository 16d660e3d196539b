package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

var _ repository.FeedRepository = (*FeedDB)(nil)

// FeedDB reads the update feed.
type FeedDB struct {
	db *DB
}

// Updates returns versions of the packages userID follows, newest first.
//
// The join runs on every call, so a follow or unfollow is visible to the very
// next page request. Ties on created_at are broken by version id so that
// consecutive pages never overlap or skip rows while the data is unchanged.
//
// Callers wanting a "more" signal pass Limit = perPage + 1.
func (f *FeedDB) Updates(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.VersionSummary, error) {
	limit, offset, err := window(opts)
	if err != nil {
		return nil, err
	}

	rows, err := f.db.conn.QueryContext(ctx,
		`SELECT v.id, p.name, v.num, v.created_at
		 FROM versions AS v
		 JOIN packages AS p ON p.id = v.package_id
		 JOIN follows  AS f ON f.package_id = v.package_id
		 WHERE f.user_id = ?
		 ORDER BY v.created_at DESC, v.id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying updates for user %d: %w", userID, err)
	}
	defer rows.Close()

	versions := make([]model.VersionSummary, 0, limit)
	for rows.Next() {
		var (
			v         model.VersionSummary
			createdAt int64
		)
		if err := rows.Scan(&v.ID, &v.Package, &v.Num, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning update row: %w", err)
		}
		v.CreatedAt = fromMillis(createdAt)
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating updates: %w", err)
	}

	return versions, nil
}
