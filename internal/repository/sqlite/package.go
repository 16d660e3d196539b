package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

var _ repository.PackageRepository = (*PackageDB)(nil)

// PackageDB reads and seeds packages and versions. Publishing is out of
// scope; the write methods exist for seeding and tests.
type PackageDB struct {
	db *DB
}

// CreatePackage inserts pkg and fills in its ID. A zero CreatedAt is set to now.
func (p *PackageDB) CreatePackage(ctx context.Context, pkg *model.Package) error {
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = time.Now().UTC()
	}

	err := p.db.conn.QueryRowContext(ctx,
		`INSERT INTO packages (name, description, owner_id, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`,
		pkg.Name,
		pkg.Description,
		pkg.OwnerID,
		toMillis(pkg.CreatedAt),
	).Scan(&pkg.ID)
	if err != nil {
		if isConstraintError(err) {
			return apperror.Conflict("package", pkg.Name)
		}
		return fmt.Errorf("sqlite: creating package %s: %w", pkg.Name, err)
	}

	pkg.CreatedAt = fromMillis(toMillis(pkg.CreatedAt))
	return nil
}

// CreateVersion inserts v and fills in its ID. A zero CreatedAt is set to now.
func (p *PackageDB) CreateVersion(ctx context.Context, v *model.Version) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	err := p.db.conn.QueryRowContext(ctx,
		`INSERT INTO versions (package_id, num, created_at)
		 VALUES (?, ?, ?)
		 RETURNING id`,
		v.PackageID,
		v.Num,
		toMillis(v.CreatedAt),
	).Scan(&v.ID)
	if err != nil {
		if isConstraintError(err) {
			return apperror.Conflict("version", v.Num)
		}
		return fmt.Errorf("sqlite: creating version %s: %w", v.Num, err)
	}

	v.CreatedAt = fromMillis(toMillis(v.CreatedAt))
	return nil
}

// GetPackageByName returns apperror.ErrNotFound for an unknown name.
func (p *PackageDB) GetPackageByName(ctx context.Context, name string) (*model.Package, error) {
	var (
		pkg       model.Package
		createdAt int64
	)
	err := p.db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, created_at
		 FROM packages WHERE name = ?`,
		name,
	).Scan(&pkg.ID, &pkg.Name, &pkg.Description, &pkg.OwnerID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("package", name)
		}
		return nil, fmt.Errorf("sqlite: getting package %s: %w", name, err)
	}

	pkg.CreatedAt = fromMillis(createdAt)
	return &pkg, nil
}

// ListByOwner returns the packages owned by ownerID, newest first.
// A Limit of zero or less falls back to 10.
func (p *PackageDB) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) ([]model.Package, error) {
	limit, offset, err := window(opts)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.conn.QueryContext(ctx,
		`SELECT id, name, description, owner_id, created_at
		 FROM packages
		 WHERE owner_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing packages for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	packages := make([]model.Package, 0, limit)
	for rows.Next() {
		var (
			pkg       model.Package
			createdAt int64
		)
		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &pkg.OwnerID, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning package row: %w", err)
		}
		pkg.CreatedAt = fromMillis(createdAt)
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating packages: %w", err)
	}

	return packages, nil
}

// window normalises ListOptions into LIMIT/OFFSET arguments. A negative
// offset is rejected, never treated as the first page.
func window(opts repository.ListOptions) (limit, offset int, err error) {
	if opts.Offset < 0 {
		return 0, 0, fmt.Errorf("sqlite: negative offset %d", opts.Offset)
	}
	limit = opts.Limit
	if limit <= 0 {
		limit = 10
	}
	return limit, opts.Offset, nil
}
