package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the Identity Store.
type UserDB struct {
	db *DB
}

const userColumns = `id, github_id, login, email, avatar_url, name, github_access_token, api_token, created_at`

// Reconcile inserts or updates a user keyed by GitHub ID in one statement.
//
// WHY AN UPSERT AND NOT SELECT-THEN-INSERT?
// Two browser tabs finishing the GitHub login at the same moment would both
// SELECT, both see "no such user" and both INSERT. One of them then fails on
// the UNIQUE(github_id) constraint, or worse, with no constraint, two users
// exist for one GitHub account. INSERT ... ON CONFLICT(github_id) DO UPDATE
// is a single atomic statement: whichever request runs second simply
// updates the row the first one created.
//
// On update the profile columns and GitHub access token are always written,
// changed or not. id, api_token and created_at keep their stored values.
// RETURNING hands back the canonical row, which replaces *user.
//
// A UNIQUE violation here can only come from api_token (github_id conflicts
// are absorbed by the upsert), so it is reported as apperror.ErrConflict for
// the caller to retry with a fresh token.
func (u *UserDB) Reconcile(ctx context.Context, user *model.User) error {
	createdAt := time.Now()

	row := u.db.conn.QueryRowContext(ctx,
		`INSERT INTO users (github_id, login, email, avatar_url, name, github_access_token, api_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO UPDATE SET
			login               = excluded.login,
			email               = excluded.email,
			avatar_url          = excluded.avatar_url,
			name                = excluded.name,
			github_access_token = excluded.github_access_token
		 RETURNING `+userColumns,
		user.GitHubID,
		user.Login,
		user.Email,
		user.AvatarURL,
		user.Name,
		user.GitHubAccessToken,
		user.APIToken,
		toMillis(createdAt),
	)

	stored, err := scanUser(row)
	if err != nil {
		if isConstraintError(err) {
			return apperror.Conflict("user", "api_token")
		}
		return fmt.Errorf("sqlite: reconciling user (githubID=%d): %w", user.GitHubID, err)
	}

	*user = *stored
	return nil
}

// GetUserByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return user, nil
}

// GetByAPIToken is the authentication lookup: an equality probe on the
// UNIQUE api_token index.
func (u *UserDB) GetByAPIToken(ctx context.Context, token string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE api_token = ?`, token)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Never echo the token back into an error message.
			return nil, apperror.NotFound("user", "<token>")
		}
		return nil, fmt.Errorf("sqlite: getting user by api token: %w", err)
	}
	return user, nil
}

// GetByLogin looks a user up by GitHub login. Logins are not unique across
// renames; the most recently created account wins.
func (u *UserDB) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE login = ? ORDER BY id DESC LIMIT 1`, login)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", login)
		}
		return nil, fmt.Errorf("sqlite: getting user by login %s: %w", login, err)
	}
	return user, nil
}

// RotateAPIToken replaces the stored token in a single UPDATE. Once it
// commits the previous token no longer matches any row.
func (u *UserDB) RotateAPIToken(ctx context.Context, userID int64, token string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`UPDATE users SET api_token = ? WHERE id = ? RETURNING `+userColumns,
		token, userID)

	user, err := scanUser(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, apperror.NotFound("user", strconv.FormatInt(userID, 10))
		case isConstraintError(err):
			return nil, apperror.Conflict("user", "api_token")
		}
		return nil, fmt.Errorf("sqlite: rotating api token for user %d: %w", userID, err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		createdAt int64
	)
	err := row.Scan(
		&u.ID,
		&u.GitHubID,
		&u.Login,
		&u.Email,
		&u.AvatarURL,
		&u.Name,
		&u.GitHubAccessToken,
		&u.APIToken,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}
