package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory Identity Store that enforces the same two
// uniqueness rules as the schema: github_id and api_token.
type fakeUserRepo struct {
	byID   map[int64]*model.User
	nextID int64
	err    error // returned by every call when set

	reconcileCalls int
	rotateCalls    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) tokenTaken(token string, except int64) bool {
	for id, u := range f.byID {
		if id != except && u.APIToken == token {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) Reconcile(_ context.Context, user *model.User) error {
	f.reconcileCalls++
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.GitHubID == user.GitHubID {
			existing.Login = user.Login
			existing.Email = user.Email
			existing.AvatarURL = user.AvatarURL
			existing.Name = user.Name
			existing.GitHubAccessToken = user.GitHubAccessToken
			*user = *existing
			return nil
		}
	}
	if f.tokenTaken(user.APIToken, 0) {
		return apperror.Conflict("user", "api_token")
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByAPIToken(_ context.Context, token string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.APIToken == token {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", "<token>")
}

func (f *fakeUserRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var found *model.User
	for _, u := range f.byID {
		if u.Login == login && (found == nil || u.ID > found.ID) {
			found = u
		}
	}
	if found == nil {
		return nil, apperror.NotFound("user", login)
	}
	copied := *found
	return &copied, nil
}

func (f *fakeUserRepo) RotateAPIToken(_ context.Context, userID int64, token string) (*model.User, error) {
	f.rotateCalls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[userID]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	if f.tokenTaken(token, userID) {
		return nil, apperror.Conflict("user", "api_token")
	}
	u.APIToken = token
	copied := *u
	return &copied, nil
}

// seqTokens hands out the given tokens in order, then "tok-N".
type seqTokens struct {
	queue []string
	n     int
	err   error
}

func (s *seqTokens) Generate() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		return t, nil
	}
	s.n++
	return fmt.Sprintf("tok-%d", s.n), nil
}

type fakeProvider struct {
	identity  *model.Identity
	err       error
	exchanged int
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://github.com/login/oauth/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*model.Identity, error) {
	p.exchanged++
	if p.err != nil {
		return nil, p.err
	}
	if code == "" {
		return nil, errors.New("missing code")
	}
	id := *p.identity
	return &id, nil
}

type fakeSessions struct{}

func (fakeSessions) Issue(userID int64) (string, error) {
	return "session-" + strconv.FormatInt(userID, 10), nil
}

// fakePackageRepo backs both packages and follows so the feed fake can join
// them the way the SQL does.
type fakePackageRepo struct {
	packages []model.Package
	versions []model.Version
	follows  map[int64]map[int64]bool // userID → packageID
	err      error
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{follows: make(map[int64]map[int64]bool)}
}

func (f *fakePackageRepo) CreatePackage(_ context.Context, pkg *model.Package) error {
	for _, p := range f.packages {
		if p.Name == pkg.Name {
			return apperror.Conflict("package", pkg.Name)
		}
	}
	pkg.ID = int64(len(f.packages) + 1)
	f.packages = append(f.packages, *pkg)
	return nil
}

func (f *fakePackageRepo) CreateVersion(_ context.Context, v *model.Version) error {
	v.ID = int64(len(f.versions) + 1)
	f.versions = append(f.versions, *v)
	return nil
}

func (f *fakePackageRepo) GetPackageByName(_ context.Context, name string) (*model.Package, error) {
	for _, p := range f.packages {
		if p.Name == name {
			copied := p
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("package", name)
}

func (f *fakePackageRepo) ListByOwner(_ context.Context, ownerID int64, opts repository.ListOptions) ([]model.Package, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Package
	for i := len(f.packages) - 1; i >= 0; i-- {
		if f.packages[i].OwnerID == ownerID {
			out = append(out, f.packages[i])
		}
	}
	return window(out, opts), nil
}

func (f *fakePackageRepo) Follow(ctx context.Context, userID int64, name string) error {
	p, err := f.GetPackageByName(ctx, name)
	if err != nil {
		return err
	}
	if f.follows[userID] == nil {
		f.follows[userID] = make(map[int64]bool)
	}
	f.follows[userID][p.ID] = true
	return nil
}

func (f *fakePackageRepo) Unfollow(ctx context.Context, userID int64, name string) error {
	p, err := f.GetPackageByName(ctx, name)
	if err != nil {
		return err
	}
	delete(f.follows[userID], p.ID)
	return nil
}

func (f *fakePackageRepo) IsFollowing(ctx context.Context, userID int64, name string) (bool, error) {
	p, err := f.GetPackageByName(ctx, name)
	if err != nil {
		return false, err
	}
	return f.follows[userID][p.ID], nil
}

// Updates walks versions newest first; versions are appended in time order.
func (f *fakePackageRepo) Updates(_ context.Context, userID int64, opts repository.ListOptions) ([]model.VersionSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.VersionSummary
	for i := len(f.versions) - 1; i >= 0; i-- {
		v := f.versions[i]
		if !f.follows[userID][v.PackageID] {
			continue
		}
		out = append(out, model.VersionSummary{
			ID:        v.ID,
			Package:   f.packages[v.PackageID-1].Name,
			Num:       v.Num,
			CreatedAt: v.CreatedAt,
		})
	}
	return window(out, opts), nil
}

func window[T any](rows []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(rows) {
		return nil
	}
	rows = rows[opts.Offset:]
	if opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows
}

// compile-time checks that the fakes satisfy the repository contracts
var (
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.PackageRepository = (*fakePackageRepo)(nil)
	_ repository.FollowRepository  = (*fakePackageRepo)(nil)
	_ repository.FeedRepository    = (*fakePackageRepo)(nil)
)
