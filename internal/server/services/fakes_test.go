package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/email"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	usersrepo "github.com/dmitrijs2005/accounts/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	failErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, other := range f.byID {
		if other.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	c := *u
	f.byID[u.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	f.byID[u.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsersRepo) List(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) Driver() string { return "fake" }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg.Recipient)
	return r.err
}

var (
	accessSecret  = []byte("access-secret")
	refreshSecret = []byte("refresh-secret")
)

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	repo     *fakeUsersRepo
	users    *UserService
	auth     *AuthService
	identity *IdentityService
	codec    *auth.TokenCodec
	mailer   *recordingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	codec, err := auth.NewTokenCodec("HS256")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	repo := newFakeUsersRepo()
	rm := &fakeRepoManager{u: repo}
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	log := logging.Discard()
	mailer := &recordingSender{}

	users := NewUserService(db, rm, hasher, log)
	settings := TokenSettings{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}

	return &fixture{
		db:       db,
		mock:     mock,
		repo:     repo,
		users:    users,
		auth:     NewAuthService(db, rm, users, hasher, codec, settings, mailer, "Accounts", log),
		identity: NewIdentityService(db, rm, codec, accessSecret),
		codec:    codec,
		mailer:   mailer,
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func wantKind(t *testing.T, err, kind error, detail string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("want %v, got %v", kind, err)
	}
	if detail != "" {
		if got := common.Detail(err, ""); got != detail {
			t.Fatalf("detail: want %q, got %q", detail, got)
		}
	}
}
