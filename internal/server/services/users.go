package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UserService manages accounts on behalf of administrators and of the
// registration workflow.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	logger      logging.Logger
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		logger:      l.With("module", "user_service"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.NewError(common.ErrorValidation, DetailInvalidUserID)
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}
	u, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorNotFound, DetailUserNotFound)
		}
		return nil, internal("get user", err)
	}
	return u, nil
}

// ListUsers returns every account, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, internal("list users", err)
	}
	return list, nil
}

// CreateUser stores a new account. The email must be unused.
func (s *UserService) CreateUser(ctx context.Context, in models.UserCreate) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	email := models.NormalizeEmail(in.Email)
	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetUserByEmail(ctx, email); err == nil {
		return nil, common.NewError(common.ErrorConflict, DetailEmailRegistered)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, internal("lookup email", err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	now := s.now()
	user := &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashed,
		FullName:       in.FullName,
		IsActive:       true,
		IsSuperuser:    false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		user.IsSuperuser = *in.IsSuperuser
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		// lost a race with a concurrent insert
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.NewError(common.ErrorConflict, DetailEmailRegistered)
		}
		return nil, internal("create user", err)
	}

	s.logger.Info(ctx, "user created", "user_id", created.ID, "superuser", created.IsSuperuser)
	return created, nil
}

// UpdateUser applies the non-nil fields of patch. An empty password means
// "keep the current one".
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserUpdate) (*models.User, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, invalid(err)
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewError(common.ErrorNotFound, DetailUserNotFound)
			}
			return err
		}

		if patch.Email != nil {
			email := models.NormalizeEmail(*patch.Email)
			if email != user.Email {
				other, err := repo.GetUserByEmail(ctx, email)
				switch {
				case err == nil && other.ID != user.ID:
					return common.NewError(common.ErrorConflict, DetailEmailRegistered)
				case err != nil && !errors.Is(err, common.ErrorNotFound):
					return err
				}
				user.Email = email
			}
		}
		if patch.FullName != nil {
			user.FullName = patch.FullName
		}
		if patch.IsActive != nil {
			user.IsActive = *patch.IsActive
		}
		if patch.IsSuperuser != nil {
			user.IsSuperuser = *patch.IsSuperuser
		}
		if patch.Password != nil && *patch.Password != "" {
			hashed, err := s.hasher.Hash(*patch.Password)
			if err != nil {
				return err
			}
			user.HashedPassword = hashed
		}

		user.UpdatedAt = s.bump(user.UpdatedAt)

		updated, err = repo.Update(ctx, user)
		if errors.Is(err, common.ErrorConflict) {
			return common.NewError(common.ErrorConflict, DetailEmailRegistered)
		}
		return err
	})
	if err != nil {
		return nil, passThrough("update user", err)
	}

	s.logger.Info(ctx, "user updated", "user_id", updated.ID)
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := parseID(id); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, DetailUserNotFound)
		}
		return internal("delete user", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// EnsureSuperuser creates the bootstrap superuser unless an account with
// that email already exists. It reports whether an account was created.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}

	superuser := true
	_, err := s.CreateUser(ctx, models.UserCreate{Email: email, Password: password, IsSuperuser: &superuser})
	if errors.Is(err, common.ErrorConflict) {
		s.logger.Debug(ctx, "bootstrap superuser already present")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// bump returns a timestamp not earlier than prev.
func (s *UserService) bump(prev time.Time) time.Time {
	now := s.now()
	if now.Before(prev) {
		return prev
	}
	return now
}
