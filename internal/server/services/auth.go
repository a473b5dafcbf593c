package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/email"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

// TokenSettings holds what AuthService needs to mint tokens.
type TokenSettings struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService implements register, login and refresh. Refresh is stateless:
// a refresh token stays usable until it expires.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *UserService
	hasher      PasswordHasher
	codec       TokenCodec
	tokens      TokenSettings
	mailer      email.Sender
	projectName string
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, users *UserService, h PasswordHasher,
	c TokenCodec, t TokenSettings, mailer email.Sender, projectName string, l logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		users:       users,
		hasher:      h,
		codec:       c,
		tokens:      t,
		mailer:      mailer,
		projectName: projectName,
		logger:      l.With("module", "auth_service"),
	}
}

// Register creates an active, non-superuser account and signs it in.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	user, err := s.users.CreateUser(ctx, models.UserCreate{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.Send(ctx, email.Welcome(s.projectName, user.Email, user.FullName)); err != nil {
			s.logger.Warn(ctx, "welcome email failed", "user_id", user.ID, "error", err)
		}
	}

	return s.Login(ctx, models.LoginInput{Email: in.Email, Password: in.Password})
}

// Login checks credentials and issues a fresh token pair. Unknown email and
// wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, models.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorUnauthenticated, DetailIncorrectLogin)
		}
		return nil, internal("login", err)
	}

	if !s.hasher.Verify(in.Password, user.HashedPassword) {
		s.logger.Debug(ctx, "password mismatch", "user_id", user.ID)
		return nil, common.NewError(common.ErrorUnauthenticated, DetailIncorrectLogin)
	}

	if !user.IsActive {
		return nil, common.NewError(common.ErrorForbidden, DetailInactiveUser)
	}

	return s.issue(user.Email)
}

// Refresh exchanges a valid refresh token for a new pair. The user is not
// looked up: a deleted or deactivated account still refreshes, and is
// rejected when the access token is used.
func (s *AuthService) Refresh(ctx context.Context, in models.RefreshInput) (*models.TokenPair, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	claims, err := s.codec.Verify(in.RefreshToken, s.tokens.RefreshSecret)
	if err != nil || claims.Subject == "" {
		s.logger.Debug(ctx, "refresh rejected", "error", err)
		return nil, common.NewError(common.ErrorUnauthenticated, DetailInvalidRefresh)
	}

	return s.issue(claims.Subject)
}

func (s *AuthService) issue(subject string) (*models.TokenPair, error) {
	access, err := s.codec.Issue(subject, s.tokens.AccessTTL, s.tokens.AccessSecret)
	if err != nil {
		return nil, internal("issue access token", err)
	}
	refresh, err := s.codec.Issue(subject, s.tokens.RefreshTTL, s.tokens.RefreshSecret)
	if err != nil {
		return nil, internal("issue refresh token", err)
	}
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    common.TokenTypeBearer,
	}, nil
}
