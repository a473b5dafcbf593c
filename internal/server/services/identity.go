package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
)

// IdentityService turns an access token into the user making the request.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       TokenCodec
	secret      []byte
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, c TokenCodec, accessSecret []byte) *IdentityService {
	return &IdentityService{db: db, repomanager: m, codec: c, secret: accessSecret}
}

// ResolveCurrentUser verifies token against the access secret and loads the
// user whose email is the subject. Refresh tokens fail here because they are
// signed with a different secret.
func (s *IdentityService) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.codec.Verify(token, s.secret)
	if err != nil || claims.Subject == "" {
		return nil, common.NewError(common.ErrorUnauthenticated, DetailCouldNotValidate)
	}

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorUnauthenticated, DetailUserNotFound)
		}
		return nil, internal("resolve user", err)
	}

	if !user.IsActive {
		return nil, common.NewError(common.ErrorForbidden, DetailInactiveUser)
	}
	return user, nil
}

// RequireSuperuser fails with forbidden unless user is a superuser.
func (s *IdentityService) RequireSuperuser(user *models.User) error {
	if user == nil || !user.IsSuperuser {
		return common.NewError(common.ErrorForbidden, DetailInsufficientPerms)
	}
	return nil
}
