// Package users is the persistence layer for accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// Repository stores users. Lookups that match nothing return
// common.ErrorNotFound; a duplicate email returns common.ErrorConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
}
