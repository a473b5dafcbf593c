// Package services contains the server-side business logic: account
// administration, the register/login/refresh workflow and resolving the
// caller's identity from an access token.
//
// Layering is strict: AuthService uses UserService to create accounts,
// nothing below depends on AuthService.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
)

// Client-facing failure details.
const (
	DetailCouldNotValidate  = "Could not validate credentials"
	DetailUserNotFound      = "User not found"
	DetailInactiveUser      = "Inactive user"
	DetailInsufficientPerms = "Insufficient permissions"
	DetailIncorrectLogin    = "Incorrect email or password"
	DetailEmailRegistered   = "Email already registered"
	DetailInvalidRefresh    = "Invalid refresh token"
	DetailInvalidUserID     = "Invalid user id"
)

// PasswordHasher hashes and checks passwords. auth.BcryptHasher implements it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashed string) bool
}

// TokenCodec issues and verifies signed tokens. auth.TokenCodec implements it.
type TokenCodec interface {
	Issue(subject string, ttl time.Duration, secret []byte) (string, error)
	Verify(token string, secret []byte) (*auth.Claims, error)
}

func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, common.ErrorInternal, err)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", common.ErrorValidation, err)
}

// passThrough keeps classified errors and wraps everything else as internal.
func passThrough(op string, err error) error {
	for _, kind := range []error{
		common.ErrorUnauthenticated, common.ErrorForbidden, common.ErrorConflict,
		common.ErrorNotFound, common.ErrorValidation, common.ErrorInternal,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return internal(op, err)
}
