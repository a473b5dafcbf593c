// Package auth implements the credential primitives of the service: bcrypt
// password hashing and HMAC-signed JWTs.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is what a verified token carries.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies tokens with a symmetric signing method.
// The secret is passed per call: access and refresh tokens use different
// secrets, and that is the only thing telling them apart. The wire claims
// are exactly {"sub", "exp"}.
type TokenCodec struct {
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewTokenCodec returns a codec for one of HS256, HS384, HS512.
func NewTokenCodec(algorithm string) (*TokenCodec, error) {
	m, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenCodec{method: m, now: time.Now}, nil
}

// Issue signs a token for subject that expires ttl from now.
func (c *TokenCodec) Issue(subject string, ttl time.Duration, secret []byte) (string, error) {
	token := jwt.NewWithClaims(c.method, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature against secret and the expiry against the
// clock. Failures unwrap to common.ErrorUnauthenticated and to either
// common.ErrTokenExpired or common.ErrInvalidToken. Claims are returned as
// decoded; an empty subject is left for the caller to reject.
func (c *TokenCodec) Verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w: %v", common.ErrorUnauthenticated, common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, common.ErrInvalidToken)
	}

	return &Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
