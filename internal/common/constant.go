// Package common contains shared constants and sentinel errors used across
// the accounts service and its clients.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer token.
const AuthorizationHeaderName = "authorization"

// BearerScheme prefixes the token in the authorization header.
const BearerScheme = "Bearer"

// TokenTypeBearer is reported as token_type in token responses.
const TokenTypeBearer = "bearer"
