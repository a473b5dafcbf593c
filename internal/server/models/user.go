// Package models holds the domain types shared by repositories, services
// and transports.
package models

import "time"

// User is an account record. HashedPassword is a bcrypt hash and never
// leaves the server.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	FullName       *string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TokenPair is the result of register, login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
