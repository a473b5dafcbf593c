package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MaxPasswordBytes matches the bcrypt input limit.
const MaxPasswordBytes = 72

func passwordRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(1, MaxPasswordBytes)}
}

// emailRules runs on the trimmed address, the form NormalizeEmail stores.
func emailRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(3, 254), is.Email}
}

// notBlank rejects a present but blank optional string.
func notBlank(value interface{}) error {
	if s, ok := value.(*string); ok && s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

func (in RegisterInput) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules()...),
		validation.Field(&in.Password, passwordRules()...),
		validation.Field(&in.FullName, validation.Length(0, 255)),
	)
}

// LoginInput is the credentials payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules()...),
		validation.Field(&in.Password, validation.Required),
	)
}

// RefreshInput carries a refresh token.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

func (in RefreshInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.RefreshToken, validation.Required),
	)
}

// UserCreate is the administrative create payload. Nil flags take their
// defaults: active, not superuser.
type UserCreate struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

func (in UserCreate) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules()...),
		validation.Field(&in.Password, passwordRules()...),
		validation.Field(&in.FullName, validation.Length(0, 255)),
	)
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

func (in UserUpdate) Validate() error {
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		in.Email = &email
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.By(notBlank), validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Length(0, MaxPasswordBytes)),
		validation.Field(&in.FullName, validation.Length(0, 255)),
	)
}

// Empty reports whether the update changes nothing.
func (in UserUpdate) Empty() bool {
	return in.Email == nil && in.Password == nil && in.FullName == nil && in.IsActive == nil && in.IsSuperuser == nil
}
