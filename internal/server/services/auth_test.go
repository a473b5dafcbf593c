package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

func TestRegister_IssuesTokensAndSendsWelcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, models.RegisterInput{
		Email:    "new@example.com",
		Password: "pw-123456",
		FullName: strPtr("New User"),
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	user, err := f.identity.ResolveCurrentUser(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ResolveCurrentUser: %v", err)
	}
	if user.Email != "new@example.com" || user.IsSuperuser || !user.IsActive {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0] != "new@example.com" {
		t.Fatalf("welcome email not sent: %v", f.mailer.sent)
	}
}

func TestTokens_SubjectIsStoredEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.auth.Register(ctx, models.RegisterInput{Email: " a@X.com ", Password: "pw1234567"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	loggedIn, err := f.auth.Login(ctx, models.LoginInput{Email: "a@x.com", Password: "pw1234567"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	refreshed, err := f.auth.Refresh(ctx, models.RefreshInput{RefreshToken: loggedIn.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	for name, pair := range map[string]*models.TokenPair{
		"register": registered,
		"login":    loggedIn,
		"refresh":  refreshed,
	} {
		access, err := f.codec.Verify(pair.AccessToken, accessSecret)
		if err != nil {
			t.Fatalf("%s: verify access: %v", name, err)
		}
		refresh, err := f.codec.Verify(pair.RefreshToken, refreshSecret)
		if err != nil {
			t.Fatalf("%s: verify refresh: %v", name, err)
		}
		if access.Subject != "a@x.com" || refresh.Subject != "a@x.com" {
			t.Fatalf("%s: subjects %q/%q, want a@x.com", name, access.Subject, refresh.Subject)
		}
	}

	// a token minted elsewhere for the same address resolves too
	external, err := f.codec.Issue("a@x.com", time.Minute, accessSecret)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := f.identity.ResolveCurrentUser(ctx, external); err != nil {
		t.Fatalf("email-subject token rejected: %v", err)
	}
}

func TestRegister_MailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	if _, err := f.auth.Register(context.Background(), models.RegisterInput{Email: "m@example.com", Password: "pw"}); err != nil {
		t.Fatalf("Register should ignore mail errors, got %v", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := models.RegisterInput{Email: "dup@example.com", Password: "pw"}
	if _, err := f.auth.Register(ctx, in); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := f.auth.Register(ctx, in)
	wantKind(t, err, common.ErrorConflict, DetailEmailRegistered)
}

func TestRegister_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register(context.Background(), models.RegisterInput{Email: "bad", Password: "pw"})
	wantKind(t, err, common.ErrorValidation, "")
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.users.CreateUser(ctx, models.UserCreate{Email: "l@example.com", Password: "right"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := f.users.CreateUser(ctx, models.UserCreate{Email: "off@example.com", Password: "right", IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	tests := []struct {
		name   string
		in     models.LoginInput
		kind   error
		detail string
	}{
		{name: "ok", in: models.LoginInput{Email: "l@example.com", Password: "right"}},
		{name: "domain case ignored", in: models.LoginInput{Email: "l@EXAMPLE.com", Password: "right"}},
		{name: "wrong password", in: models.LoginInput{Email: "l@example.com", Password: "wrong"}, kind: common.ErrorUnauthenticated, detail: DetailIncorrectLogin},
		{name: "unknown email", in: models.LoginInput{Email: "nobody@example.com", Password: "right"}, kind: common.ErrorUnauthenticated, detail: DetailIncorrectLogin},
		{name: "inactive", in: models.LoginInput{Email: "off@example.com", Password: "right"}, kind: common.ErrorForbidden, detail: DetailInactiveUser},
		{name: "inactive wrong password", in: models.LoginInput{Email: "off@example.com", Password: "wrong"}, kind: common.ErrorUnauthenticated, detail: DetailIncorrectLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := f.auth.Login(ctx, tt.in)
			if tt.kind == nil {
				if err != nil {
					t.Fatalf("Login error: %v", err)
				}
				if pair.AccessToken == pair.RefreshToken {
					t.Fatalf("access and refresh tokens must differ")
				}
				return
			}
			wantKind(t, err, tt.kind, tt.detail)
		})
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, models.RegisterInput{Email: "r@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	next, err := f.auth.Refresh(ctx, models.RefreshInput{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := f.identity.ResolveCurrentUser(ctx, next.AccessToken); err != nil {
		t.Fatalf("refreshed access token unusable: %v", err)
	}

	// stateless: the old refresh token keeps working
	if _, err := f.auth.Refresh(ctx, models.RefreshInput{RefreshToken: pair.RefreshToken}); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
}

func TestRefresh_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, models.RegisterInput{Email: "x@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	expired, err := f.codec.Issue("someone", -time.Minute, refreshSecret)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	noSubject, err := f.codec.Issue("", time.Minute, refreshSecret)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, token := range map[string]string{
		"access token": pair.AccessToken,
		"expired":      expired,
		"no subject":   noSubject,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Refresh(ctx, models.RefreshInput{RefreshToken: token})
			wantKind(t, err, common.ErrorUnauthenticated, DetailInvalidRefresh)
		})
	}

	_, err = f.auth.Refresh(ctx, models.RefreshInput{})
	wantKind(t, err, common.ErrorValidation, "")
}

func TestRefresh_DeletedUserStillRefreshes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := f.auth.Register(ctx, models.RegisterInput{Email: "gone@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	user, err := f.identity.ResolveCurrentUser(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ResolveCurrentUser: %v", err)
	}
	if err := f.users.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	next, err := f.auth.Refresh(ctx, models.RefreshInput{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	_, err = f.identity.ResolveCurrentUser(ctx, next.AccessToken)
	wantKind(t, err, common.ErrorUnauthenticated, DetailUserNotFound)
}
