package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_AllVariables(t *testing.T) {
	env := envMap(map[string]string{
		"PROJECT_NAME":                 "Accounts",
		"APP_ENV":                      "production",
		"HTTP_ADDR":                    ":8080",
		"GRPC_ADDR":                    ":9090",
		"DATABASE_DRIVER":              "sqlite",
		"DATABASE_URL":                 "file:accounts.db",
		"REDIS_URL":                    "redis://localhost:6379/1",
		"JWT_SECRET_KEY":               "a",
		"JWT_REFRESH_SECRET_KEY":       "b",
		"JWT_ALGORITHM":                "HS512",
		"ACCESS_TOKEN_EXPIRE_MINUTES":  "10",
		"REFRESH_TOKEN_EXPIRE_MINUTES": "60",
		"PASSWORD_HASH_COST":           "12",
		"BACKEND_CORS_ORIGINS":         " http://a.example , ,http://b.example",
		"CORS_ALLOW_CREDENTIALS":       "false",
		"FIRST_SUPERUSER_EMAIL":        "admin@example.com",
		"FIRST_SUPERUSER_PASSWORD":     "s3cret-pass",
		"LOG_LEVEL":                    "debug",
		"LOG_FORMAT":                   "text",
	})

	got := &Config{}
	require.NoError(t, parseEnv(got, env))

	want := &Config{
		ProjectName:                  "Accounts",
		Environment:                  "production",
		EndpointAddrHTTP:             ":8080",
		EndpointAddrGRPC:             ":9090",
		DatabaseDriver:               "sqlite",
		DatabaseDSN:                  "file:accounts.db",
		RedisURL:                     "redis://localhost:6379/1",
		SecretKey:                    "a",
		RefreshSecretKey:             "b",
		JWTAlgorithm:                 "HS512",
		AccessTokenValidityDuration:  10 * time.Minute,
		RefreshTokenValidityDuration: time.Hour,
		PasswordHashCost:             12,
		CORSOrigins:                  []string{"http://a.example", "http://b.example"},
		CORSAllowCredentials:         false,
		FirstSuperuserEmail:          "admin@example.com",
		FirstSuperuserPassword:       "s3cret-pass",
		LogLevel:                     "debug",
		LogFormat:                    "text",
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestParseEnv_EmptyOriginsIsEmptyList(t *testing.T) {
	c := defaults()
	require.NoError(t, parseEnv(c, envMap(map[string]string{"BACKEND_CORS_ORIGINS": "  "})))
	assert.Equal(t, []string{}, c.CORSOrigins)
}

func TestParseEnv_Malformed(t *testing.T) {
	for _, name := range []string{"ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_MINUTES", "PASSWORD_HASH_COST", "CORS_ALLOW_CREDENTIALS"} {
		t.Run(name, func(t *testing.T) {
			err := parseEnv(defaults(), envMap(map[string]string{name: "x"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}
