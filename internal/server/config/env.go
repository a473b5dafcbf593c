package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays environment variables onto config. lookup is usually
// os.LookupEnv. A set but malformed numeric or boolean variable is an error.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	str("PROJECT_NAME", &config.ProjectName)
	str("APP_ENV", &config.Environment)
	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DRIVER", &config.DatabaseDriver)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("REDIS_URL", &config.RedisURL)
	str("JWT_SECRET_KEY", &config.SecretKey)
	str("JWT_REFRESH_SECRET_KEY", &config.RefreshSecretKey)
	str("JWT_ALGORITHM", &config.JWTAlgorithm)
	str("FIRST_SUPERUSER_EMAIL", &config.FirstSuperuserEmail)
	str("FIRST_SUPERUSER_PASSWORD", &config.FirstSuperuserPassword)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)

	if v, ok := lookup("BACKEND_CORS_ORIGINS"); ok {
		config.CORSOrigins = splitOrigins(v)
	}

	if err := envMinutes(lookup, "ACCESS_TOKEN_EXPIRE_MINUTES", &config.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := envMinutes(lookup, "REFRESH_TOKEN_EXPIRE_MINUTES", &config.RefreshTokenValidityDuration); err != nil {
		return err
	}
	if v, ok := lookup("PASSWORD_HASH_COST"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PASSWORD_HASH_COST: %w", err)
		}
		config.PasswordHashCost = n
	}
	if v, ok := lookup("CORS_ALLOW_CREDENTIALS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CORS_ALLOW_CREDENTIALS: %w", err)
		}
		config.CORSAllowCredentials = b
	}

	return nil
}

func envMinutes(lookup func(string) (string, bool), name string, dst *time.Duration) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = time.Duration(n) * time.Minute
	return nil
}

// splitOrigins parses a comma separated origin list, dropping blanks.
func splitOrigins(v string) []string {
	origins := []string{}
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
