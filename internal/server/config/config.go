// Package config handles configuration for the server component: defaults,
// an optional JSON file, environment variables and command-line flags, in
// that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dmitrijs2005/accounts/internal/flagx"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvironmentDevelopment = "development"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var supportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// Config holds runtime settings for the accounts server. It is built once in
// main and handed to the components that need it.
//
// SecretKey signs access tokens and RefreshSecretKey signs refresh tokens;
// keeping them distinct is what separates the two token classes.
type Config struct {
	ProjectName string
	Environment string

	EndpointAddrHTTP string
	EndpointAddrGRPC string

	DatabaseDriver string
	DatabaseDSN    string
	RedisURL       string

	SecretKey                    string
	RefreshSecretKey             string
	JWTAlgorithm                 string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	PasswordHashCost             int

	CORSOrigins          []string
	CORSAllowCredentials bool

	FirstSuperuserEmail    string
	FirstSuperuserPassword string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are placeholders and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.ProjectName = "Accounts Service"
	c.Environment = EnvironmentDevelopment
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ""
	c.DatabaseDriver = DriverPostgres
	c.DatabaseDSN = "postgres://postgres:postgres@db:5432/postgres?sslmode=disable"
	c.RedisURL = ""
	c.SecretKey = "change-me"
	c.RefreshSecretKey = "change-me-refresh"
	c.JWTAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 10080 * time.Minute
	c.PasswordHashCost = bcrypt.DefaultCost
	c.CORSOrigins = []string{"*"}
	c.CORSAllowCredentials = true
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the JSON file named by -c/-config, then the
// environment seen through lookup, then flags from args, and validates the result.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("access token secret must not be empty"))
	}
	if c.RefreshSecretKey == "" {
		errs = append(errs, errors.New("refresh token secret must not be empty"))
	}
	if c.SecretKey != "" && c.SecretKey == c.RefreshSecretKey && c.Environment != EnvironmentDevelopment {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if !slices.Contains(supportedAlgorithms, c.JWTAlgorithm) {
		errs = append(errs, fmt.Errorf("unsupported jwt algorithm %q", c.JWTAlgorithm))
	}
	if c.DatabaseDriver != DriverPostgres && c.DatabaseDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.DatabaseDriver))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token validity must be positive"))
	}
	if c.PasswordHashCost < bcrypt.MinCost || c.PasswordHashCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("password hash cost %d out of range", c.PasswordHashCost))
	}
	if c.EndpointAddrHTTP == "" && c.EndpointAddrGRPC == "" {
		errs = append(errs, errors.New("at least one of the http and grpc addresses must be set"))
	}

	return errors.Join(errs...)
}

// CORSPolicy returns the effective allowed origins and credentials flag.
// An empty origin list means any origin; a wildcard entry collapses the
// list to "*" and turns credentials off.
func (c *Config) CORSPolicy() ([]string, bool) {
	origins := c.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if slices.Contains(origins, "*") {
		return []string{"*"}, false
	}
	return origins, c.CORSAllowCredentials
}
