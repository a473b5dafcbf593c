// Package server wires the accounts service together and runs its HTTP and
// gRPC endpoints until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/dmitrijs2005/accounts/internal/server/email"
	"github.com/dmitrijs2005/accounts/internal/server/health"
	httpx "github.com/dmitrijs2005/accounts/internal/server/http"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accounts/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/accounts/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client

	router     *httpx.Router
	grpcServer *gs.GRPCServer
}

// NewApp opens the database, applies migrations, bootstraps the first
// superuser and builds both transports.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	rdb, err := health.OpenRedis(c.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	checker := health.NewChecker().Add("database", db)
	if rdb != nil {
		checker.Add("redis", health.NewRedisPinger(rdb))
	}

	codec, err := auth.NewTokenCodec(c.JWTAlgorithm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hasher := auth.NewBcryptHasher(c.PasswordHashCost)
	tokens := services.TokenSettings{
		AccessSecret:  []byte(c.SecretKey),
		RefreshSecret: []byte(c.RefreshSecretKey),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	}

	us := services.NewUserService(db, rm, hasher, logger)
	as := services.NewAuthService(db, rm, us, hasher, codec, tokens, email.NewConsoleSender(logger), c.ProjectName, logger)
	is := services.NewIdentityService(db, rm, codec, tokens.AccessSecret)

	created, err := us.EnsureSuperuser(ctx, c.FirstSuperuserEmail, c.FirstSuperuserPassword)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap superuser: %w", err)
	}
	if created {
		logger.Info(ctx, "bootstrap superuser created", "email", c.FirstSuperuserEmail)
	}

	origins, credentials := c.CORSPolicy()
	app := &App{
		config: c,
		logger: logger,
		db:     db,
		redis:  rdb,
		router: httpx.NewRouter(httpx.Options{
			Auth:                 as,
			Identity:             is,
			Users:                us,
			Health:               checker,
			Logger:               logger,
			CORSOrigins:          origins,
			CORSAllowCredentials: credentials,
		}),
	}
	if c.EndpointAddrGRPC != "" {
		app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, as, is, us)
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "project", app.config.ProjectName, "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.config.EndpointAddrHTTP != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
