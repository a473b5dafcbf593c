// Package httpx is the HTTP transport of the accounts service.
package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/health"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.TokenPair, error)
	Login(ctx context.Context, in models.LoginInput) (*models.TokenPair, error)
	Refresh(ctx context.Context, in models.RefreshInput) (*models.TokenPair, error)
}

type IdentityService interface {
	ResolveCurrentUser(ctx context.Context, token string) (*models.User, error)
	RequireSuperuser(user *models.User) error
}

type UserService interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, in models.UserCreate) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// Options configures NewRouter. Registry defaults to a fresh registry.
type Options struct {
	Auth     AuthService
	Identity IdentityService
	Users    UserService
	Health   HealthChecker
	Logger   logging.Logger

	CORSOrigins          []string
	CORSAllowCredentials bool

	Registry *prometheus.Registry
}

// Router serves the whole HTTP API.
type Router struct {
	mux      chi.Router
	auth     AuthService
	identity IdentityService
	users    UserService
	health   HealthChecker
	logger   logging.Logger
	metrics  *metrics
}

func NewRouter(o Options) *Router {
	reg := o.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := &Router{
		mux:      chi.NewRouter(),
		auth:     o.Auth,
		identity: o.Identity,
		users:    o.Users,
		health:   o.Health,
		logger:   o.Logger.With("module", "http"),
		metrics:  newMetrics(reg),
	}

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(r.instrument)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: o.CORSAllowCredentials,
		MaxAge:           600,
	}))

	r.mux.Get("/health", r.handleHealth)
	r.mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.mux.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", r.handleRegister)
		ar.Post("/login", r.handleLogin)
		ar.Post("/refresh", r.handleRefresh)
	})

	r.mux.Route("/users", func(ur chi.Router) {
		ur.Use(r.requireUser)
		ur.Get("/me", r.handleMe)

		ur.Group(func(admin chi.Router) {
			admin.Use(r.requireSuperuser)
			admin.Get("/", r.handleListUsers)
			admin.Post("/", r.handleCreateUser)
			admin.Patch("/{user_id}", r.handleUpdateUser)
			admin.Delete("/{user_id}", r.handleDeleteUser)
		})
	})

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	report := health.Report{Status: health.StatusOK, Components: map[string]health.Component{}, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	if r.health != nil {
		report = r.health.Check(req.Context())
	}

	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}
