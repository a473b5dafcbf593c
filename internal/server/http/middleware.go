package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	userKey    ctxKey = "user"
	requestKey ctxKey = "request_info"
)

// requestInfo is filled in by inner handlers and read back for the log line.
type requestInfo struct {
	UserID string
}

// instrument logs one line per request and records metrics.
func (r *Router) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		info := &requestInfo{}
		req = req.WithContext(context.WithValue(req.Context(), requestKey, info))

		rec := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(rec, req)
		duration := time.Since(start)

		status := rec.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		r.metrics.observe(req.Method, route, status, duration)

		args := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", rec.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
			"ip", req.RemoteAddr,
			"request_id", middleware.GetReqID(req.Context()),
		}
		if info.UserID != "" {
			args = append(args, "user_id", info.UserID)
		}

		switch {
		case status >= 500:
			r.logger.Error(req.Context(), "http request", args...)
		case status >= 400:
			r.logger.Warn(req.Context(), "http request", args...)
		default:
			r.logger.Info(req.Context(), "http request", args...)
		}
	})
}

// requireUser resolves the bearer token to an active user.
func (r *Router) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token, err := bearerToken(req.Header.Get("Authorization"))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}

		user, err := r.identity.ResolveCurrentUser(req.Context(), token)
		if err != nil {
			r.writeError(w, req, err)
			return
		}

		if info, ok := req.Context().Value(requestKey).(*requestInfo); ok {
			info.UserID = user.ID
		}
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), userKey, user)))
	})
}

func (r *Router) requireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := r.identity.RequireSuperuser(currentUser(req.Context())); err != nil {
			r.writeError(w, req, err)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func currentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
