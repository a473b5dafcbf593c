package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userKey ctxKey = "user"

// methods that need a bearer token
var authenticated = map[string]bool{
	FullMethod("Me"):        true,
	FullMethod("ListUsers"): true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !authenticated[info.FullMethod] {
		return handler(ctx, req)
	}

	token := bearerFromMetadata(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "Not authenticated")
	}

	user, err := s.identity.ResolveCurrentUser(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, userKey, user), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
	switch code {
	case codes.OK:
		s.logger.Info(ctx, "grpc request", args...)
	case codes.Internal, codes.Unknown:
		s.logger.Error(ctx, "grpc request", append(args, "error", err)...)
	default:
		s.logger.Warn(ctx, "grpc request", args...)
	}
	return resp, err
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	parts := strings.Fields(values[0])
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return ""
	}
	return parts[1]
}

func userFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// toStatus maps an error kind to a gRPC status. Internal errors keep their
// details out of the message.
func toStatus(err error) error {
	detail := func(fallback string) string { return common.Detail(err, fallback) }
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		return status.Error(codes.Unauthenticated, detail("unauthenticated"))
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, detail("forbidden"))
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, detail("already exists"))
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, detail("not found"))
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, detail(err.Error()))
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
