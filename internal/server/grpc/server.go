// Package grpc exposes the account operations over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"google.golang.org/grpc"
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

type UserLister interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type GRPCServer struct {
	address  string
	auth     AuthService
	identity IdentityService
	users    UserLister
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, as AuthService, is IdentityService, us UserLister) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		auth:     as,
		identity: is,
		users:    us,
	}
}

// NewServer builds a grpc.Server with the service and interceptors registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterAccountServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
