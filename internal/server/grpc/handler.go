package grpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/accounts/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in models.RegisterInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.auth.Register(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenStruct(pair)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in models.LoginInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.auth.Login(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenStruct(pair)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in models.RefreshInput
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	pair, err := s.auth.Refresh(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenStruct(pair)
}

func (s *GRPCServer) Me(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	user := userFromContext(ctx)
	if user == nil {
		return nil, status.Error(codes.Unauthenticated, "Not authenticated")
	}
	return toStruct(userMessage(user))
}

func (s *GRPCServer) ListUsers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.identity.RequireSuperuser(userFromContext(ctx)); err != nil {
		return nil, toStatus(err)
	}
	list, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]user, 0, len(list))
	for _, u := range list {
		out = append(out, userMessage(u))
	}
	return toStruct(map[string]any{"users": out})
}

type tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type user struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    *string `json:"full_name"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func userMessage(u *models.User) user {
	return user{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   u.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func tokenStruct(p *models.TokenPair) (*structpb.Struct, error) {
	return toStruct(tokens{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: p.TokenType})
}

// fromStruct decodes a Struct into a JSON-tagged value.
func fromStruct(in *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	return nil
}

// toStruct encodes a JSON-tagged value as a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
