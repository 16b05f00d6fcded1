package server

import (
	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/errors"
	"chat-sync/infrastructure/grpc/wire"
	"context"
	"log/slog"
)

type AuthServer struct {
	log      *slog.Logger
	accounts contract.Authenticator
}

func NewAuthServer(log *slog.Logger, accounts contract.Authenticator) *AuthServer {
	return &AuthServer{log: log, accounts: accounts}
}

func (s *AuthServer) SignIn(ctx context.Context, req *wire.CredentialsRequest) (*wire.AuthResponse, error) {
	identity, token, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.log.Debug("Sign in rejected", "email", req.Email, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.AuthResponse{Identity: identity, Token: token}, nil
}

func (s *AuthServer) SignUp(ctx context.Context, req *wire.CredentialsRequest) (*wire.AuthResponse, error) {
	identity, token, err := s.accounts.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	s.log.Info("User registered", "user_id", identity.ID)
	return &wire.AuthResponse{Identity: identity, Token: token}, nil
}

// WhoAmI resolves the bearer token of the call to its identity.
func (s *AuthServer) WhoAmI(ctx context.Context, _ *wire.Empty) (*wire.IdentityResponse, error) {
	token, ok := auth.TokenFromContext(ctx)
	if !ok {
		return nil, errors.MapToGRPCError(errors.ErrNotAuthenticated)
	}
	identity, err := s.accounts.Resume(ctx, token)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &wire.IdentityResponse{Identity: identity}, nil
}
