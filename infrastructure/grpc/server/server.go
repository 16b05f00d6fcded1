package server

import (
	"chat-sync/auth"
	"chat-sync/infrastructure/grpc/wire"
	"chat-sync/observability"
	"context"
	"log/slog"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Services bundles the handlers a daemon registers.
type Services struct {
	Auth          *AuthServer
	Conversations *ConversationServer
	Groups        *GroupServer
	Users         *UserServer
}

// New builds a gRPC server with metrics, logging and bearer authentication.
// Sign in and sign up are the only calls accepted without a token.
func New(log *slog.Logger, tokens *auth.Tokens, metrics *observability.Metrics, services Services, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := auth.NewInterceptors(tokens, wire.PublicMethods...)
	opts = append(opts,
		grpc.ChainUnaryInterceptor(
			UnaryMetricsInterceptor(metrics),
			grpc3.UnaryLoggingInterceptor(log),
			interceptors.Unary,
		),
		grpc.ChainStreamInterceptor(
			StreamMetricsInterceptor(metrics),
			interceptors.Stream,
		),
	)
	s := grpc.NewServer(opts...)
	wire.RegisterAuthServer(s, services.Auth)
	wire.RegisterConversationsServer(s, services.Conversations)
	wire.RegisterGroupsServer(s, services.Groups)
	wire.RegisterUsersServer(s, services.Users)
	return s
}

// UnaryMetricsInterceptor counts every call by method and status code, rejected ones included.
func UnaryMetricsInterceptor(metrics *observability.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		metrics.IncRPC(info.FullMethod, status.Code(err).String())
		return resp, err
	}
}

func StreamMetricsInterceptor(metrics *observability.Metrics) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		metrics.IncRPC(info.FullMethod, status.Code(err).String())
		return err
	}
}
