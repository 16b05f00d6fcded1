package client

import (
	"chat-sync/infrastructure/grpc/wire"
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenSource returns the bearer token of the signed-in user, or "" when signed out.
type TokenSource func() string

// Dial connects to a chatsync daemon. Calls carry the token of source when there is one.
func Dial(log *slog.Logger, addr string, source TokenSource, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(bearer{source: source}),
		grpc.WithUnaryInterceptor(loggingInterceptor(log)),
		wire.CallCodec(),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", addr, err)
	}
	return conn, nil
}

type bearer struct {
	source TokenSource
}

// GetRequestMetadata leaves calls that already carry an authorization header untouched.
func (b bearer) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get("authorization")) > 0 {
		return nil, nil
	}
	if b.source == nil {
		return nil, nil
	}
	token := b.source()
	if token == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + token}, nil
}

func (bearer) RequireTransportSecurity() bool {
	return false
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		log.Debug("GRPC call", "method", method, "code", status.Code(err).String(), "duration", time.Since(start))
		return err
	}
}
