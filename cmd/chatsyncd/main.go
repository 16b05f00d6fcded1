package main

import (
	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/infrastructure/blob"
	"chat-sync/infrastructure/grpc/server"
	"chat-sync/internal"
	"chat-sync/observability"
	"chat-sync/repositories"
	"chat-sync/runtime/workers"
	"chat-sync/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsyncd terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server failure.
// Deferred closes run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, RecordMapper)
	}

	// 3. Blob storage
	blobs, err := buildBlobStore(ctx, config)
	if err != nil {
		return exitConfig, err
	}

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	// 5. Repositories & Services
	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, logger, repositories.NewChangeFeed(), config.LiveWindow)
	tokens := auth.NewTokens(config.AuthSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(users, tokens)
	userService := services.NewUserService(users, blobs)
	groupService := services.NewGroupService(logger, groups, blobs)

	// 6. Background workers
	supervisor := workers.NewSupervisor(logger).WithRestartDelay(config.RestartInterval)
	supervisor.Add(
		workers.NewProcessStats(logger, metrics, config.StatsInterval),
		NewMetricsEndpoint(logger, fmt.Sprintf(":%d", config.MetricsPort), registry),
	)
	go supervisor.Run(ctx)
	defer supervisor.Stop()

	// 7. gRPC Server Setup
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}
	s := server.New(logger, tokens, metrics, server.Services{
		Auth:          server.NewAuthServer(logger, authService),
		Conversations: server.NewConversationServer(logger, messages, groupService, userService),
		Groups:        server.NewGroupServer(groupService),
		Users:         server.NewUserServer(userService),
	})

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting gRPC server", "address", config.Address(), "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	logger.Info("Shutting down gracefully...")
	s.GracefulStop()
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG).WithBypassLockGuard(true)
	}
	return options.WithLoggingLevel(badger.INFO)
}

func buildBlobStore(ctx context.Context, config internal.Config) (contract.BlobStore, error) {
	if config.BlobBackend == "s3" {
		return blob.NewS3Store(ctx, blob.S3Config{
			Region:   config.S3Region,
			Bucket:   config.S3Bucket,
			Endpoint: config.S3Endpoint,
			BaseURL:  config.BlobBaseURL,
		})
	}
	return blob.NewDiskStore(config.BlobRoot, config.BlobBaseURL)
}

// RecordMapper renders stored records in the debug inspector.
func RecordMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	entry := repositories.DescribeEntry(key, val)
	row.Type = entry.Kind
	row.Detail = entry.Detail
	if entry.Owner != "" {
		row.Detail = fmt.Sprintf("%s: %s", entry.Owner, entry.Detail)
	}
	return row
}

// MetricsEndpoint serves the Prometheus registry over HTTP.
type MetricsEndpoint struct {
	log      *slog.Logger
	addr     string
	registry *prometheus.Registry
}

func NewMetricsEndpoint(log *slog.Logger, addr string, registry *prometheus.Registry) *MetricsEndpoint {
	return &MetricsEndpoint{log: log, addr: addr, registry: registry}
}

func (m *MetricsEndpoint) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: m.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	m.log.Info("Metrics endpoint listening", "address", m.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
