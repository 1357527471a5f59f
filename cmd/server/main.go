// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"google.golang.org/grpc"

	"github.com/vanamwellness/checkout-service/internal/adapters/catalog"
	"github.com/vanamwellness/checkout-service/internal/adapters/events"
	g "github.com/vanamwellness/checkout-service/internal/adapters/grpc"
	"github.com/vanamwellness/checkout-service/internal/adapters/memory"
	"github.com/vanamwellness/checkout-service/internal/adapters/redis"
	"github.com/vanamwellness/checkout-service/internal/adapters/repository"
	"github.com/vanamwellness/checkout-service/internal/application"
	"github.com/vanamwellness/checkout-service/internal/config"
	"github.com/vanamwellness/checkout-service/internal/db"
	"github.com/vanamwellness/checkout-service/internal/ports"
	"github.com/vanamwellness/checkout-service/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger().With("env", cfg.Environment.Name)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, logger); err != nil {
		return err
	}

	notifier, publisher, closeEvents, err := openEvents(cfg.AMQPURL, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	var (
		sessionStore ports.SessionStore
		codeStore    ports.CodeStore
		denylist     ports.TokenDenylist
		catalogCache ports.CachePort
	)
	switch cfg.Session.Store {
	case config.SessionStoreMemory:
		logger.Warn("in-memory session store: sessions are lost on restart and catalog responses are not cached")
		sessionStore, codeStore, denylist = memory.NewSessionStore(cfg.Session.TTL), memory.NewCodeStore(), memory.NewTokenDenylist()
	default:
		redisClient := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()
		cache := redis.NewCache(redisClient, cfg.Catalog.CacheTTL)
		if err := cache.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		catalogCache = cache
		sessionStore = redis.NewSessionStore(redisClient, cfg.Session.TTL)
		codeStore = redis.NewCodeStore(redisClient)
		denylist = redis.NewTokenDenylist(redisClient)
	}

	var gateway ports.OTPGateway
	switch cfg.OTP.Mode {
	case config.OTPModeStub:
		logger.Warn("OTP stub mode: any 6-digit code is accepted")
		gateway = application.NewAcceptAnyCode(logger)
	default:
		gateway = application.NewCodeGateway(codeStore, notifier, cfg.OTP.CodeTTL, cfg.OTP.MaxAttempts)
	}

	catalogClient, err := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, catalogCache, logger)
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	sessions := application.NewSessionManager(sessionStore)
	catalogService := application.NewCatalogService(catalogClient, logger)
	pricing := application.NewPricingCalculator(
		cfg.Pricing.FreeShippingThreshold,
		cfg.Pricing.FlatShippingFee,
		cfg.Pricing.TaxRate,
		cfg.Pricing.Currency,
	)
	authService := application.NewAuthService(issuer, denylist)

	srv := g.NewServer(g.Services{
		Checkout: application.NewCheckoutService(
			sessions, catalogService, pricing,
			repository.NewOrderRepository(database), publisher,
			cfg.OrderPrefix, logger,
		),
		Verification: application.NewVerificationService(sessions, gateway, cfg.OTP.ResendCooldown, logger),
		Address:      application.NewAddressService(sessions),
		Catalog:      catalogService,
		Auth:         authService,
	}, logger)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			g.LoggingInterceptor(logger),
			g.RateLimitInterceptor(g.NewPeerLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)),
			g.AuthInterceptor(authService),
		),
		grpc.ChainStreamInterceptor(
			g.LoggingStreamInterceptor(logger),
			g.AuthStreamInterceptor(authService),
		),
	)
	g.RegisterCheckoutServer(grpcServer, srv)
	healthServer := g.RegisterHealth(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPC.Addr())
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	healthServer.Shutdown()
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		grpcServer.Stop()
	}
	return nil
}

// openEvents connects to the broker, or logs instead when no broker is configured.
func openEvents(url string, logger *slog.Logger) (ports.Notifier, ports.EventPublisher, func(), error) {
	if url == "" {
		logger.Warn("AMQP_URL not set: OTP codes and order events go to the log")
		sink := events.NewLogSink(logger)
		return sink, sink, func() {}, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	pub, err := events.NewPublisher(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	return pub, pub, func() {
		_ = pub.Close()
		_ = conn.Close()
	}, nil
}
