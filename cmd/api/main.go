package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mcclellann/moneymap/pkg/auth"
	"github.com/mcclellann/moneymap/pkg/config"
	"github.com/mcclellann/moneymap/pkg/logger"
	"github.com/mcclellann/moneymap/pkg/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "moneymap: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.GetEnvOrDefaultAsString("MONEYMAP_CONFIG", "config.yaml"))
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logger.Sync()
	ctx := context.Background()

	if cfg.Auth.SecretGenerated {
		logger.Warn(ctx, "JWT_SECRET not configured, using a random per-process secret; sessions end on restart")
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise %s store: %w", cfg.Database.Driver, err)
	}
	defer db.Close()

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeSessions()

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionTTL)
	server := NewServer(db, auth.NewService(db, sessions, tokens, cfg.Auth.BcryptCost), cfg.Auth)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", zap.String("addr", httpServer.Addr), zap.String("driver", cfg.Database.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info(ctx, "shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "error during server shutdown", err)
	}
	logger.Info(ctx, "server exited")
	return nil
}

// newSessionStore connects to redis when enabled, otherwise revocations stay in process.
func newSessionStore(ctx context.Context, cfg config.RedisConfig) (auth.SessionStore, func(), error) {
	if !cfg.Enabled {
		logger.Info(ctx, "redis disabled, using in-memory session store")
		return auth.NewMemorySessionStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info(ctx, "connected to redis", zap.String("addr", cfg.Addr))
	return auth.NewRedisSessionStore(client), func() { client.Close() }, nil
}
