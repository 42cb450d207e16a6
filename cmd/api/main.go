package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/phone-otp-auth/internal/config"
	"github.com/phone-otp-auth/internal/infrastructure/dynamo"
	"github.com/phone-otp-auth/internal/infrastructure/mongodb"
	"github.com/phone-otp-auth/internal/infrastructure/redisinfra"
	"github.com/phone-otp-auth/internal/logging"
	transporthttp "github.com/phone-otp-auth/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	ctx := context.Background()
	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("init stores: %w", err)
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv,
		"store", cfg.StoreBackend, "ledger", cfg.LedgerBackend)
	return serve(srv, quit, logger)
}

// serve runs srv until it fails or a signal arrives on quit, then shuts it
// down gracefully. Listen errors are returned so deferred cleanup still runs.
func serve(srv *http.Server, quit <-chan os.Signal, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// buildDeps connects the configured store and ledger backends. The returned
// cleanup closes every connection that was opened.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*transporthttp.Deps, func(), error) {
	deps := &transporthttp.Deps{OTPTTL: cfg.OTPTTL, Logger: logger}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.StoreBackend {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, cleanup, err
		}
		if cfg.Bootstrap {
			dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		}
		deps.UserRepo = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
		deps.Allocator = dynamo.NewCounterRepo(client, cfg.DynamoTables.Metadata, cfg.CounterMaxAttempts)
		deps.VerificationRepo = dynamo.NewVerificationRepo(client, cfg.DynamoTables.PendingVerifications)

	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("disconnect mongo", "error", err)
			}
		})
		db := client.Database(cfg.MongoDB)
		if cfg.Bootstrap {
			if err := mongodb.EnsureIndexes(ctx, db); err != nil {
				return nil, cleanup, err
			}
		}
		deps.UserRepo = mongodb.NewUserRepo(db.Collection(mongodb.UsersCollection))
		deps.Allocator = mongodb.NewCounterRepo(db.Collection(mongodb.MetadataCollection), cfg.CounterMaxAttempts)
		deps.VerificationRepo = mongodb.NewVerificationRepo(db.Collection(mongodb.PendingVerificationsCollection))

	default:
		return nil, cleanup, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.LedgerBackend {
	case config.LedgerStore:
	case config.LedgerRedis:
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		})
		deps.VerificationRepo = redisinfra.NewVerificationRepo(client)
	default:
		return nil, cleanup, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	return deps, cleanup, nil
}
