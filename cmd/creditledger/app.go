package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/creditledger/internal/db"
	"github.com/nkiryanov/creditledger/internal/handlers"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/repository/postgres"
	"github.com/nkiryanov/creditledger/internal/service/account"
	"github.com/nkiryanov/creditledger/internal/service/card"
	"github.com/nkiryanov/creditledger/internal/service/catalog"
	"github.com/nkiryanov/creditledger/internal/service/leaderboard"
	"github.com/nkiryanov/creditledger/internal/service/payment"
	"github.com/nkiryanov/creditledger/internal/service/redemption"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	pool   *pgxpool.Pool
	cache  *redis.Client
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Redis is optional, nil client disables leaderboard cache
	cache, err := db.ConnectRedis(ctx, c.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}
	if cache == nil {
		logger.Info("Leaderboard cache disabled")
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	board := leaderboard.NewService(storage, cache, c.LeaderboardCacheTTL, logger)
	services := handlers.Services{
		Accounts:    account.NewService(storage, logger),
		Payments:    payment.NewService(storage, board, logger),
		Catalog:     catalog.NewService(storage.Catalog(), logger),
		Redemptions: redemption.NewService(storage, board, logger),
		Leaderboard: board,
		Cards:       card.NewService(storage, logger),
		Pinger:      pool,
	}

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    handlers.NewRouter(services, c.CORSOrigins, logger),
		logger:     logger,
		pool:       pool,
		cache:      cache,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", "address", s.ListenAddr)

		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// Listen and serve until context is cancelled; then close gracefully connections
	g.Go(func() error {
		<-gctx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(timeoutCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
			return httpServer.Close()
		}

		s.logger.Info("HTTP server stopped")
		return err
	})

	return g.Wait()
}

func (s *ServerApp) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("Redis client close failed", "error", err)
		}
	}
	s.pool.Close()
}
