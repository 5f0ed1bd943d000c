package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// Pages of one generation live in one hash under pagesKey:<generation>.
	// Invalidate bumps the generation, so a page built from data read before
	// the bump lands in a hash nobody reads and expires with its TTL.
	generationKey = "creditledger:leaderboard:gen"
	pagesKey      = "creditledger:leaderboard:top"
)

type LeaderboardService struct {
	storage repository.Storage
	logger  logger.Logger

	// Optional. Nil client disables caching
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(storage repository.Storage, cache *redis.Client, cacheTTL time.Duration, logger logger.Logger) *LeaderboardService {
	if cacheTTL <= 0 {
		cache = nil
	}

	return &LeaderboardService{
		storage:  storage,
		logger:   logger,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Clamp requested size to [1, MaxLimit], non positive means DefaultLimit
func NormalizeLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Top accounts by credits earned
// Cache failures are logged and never returned, the database is the source of truth
func (s *LeaderboardService) TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	n = NormalizeLimit(n)

	// Generation must be read before the database
	gen, cached := s.generation(ctx)
	if cached {
		if entries, ok := s.fromCache(ctx, gen, n); ok {
			return entries, nil
		}
	}

	entries, err := s.storage.Leaderboard().TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	if cached {
		s.toCache(ctx, gen, n, entries)
	}

	return entries, nil
}

// Retire every cached page. Called after each change of earned totals
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Incr(ctx, generationKey).Err(); err != nil {
		s.logger.Warn("Failed to invalidate leaderboard cache", "error", err)
	}
}

// Current cache generation. False means the cache is off or unreachable
func (s *LeaderboardService) generation(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}

	gen, err := s.cache.Get(ctx, generationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		s.logger.Warn("Failed to read leaderboard cache generation", "error", err)
		return 0, false
	}

	return gen, true
}

func pageKey(gen int64) string {
	return pagesKey + ":" + strconv.FormatInt(gen, 10)
}

func (s *LeaderboardService) fromCache(ctx context.Context, gen int64, n int) ([]models.LeaderboardEntry, bool) {
	raw, err := s.cache.HGet(ctx, pageKey(gen), strconv.Itoa(n)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		s.logger.Warn("Failed to read leaderboard cache", "error", err)
		return nil, false
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("Broken leaderboard cache entry", "error", err, "limit", n)
		return nil, false
	}

	return entries, true
}

func (s *LeaderboardService) toCache(ctx context.Context, gen int64, n int, entries []models.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		s.logger.Warn("Failed to encode leaderboard cache entry", "error", err)
		return
	}

	_, err = s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		key := pageKey(gen)
		pipe.HSet(ctx, key, strconv.Itoa(n), raw)
		pipe.Expire(ctx, key, s.cacheTTL)
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to write leaderboard cache", "error", err)
	}
}
