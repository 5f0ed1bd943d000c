package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/creditledger/internal/models"
)

type LeaderboardRepo struct {
	DB DBTX
}

const ensureLeaderboard = `-- name: EnsureLeaderboard
INSERT INTO leaderboard (account_id, total_earned, total_redeemed, last_updated)
VALUES ($1, 0, 0, $2)
ON CONFLICT (account_id) DO NOTHING
`

func (r *LeaderboardRepo) Ensure(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	_, err := r.DB.Exec(ctx, ensureLeaderboard, accountID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// last_updated follows total_earned only, it breaks ties in ranking
const addEarned = `-- name: AddEarned
INSERT INTO leaderboard (account_id, total_earned, total_redeemed, last_updated)
VALUES ($1, $2, 0, $3)
ON CONFLICT (account_id) DO UPDATE
SET total_earned = leaderboard.total_earned + EXCLUDED.total_earned,
    last_updated = EXCLUDED.last_updated
`

func (r *LeaderboardRepo) AddEarned(ctx context.Context, accountID uuid.UUID, credits int64, at time.Time) error {
	_, err := r.DB.Exec(ctx, addEarned, accountID, credits, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const addRedeemed = `-- name: AddRedeemed
INSERT INTO leaderboard (account_id, total_earned, total_redeemed, last_updated)
VALUES ($1, 0, $2, $3)
ON CONFLICT (account_id) DO UPDATE
SET total_redeemed = leaderboard.total_redeemed + EXCLUDED.total_redeemed
`

func (r *LeaderboardRepo) AddRedeemed(ctx context.Context, accountID uuid.UUID, credits int64, at time.Time) error {
	_, err := r.DB.Exec(ctx, addRedeemed, accountID, credits, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const topLeaderboard = `-- name: TopLeaderboard
SELECT account_id, total_earned, total_redeemed, last_updated
FROM leaderboard
ORDER BY total_earned DESC, last_updated ASC, account_id ASC
LIMIT $1
`

func (r *LeaderboardRepo) TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	rows, _ := r.DB.Query(ctx, topLeaderboard, n)
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LeaderboardEntry, error) {
		var e models.LeaderboardEntry
		err := row.Scan(&e.AccountID, &e.TotalEarned, &e.TotalRedeemed, &e.LastUpdated)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}
