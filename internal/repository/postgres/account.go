package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/metrics"
	"github.com/nkiryanov/creditledger/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

// xmax is zero only for rows inserted by the statement itself
const initAccount = `-- name: InitAccount
INSERT INTO accounts (id, username, email, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, 0, 0, $4, $4)
ON CONFLICT (id) DO UPDATE
SET username = EXCLUDED.username, email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
RETURNING id, username, email, balance, version, created_at, updated_at, (xmax = 0) AS created
`

func (r *AccountRepo) InitAccount(ctx context.Context, id uuid.UUID, username string, email string) (models.Account, bool, error) {
	var (
		a       models.Account
		created bool
	)

	err := r.DB.QueryRow(ctx, initAccount, id, username, email, time.Now()).
		Scan(&a.ID, &a.Username, &a.Email, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt, &created)
	if err != nil {
		return a, false, fmt.Errorf("db error: %w", err)
	}

	return a, created, nil
}

const getAccount = `-- name: GetAccount
SELECT id, username, email, balance, version, created_at, updated_at
FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, id)
	a, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, pgx.ErrNoRows):
		return a, apperrors.ErrAccountNotFound
	default:
		return a, fmt.Errorf("db error: %w", err)
	}
}

const listAccounts = `-- name: ListAccounts
SELECT id, username, email, balance, version, created_at, updated_at
FROM accounts
ORDER BY created_at, id
`

func (r *AccountRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listAccounts)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

const swapAccountBalance = `-- name: SwapAccountBalance
UPDATE accounts
SET balance = $3, version = version + 1, updated_at = $4
WHERE id = $1 AND version = $2
RETURNING id, username, email, balance, version, created_at, updated_at
`

// Compare-and-swap on (id, version).
// Inside a transaction the competing writer blocks on the row lock,
// then sees the new version and reloads.
func (r *AccountRepo) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (models.Account, error) {
	return compareAndSwap(ctx, metrics.LedgerAccount,
		func(ctx context.Context) (models.Account, error) {
			return r.GetAccount(ctx, id)
		},
		func(ctx context.Context, a models.Account) (models.Account, error) {
			balance := a.Balance + delta
			if balance < 0 {
				return a, apperrors.NewInsufficientCredit(a.Balance, -delta)
			}

			rows, err := r.DB.Query(ctx, swapAccountBalance, a.ID, a.Version, balance, time.Now())
			if err != nil {
				return a, fmt.Errorf("db error: %w", err)
			}
			updated, err := pgx.CollectOneRow(rows, rowToAccount)

			switch {
			case err == nil:
				return updated, nil
			case errors.Is(err, pgx.ErrNoRows):
				return a, errVersionChanged
			default:
				return a, fmt.Errorf("db error: %w", err)
			}
		},
	)
}

// Children first, the account row last
var purgeAccounts = []string{
	`DELETE FROM credit_log WHERE account_id = ANY($1)`,
	`DELETE FROM redemptions WHERE account_id = ANY($1)`,
	`DELETE FROM payments WHERE account_id = ANY($1)`,
	`DELETE FROM bills WHERE account_id = ANY($1)`,
	`DELETE FROM leaderboard WHERE account_id = ANY($1)`,
	`DELETE FROM accounts WHERE id = ANY($1)`,
}

const accountsByEmail = `-- name: AccountsByEmail
SELECT id FROM accounts WHERE email = $1
`

// Should be called in transaction otherwise a failure leaves the account half deleted
func (r *AccountRepo) PurgeByEmail(ctx context.Context, email string) ([]uuid.UUID, error) {
	rows, _ := r.DB.Query(ctx, accountsByEmail, email)
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(ids) == 0 {
		return ids, nil
	}

	for _, stmt := range purgeAccounts {
		if _, err := r.DB.Exec(ctx, stmt, ids); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return ids, nil
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Balance, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
