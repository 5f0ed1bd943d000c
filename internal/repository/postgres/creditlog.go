package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/creditledger/internal/models"
)

type CreditLogRepo struct {
	DB DBTX
}

const appendCreditLog = `-- name: AppendCreditLog
INSERT INTO credit_log (id, account_id, source_type, source_id, change_amount, balance_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, seq, account_id, source_type, source_id, change_amount, balance_after, created_at
`

// Seq is assigned by the database, the value in entry is ignored
func (r *CreditLogRepo) Append(ctx context.Context, e models.CreditLogEntry) (models.CreditLogEntry, error) {
	rows, _ := r.DB.Query(ctx, appendCreditLog,
		e.ID, e.AccountID, e.SourceType, e.SourceID, e.ChangeAmount, e.BalanceAfter, e.CreatedAt,
	)
	entry, err := pgx.CollectOneRow(rows, rowToCreditLogEntry)
	if err != nil {
		return entry, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

const listCreditLog = `-- name: ListCreditLog
SELECT id, seq, account_id, source_type, source_id, change_amount, balance_after, created_at
FROM credit_log
WHERE account_id = $1
ORDER BY seq
`

func (r *CreditLogRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.CreditLogEntry, error) {
	rows, _ := r.DB.Query(ctx, listCreditLog, accountID)
	entries, err := pgx.CollectRows(rows, rowToCreditLogEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

const sumCreditLog = `-- name: SumCreditLog
SELECT COALESCE(SUM(change_amount), 0)::bigint
FROM credit_log
WHERE account_id = $1
`

func (r *CreditLogRepo) SumByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	rows, _ := r.DB.Query(ctx, sumCreditLog, accountID)
	sum, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return sum, nil
}

func rowToCreditLogEntry(row pgx.CollectableRow) (models.CreditLogEntry, error) {
	var e models.CreditLogEntry
	err := row.Scan(&e.ID, &e.Seq, &e.AccountID, &e.SourceType, &e.SourceID, &e.ChangeAmount, &e.BalanceAfter, &e.CreatedAt)
	return e, err
}
