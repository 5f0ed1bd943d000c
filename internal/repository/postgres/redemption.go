package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/creditledger/internal/models"
)

type RedemptionRepo struct {
	DB DBTX
}

const createRedemption = `-- name: CreateRedemption
INSERT INTO redemptions (id, account_id, item_id, credit_spent, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, account_id, item_id, credit_spent, created_at
`

func (r *RedemptionRepo) CreateRedemption(ctx context.Context, rd models.Redemption) (models.Redemption, error) {
	rows, _ := r.DB.Query(ctx, createRedemption, rd.ID, rd.AccountID, rd.ItemID, rd.CreditSpent, rd.CreatedAt)
	created, err := pgx.CollectOneRow(rows, rowToRedemption)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listRedemptions = `-- name: ListRedemptions
SELECT id, account_id, item_id, credit_spent, created_at
FROM redemptions
WHERE account_id = $1
ORDER BY created_at DESC, id
`

func (r *RedemptionRepo) ListRedemptions(ctx context.Context, accountID uuid.UUID) ([]models.Redemption, error) {
	rows, _ := r.DB.Query(ctx, listRedemptions, accountID)
	redemptions, err := pgx.CollectRows(rows, rowToRedemption)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return redemptions, nil
}

func rowToRedemption(row pgx.CollectableRow) (models.Redemption, error) {
	var rd models.Redemption
	err := row.Scan(&rd.ID, &rd.AccountID, &rd.ItemID, &rd.CreditSpent, &rd.CreatedAt)
	return rd, err
}
