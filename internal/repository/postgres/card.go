package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/metrics"
	"github.com/nkiryanov/creditledger/internal/models"
)

type CardRepo struct {
	DB DBTX
}

const cardColumns = `id, card_number, holder_name, expiry, sort_code, account_number, bank_name, card_type, currency, balance, status, version, created_at, updated_at`

const createCard = `-- name: CreateCard
INSERT INTO cards (` + cardColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $12)
RETURNING ` + cardColumns

func (r *CardRepo) CreateCard(ctx context.Context, c models.Card) (models.Card, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.CardStatusActive
	}

	rows, _ := r.DB.Query(ctx, createCard,
		c.ID, c.Number, c.HolderName, c.Expiry, c.SortCode, c.AccountNumber,
		c.BankName, c.CardType, c.Currency, c.Balance, c.Status, time.Now(),
	)
	created, err := pgx.CollectOneRow(rows, rowToCard)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrCardExists
		}

		return created, amountError(err)
	}

	return created, nil
}

const getCardByNumber = `-- name: GetCardByNumber
SELECT ` + cardColumns + `
FROM cards
WHERE card_number = $1
`

func (r *CardRepo) GetByNumber(ctx context.Context, number string) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCardByNumber, number)
	c, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return c, apperrors.ErrCardNotFound
	default:
		return c, fmt.Errorf("db error: %w", err)
	}
}

const getCardByID = `-- name: GetCardByID
SELECT ` + cardColumns + `
FROM cards
WHERE id = $1
`

func (r *CardRepo) getByID(ctx context.Context, id uuid.UUID) (models.Card, error) {
	rows, _ := r.DB.Query(ctx, getCardByID, id)
	c, err := pgx.CollectOneRow(rows, rowToCard)

	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		return c, apperrors.ErrCardNotFound
	default:
		return c, fmt.Errorf("db error: %w", err)
	}
}

const listCards = `-- name: ListCards
SELECT ` + cardColumns + `
FROM cards
ORDER BY created_at, card_number
`

func (r *CardRepo) ListCards(ctx context.Context) ([]models.Card, error) {
	rows, _ := r.DB.Query(ctx, listCards)
	cards, err := pgx.CollectRows(rows, rowToCard)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return cards, nil
}

const swapCardBalance = `-- name: SwapCardBalance
UPDATE cards
SET balance = $3, version = version + 1, updated_at = $4
WHERE id = $1 AND version = $2
RETURNING ` + cardColumns

func (r *CardRepo) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (models.Card, error) {
	return compareAndSwap(ctx, metrics.LedgerCard,
		func(ctx context.Context) (models.Card, error) {
			return r.getByID(ctx, id)
		},
		func(ctx context.Context, c models.Card) (models.Card, error) {
			balance := c.Balance.Add(delta)
			if balance.IsNegative() {
				return c, apperrors.NewInsufficientFunds(c.Balance, delta.Neg())
			}

			rows, err := r.DB.Query(ctx, swapCardBalance, c.ID, c.Version, balance, time.Now())
			if err != nil {
				return c, amountError(err)
			}
			updated, err := pgx.CollectOneRow(rows, rowToCard)

			switch {
			case err == nil:
				return updated, nil
			case errors.Is(err, pgx.ErrNoRows):
				return c, errVersionChanged
			default:
				return c, amountError(err)
			}
		},
	)
}

const appendCardTransaction = `-- name: AppendCardTransaction
INSERT INTO card_transactions (id, card_id, amount, balance_after, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, card_id, amount, balance_after, created_at
`

func (r *CardRepo) AppendTransaction(ctx context.Context, t models.CardTransaction) (models.CardTransaction, error) {
	rows, _ := r.DB.Query(ctx, appendCardTransaction, t.ID, t.CardID, t.Amount, t.BalanceAfter, t.CreatedAt)
	created, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.CardTransaction, error) {
		var ct models.CardTransaction
		err := row.Scan(&ct.ID, &ct.CardID, &ct.Amount, &ct.BalanceAfter, &ct.CreatedAt)
		return ct, err
	})
	if err != nil {
		return created, amountError(err)
	}

	return created, nil
}

func rowToCard(row pgx.CollectableRow) (models.Card, error) {
	var c models.Card
	err := row.Scan(
		&c.ID, &c.Number, &c.HolderName, &c.Expiry, &c.SortCode, &c.AccountNumber,
		&c.BankName, &c.CardType, &c.Currency, &c.Balance, &c.Status, &c.Version,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
