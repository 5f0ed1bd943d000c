package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/models"
)

type PaymentRepo struct {
	DB DBTX
}

const paymentColumns = `id, bill_id, account_id, amount_paid, credit_awarded, payment_method, status, payer_name, payer_bank, order_number, remark, created_at`

const createPayment = `-- name: CreatePayment
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + paymentColumns

func (r *PaymentRepo) CreatePayment(ctx context.Context, p models.Payment) (models.Payment, error) {
	rows, _ := r.DB.Query(ctx, createPayment,
		p.ID, p.BillID, p.AccountID, p.AmountPaid, p.CreditAwarded, p.Method, p.Status,
		p.Payer.Name, p.Payer.Bank, p.Payer.OrderNumber, p.Payer.Remark, p.CreatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToPayment)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return created, apperrors.ErrBillAlreadyPaid
			case pgerrcode.ForeignKeyViolation:
				return created, apperrors.ErrBillNotFound
			}
		}

		return created, amountError(err)
	}

	return created, nil
}

const getPayment = `-- name: GetPayment
SELECT ` + paymentColumns + `
FROM payments
WHERE id = $1
`

func (r *PaymentRepo) GetPayment(ctx context.Context, id uuid.UUID) (models.Payment, error) {
	rows, _ := r.DB.Query(ctx, getPayment, id)
	p, err := pgx.CollectOneRow(rows, rowToPayment)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrPaymentNotFound
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

const listPayments = `-- name: ListPayments
SELECT ` + paymentColumns + `
FROM payments
WHERE ($1::uuid IS NULL OR account_id = $1)
  AND ($2::uuid IS NULL OR bill_id = $2)
ORDER BY created_at DESC, id
`

func (r *PaymentRepo) ListPayments(ctx context.Context, accountID uuid.UUID, billID uuid.UUID) ([]models.Payment, error) {
	rows, _ := r.DB.Query(ctx, listPayments, nullableID(accountID), nullableID(billID))
	payments, err := pgx.CollectRows(rows, rowToPayment)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return payments, nil
}

func rowToPayment(row pgx.CollectableRow) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.BillID, &p.AccountID, &p.AmountPaid, &p.CreditAwarded, &p.Method, &p.Status,
		&p.Payer.Name, &p.Payer.Bank, &p.Payer.OrderNumber, &p.Payer.Remark, &p.CreatedAt,
	)
	return p, err
}
