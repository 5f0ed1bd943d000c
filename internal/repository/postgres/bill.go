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

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

type BillRepo struct {
	DB DBTX
}

const billColumns = `id, account_id, title, description, receiver_bank, receiver_name, amount, category, status, due_date, created_at, paid_at`

const createBill = `-- name: CreateBill
INSERT INTO bills (id, account_id, title, description, receiver_bank, receiver_name, amount, category, status, due_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + billColumns

func (r *BillRepo) CreateBill(ctx context.Context, p repository.CreateBillParams) (models.Bill, error) {
	rows, _ := r.DB.Query(ctx, createBill,
		uuid.New(), p.AccountID, p.Title, p.Description, p.ReceiverBank, p.ReceiverName,
		p.Amount, p.Category, models.BillStatusPending, p.DueDate, time.Now(),
	)
	b, err := pgx.CollectOneRow(rows, rowToBill)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return b, apperrors.ErrAccountNotFound
		}

		return b, amountError(err)
	}

	return b, nil
}

const getBill = `-- name: GetBill
SELECT ` + billColumns + `
FROM bills
WHERE id = $1
`

func (r *BillRepo) GetBill(ctx context.Context, id uuid.UUID) (models.Bill, error) {
	rows, _ := r.DB.Query(ctx, getBill, id)
	b, err := pgx.CollectOneRow(rows, rowToBill)

	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, pgx.ErrNoRows):
		return b, apperrors.ErrBillNotFound
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

const listBills = `-- name: ListBills
SELECT ` + billColumns + `
FROM bills
WHERE $1::uuid IS NULL OR account_id = $1
ORDER BY created_at DESC, id
`

func (r *BillRepo) ListBills(ctx context.Context, accountID uuid.UUID) ([]models.Bill, error) {
	rows, _ := r.DB.Query(ctx, listBills, nullableID(accountID))
	bills, err := pgx.CollectRows(rows, rowToBill)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return bills, nil
}

// Only pending bill may become paid
const markBillPaid = `-- name: MarkBillPaid
UPDATE bills
SET status = 'paid', paid_at = $2
WHERE id = $1 AND status = 'pending'
RETURNING ` + billColumns

func (r *BillRepo) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (models.Bill, error) {
	rows, _ := r.DB.Query(ctx, markBillPaid, id, paidAt)
	b, err := pgx.CollectOneRow(rows, rowToBill)

	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either no such bill or it is paid already
		b, err = r.GetBill(ctx, id)
		if err != nil {
			return b, err
		}
		return b, apperrors.ErrBillAlreadyPaid
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

func rowToBill(row pgx.CollectableRow) (models.Bill, error) {
	var b models.Bill
	err := row.Scan(
		&b.ID, &b.AccountID, &b.Title, &b.Description, &b.ReceiverBank, &b.ReceiverName,
		&b.Amount, &b.Category, &b.Status, &b.DueDate, &b.CreatedAt, &b.PaidAt,
	)
	return b, err
}

// Zero uuid becomes NULL so it may be used as "no filter"
func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
