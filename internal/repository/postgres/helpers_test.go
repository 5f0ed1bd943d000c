package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/testutil"
)

// Create transaction and storage on the transaction
// May be called several times (aka transaction in transaction)
func inTx(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
	testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
		storage := NewStorage(innerTx)
		fn(innerTx, storage)
	})
}

func createAccount(t *testing.T, storage repository.Storage, email string) models.Account {
	t.Helper()

	account, created, err := storage.Account().InitAccount(t.Context(), uuid.New(), "user-"+email, email)
	require.NoError(t, err, "account has to be created ok")
	require.True(t, created)

	return account
}

func createTestBill(t *testing.T, storage repository.Storage, accountID uuid.UUID, amount string, category string) models.Bill {
	t.Helper()

	bill, err := storage.Bill().CreateBill(t.Context(), repository.CreateBillParams{
		AccountID: accountID,
		Title:     "Monthly " + category,
		Amount:    decimal.RequireFromString(amount),
		Category:  category,
		DueDate:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err, "bill has to be created ok")

	return bill
}
