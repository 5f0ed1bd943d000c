package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/testutil"
)

func TestBillRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("CreateBill", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			account := createAccount(t, storage, "bills@example.com")

			t.Run("create ok", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					bank := "Barclays"
					bill, err := storage.Bill().CreateBill(t.Context(), repository.CreateBillParams{
						AccountID:    account.ID,
						Title:        "Electricity",
						ReceiverBank: &bank,
						Amount:       decimal.RequireFromString("120.50"),
						Category:     models.CategoryUtility,
						DueDate:      time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
					})

					require.NoError(t, err, "bill has to be created ok")
					require.NotZero(t, bill.ID)
					require.Equal(t, account.ID, bill.AccountID)
					require.Equal(t, models.BillStatusPending, bill.Status, "new bill is pending")
					require.True(t, bill.Amount.Equal(decimal.RequireFromString("120.50")))
					require.Equal(t, "Barclays", *bill.ReceiverBank)
					require.Nil(t, bill.Description)
					require.Nil(t, bill.PaidAt)
				})
			})

			t.Run("unknown account", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Bill().CreateBill(t.Context(), repository.CreateBillParams{
						AccountID: uuid.New(),
						Title:     "Rent",
						Amount:    decimal.NewFromInt(10),
						Category:  models.CategoryRent,
						DueDate:   time.Now(),
					})

					require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
				})
			})
		})
	})

	t.Run("GetBill and ListBills", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			alice := createAccount(t, storage, "alice@example.com")
			bob := createAccount(t, storage, "bob@example.com")
			aliceBill := createTestBill(t, storage, alice.ID, "100.00", models.CategoryRent)
			createTestBill(t, storage, bob.ID, "10.00", models.CategorySubscription)

			got, err := storage.Bill().GetBill(t.Context(), aliceBill.ID)
			require.NoError(t, err)
			require.Equal(t, aliceBill.ID, got.ID)

			_, err = storage.Bill().GetBill(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrBillNotFound)

			bills, err := storage.Bill().ListBills(t.Context(), alice.ID)
			require.NoError(t, err)
			require.Len(t, bills, 1, "only bills of the account expected")
			require.Equal(t, aliceBill.ID, bills[0].ID)

			bills, err = storage.Bill().ListBills(t.Context(), uuid.Nil)
			require.NoError(t, err)
			require.Len(t, bills, 2, "zero account id lists every bill")
		})
	})

	t.Run("MarkPaid", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			account := createAccount(t, storage, "payer@example.com")
			bill := createTestBill(t, storage, account.ID, "100.00", models.CategoryRent)
			paidAt := time.Now()

			paid, err := storage.Bill().MarkPaid(t.Context(), bill.ID, paidAt)
			require.NoError(t, err, "pending bill has to be paid ok")
			require.Equal(t, models.BillStatusPaid, paid.Status)
			require.NotNil(t, paid.PaidAt)
			require.WithinDuration(t, paidAt, *paid.PaidAt, time.Millisecond)

			_, err = storage.Bill().MarkPaid(t.Context(), bill.ID, time.Now())
			require.ErrorIs(t, err, apperrors.ErrBillAlreadyPaid, "bill must not be paid twice")

			_, err = storage.Bill().MarkPaid(t.Context(), uuid.New(), time.Now())
			require.ErrorIs(t, err, apperrors.ErrBillNotFound)
		})
	})
}

func TestPaymentRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
		account := createAccount(t, storage, "payments@example.com")
		bill := createTestBill(t, storage, account.ID, "250.00", models.CategoryUtility)
		otherBill := createTestBill(t, storage, account.ID, "15.00", models.CategorySubscription)

		name := "Alice"
		payment := models.Payment{
			ID:            uuid.New(),
			BillID:        bill.ID,
			AccountID:     account.ID,
			AmountPaid:    decimal.RequireFromString("250.00"),
			CreditAwarded: 7,
			Method:        "card",
			Status:        models.PaymentStatusSuccess,
			Payer:         models.Payer{Name: &name},
			CreatedAt:     time.Now(),
		}

		t.Run("create ok", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				created, err := storage.Payment().CreatePayment(t.Context(), payment)

				require.NoError(t, err, "payment has to be created ok")
				require.Equal(t, payment.ID, created.ID)
				require.EqualValues(t, 7, created.CreditAwarded)
				require.Equal(t, "Alice", *created.Payer.Name)
				require.Nil(t, created.Payer.Bank)

				got, err := storage.Payment().GetPayment(t.Context(), payment.ID)
				require.NoError(t, err)
				require.Equal(t, created.ID, got.ID)
			})
		})

		t.Run("second payment for bill rejected", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				_, err := storage.Payment().CreatePayment(t.Context(), payment)
				require.NoError(t, err)

				second := payment
				second.ID = uuid.New()
				_, err = storage.Payment().CreatePayment(t.Context(), second)

				require.ErrorIs(t, err, apperrors.ErrBillAlreadyPaid, "bill_id is unique across payments")
			})
		})

		t.Run("not found", func(t *testing.T) {
			_, err := storage.Payment().GetPayment(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
		})

		t.Run("list with filters", func(t *testing.T) {
			inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
				_, err := storage.Payment().CreatePayment(t.Context(), payment)
				require.NoError(t, err)
				other := payment
				other.ID = uuid.New()
				other.BillID = otherBill.ID
				_, err = storage.Payment().CreatePayment(t.Context(), other)
				require.NoError(t, err)

				all, err := storage.Payment().ListPayments(t.Context(), account.ID, uuid.Nil)
				require.NoError(t, err)
				require.Len(t, all, 2)

				byBill, err := storage.Payment().ListPayments(t.Context(), uuid.Nil, otherBill.ID)
				require.NoError(t, err)
				require.Len(t, byBill, 1)
				require.Equal(t, other.ID, byBill[0].ID)

				none, err := storage.Payment().ListPayments(t.Context(), uuid.New(), uuid.Nil)
				require.NoError(t, err)
				require.Empty(t, none)
			})
		})
	})
}
