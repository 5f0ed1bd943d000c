package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/repository/postgres"
	"github.com/nkiryanov/creditledger/internal/testutil"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(_ context.Context) {
	c.calls++
}

func newAccount(t *testing.T, storage repository.Storage) models.Account {
	t.Helper()

	account, _, err := storage.Account().InitAccount(t.Context(), uuid.New(), "payer", "payer@example.com")
	require.NoError(t, err)

	return account
}

func TestPaymentService(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(s *PaymentService, storage repository.Storage, cache *countingInvalidator)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			cache := &countingInvalidator{}
			fn(NewService(storage, cache, logger.NewNoOpLogger()), storage, cache)
		})
	}

	createBill := func(t *testing.T, s *PaymentService, accountID uuid.UUID, amount string, category string) models.Bill {
		t.Helper()

		bill, err := s.CreateBill(t.Context(), repository.CreateBillParams{
			AccountID: accountID,
			Title:     "Bill",
			Amount:    decimal.RequireFromString(amount),
			Category:  category,
			DueDate:   time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err, "bill has to be created ok")

		return bill
	}

	pay := func(t *testing.T, s *PaymentService, bill models.Bill) (models.Payment, error) {
		return s.RecordPayment(t.Context(), RecordPaymentParams{BillID: bill.ID, AmountPaid: bill.Amount, Method: "card"})
	}

	t.Run("CreateBill", func(t *testing.T) {
		t.Run("normalizes category", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				account := newAccount(t, storage)

				bill := createBill(t, s, account.ID, "10.00", "  UTILITY ")
				require.Equal(t, models.CategoryUtility, bill.Category)

				bill = createBill(t, s, account.ID, "10.00", "")
				require.Equal(t, models.CategoryRent, bill.Category, "empty category means rent")
			})
		})

		t.Run("invalid input", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				account := newAccount(t, storage)

				_, err := s.CreateBill(t.Context(), repository.CreateBillParams{AccountID: account.ID, Title: "x", Amount: decimal.Zero})
				require.ErrorIs(t, err, apperrors.ErrAmountNotPositive)

				_, err = s.CreateBill(t.Context(), repository.CreateBillParams{AccountID: account.ID, Title: " ", Amount: decimal.NewFromInt(1)})
				require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			})
		})

		t.Run("amount below a penny", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				account := newAccount(t, storage)

				_, err := s.CreateBill(t.Context(), repository.CreateBillParams{AccountID: account.ID, Title: "x", Amount: decimal.RequireFromString("0.004")})
				require.ErrorIs(t, err, apperrors.ErrAmountNotPositive)

				bills, err := s.ListBills(t.Context(), account.ID)
				require.NoError(t, err)
				require.Empty(t, bills)
			})
		})

		t.Run("amount too large for the ledger", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				account := newAccount(t, storage)

				_, err := s.CreateBill(t.Context(), repository.CreateBillParams{AccountID: account.ID, Title: "x", Amount: decimal.RequireFromString("10000000000000")})
				require.ErrorIs(t, err, apperrors.ErrAmountOutOfRange)
				require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			})
		})
	})

	t.Run("RecordPayment", func(t *testing.T) {
		t.Run("rate table", func(t *testing.T) {
			tests := []struct {
				category string
				want     int64
			}{
				{models.CategoryRent, 5},
				{models.CategoryUtility, 3},
				{models.CategorySubscription, 2},
				{"groceries", 5},
			}

			for _, tt := range tests {
				t.Run(tt.category, func(t *testing.T) {
					inTx(t, func(s *PaymentService, storage repository.Storage, cache *countingInvalidator) {
						account := newAccount(t, storage)
						bill := createBill(t, s, account.ID, "100.00", tt.category)

						payment, err := pay(t, s, bill)

						require.NoError(t, err, "payment has to be recorded ok")
						require.Equal(t, tt.want, payment.CreditAwarded)
						require.Equal(t, 1, cache.calls, "leaderboard cache must be invalidated")

						stored, err := storage.Account().GetAccount(t.Context(), account.ID)
						require.NoError(t, err)
						require.Equal(t, tt.want, stored.Balance)
					})
				})
			}
		})

		t.Run("writes bill payment log and leaderboard", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				account := newAccount(t, storage)
				bill := createBill(t, s, account.ID, "250.00", models.CategoryUtility)
				name := "Alice"

				payment, err := s.RecordPayment(t.Context(), RecordPaymentParams{
					BillID:     bill.ID,
					AmountPaid: bill.Amount,
					Method:     "bank_transfer",
					Payer:      models.Payer{Name: &name},
				})
				require.NoError(t, err)
				require.EqualValues(t, 7, payment.CreditAwarded, "250 * 3% = 7.50, floored")

				paidBill, err := s.GetBill(t.Context(), bill.ID)
				require.NoError(t, err)
				require.True(t, paidBill.IsPaid())
				require.NotNil(t, paidBill.PaidAt)

				log, err := storage.CreditLog().ListByAccount(t.Context(), account.ID)
				require.NoError(t, err)
				require.Len(t, log, 1)
				require.Equal(t, models.SourcePayment, log[0].SourceType)
				require.Equal(t, payment.ID, *log[0].SourceID, "log entry points to the payment")
				require.EqualValues(t, 7, log[0].ChangeAmount)
				require.EqualValues(t, 7, log[0].BalanceAfter)

				top, err := storage.Leaderboard().TopN(t.Context(), 100)
				require.NoError(t, err)
				var found bool
				for _, e := range top {
					if e.AccountID == account.ID {
						found = true
						require.EqualValues(t, 7, e.TotalEarned)
					}
				}
				require.True(t, found, "account must be ranked after earning")

				payments, err := s.ListPayments(t.Context(), account.ID, uuid.Nil)
				require.NoError(t, err)
				require.Len(t, payments, 1)
				require.Equal(t, "Alice", *payments[0].Payer.Name)
			})
		})

		t.Run("second payment rejected", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, cache *countingInvalidator) {
				account := newAccount(t, storage)
				bill := createBill(t, s, account.ID, "100.00", models.CategoryRent)

				_, err := pay(t, s, bill)
				require.NoError(t, err)

				_, err = pay(t, s, bill)

				require.ErrorIs(t, err, apperrors.ErrBillAlreadyPaid)
				require.ErrorIs(t, err, apperrors.ErrConflict)
				stored, err := storage.Account().GetAccount(t.Context(), account.ID)
				require.NoError(t, err)
				require.EqualValues(t, 5, stored.Balance, "credits must be awarded once")
				require.Equal(t, 1, cache.calls)
			})
		})

		t.Run("small amount earns nothing", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, cache *countingInvalidator) {
				account := newAccount(t, storage)
				bill := createBill(t, s, account.ID, "19.00", models.CategoryRent)

				payment, err := pay(t, s, bill)

				require.NoError(t, err)
				require.Zero(t, payment.CreditAwarded)
				log, err := storage.CreditLog().ListByAccount(t.Context(), account.ID)
				require.NoError(t, err)
				require.Empty(t, log, "zero credit is not a balance change")
				require.Zero(t, cache.calls)
			})
		})

		t.Run("invalid input", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				_, err := s.RecordPayment(t.Context(), RecordPaymentParams{BillID: uuid.New(), AmountPaid: decimal.NewFromInt(-1), Method: "card"})
				require.ErrorIs(t, err, apperrors.ErrAmountNotPositive)
				require.ErrorIs(t, err, apperrors.ErrInvalidInput)

				_, err = s.RecordPayment(t.Context(), RecordPaymentParams{BillID: uuid.New(), AmountPaid: decimal.NewFromInt(1)})
				require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			})
		})

		t.Run("amount below a penny", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, cache *countingInvalidator) {
				account := newAccount(t, storage)
				bill := createBill(t, s, account.ID, "10.00", models.CategoryRent)

				_, err := s.RecordPayment(t.Context(), RecordPaymentParams{BillID: bill.ID, AmountPaid: decimal.RequireFromString("0.001"), Method: "card"})
				require.ErrorIs(t, err, apperrors.ErrAmountNotPositive)

				got, err := s.GetBill(t.Context(), bill.ID)
				require.NoError(t, err)
				require.Equal(t, models.BillStatusPending, got.Status)
				require.Zero(t, cache.calls)
			})
		})

		t.Run("amount is rounded to pennies", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, _ *countingInvalidator) {
				account := newAccount(t, storage)
				bill := createBill(t, s, account.ID, "200.00", models.CategoryRent)

				payment, err := s.RecordPayment(t.Context(), RecordPaymentParams{BillID: bill.ID, AmountPaid: decimal.RequireFromString("199.996"), Method: "card"})

				require.NoError(t, err)
				require.True(t, payment.AmountPaid.Equal(decimal.RequireFromString("200.00")), "got %s", payment.AmountPaid)
				require.EqualValues(t, 10, payment.CreditAwarded)
			})
		})

		t.Run("amount too large for the ledger", func(t *testing.T) {
			inTx(t, func(s *PaymentService, storage repository.Storage, cache *countingInvalidator) {
				account := newAccount(t, storage)
				bill := createBill(t, s, account.ID, "10.00", models.CategoryRent)

				_, err := s.RecordPayment(t.Context(), RecordPaymentParams{BillID: bill.ID, AmountPaid: decimal.RequireFromString("10000000000000"), Method: "card"})
				require.ErrorIs(t, err, apperrors.ErrAmountOutOfRange)

				got, err := s.GetBill(t.Context(), bill.ID)
				require.NoError(t, err)
				require.Equal(t, models.BillStatusPending, got.Status, "failed payment leaves the bill unpaid")
				require.Zero(t, cache.calls)
			})
		})

		t.Run("bill not found", func(t *testing.T) {
			inTx(t, func(s *PaymentService, _ repository.Storage, _ *countingInvalidator) {
				_, err := s.RecordPayment(t.Context(), RecordPaymentParams{BillID: uuid.New(), AmountPaid: decimal.NewFromInt(10), Method: "card"})
				require.ErrorIs(t, err, apperrors.ErrBillNotFound)
			})
		})
	})

	// Runs on the pool, every payment commits
	t.Run("concurrent payments of one bill", func(t *testing.T) {
		storage := postgres.NewStorage(pg.Pool)
		s := NewService(storage, nil, logger.NewNoOpLogger())
		account := newAccount(t, storage)
		bill := createBill(t, s, account.ID, "1000.00", models.CategoryRent)

		const attempts = 8
		results := make([]error, attempts)
		var g errgroup.Group
		for i := range attempts {
			g.Go(func() error {
				_, results[i] = pay(t, s, bill)
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var paid, rejected int
		for _, err := range results {
			switch {
			case err == nil:
				paid++
			case errors.Is(err, apperrors.ErrBillAlreadyPaid):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, paid, "exactly one payment must win")
		require.Equal(t, attempts-1, rejected)

		stored, err := storage.Account().GetAccount(t.Context(), account.ID)
		require.NoError(t, err)
		require.EqualValues(t, 50, stored.Balance)
		sum, err := storage.CreditLog().SumByAccount(t.Context(), account.ID)
		require.NoError(t, err)
		require.Equal(t, stored.Balance, sum, "credit log must reconcile with balance")
	})
}
