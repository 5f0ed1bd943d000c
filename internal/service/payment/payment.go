package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/metrics"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

var (
	errTitleRequired  = fmt.Errorf("bill title is required: %w", apperrors.ErrInvalidInput)
	errMethodRequired = fmt.Errorf("payment method is required: %w", apperrors.ErrInvalidInput)
)

// Something that caches derived data and has to forget it when credits move
type invalidator interface {
	Invalidate(ctx context.Context)
}

type PaymentService struct {
	storage     repository.Storage
	logger      logger.Logger
	leaderboard invalidator
	now         func() time.Time
}

// leaderboard may be nil
func NewService(storage repository.Storage, leaderboard invalidator, logger logger.Logger) *PaymentService {
	return &PaymentService{
		storage:     storage,
		logger:      logger,
		leaderboard: leaderboard,
		now:         time.Now,
	}
}

func (s *PaymentService) CreateBill(ctx context.Context, p repository.CreateBillParams) (models.Bill, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return models.Bill{}, errTitleRequired
	}
	p.Amount = p.Amount.Round(2)
	if !p.Amount.IsPositive() {
		return models.Bill{}, apperrors.ErrAmountNotPositive
	}
	p.Category = models.NormalizeCategory(p.Category)

	bill, err := s.storage.Bill().CreateBill(ctx, p)
	if err != nil {
		return bill, err
	}

	s.logger.Info("Bill created", "bill_id", bill.ID, "account_id", bill.AccountID, "amount", bill.Amount, "category", bill.Category)

	return bill, nil
}

func (s *PaymentService) GetBill(ctx context.Context, id uuid.UUID) (models.Bill, error) {
	return s.storage.Bill().GetBill(ctx, id)
}

func (s *PaymentService) ListBills(ctx context.Context, accountID uuid.UUID) ([]models.Bill, error) {
	return s.storage.Bill().ListBills(ctx, accountID)
}

func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (models.Payment, error) {
	return s.storage.Payment().GetPayment(ctx, id)
}

func (s *PaymentService) ListPayments(ctx context.Context, accountID uuid.UUID, billID uuid.UUID) ([]models.Payment, error) {
	return s.storage.Payment().ListPayments(ctx, accountID, billID)
}

type RecordPaymentParams struct {
	BillID     uuid.UUID
	AmountPaid decimal.Decimal
	Method     string
	Payer      models.Payer
}

// Pay the bill and award credits for it.
// Every write happens in one transaction: the bill is either paid with credits awarded,
// logged and ranked, or nothing changes at all.
// Paying a paid bill again returns apperrors.ErrBillAlreadyPaid and awards nothing.
func (s *PaymentService) RecordPayment(ctx context.Context, p RecordPaymentParams) (models.Payment, error) {
	defer metrics.ObserveSince("record_payment", time.Now())

	// Amounts are stored with two decimal places, anything below a penny rounds to zero
	p.AmountPaid = p.AmountPaid.Round(2)
	if !p.AmountPaid.IsPositive() {
		return models.Payment{}, apperrors.ErrAmountNotPositive
	}
	p.Method = strings.TrimSpace(p.Method)
	if p.Method == "" {
		return models.Payment{}, errMethodRequired
	}

	var (
		payment models.Payment
		bill    models.Bill
		account models.Account
	)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		now := s.now()

		var err error
		bill, err = storage.Bill().MarkPaid(ctx, p.BillID, now)
		if err != nil {
			return err
		}

		payment, err = storage.Payment().CreatePayment(ctx, models.Payment{
			ID:            uuid.New(),
			BillID:        bill.ID,
			AccountID:     bill.AccountID,
			AmountPaid:    p.AmountPaid,
			CreditAwarded: models.CreditFor(p.AmountPaid, bill.Category),
			Method:        p.Method,
			Status:        models.PaymentStatusSuccess,
			Payer:         p.Payer,
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}

		// Nothing earned, nothing to log or rank
		if payment.CreditAwarded == 0 {
			return nil
		}

		account, err = storage.Account().ApplyDelta(ctx, bill.AccountID, payment.CreditAwarded)
		if err != nil {
			return err
		}

		_, err = storage.CreditLog().Append(ctx, models.CreditLogEntry{
			ID:           uuid.New(),
			AccountID:    account.ID,
			SourceType:   models.SourcePayment,
			SourceID:     &payment.ID,
			ChangeAmount: payment.CreditAwarded,
			BalanceAfter: account.Balance,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		return storage.Leaderboard().AddEarned(ctx, account.ID, payment.CreditAwarded, now)
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("can't record payment. Err: %w", err)
	}

	metrics.PaymentsRecorded.WithLabelValues(bill.Category).Inc()
	metrics.CreditsAwarded.Add(float64(payment.CreditAwarded))
	if s.leaderboard != nil && payment.CreditAwarded > 0 {
		s.leaderboard.Invalidate(ctx)
	}

	s.logger.Info("Payment recorded",
		"payment_id", payment.ID,
		"bill_id", bill.ID,
		"account_id", bill.AccountID,
		"amount", payment.AmountPaid,
		"credit", payment.CreditAwarded,
	)

	return payment, nil
}
