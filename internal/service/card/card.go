package card

import (
	"context"
	"errors"
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

// Decline reasons on top of card validation ones
const (
	ReasonInvalidAmount     = "InvalidAmount"
	ReasonInsufficientFunds = "InsufficientFunds"
)

// Details the card holder types in at checkout
type CardDetails struct {
	Number     string
	HolderName string
	CVV        string
	Expiry     string // MM/YY
}

// PaymentResult is what the merchant sees.
// Declines are results, not errors.
type PaymentResult struct {
	Success       bool
	Message       string
	Reason        string // why the card was declined, empty on success
	NewBalance    decimal.Decimal
	TransactionID uuid.UUID
}

type CardService struct {
	storage repository.Storage
	logger  logger.Logger
	now     func() time.Time
}

func NewService(storage repository.Storage, logger logger.Logger) *CardService {
	return &CardService{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Checks run in fixed order and stop at the first mismatch:
// number, holder name (case insensitive), CVV, expiry, status
func (s *CardService) ValidateCard(ctx context.Context, d CardDetails) (models.Card, error) {
	return validate(ctx, s.storage.Card(), d)
}

func validate(ctx context.Context, cards repository.CardRepo, d CardDetails) (models.Card, error) {
	card, err := cards.GetByNumber(ctx, strings.TrimSpace(d.Number))
	switch {
	case errors.Is(err, apperrors.ErrCardNotFound):
		return card, apperrors.NewCardValidationError(apperrors.ReasonInvalidCardNumber)
	case err != nil:
		return card, err
	}

	switch {
	case !strings.EqualFold(card.HolderName, strings.TrimSpace(d.HolderName)):
		return card, apperrors.NewCardValidationError(apperrors.ReasonNameMismatch)
	case d.CVV != card.ExpectedCVV():
		return card, apperrors.NewCardValidationError(apperrors.ReasonInvalidCVV)
	case d.Expiry != card.Expiry:
		return card, apperrors.NewCardValidationError(apperrors.ReasonExpiredOrInvalidDate)
	case !card.IsActive():
		return card, apperrors.NewCardValidationError(apperrors.ReasonCardInactive)
	}

	return card, nil
}

// Validate the card and debit it.
// Only infrastructure faults are returned as errors
func (s *CardService) ProcessPayment(ctx context.Context, d CardDetails, amount decimal.Decimal) (PaymentResult, error) {
	defer metrics.ObserveSince("card_payment", time.Now())

	result, err := s.processPayment(ctx, d, amount)

	switch {
	case err != nil:
		metrics.CardDebits.WithLabelValues(metrics.OutcomeError).Inc()
	case result.Success:
		metrics.CardDebits.WithLabelValues(metrics.OutcomeSuccess).Inc()
	default:
		metrics.CardDebits.WithLabelValues(metrics.OutcomeRejected).Inc()
	}

	return result, err
}

func (s *CardService) processPayment(ctx context.Context, d CardDetails, amount decimal.Decimal) (PaymentResult, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return PaymentResult{Message: "Payment amount must be positive.", Reason: ReasonInvalidAmount}, nil
	}

	var (
		card models.Card
		txn  models.CardTransaction
	)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		card, err = validate(ctx, storage.Card(), d)
		if err != nil {
			return err
		}

		card, err = storage.Card().ApplyDelta(ctx, card.ID, amount.Neg())
		if err != nil {
			return err
		}

		txn, err = storage.Card().AppendTransaction(ctx, models.CardTransaction{
			ID:           uuid.New(),
			CardID:       card.ID,
			Amount:       amount.Neg(),
			BalanceAfter: card.Balance,
			CreatedAt:    s.now(),
		})
		return err
	})

	var (
		validationErr   *apperrors.CardValidationError
		insufficientErr *apperrors.InsufficientFundsError
	)

	switch {
	case err == nil:
	case errors.As(err, &validationErr):
		return PaymentResult{Message: validationErr.Message(), Reason: validationErr.Reason}, nil
	case errors.As(err, &insufficientErr):
		return PaymentResult{
			Message: fmt.Sprintf("Insufficient balance. Available: £%s, Required: £%s",
				insufficientErr.Available.StringFixed(2), insufficientErr.Required.StringFixed(2)),
			Reason: ReasonInsufficientFunds,
		}, nil
	default:
		return PaymentResult{}, fmt.Errorf("can't process card payment. Err: %w", err)
	}

	s.logger.Info("Card debited", "card", card.Masked(), "amount", amount, "transaction_id", txn.ID)

	return PaymentResult{
		Success:       true,
		Message:       fmt.Sprintf("Payment of £%s processed successfully", amount.StringFixed(2)),
		NewBalance:    card.Balance,
		TransactionID: txn.ID,
	}, nil
}

func (s *CardService) GetCard(ctx context.Context, number string) (models.Card, error) {
	return s.storage.Card().GetByNumber(ctx, strings.TrimSpace(number))
}

func (s *CardService) ListCards(ctx context.Context) ([]models.Card, error) {
	return s.storage.Card().ListCards(ctx)
}

// Seed a card. Empty optional fields get demo defaults
func (s *CardService) CreateCard(ctx context.Context, c models.Card) (models.Card, error) {
	c.Number = strings.TrimSpace(c.Number)
	c.HolderName = strings.TrimSpace(c.HolderName)
	if c.Number == "" || c.HolderName == "" {
		return c, fmt.Errorf("card number and holder name are required: %w", apperrors.ErrInvalidInput)
	}
	if c.Balance.IsNegative() {
		return c, fmt.Errorf("card balance must not be negative: %w", apperrors.ErrInvalidInput)
	}
	if c.Expiry == "" {
		c.Expiry = models.DefaultCardExpiry
	}
	if c.CardType == "" {
		c.CardType = "Debit"
	}
	if c.Currency == "" {
		c.Currency = "GBP"
	}

	card, err := s.storage.Card().CreateCard(ctx, c)
	if err != nil {
		return card, err
	}

	s.logger.Info("Card created", "card", card.Masked(), "bank", card.BankName)

	return card, nil
}

// Credit money to the card, the admin counterpart of ProcessPayment
func (s *CardService) TopUp(ctx context.Context, number string, amount decimal.Decimal) (models.Card, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return models.Card{}, apperrors.ErrAmountNotPositive
	}

	var card models.Card
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		card, err = storage.Card().GetByNumber(ctx, strings.TrimSpace(number))
		if err != nil {
			return err
		}

		card, err = storage.Card().ApplyDelta(ctx, card.ID, amount)
		if err != nil {
			return err
		}

		_, err = storage.Card().AppendTransaction(ctx, models.CardTransaction{
			ID:           uuid.New(),
			CardID:       card.ID,
			Amount:       amount,
			BalanceAfter: card.Balance,
			CreatedAt:    s.now(),
		})
		return err
	})
	if err != nil {
		return card, fmt.Errorf("can't top up card. Err: %w", err)
	}

	s.logger.Info("Card topped up", "card", card.Masked(), "amount", amount)

	return card, nil
}
