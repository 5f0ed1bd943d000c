package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error classes. Every domain error below wraps exactly one of them,
// so callers may branch on the class with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficient     = errors.New("insufficient funds")
	ErrInactiveResource = errors.New("inactive resource")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
)

var (
	ErrAccountNotFound = fmt.Errorf("account not found: %w", ErrNotFound)
	ErrBillNotFound    = fmt.Errorf("bill not found: %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment not found: %w", ErrNotFound)
	ErrRewardNotFound  = fmt.Errorf("reward not found: %w", ErrNotFound)
	ErrCardNotFound    = fmt.Errorf("card not found: %w", ErrNotFound)

	ErrAmountNotPositive = fmt.Errorf("amount must be positive: %w", ErrInvalidInput)
	ErrAmountOutOfRange  = fmt.Errorf("amount out of range: %w", ErrInvalidInput)

	ErrRewardInactive   = fmt.Errorf("reward not active: %w", ErrInactiveResource)
	ErrRewardOutOfStock = fmt.Errorf("reward out of stock: %w", ErrInactiveResource)

	ErrBillAlreadyPaid    = fmt.Errorf("bill already paid: %w", ErrConflict)
	ErrAccountExists      = fmt.Errorf("account already exists: %w", ErrConflict)
	ErrCardExists         = fmt.Errorf("card already exists: %w", ErrConflict)
	ErrConcurrentUpdate   = fmt.Errorf("balance update retries exhausted: %w", ErrConflict)
	ErrInsufficientCredit = fmt.Errorf("insufficient credit: %w", ErrInsufficient)
	ErrInsufficientFunds  = fmt.Errorf("insufficient balance: %w", ErrInsufficient)
)

// InsufficientFundsError reports what the caller has and what was asked for
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal

	// ErrInsufficientCredit for accounts, ErrInsufficientFunds for cards
	Kind error
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%v: available %s, required %s", e.Kind, e.Available.String(), e.Required.String())
}

func (e *InsufficientFundsError) Unwrap() error {
	return e.Kind
}

func NewInsufficientCredit(available, required int64) *InsufficientFundsError {
	return &InsufficientFundsError{
		Available: decimal.NewFromInt(available),
		Required:  decimal.NewFromInt(required),
		Kind:      ErrInsufficientCredit,
	}
}

func NewInsufficientFunds(available, required decimal.Decimal) *InsufficientFundsError {
	return &InsufficientFundsError{
		Available: available,
		Required:  required,
		Kind:      ErrInsufficientFunds,
	}
}

// Card validation sub-reasons
const (
	ReasonInvalidCardNumber    = "InvalidCardNumber"
	ReasonNameMismatch         = "NameMismatch"
	ReasonInvalidCVV           = "InvalidCVV"
	ReasonExpiredOrInvalidDate = "ExpiredOrInvalidDate"
	ReasonCardInactive         = "CardInactive"
)

var cardReasonMessages = map[string]string{
	ReasonInvalidCardNumber:    "Invalid card number.",
	ReasonNameMismatch:         "Card holder name does not match.",
	ReasonInvalidCVV:           "Invalid CVV.",
	ReasonExpiredOrInvalidDate: "Invalid or expired card.",
	ReasonCardInactive:         "This card is not active.",
}

// CardValidationError carries the specific reason a card was rejected.
// Message is meant to be shown to the user as is.
type CardValidationError struct {
	Reason string
}

func NewCardValidationError(reason string) *CardValidationError {
	return &CardValidationError{Reason: reason}
}

func (e *CardValidationError) Message() string {
	if m, ok := cardReasonMessages[e.Reason]; ok {
		return m
	}
	return "Card validation failed."
}

func (e *CardValidationError) Error() string {
	return fmt.Sprintf("card validation failed: %s", e.Reason)
}

func (e *CardValidationError) Unwrap() error {
	return ErrValidationFailed
}
