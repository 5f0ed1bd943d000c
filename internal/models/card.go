package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CardStatusActive  = "active"
	CardStatusBlocked = "blocked"

	DefaultCardExpiry = "12/28"
)

type Card struct {
	ID            uuid.UUID
	Number        string
	HolderName    string
	Expiry        string // MM/YY, compared as is
	SortCode      string
	AccountNumber string
	BankName      string
	CardType      string
	Currency      string
	Balance       decimal.Decimal
	Status        string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c Card) IsActive() bool {
	return c.Status == CardStatusActive
}

func (c Card) Masked() string {
	return MaskCardNumber(c.Number)
}

// ExpectedCVV is the last three digits of the number.
// Demo rule only, real cards never derive CVV from the number.
func (c Card) ExpectedCVV() string {
	if len(c.Number) < 3 {
		return ""
	}
	return c.Number[len(c.Number)-3:]
}

// CardTransaction is an immutable record of one card debit or top up
type CardTransaction struct {
	ID           uuid.UUID
	CardID       uuid.UUID
	Amount       decimal.Decimal // negative for debits
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// MaskCardNumber keeps the last four digits only
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
