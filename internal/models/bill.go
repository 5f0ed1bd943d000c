package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	BillStatusPending = "pending"
	BillStatusPaid    = "paid"
)

const (
	CategoryRent         = "rent"
	CategoryUtility      = "utility"
	CategorySubscription = "subscription"
)

var (
	defaultRewardRate = decimal.RequireFromString("5.0")
	rewardRates       = map[string]decimal.Decimal{
		CategoryRent:         decimal.RequireFromString("5.0"),
		CategoryUtility:      decimal.RequireFromString("3.0"),
		CategorySubscription: decimal.RequireFromString("2.0"),
	}

	hundred = decimal.NewFromInt(100)
)

type Bill struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Title        string
	Description  *string
	ReceiverBank *string
	ReceiverName *string
	Amount       decimal.Decimal
	Category     string
	Status       string
	DueDate      time.Time
	CreatedAt    time.Time
	PaidAt       *time.Time // nil until the bill is paid
}

func (b Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}

// RewardRate is the percent of a paid amount converted to credits
func (b Bill) RewardRate() decimal.Decimal {
	return RewardRate(b.Category)
}

// RewardEarned is the credit a full payment of the bill would award
func (b Bill) RewardEarned() int64 {
	return CreditFor(b.Amount, b.Category)
}

// NormalizeCategory lowercases the category; empty category means rent
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return CategoryRent
	}
	return c
}

// RewardRate returns the rate for the category, unknown categories get the default one
func RewardRate(category string) decimal.Decimal {
	if rate, ok := rewardRates[NormalizeCategory(category)]; ok {
		return rate
	}
	return defaultRewardRate
}

// CreditFor converts a paid amount into whole credits:
// amount * rate / 100, rounded half up to cents, then floored
func CreditFor(amount decimal.Decimal, category string) int64 {
	if !amount.IsPositive() {
		return 0
	}

	raw := amount.Mul(RewardRate(category)).Div(hundred).Round(2)
	return raw.Floor().IntPart()
}
