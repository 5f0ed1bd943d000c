package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusSuccess = "success"
)

// Payer describes who paid the bill; every field is optional
type Payer struct {
	Name        *string
	Bank        *string
	OrderNumber *string
	Remark      *string
}

type Payment struct {
	ID            uuid.UUID
	BillID        uuid.UUID
	AccountID     uuid.UUID
	AmountPaid    decimal.Decimal
	CreditAwarded int64
	Method        string
	Status        string
	Payer         Payer
	CreatedAt     time.Time
}
