package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourcePayment    = "Payment"
	SourceRedemption = "Redemption"
	SourceAdjustment = "Adjustment"
)

// CreditLogEntry is an immutable record of one balance change
// BalanceAfter equals the account balance right after the change
type CreditLogEntry struct {
	ID           uuid.UUID
	Seq          int64
	AccountID    uuid.UUID
	SourceType   string
	SourceID     *uuid.UUID
	ChangeAmount int64
	BalanceAfter int64
	CreatedAt    time.Time
}
