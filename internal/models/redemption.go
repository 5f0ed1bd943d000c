package models

import (
	"time"

	"github.com/google/uuid"
)

const RedemptionStatusClaimed = "Claimed"

type Redemption struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	ItemID      uuid.UUID
	CreditSpent int64
	CreatedAt   time.Time
}
