package models

import (
	"time"

	"github.com/google/uuid"
)

type LeaderboardEntry struct {
	AccountID     uuid.UUID
	TotalEarned   int64
	TotalRedeemed int64
	LastUpdated   time.Time
}
