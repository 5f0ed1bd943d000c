package models

import (
	"time"

	"github.com/google/uuid"
)

// Account holds the running credit balance of a user
// Version is bumped on every balance change and used for compare-and-swap updates
type Account struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Balance   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
