package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CatalogItemActive   = "active"
	CatalogItemInactive = "inactive"
)

type CatalogItem struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Cost        int64
	Status      string
	Stock       *int64 // nil means unlimited
	CreatedAt   time.Time
}

func (i CatalogItem) IsActive() bool {
	return i.Status == CatalogItemActive
}

func (i CatalogItem) InStock() bool {
	return i.Stock == nil || *i.Stock > 0
}
