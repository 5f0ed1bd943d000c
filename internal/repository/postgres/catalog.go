package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

type CatalogRepo struct {
	DB DBTX
}

const createCatalogItem = `-- name: CreateCatalogItem
INSERT INTO catalog_items (id, name, description, cost, status, stock, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, name, description, cost, status, stock, created_at
`

func (r *CatalogRepo) CreateItem(ctx context.Context, p repository.CreateCatalogItemParams) (models.CatalogItem, error) {
	status := p.Status
	if status == "" {
		status = models.CatalogItemActive
	}

	rows, _ := r.DB.Query(ctx, createCatalogItem, uuid.New(), p.Name, p.Description, p.Cost, status, p.Stock, time.Now())
	item, err := pgx.CollectOneRow(rows, rowToCatalogItem)
	if err != nil {
		return item, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

const getCatalogItem = `-- name: GetCatalogItem
SELECT id, name, description, cost, status, stock, created_at
FROM catalog_items
WHERE id = $1
`

func (r *CatalogRepo) GetItem(ctx context.Context, id uuid.UUID) (models.CatalogItem, error) {
	rows, _ := r.DB.Query(ctx, getCatalogItem, id)
	item, err := pgx.CollectOneRow(rows, rowToCatalogItem)

	switch {
	case err == nil:
		return item, nil
	case errors.Is(err, pgx.ErrNoRows):
		return item, apperrors.ErrRewardNotFound
	default:
		return item, fmt.Errorf("db error: %w", err)
	}
}

const listCatalogItems = `-- name: ListCatalogItems
SELECT id, name, description, cost, status, stock, created_at
FROM catalog_items
WHERE NOT $1 OR status = 'active'
ORDER BY cost, name, id
`

func (r *CatalogRepo) ListItems(ctx context.Context, activeOnly bool) ([]models.CatalogItem, error) {
	rows, _ := r.DB.Query(ctx, listCatalogItems, activeOnly)
	items, err := pgx.CollectRows(rows, rowToCatalogItem)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

// NULL stock stays NULL, so unlimited items always pass
const reserveStock = `-- name: ReserveStock
UPDATE catalog_items
SET stock = stock - 1
WHERE id = $1 AND (stock IS NULL OR stock > 0)
`

func (r *CatalogRepo) ReserveStock(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, reserveStock, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.GetItem(ctx, id); err != nil {
		return err
	}

	return apperrors.ErrRewardOutOfStock
}

func rowToCatalogItem(row pgx.CollectableRow) (models.CatalogItem, error) {
	var i models.CatalogItem
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.Cost, &i.Status, &i.Stock, &i.CreatedAt)
	return i, err
}
