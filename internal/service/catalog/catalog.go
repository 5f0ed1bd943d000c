package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

var (
	errNameRequired    = fmt.Errorf("reward name is required: %w", apperrors.ErrInvalidInput)
	errCostNotPositive = fmt.Errorf("reward cost must be positive: %w", apperrors.ErrInvalidInput)
	errStockNegative   = fmt.Errorf("reward stock must not be negative: %w", apperrors.ErrInvalidInput)
	errUnknownStatus   = fmt.Errorf("reward status must be active or inactive: %w", apperrors.ErrInvalidInput)
)

type CatalogService struct {
	catalogRepo repository.CatalogRepo
	logger      logger.Logger
}

func NewService(catalogRepo repository.CatalogRepo, logger logger.Logger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

func (s *CatalogService) CreateItem(ctx context.Context, p repository.CreateCatalogItemParams) (models.CatalogItem, error) {
	p.Name = strings.TrimSpace(p.Name)

	switch {
	case p.Name == "":
		return models.CatalogItem{}, errNameRequired
	case p.Cost <= 0:
		return models.CatalogItem{}, errCostNotPositive
	case p.Stock != nil && *p.Stock < 0:
		return models.CatalogItem{}, errStockNegative
	}

	switch p.Status {
	case "":
		p.Status = models.CatalogItemActive
	case models.CatalogItemActive, models.CatalogItemInactive:
	default:
		return models.CatalogItem{}, errUnknownStatus
	}

	item, err := s.catalogRepo.CreateItem(ctx, p)
	if err != nil {
		return item, err
	}

	s.logger.Info("Reward created", "item_id", item.ID, "name", item.Name, "cost", item.Cost)

	return item, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (models.CatalogItem, error) {
	return s.catalogRepo.GetItem(ctx, id)
}

func (s *CatalogService) ListItems(ctx context.Context, activeOnly bool) ([]models.CatalogItem, error) {
	return s.catalogRepo.ListItems(ctx, activeOnly)
}
