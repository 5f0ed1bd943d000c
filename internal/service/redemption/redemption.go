package redemption

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/metrics"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

type invalidator interface {
	Invalidate(ctx context.Context)
}

type RedemptionService struct {
	storage     repository.Storage
	logger      logger.Logger
	leaderboard invalidator
	now         func() time.Time
}

// leaderboard may be nil
func NewService(storage repository.Storage, leaderboard invalidator, logger logger.Logger) *RedemptionService {
	return &RedemptionService{
		storage:     storage,
		logger:      logger,
		leaderboard: leaderboard,
		now:         time.Now,
	}
}

// Exchange credits for a catalog item.
// The balance update is the authoritative guard: when two redemptions race for
// the last credits, the loser fails with apperrors.ErrInsufficientCredit and leaves no trace.
func (s *RedemptionService) Redeem(ctx context.Context, accountID uuid.UUID, itemID uuid.UUID) (models.Redemption, error) {
	defer metrics.ObserveSince("redeem", time.Now())

	var (
		redemption models.Redemption
		account    models.Account
	)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		now := s.now()

		var err error
		account, err = storage.Account().GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		item, err := storage.Catalog().GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.IsActive() {
			return apperrors.ErrRewardInactive
		}

		// Early answer only, the balance may change until ApplyDelta below
		if account.Balance < item.Cost {
			return apperrors.NewInsufficientCredit(account.Balance, item.Cost)
		}

		if err := storage.Catalog().ReserveStock(ctx, item.ID); err != nil {
			return err
		}

		account, err = storage.Account().ApplyDelta(ctx, account.ID, -item.Cost)
		if err != nil {
			return err
		}

		redemption, err = storage.Redemption().CreateRedemption(ctx, models.Redemption{
			ID:          uuid.New(),
			AccountID:   account.ID,
			ItemID:      item.ID,
			CreditSpent: item.Cost,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		_, err = storage.CreditLog().Append(ctx, models.CreditLogEntry{
			ID:           uuid.New(),
			AccountID:    account.ID,
			SourceType:   models.SourceRedemption,
			SourceID:     &item.ID,
			ChangeAmount: -item.Cost,
			BalanceAfter: account.Balance,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}

		return storage.Leaderboard().AddRedeemed(ctx, account.ID, item.Cost, now)
	})

	metrics.Redemptions.WithLabelValues(metrics.Outcome(err, isRejection)).Inc()
	if err != nil {
		return models.Redemption{}, fmt.Errorf("can't redeem reward. Err: %w", err)
	}

	metrics.CreditsRedeemed.Add(float64(redemption.CreditSpent))
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}

	s.logger.Info("Reward redeemed",
		"redemption_id", redemption.ID,
		"account_id", account.ID,
		"item_id", itemID,
		"credit", redemption.CreditSpent,
		"balance", account.Balance,
	)

	return redemption, nil
}

func (s *RedemptionService) ListRedemptions(ctx context.Context, accountID uuid.UUID) ([]models.Redemption, error) {
	if _, err := s.storage.Account().GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	return s.storage.Redemption().ListRedemptions(ctx, accountID)
}

// Business outcomes, not failures of the service
func isRejection(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrInsufficient) ||
		errors.Is(err, apperrors.ErrInactiveResource)
}
