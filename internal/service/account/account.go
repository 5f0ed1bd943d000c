package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
)

var errEmailRequired = fmt.Errorf("email is required: %w", apperrors.ErrInvalidInput)

type AccountService struct {
	storage repository.Storage
	logger  logger.Logger
	now     func() time.Time
}

func NewService(storage repository.Storage, logger logger.Logger) *AccountService {
	return &AccountService{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Create account (or refresh its profile) and make sure it shows up on the leaderboard
// Safe to call many times with the same id
func (s *AccountService) InitAccount(ctx context.Context, id uuid.UUID, username string, email string) (models.Account, error) {
	if id == uuid.Nil {
		return models.Account{}, fmt.Errorf("account id is required: %w", apperrors.ErrInvalidInput)
	}

	var (
		account models.Account
		created bool
	)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		account, created, err = storage.Account().InitAccount(ctx, id, strings.TrimSpace(username), strings.TrimSpace(email))
		if err != nil {
			return err
		}

		return storage.Leaderboard().Ensure(ctx, id, s.now())
	})
	if err != nil {
		return account, fmt.Errorf("can't init account. Err: %w", err)
	}

	if created {
		s.logger.Info("Account created", "account_id", account.ID)
	}

	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error) {
	return s.storage.Account().GetAccount(ctx, id)
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.storage.Account().ListAccounts(ctx)
}

// Administrative purge of every account registered with the email
func (s *AccountService) PurgeByEmail(ctx context.Context, email string) ([]uuid.UUID, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errEmailRequired
	}

	var ids []uuid.UUID
	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		ids, err = storage.Account().PurgeByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("can't purge accounts. Err: %w", err)
	}

	s.logger.Info("Accounts purged", "email", email, "count", len(ids))

	return ids, nil
}

// Credit history of the account, oldest first
func (s *AccountService) ListCreditLog(ctx context.Context, accountID uuid.UUID) ([]models.CreditLogEntry, error) {
	if _, err := s.storage.Account().GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	return s.storage.CreditLog().ListByAccount(ctx, accountID)
}

// Reconciliation compares the stored balance with what the credit log says it should be
type Reconciliation struct {
	AccountID uuid.UUID
	Balance   int64
	LogSum    int64
}

func (r Reconciliation) Consistent() bool {
	return r.Balance == r.LogSum
}

// Balance and log sum are read in one transaction
func (s *AccountService) Reconcile(ctx context.Context, accountID uuid.UUID) (Reconciliation, error) {
	r := Reconciliation{AccountID: accountID}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		account, err := storage.Account().GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		r.Balance = account.Balance

		r.LogSum, err = storage.CreditLog().SumByAccount(ctx, accountID)
		return err
	})
	if err != nil {
		return r, err
	}

	if !r.Consistent() {
		s.logger.Error("Balance does not match credit log", "account_id", accountID, "balance", r.Balance, "log_sum", r.LogSum)
	}

	return r, nil
}
