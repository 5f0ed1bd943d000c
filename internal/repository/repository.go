package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/creditledger/internal/models"
)

// Account repository interface
type AccountRepo interface {
	// Create account if it does not exist, otherwise refresh username and email.
	// Returns the stored account and whether it was created by this call
	InitAccount(ctx context.Context, id uuid.UUID, username string, email string) (models.Account, bool, error)

	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// Atomically add delta to the account balance.
	// Must never let the balance go below zero: returns *apperrors.InsufficientFundsError instead.
	// Returns apperrors.ErrConcurrentUpdate if the balance kept changing under us
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (models.Account, error)

	// Delete accounts with the email and every row that references them.
	// Returns ids of deleted accounts
	PurgeByEmail(ctx context.Context, email string) ([]uuid.UUID, error)
}

type CreateBillParams struct {
	AccountID    uuid.UUID
	Title        string
	Description  *string
	ReceiverBank *string
	ReceiverName *string
	Amount       decimal.Decimal
	Category     string
	DueDate      time.Time
}

type BillRepo interface {
	CreateBill(ctx context.Context, params CreateBillParams) (models.Bill, error)

	// If bill not found must return apperrors.ErrBillNotFound
	GetBill(ctx context.Context, id uuid.UUID) (models.Bill, error)

	// Ordered by creation time, newest first. Zero accountID lists every bill
	ListBills(ctx context.Context, accountID uuid.UUID) ([]models.Bill, error)

	// Move the bill from pending to paid.
	// If bill already paid must return apperrors.ErrBillAlreadyPaid
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (models.Bill, error)
}

type PaymentRepo interface {
	// If payment for the bill exists already must return apperrors.ErrBillAlreadyPaid
	CreatePayment(ctx context.Context, p models.Payment) (models.Payment, error)

	// If payment not found must return apperrors.ErrPaymentNotFound
	GetPayment(ctx context.Context, id uuid.UUID) (models.Payment, error)

	// Zero uuid disables the filter
	ListPayments(ctx context.Context, accountID uuid.UUID, billID uuid.UUID) ([]models.Payment, error)
}

// Credit log is append only
type CreditLogRepo interface {
	Append(ctx context.Context, entry models.CreditLogEntry) (models.CreditLogEntry, error)

	// Entries in the order they were appended
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.CreditLogEntry, error)

	// Sum of every change of the account
	SumByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

type CreateCatalogItemParams struct {
	Name        string
	Description *string
	Cost        int64
	Status      string
	Stock       *int64 // nil means unlimited
}

type CatalogRepo interface {
	CreateItem(ctx context.Context, params CreateCatalogItemParams) (models.CatalogItem, error)

	// If item not found must return apperrors.ErrRewardNotFound
	GetItem(ctx context.Context, id uuid.UUID) (models.CatalogItem, error)
	ListItems(ctx context.Context, activeOnly bool) ([]models.CatalogItem, error)

	// Take one unit of the item from stock. Unlimited items are left untouched.
	// If no units left must return apperrors.ErrRewardOutOfStock
	ReserveStock(ctx context.Context, id uuid.UUID) error
}

type RedemptionRepo interface {
	CreateRedemption(ctx context.Context, r models.Redemption) (models.Redemption, error)
	ListRedemptions(ctx context.Context, accountID uuid.UUID) ([]models.Redemption, error)
}

type LeaderboardRepo interface {
	// Create zero row for the account if it is missing
	Ensure(ctx context.Context, accountID uuid.UUID, at time.Time) error

	AddEarned(ctx context.Context, accountID uuid.UUID, credits int64, at time.Time) error
	AddRedeemed(ctx context.Context, accountID uuid.UUID, credits int64, at time.Time) error

	// Ordered by total earned desc, ties broken by who got there first
	TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

type CardRepo interface {
	// If card with the number exists must return apperrors.ErrCardExists
	CreateCard(ctx context.Context, card models.Card) (models.Card, error)

	// If card not found must return apperrors.ErrCardNotFound
	GetByNumber(ctx context.Context, number string) (models.Card, error)
	ListCards(ctx context.Context) ([]models.Card, error)

	// Same contract as AccountRepo.ApplyDelta but for money
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (models.Card, error)

	AppendTransaction(ctx context.Context, tx models.CardTransaction) (models.CardTransaction, error)
}

// Storage gives access to every repository sharing the same connection
type Storage interface {
	Account() AccountRepo
	Bill() BillRepo
	Payment() PaymentRepo
	CreditLog() CreditLogRepo
	Catalog() CatalogRepo
	Redemption() RedemptionRepo
	Leaderboard() LeaderboardRepo
	Card() CardRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
