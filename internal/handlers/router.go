package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/creditledger/internal/handlers/middleware"
	"github.com/nkiryanov/creditledger/internal/handlers/render"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/service/card"
	"github.com/nkiryanov/creditledger/internal/service/payment"
)

// Services the router dispatches to. Pinger is optional
type Services struct {
	Accounts    accountService
	Payments    paymentService
	Catalog     catalogService
	Redemptions redemptionService
	Leaderboard leaderboardService
	Cards       cardService
	Pinger      pinger
}

func NewRouter(s Services, allowedOrigins []string, logger logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(middleware.CORSHandler(allowedOrigins))

	r.Get("/health", handleHealth(s.Pinger, logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/reward", func(r chi.Router) {
		r.Method(http.MethodPost, "/users", handleInitAccount(s.Accounts, logger))
		r.Method(http.MethodPost, "/users/init", handleInitAccount(s.Accounts, logger))
		r.Method(http.MethodPost, "/users/ensure", handleInitAccount(s.Accounts, logger))
		r.Method(http.MethodGet, "/users", handleListAccounts(s.Accounts, logger))
		r.Method(http.MethodDelete, "/users/by-email", handlePurgeAccount(s.Accounts, logger))
		r.Method(http.MethodGet, "/users/{id}", handleGetAccount(s.Accounts, logger))
		r.Method(http.MethodGet, "/credit_logs/{user_id}", handleListCreditLog(s.Accounts, logger))

		r.Method(http.MethodPost, "/bills", handleCreateBill(s.Payments, logger))
		r.Method(http.MethodGet, "/bills", handleListBills(s.Payments, logger))
		r.Method(http.MethodGet, "/bills/{id}", handleGetBill(s.Payments, logger))
		r.Method(http.MethodPost, "/bills/{id}/pay", handlePayBill(s.Payments, logger))
		r.Method(http.MethodPost, "/payments", handleCreatePayment(s.Payments, logger))
		r.Method(http.MethodGet, "/payments", handleListPayments(s.Payments, logger))
		r.Method(http.MethodGet, "/payments/{id}", handleGetPayment(s.Payments, logger))

		r.Method(http.MethodPost, "/rewards", handleCreateReward(s.Catalog, logger))
		r.Method(http.MethodGet, "/rewards", handleListRewards(s.Catalog, logger))
		r.Method(http.MethodGet, "/rewards/{id}", handleGetReward(s.Catalog, logger))
		r.Method(http.MethodPost, "/redemptions", handleRedeem(s.Redemptions, logger))
		r.Method(http.MethodGet, "/redemptions/{user_id}", handleListRedemptions(s.Redemptions, logger))

		r.Method(http.MethodGet, "/leaderboard", handleLeaderboard(s.Leaderboard, logger))
	})

	r.Route("/api/bank", func(r chi.Router) {
		r.Method(http.MethodPost, "/validate-card", handleValidateCard(s.Cards, logger))
		r.Method(http.MethodPost, "/process-payment", handleProcessPayment(s.Cards, logger))
		r.Method(http.MethodGet, "/balance/{card_number}", handleCardBalance(s.Cards, logger))
		r.Method(http.MethodGet, "/cards", handleListCards(s.Cards, logger))
	})

	return r
}

func handleHealth(p pinger, l logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := p.Ping(ctx); err != nil {
				l.Warn("Health check failed", "error", err)
				render.JSONWithStatus(w, response{"unavailable"}, http.StatusServiceUnavailable)
				return
			}
		}
		render.JSON(w, response{"ok"})
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

type accountService interface {
	// Upsert account by id and put it on the leaderboard
	InitAccount(ctx context.Context, id uuid.UUID, username string, email string) (models.Account, error)

	// Has to return apperrors.ErrAccountNotFound if account not found
	GetAccount(ctx context.Context, id uuid.UUID) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	PurgeByEmail(ctx context.Context, email string) ([]uuid.UUID, error)
	ListCreditLog(ctx context.Context, accountID uuid.UUID) ([]models.CreditLogEntry, error)
}

type paymentService interface {
	CreateBill(ctx context.Context, p repository.CreateBillParams) (models.Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (models.Bill, error)

	// uuid.Nil means any account
	ListBills(ctx context.Context, accountID uuid.UUID) ([]models.Bill, error)

	// Has to return apperrors.ErrBillAlreadyPaid if the bill was paid before
	RecordPayment(ctx context.Context, p payment.RecordPaymentParams) (models.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (models.Payment, error)
	ListPayments(ctx context.Context, accountID uuid.UUID, billID uuid.UUID) ([]models.Payment, error)
}

type catalogService interface {
	CreateItem(ctx context.Context, p repository.CreateCatalogItemParams) (models.CatalogItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (models.CatalogItem, error)
	ListItems(ctx context.Context, activeOnly bool) ([]models.CatalogItem, error)
}

type redemptionService interface {
	Redeem(ctx context.Context, accountID uuid.UUID, itemID uuid.UUID) (models.Redemption, error)
	ListRedemptions(ctx context.Context, accountID uuid.UUID) ([]models.Redemption, error)
}

type leaderboardService interface {
	TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

type cardService interface {
	// Card is declined with *apperrors.CardValidationError
	ValidateCard(ctx context.Context, d card.CardDetails) (models.Card, error)

	// Declines are reported in the result, error means the ledger failed
	ProcessPayment(ctx context.Context, d card.CardDetails, amount decimal.Decimal) (card.PaymentResult, error)
	GetCard(ctx context.Context, number string) (models.Card, error)
	ListCards(ctx context.Context) ([]models.Card, error)
}
