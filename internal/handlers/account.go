package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/creditledger/internal/handlers/render"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
)

type accountResponse struct {
	ID        uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Balance   int64     `json:"current_credit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type creditLogResponse struct {
	ID           uuid.UUID  `json:"id"`
	Seq          int64      `json:"seq"`
	AccountID    uuid.UUID  `json:"user_id"`
	SourceType   string     `json:"source_type"`
	SourceID     *uuid.UUID `json:"source_id"`
	ChangeAmount int64      `json:"credit_change"`
	BalanceAfter int64      `json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
}

func handleInitAccount(accounts accountService, l logger.Logger) http.Handler {
	type request struct {
		UserID   string `json:"user_id" validate:"required,uuid"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Validated above
		id := uuid.MustParse(req.UserID)

		account, err := accounts.InitAccount(r.Context(), id, req.Username, req.Email)
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSON(w, newAccountResponse(account))
	})
}

func handleListAccounts(accounts accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := accounts.ListAccounts(r.Context())
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]accountResponse, 0, len(list))
		for _, a := range list {
			res = append(res, newAccountResponse(a))
		}
		render.JSON(w, res)
	})
}

func handleGetAccount(accounts accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		account, err := accounts.GetAccount(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSON(w, newAccountResponse(account))
	})
}

func handlePurgeAccount(accounts accountService, l logger.Logger) http.Handler {
	type response struct {
		Deleted []uuid.UUID `json:"deleted_user_ids"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			render.ServiceError(w, "Email is required", http.StatusBadRequest)
			return
		}

		ids, err := accounts.PurgeByEmail(r.Context(), email)
		if err != nil {
			renderError(w, l, err)
			return
		}

		if ids == nil {
			ids = []uuid.UUID{}
		}
		render.JSON(w, response{ids})
	})
}

func handleListCreditLog(accounts accountService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "user_id")
		if !ok {
			return
		}

		entries, err := accounts.ListCreditLog(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]creditLogResponse, 0, len(entries))
		for _, e := range entries {
			res = append(res, creditLogResponse{
				ID:           e.ID,
				Seq:          e.Seq,
				AccountID:    e.AccountID,
				SourceType:   e.SourceType,
				SourceID:     e.SourceID,
				ChangeAmount: e.ChangeAmount,
				BalanceAfter: e.BalanceAfter,
				CreatedAt:    e.CreatedAt,
			})
		}
		render.JSON(w, res)
	})
}
