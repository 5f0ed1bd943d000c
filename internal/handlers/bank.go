package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/handlers/render"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/service/card"
)

type cardRequest struct {
	Number     string `json:"account_number"`
	HolderName string `json:"card_holder_name"`
	CVV        string `json:"cvv"`
	Expiry     string `json:"expiry_date"`
}

func (c cardRequest) details() card.CardDetails {
	return card.CardDetails{
		Number:     c.Number,
		HolderName: c.HolderName,
		CVV:        c.CVV,
		Expiry:     c.Expiry,
	}
}

// Declined cards are answered with 200 and valid=false
func handleValidateCard(cards cardService, l logger.Logger) http.Handler {
	type response struct {
		Valid        bool    `json:"valid"`
		HolderName   *string `json:"card_holder_name"`
		BankName     *string `json:"bank_name"`
		Balance      *money  `json:"balance"`
		MaskedNumber *string `json:"masked_card_number"`
		Message      string  `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[cardRequest](w, r)
		if err != nil {
			return
		}

		c, err := cards.ValidateCard(r.Context(), req.details())

		var validationErr *apperrors.CardValidationError
		switch {
		case err == nil:
			masked := c.Masked()
			render.JSON(w, response{
				Valid:        true,
				HolderName:   &c.HolderName,
				BankName:     &c.BankName,
				Balance:      moneyPtr(c.Balance),
				MaskedNumber: &masked,
				Message:      "Card validated successfully",
			})
		case errors.As(err, &validationErr):
			render.JSON(w, response{Valid: false, Message: validationErr.Message()})
		default:
			renderError(w, l, err)
		}
	})
}

// Declined payments are answered with 200 and success=false
func handleProcessPayment(cards cardService, l logger.Logger) http.Handler {
	type request struct {
		cardRequest
		Amount decimal.Decimal `json:"amount"`
	}

	type response struct {
		Success       bool       `json:"success"`
		Message       string     `json:"message"`
		Reason        string     `json:"reason,omitempty"`
		NewBalance    *money     `json:"new_balance"`
		TransactionID *uuid.UUID `json:"transaction_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := cards.ProcessPayment(r.Context(), req.details(), req.Amount)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := response{
			Success: result.Success,
			Message: result.Message,
			Reason:  result.Reason,
		}
		if result.Success {
			res.NewBalance = moneyPtr(result.NewBalance)
			res.TransactionID = &result.TransactionID
		}
		render.JSON(w, res)
	})
}

func handleCardBalance(cards cardService, l logger.Logger) http.Handler {
	type response struct {
		MaskedNumber string `json:"card_number"`
		Balance      money  `json:"balance"`
		Currency     string `json:"currency"`
		HolderName   string `json:"card_holder_name"`
		BankName     string `json:"bank_name"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := cards.GetCard(r.Context(), chi.URLParam(r, "card_number"))
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, response{
			MaskedNumber: c.Masked(),
			Balance:      money(c.Balance),
			Currency:     c.Currency,
			HolderName:   c.HolderName,
			BankName:     c.BankName,
		})
	})
}

func handleListCards(cards cardService, l logger.Logger) http.Handler {
	type item struct {
		ID           uuid.UUID `json:"id"`
		MaskedNumber string    `json:"card_number_masked"`
		HolderName   string    `json:"card_holder_name"`
		BankName     string    `json:"bank_name"`
		Balance      money     `json:"balance"`
		Status       string    `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := cards.ListCards(r.Context())
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]item, 0, len(list))
		for _, c := range list {
			res = append(res, item{
				ID:           c.ID,
				MaskedNumber: c.Masked(),
				HolderName:   c.HolderName,
				BankName:     c.BankName,
				Balance:      money(c.Balance),
				Status:       c.Status,
			})
		}
		render.JSON(w, res)
	})
}
