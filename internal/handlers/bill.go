package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/creditledger/internal/handlers/render"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/service/payment"
)

const dueDateLayout = "2006-01-02"

type billResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"user_id"`
	Title        string          `json:"title"`
	Description  *string         `json:"description"`
	ReceiverBank *string         `json:"receiver_bank"`
	ReceiverName *string         `json:"receiver_name"`
	Amount       money           `json:"amount"`
	Category     string          `json:"category"`
	Status       string          `json:"status"`
	DueDate      string          `json:"due_date"`
	RewardRate   decimal.Decimal `json:"reward_rate"`
	RewardEarned int64           `json:"reward_earned"`
	CreatedAt    time.Time       `json:"created_at"`
	PaidAt       *time.Time      `json:"paid_at"`
}

func newBillResponse(b models.Bill) billResponse {
	return billResponse{
		ID:           b.ID,
		AccountID:    b.AccountID,
		Title:        b.Title,
		Description:  b.Description,
		ReceiverBank: b.ReceiverBank,
		ReceiverName: b.ReceiverName,
		Amount:       money(b.Amount),
		Category:     b.Category,
		Status:       b.Status,
		DueDate:      b.DueDate.Format(dueDateLayout),
		RewardRate:   b.RewardRate(),
		RewardEarned: b.RewardEarned(),
		CreatedAt:    b.CreatedAt,
		PaidAt:       b.PaidAt,
	}
}

type paymentResponse struct {
	ID            uuid.UUID `json:"id"`
	BillID        uuid.UUID `json:"bill_id"`
	AccountID     uuid.UUID `json:"user_id"`
	AmountPaid    money     `json:"amount_paid"`
	CreditAwarded int64     `json:"reward_earned"`
	Method        string    `json:"payment_method"`
	Status        string    `json:"status"`
	PayerName     *string   `json:"payer_name"`
	PayerBank     *string   `json:"payer_bank"`
	OrderNumber   *string   `json:"order_number"`
	Remark        *string   `json:"remark"`
	CreatedAt     time.Time `json:"created_at"`
}

func newPaymentResponse(p models.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		BillID:        p.BillID,
		AccountID:     p.AccountID,
		AmountPaid:    money(p.AmountPaid),
		CreditAwarded: p.CreditAwarded,
		Method:        p.Method,
		Status:        p.Status,
		PayerName:     p.Payer.Name,
		PayerBank:     p.Payer.Bank,
		OrderNumber:   p.Payer.OrderNumber,
		Remark:        p.Payer.Remark,
		CreatedAt:     p.CreatedAt,
	}
}

// Shared by both payment routes
type payRequest struct {
	AmountPaid  decimal.Decimal `json:"amount_paid" validate:"gt=0"`
	Method      string          `json:"payment_method" validate:"required"`
	PayerName   *string         `json:"payer_name"`
	PayerBank   *string         `json:"payer_bank"`
	OrderNumber *string         `json:"order_number"`
	Remark      *string         `json:"remark"`
}

func (p payRequest) params(billID uuid.UUID) payment.RecordPaymentParams {
	return payment.RecordPaymentParams{
		BillID:     billID,
		AmountPaid: p.AmountPaid,
		Method:     p.Method,
		Payer: models.Payer{
			Name:        p.PayerName,
			Bank:        p.PayerBank,
			OrderNumber: p.OrderNumber,
			Remark:      p.Remark,
		},
	}
}

func handleCreateBill(payments paymentService, l logger.Logger) http.Handler {
	type request struct {
		UserID       string          `json:"user_id" validate:"required,uuid"`
		Title        string          `json:"title" validate:"required"`
		Description  *string         `json:"description"`
		ReceiverBank *string         `json:"receiver_bank"`
		ReceiverName *string         `json:"receiver_name"`
		Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
		Category     string          `json:"category"`
		DueDate      string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Both validated above
		dueDate, _ := time.Parse(dueDateLayout, req.DueDate)
		accountID := uuid.MustParse(req.UserID)

		bill, err := payments.CreateBill(r.Context(), repository.CreateBillParams{
			AccountID:    accountID,
			Title:        req.Title,
			Description:  req.Description,
			ReceiverBank: req.ReceiverBank,
			ReceiverName: req.ReceiverName,
			Amount:       req.Amount,
			Category:     req.Category,
			DueDate:      dueDate,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSONWithStatus(w, newBillResponse(bill), http.StatusCreated)
	})
}

func handleListBills(payments paymentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := uuidQuery(w, r, "user_id")
		if !ok {
			return
		}

		bills, err := payments.ListBills(r.Context(), accountID)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]billResponse, 0, len(bills))
		for _, b := range bills {
			res = append(res, newBillResponse(b))
		}
		render.JSON(w, res)
	})
}

func handleGetBill(payments paymentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		bill, err := payments.GetBill(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSON(w, newBillResponse(bill))
	})
}

func handlePayBill(payments paymentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		billID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		req, err := render.BindAndValidate[payRequest](w, r)
		if err != nil {
			return
		}

		p, err := payments.RecordPayment(r.Context(), req.params(billID))
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSONWithStatus(w, newPaymentResponse(p), http.StatusCreated)
	})
}

// Same as paying a bill, with bill id in the body
func handleCreatePayment(payments paymentService, l logger.Logger) http.Handler {
	type request struct {
		BillID string `json:"bill_id" validate:"required,uuid"`
		payRequest
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		p, err := payments.RecordPayment(r.Context(), req.params(uuid.MustParse(req.BillID)))
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSONWithStatus(w, newPaymentResponse(p), http.StatusCreated)
	})
}

func handleListPayments(payments paymentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := uuidQuery(w, r, "user_id")
		if !ok {
			return
		}
		billID, ok := uuidQuery(w, r, "bill_id")
		if !ok {
			return
		}

		list, err := payments.ListPayments(r.Context(), accountID, billID)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]paymentResponse, 0, len(list))
		for _, p := range list {
			res = append(res, newPaymentResponse(p))
		}
		render.JSON(w, res)
	})
}

func handleGetPayment(payments paymentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		p, err := payments.GetPayment(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSON(w, newPaymentResponse(p))
	})
}
