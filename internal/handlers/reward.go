package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/creditledger/internal/handlers/render"
	"github.com/nkiryanov/creditledger/internal/logger"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/service/leaderboard"
)

type rewardResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Cost        int64     `json:"cost"`
	Status      string    `json:"status"`
	Stock       *int64    `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

func newRewardResponse(i models.CatalogItem) rewardResponse {
	return rewardResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Cost:        i.Cost,
		Status:      i.Status,
		Stock:       i.Stock,
		CreatedAt:   i.CreatedAt,
	}
}

type redemptionResponse struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"user_id"`
	ItemID      uuid.UUID `json:"reward_id"`
	CreditSpent int64     `json:"credit_spent"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func newRedemptionResponse(r models.Redemption) redemptionResponse {
	return redemptionResponse{
		ID:          r.ID,
		AccountID:   r.AccountID,
		ItemID:      r.ItemID,
		CreditSpent: r.CreditSpent,
		Status:      models.RedemptionStatusClaimed,
		CreatedAt:   r.CreatedAt,
	}
}

func handleCreateReward(catalog catalogService, l logger.Logger) http.Handler {
	type request struct {
		Name        string  `json:"name" validate:"required"`
		Description *string `json:"description"`
		Cost        int64   `json:"cost" validate:"gt=0"`
		Status      string  `json:"status" validate:"omitempty,oneof=active inactive"`
		Stock       *int64  `json:"stock" validate:"omitempty,gte=0"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		item, err := catalog.CreateItem(r.Context(), repository.CreateCatalogItemParams{
			Name:        req.Name,
			Description: req.Description,
			Cost:        req.Cost,
			Status:      req.Status,
			Stock:       req.Stock,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSONWithStatus(w, newRewardResponse(item), http.StatusCreated)
	})
}

// ?active=true hides inactive rewards, anything else lists all of them
func handleListRewards(catalog catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		activeOnly := false
		if raw := r.URL.Query().Get("active"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				render.ServiceError(w, "Invalid active", http.StatusBadRequest)
				return
			}
			activeOnly = v
		}

		items, err := catalog.ListItems(r.Context(), activeOnly)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]rewardResponse, 0, len(items))
		for _, i := range items {
			res = append(res, newRewardResponse(i))
		}
		render.JSON(w, res)
	})
}

func handleGetReward(catalog catalogService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		item, err := catalog.GetItem(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSON(w, newRewardResponse(item))
	})
}

func handleRedeem(redemptions redemptionService, l logger.Logger) http.Handler {
	type request struct {
		UserID   string `json:"user_id" validate:"required,uuid"`
		RewardID string `json:"reward_id" validate:"required,uuid"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		redemption, err := redemptions.Redeem(r.Context(), uuid.MustParse(req.UserID), uuid.MustParse(req.RewardID))
		if err != nil {
			renderError(w, l, err)
			return
		}
		render.JSONWithStatus(w, newRedemptionResponse(redemption), http.StatusCreated)
	})
}

func handleListRedemptions(redemptions redemptionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "user_id")
		if !ok {
			return
		}

		list, err := redemptions.ListRedemptions(r.Context(), id)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]redemptionResponse, 0, len(list))
		for _, rd := range list {
			res = append(res, newRedemptionResponse(rd))
		}
		render.JSON(w, res)
	})
}

func handleLeaderboard(board leaderboardService, l logger.Logger) http.Handler {
	type entry struct {
		Rank          int       `json:"rank"`
		AccountID     uuid.UUID `json:"user_id"`
		TotalEarned   int64     `json:"total_earned"`
		TotalRedeemed int64     `json:"total_redeemed"`
		LastUpdated   time.Time `json:"last_updated"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := leaderboard.DefaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := board.TopN(r.Context(), limit)
		if err != nil {
			renderError(w, l, err)
			return
		}

		res := make([]entry, 0, len(entries))
		for i, e := range entries {
			res = append(res, entry{
				Rank:          i + 1,
				AccountID:     e.AccountID,
				TotalEarned:   e.TotalEarned,
				TotalRedeemed: e.TotalRedeemed,
				LastUpdated:   e.LastUpdated,
			})
		}
		render.JSON(w, res)
	})
}
