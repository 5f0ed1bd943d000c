package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/models"
	"github.com/nkiryanov/creditledger/internal/repository"
	"github.com/nkiryanov/creditledger/internal/testutil"
)

func TestCatalogRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	one := int64(1)

	t.Run("CreateItem and GetItem", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			item, err := storage.Catalog().CreateItem(t.Context(), repository.CreateCatalogItemParams{Name: "Coffee voucher", Cost: 50})

			require.NoError(t, err, "item has to be created ok")
			require.Equal(t, models.CatalogItemActive, item.Status, "status defaults to active")
			require.Nil(t, item.Stock, "stock defaults to unlimited")

			got, err := storage.Catalog().GetItem(t.Context(), item.ID)
			require.NoError(t, err)
			require.Equal(t, item.ID, got.ID)
			require.EqualValues(t, 50, got.Cost)

			_, err = storage.Catalog().GetItem(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrRewardNotFound)
		})
	})

	t.Run("ListItems", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			_, err := storage.Catalog().CreateItem(t.Context(), repository.CreateCatalogItemParams{Name: "Cinema", Cost: 200})
			require.NoError(t, err)
			_, err = storage.Catalog().CreateItem(t.Context(), repository.CreateCatalogItemParams{Name: "Retired", Cost: 10, Status: models.CatalogItemInactive})
			require.NoError(t, err)

			all, err := storage.Catalog().ListItems(t.Context(), false)
			require.NoError(t, err)
			require.Len(t, all, 2)
			require.Equal(t, "Retired", all[0].Name, "cheapest first")

			active, err := storage.Catalog().ListItems(t.Context(), true)
			require.NoError(t, err)
			require.Len(t, active, 1)
			require.Equal(t, "Cinema", active[0].Name)
		})
	})

	t.Run("ReserveStock", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			limited, err := storage.Catalog().CreateItem(t.Context(), repository.CreateCatalogItemParams{Name: "Limited", Cost: 10, Stock: &one})
			require.NoError(t, err)
			unlimited, err := storage.Catalog().CreateItem(t.Context(), repository.CreateCatalogItemParams{Name: "Unlimited", Cost: 10})
			require.NoError(t, err)

			err = storage.Catalog().ReserveStock(t.Context(), limited.ID)
			require.NoError(t, err, "last unit has to be reserved ok")

			err = storage.Catalog().ReserveStock(t.Context(), limited.ID)
			require.ErrorIs(t, err, apperrors.ErrRewardOutOfStock)

			item, err := storage.Catalog().GetItem(t.Context(), limited.ID)
			require.NoError(t, err)
			require.EqualValues(t, 0, *item.Stock, "stock must never go below zero")

			for range 3 {
				require.NoError(t, storage.Catalog().ReserveStock(t.Context(), unlimited.ID))
			}
			item, err = storage.Catalog().GetItem(t.Context(), unlimited.ID)
			require.NoError(t, err)
			require.Nil(t, item.Stock, "unlimited stays unlimited")

			err = storage.Catalog().ReserveStock(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrRewardNotFound)
		})
	})
}

func TestRedemptionRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
		account := createAccount(t, storage, "redeemer@example.com")
		item, err := storage.Catalog().CreateItem(t.Context(), repository.CreateCatalogItemParams{Name: "Voucher", Cost: 30})
		require.NoError(t, err)

		redemption, err := storage.Redemption().CreateRedemption(t.Context(), models.Redemption{
			ID:          uuid.New(),
			AccountID:   account.ID,
			ItemID:      item.ID,
			CreditSpent: 30,
			CreatedAt:   time.Now(),
		})
		require.NoError(t, err, "redemption has to be created ok")
		require.EqualValues(t, 30, redemption.CreditSpent)

		list, err := storage.Redemption().ListRedemptions(t.Context(), account.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, redemption.ID, list[0].ID)

		list, err = storage.Redemption().ListRedemptions(t.Context(), uuid.New())
		require.NoError(t, err)
		require.Empty(t, list)
	})
}
