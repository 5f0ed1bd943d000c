package postgres

import (
	"context"
	"errors"

	"github.com/nkiryanov/creditledger/internal/apperrors"
	"github.com/nkiryanov/creditledger/internal/metrics"
)

// How many times a balance update is retried before giving up with apperrors.ErrConcurrentUpdate
const MaxApplyAttempts = 5

// Returned by swap when the row version moved since load
var errVersionChanged = errors.New("row version changed")

// Load the row and try to swap it until swap succeeds or attempts run out.
// Any error except errVersionChanged stops the loop
func compareAndSwap[T any](
	ctx context.Context,
	ledger string,
	load func(context.Context) (T, error),
	swap func(context.Context, T) (T, error),
) (T, error) {
	var zero T

	for range MaxApplyAttempts {
		current, err := load(ctx)
		if err != nil {
			return zero, err
		}

		updated, err := swap(ctx, current)
		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, errVersionChanged):
			metrics.BalanceConflicts.WithLabelValues(ledger).Inc()
			continue
		default:
			return zero, err
		}
	}

	return zero, apperrors.ErrConcurrentUpdate
}
