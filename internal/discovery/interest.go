package discovery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RecordInterest records one interest signal for (salonID, userID) and
// returns the fresh distinct-row count. Repeated calls with the same pair
// are idempotent. Signal durability is the priority: a failure of the
// secondary selection-state update is logged but does not roll back the
// signal or fail the call.
func RecordInterest(ctx context.Context, store Store, salonID, userID string, now time.Time) (int, error) {
	if salonID == "" {
		return 0, eris.New("interest: salon id is required")
	}
	if userID == "" {
		return 0, eris.New("interest: user id is required")
	}

	if err := store.UpsertInterest(ctx, salonID, userID); err != nil {
		return 0, eris.Wrap(err, "interest: record signal")
	}

	count, err := store.CountInterest(ctx, salonID)
	if err != nil {
		return 0, eris.Wrap(err, "interest: count signals")
	}

	if err := store.MarkSelected(ctx, salonID, now); err != nil {
		zap.L().Warn("mark selected failed after interest signal",
			zap.String("salon_id", salonID),
			zap.Error(err),
		)
	}

	return count, nil
}
