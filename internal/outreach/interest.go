package outreach

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bellezapp/discovery-cli/internal/discovery"
)

// InterestResult is the outcome of an interest-recording request.
type InterestResult struct {
	Recorded      bool `json:"recorded"`
	InterestCount int  `json:"interest_count"`
	OutreachSent  bool `json:"outreach_sent"`
}

// HandleInterest records an interest signal and, when the fresh count hits
// a notification threshold, attempts the synchronous outreach path.
// Dispatch failure never fails the interest recording: the signal is
// durable and the next sweep retries contact.
func HandleInterest(ctx context.Context, store discovery.Store, dispatcher *Dispatcher, templates *Templates, salonID, userID string) (*InterestResult, error) {
	now := time.Now()

	count, err := discovery.RecordInterest(ctx, store, salonID, userID, now)
	if err != nil {
		return nil, eris.Wrap(err, "outreach: record interest")
	}

	result := &InterestResult{Recorded: true, InterestCount: count}

	if !ShouldNotify(count) {
		return result, nil
	}

	log := zap.L().With(zap.String("salon_id", salonID), zap.Int("interest_count", count))

	salon, err := store.GetSalon(ctx, salonID)
	if err != nil {
		log.Warn("fetch salon for threshold outreach failed", zap.Error(err))
		return result, nil
	}

	if !CanSendOutreach(salon, now) {
		log.Debug("threshold met but salon not eligible for outreach")
		return result, nil
	}

	key := ThresholdKey(count)
	message, err := templates.Render(key, salon.ID, salon.Name, count)
	if err != nil {
		log.Warn("render threshold template failed", zap.String("key", key), zap.Error(err))
		return result, nil
	}

	res, err := dispatcher.Dispatch(ctx, salon, message)
	if err != nil && !res.Sent {
		// Best-effort: logged by the dispatcher, not surfaced.
		return result, nil
	}
	result.OutreachSent = res.Sent

	return result, nil
}
