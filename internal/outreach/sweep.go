package outreach

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bellezapp/discovery-cli/internal/discovery"
	"github.com/bellezapp/discovery-cli/internal/model"
)

// maxDetailSamples caps the per-candidate detail lists in the summary.
const maxDetailSamples = 10

// SweepConfig tunes the scheduled re-engagement sweep.
type SweepConfig struct {
	// Limit bounds the candidates fetched per sweep.
	Limit int
	// Concurrency bounds parallel dispatches. Each candidate appears at
	// most once per sweep, so per-candidate read-decide-write stays
	// atomic at any setting. 1 preserves sequential processing.
	Concurrency int
}

// CandidateDetail names one skipped or failed candidate in the summary.
type CandidateDetail struct {
	SalonID string `json:"salon_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// SweepSummary is the aggregate result of one sweep. A sweep always
// returns a summary: per-candidate failures never fail the batch.
type SweepSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	SkippedDetails []CandidateDetail `json:"skipped_details,omitempty"`
	FailedDetails  []CandidateDetail `json:"failed_details,omitempty"`
}

// RunSweep re-evaluates follow-up candidates and dispatches the scheduled
// message variant to each eligible one. Already-processed candidates keep
// their state if the context expires mid-sweep; the rest stay eligible for
// the next run.
func RunSweep(ctx context.Context, store discovery.Store, dispatcher *Dispatcher, templates *Templates, cfg SweepConfig) (*SweepSummary, error) {
	now := time.Now()
	log := zap.L().With(zap.String("op", "sweep"))

	candidates, err := store.ListFollowupCandidates(ctx, now, Cooldown, MaxAttempts, cfg.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "sweep: list candidates")
	}
	log.Info("sweep candidates fetched", zap.Int("count", len(candidates)))

	summary := &SweepSummary{Processed: len(candidates)}
	var mu sync.Mutex

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range candidates {
		salon := candidates[i]
		g.Go(func() error {
			outcome, reason := processCandidate(gctx, dispatcher, templates, &salon, now)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSent:
				summary.Sent++
			case outcomeSkipped:
				summary.Skipped++
				if len(summary.SkippedDetails) < maxDetailSamples {
					summary.SkippedDetails = append(summary.SkippedDetails,
						CandidateDetail{SalonID: salon.ID, Name: salon.Name, Reason: reason})
				}
			case outcomeFailed:
				summary.Failed++
				if len(summary.FailedDetails) < maxDetailSamples {
					summary.FailedDetails = append(summary.FailedDetails,
						CandidateDetail{SalonID: salon.ID, Name: salon.Name, Reason: reason})
				}
			}
			// Per-candidate failures never abort the batch.
			return nil
		})
	}

	// The workers never return errors; Wait only propagates context
	// cancellation between them.
	_ = g.Wait()

	log.Info("sweep complete",
		zap.Int("processed", summary.Processed),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processCandidate runs the per-candidate decide-and-send sequence.
func processCandidate(ctx context.Context, dispatcher *Dispatcher, templates *Templates, salon *model.DiscoveredSalon, now time.Time) (outcome, string) {
	if ctx.Err() != nil {
		return outcomeSkipped, "sweep cancelled"
	}

	variant := SelectFollowupVariant(salon, now)
	if variant == "" {
		return outcomeSkipped, "no variant window applies"
	}

	if !CanSendOutreach(salon, now) {
		return outcomeSkipped, "eligibility gate"
	}

	message, err := templates.Render(variant, salon.ID, salon.Name, salon.InterestCount)
	if err != nil {
		return outcomeFailed, "template: " + err.Error()
	}

	res, err := dispatcher.Dispatch(ctx, salon, message)
	if err != nil && !res.Sent {
		return outcomeFailed, "dispatch failed"
	}
	return outcomeSent, ""
}
