// Package outreach decides whether, when, and how to contact discovered
// salons, and runs the scheduled follow-up sweep. Policy functions are
// pure so the contact rules stay testable without a datastore or provider.
package outreach

import (
	"time"

	"github.com/bellezapp/discovery-cli/internal/model"
)

// Contact caps and pacing.
const (
	// MaxAttempts is the hard cap on outreach messages per salon.
	MaxAttempts = 10
	// Cooldown is the minimum interval between two sends to one salon.
	Cooldown = 48 * time.Hour
)

// thresholds are the interest counts that trigger a synchronous send.
// Past the last threshold a send triggers every additional 10 signals,
// so contact frequency strictly decelerates as interest grows.
var thresholds = []int{1, 3, 5, 10, 20}

// ShouldNotify reports whether an interest count triggers the synchronous
// notification path: exact threshold hits, then every +10 past 20.
func ShouldNotify(count int) bool {
	for _, t := range thresholds {
		if count == t {
			return true
		}
	}
	last := thresholds[len(thresholds)-1]
	return count > last && (count-last)%10 == 0
}

// HighestThresholdMet returns the largest threshold less than or equal to
// count, used to key the message template. Zero when no threshold is met.
func HighestThresholdMet(count int) int {
	met := 0
	for _, t := range thresholds {
		if count >= t {
			met = t
		}
	}
	return met
}

// CanSendOutreach is the eligibility gate applied before any send,
// regardless of trigger. All checks are independent; any one failing
// blocks the send.
func CanSendOutreach(s *model.DiscoveredSalon, now time.Time) bool {
	if s.Status.Terminal() {
		return false
	}
	if s.OutreachCount >= MaxAttempts {
		return false
	}
	if s.LastOutreachAt != nil && now.Sub(*s.LastOutreachAt) < Cooldown {
		return false
	}
	return s.HasContactChannel()
}

// Variant names for the scheduled re-engagement path.
const (
	VariantFirstDay = "first_day"
	VariantWeekly   = "weekly"
	VariantReminder = "reminder"
)

// firstDayWindow bounds the "first day" variant: between one and two days
// after the first interest signal, and only for barely-contacted salons.
const (
	firstDayMin = 24 * time.Hour
	firstDayMax = 48 * time.Hour
	weeklyAfter = 7 * 24 * time.Hour

	// reminderMinInterest gates the generic reminder variant.
	reminderMinInterest = 3
)

// SelectFollowupVariant chooses the scheduled message variant for a salon
// by elapsed time since its first selection. An empty return means the
// salon is skipped this sweep; that is not a failure.
func SelectFollowupVariant(s *model.DiscoveredSalon, now time.Time) string {
	if s.FirstSelectedAt == nil {
		return ""
	}
	elapsed := now.Sub(*s.FirstSelectedAt)

	switch {
	case elapsed >= firstDayMin && elapsed < firstDayMax && s.OutreachCount < 2:
		return VariantFirstDay
	case elapsed >= weeklyAfter:
		return VariantWeekly
	case s.InterestCount >= reminderMinInterest:
		return VariantReminder
	}
	return ""
}
