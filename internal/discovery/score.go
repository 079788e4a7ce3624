package discovery

import (
	"math"

	"github.com/bellezapp/discovery-cli/internal/keyword"
	"github.com/bellezapp/discovery-cli/internal/model"
)

// Score weights. These are a contract, not a tuning suggestion: changing
// them breaks ranking reproducibility across deployments.
const (
	ratingWeight     = 30.0
	reviewLogWeight  = 3.0
	interestWeight   = 2.0
	interestCap      = 10.0
	proximityMax     = 20.0
	proximityPerKM   = 0.4
	keywordWeight    = 2.0
	completenessStep = 1.0

	// defaultDistanceKM is assumed when a candidate's distance is
	// unknown; at 50 km the proximity component is exactly zero.
	defaultDistanceKM = 50.0
)

// Score combines rating, review volume, interest, proximity, keyword
// match, and profile completeness into one composite ranking score. Higher
// is better; individual components are capped but the sum is unbounded.
func Score(s *model.DiscoveredSalon, distanceKM *float64, keywords []string) float64 {
	total := 0.0

	// Rating: (avg/5)*30, absent rating counts as zero.
	if s.RatingAvg != nil {
		total += *s.RatingAvg / 5 * ratingWeight
	}

	// Review volume: ln(count+1)*3, slow-growing and unbounded.
	if s.RatingCount > 0 {
		total += math.Log(float64(s.RatingCount)+1) * reviewLogWeight
	}

	// Interest: 2 per signal, capped at 10.
	total += math.Min(float64(s.InterestCount)*interestWeight, interestCap)

	// Proximity: linear falloff, zero at 50 km and beyond.
	d := defaultDistanceKM
	if distanceKM != nil {
		d = *distanceKM
	}
	total += math.Max(0, proximityMax-d*proximityPerKM)

	// Keyword match, only when a service query was given.
	if len(keywords) > 0 {
		fields := keyword.MatchFields{
			Name:        s.Name,
			Category:    s.Category,
			Specialties: s.Specialties,
		}
		total += float64(keyword.ScoreMatch(fields, keywords)) * keywordWeight
	}

	total += completeness(s)

	return total
}

// completeness awards one point per filled profile signal, up to 5.
func completeness(s *model.DiscoveredSalon) float64 {
	score := 0.0
	if s.FeatureImage != "" {
		score += completenessStep
	}
	if s.Address != "" {
		score += completenessStep
	}
	if s.WorkingHours != "" {
		score += completenessStep
	}
	if s.Website != "" || s.Facebook != "" || s.Instagram != "" {
		score += completenessStep
	}
	if len(s.Specialties) > 0 {
		score += completenessStep
	}
	return score
}
