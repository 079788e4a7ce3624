package discovery

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bellezapp/discovery-cli/internal/geo"
	"github.com/bellezapp/discovery-cli/internal/keyword"
	"github.com/bellezapp/discovery-cli/internal/model"
)

// Ranking defaults.
const (
	DefaultRadiusKM   = 50.0
	DefaultMaxResults = 20
	// fallbackPoolSize bounds the candidate pool fetched by the
	// non-spatial path before client-side distance filtering.
	fallbackPoolSize = 500
)

// RankParams is the input of a ranking query.
type RankParams struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RadiusKM   float64 `json:"radius_km"`
	MaxResults int     `json:"max_results"`
	Query      string  `json:"service_query"`
}

// RankedSalon is one ranking result: a candidate summary plus the
// computed distance and composite score.
type RankedSalon struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	City          string   `json:"city,omitempty"`
	Category      string   `json:"category,omitempty"`
	Specialties   []string `json:"specialties,omitempty"`
	RatingAvg     *float64 `json:"rating_avg,omitempty"`
	RatingCount   int      `json:"rating_count"`
	FeatureImage  string   `json:"feature_image,omitempty"`
	InterestCount int      `json:"interest_count"`
	Status        string   `json:"status"`
	DistanceKM    float64  `json:"distance_km"`
	Score         float64  `json:"score"`
}

// Rank returns candidates around a point ordered by composite quality
// score, best first, at most MaxResults entries. A failing spatial query
// falls back transparently to the plain candidate pool with client-side
// distance filtering; that fallback is required behavior, not an
// optimization.
func Rank(ctx context.Context, store Store, params RankParams) ([]RankedSalon, error) {
	// The exact point (0, 0) doubles as the missing-coordinates sentinel:
	// it is open ocean off West Africa, never a serviceable query
	// location. Either coordinate may legitimately be zero on its own.
	if params.Latitude == 0 && params.Longitude == 0 {
		return nil, eris.New("rank: latitude and longitude are required")
	}

	radius := params.RadiusKM
	if radius <= 0 {
		radius = DefaultRadiusKM
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	log := zap.L().With(zap.String("op", "rank"))

	candidates, err := store.SalonsWithinRadius(ctx, params.Latitude, params.Longitude, radius, fallbackPoolSize)
	if err != nil {
		log.Debug("spatial query unavailable, using plain candidate pool", zap.Error(err))
		candidates, err = store.SalonsWithCoordinates(ctx, fallbackPoolSize)
		if err != nil {
			return nil, eris.Wrap(err, "rank: fetch candidate pool")
		}
	}

	var keywords []string
	if params.Query != "" {
		keywords = keyword.BuildKeywords(params.Query)
	}

	ranked := rankCandidates(candidates, params.Latitude, params.Longitude, radius, keywords)
	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked, nil
}

// rankCandidates filters by distance, scores, and sorts descending. The
// sort is stable; order among exact score ties is whatever the store
// returned.
func rankCandidates(candidates []model.DiscoveredSalon, lat, lng, radiusKM float64, keywords []string) []RankedSalon {
	ranked := make([]RankedSalon, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if !c.HasCoordinates() {
			continue
		}

		d := geo.DistanceKM(lat, lng, *c.Latitude, *c.Longitude)
		if d > radiusKM {
			continue
		}

		ranked = append(ranked, RankedSalon{
			ID:            c.ID,
			Name:          c.Name,
			Address:       c.Address,
			City:          c.City,
			Category:      c.Category,
			Specialties:   c.Specialties,
			RatingAvg:     c.RatingAvg,
			RatingCount:   c.RatingCount,
			FeatureImage:  c.FeatureImage,
			InterestCount: c.InterestCount,
			Status:        string(c.Status),
			DistanceKM:    d,
			Score:         Score(c, &d, keywords),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
