package discovery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bellezapp/discovery-cli/internal/keyword"
	"github.com/bellezapp/discovery-cli/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestScore_Components(t *testing.T) {
	// Bare salon at the default (unknown) distance scores zero.
	assert.InDelta(t, 0, Score(&model.DiscoveredSalon{}, nil, nil), 0.001)

	// Rating alone: 5.0 -> 30, 2.5 -> 15.
	assert.InDelta(t, 30, Score(&model.DiscoveredSalon{RatingAvg: ptr(5.0)}, ptr(50.0), nil), 0.001)
	assert.InDelta(t, 15, Score(&model.DiscoveredSalon{RatingAvg: ptr(2.5)}, ptr(50.0), nil), 0.001)

	// Review volume: ln(count+1)*3.
	assert.InDelta(t, math.Log(101)*3, Score(&model.DiscoveredSalon{RatingCount: 100}, ptr(50.0), nil), 0.001)

	// Interest: 2 per signal, capped at 10.
	assert.InDelta(t, 6, Score(&model.DiscoveredSalon{InterestCount: 3}, ptr(50.0), nil), 0.001)
	assert.InDelta(t, 10, Score(&model.DiscoveredSalon{InterestCount: 50}, ptr(50.0), nil), 0.001)

	// Proximity: 20 at 0 km, 16.8 at 8 km, 0 at 50 km and beyond.
	assert.InDelta(t, 20, Score(&model.DiscoveredSalon{}, ptr(0.0), nil), 0.001)
	assert.InDelta(t, 16.8, Score(&model.DiscoveredSalon{}, ptr(8.0), nil), 0.001)
	assert.InDelta(t, 0, Score(&model.DiscoveredSalon{}, ptr(80.0), nil), 0.001)

	// Completeness: one point per filled signal, five max.
	full := &model.DiscoveredSalon{
		FeatureImage: "img.jpg",
		Address:      "Calle 1",
		WorkingHours: "9-6",
		Instagram:    "@salon",
		Specialties:  []string{"gelish"},
	}
	assert.InDelta(t, 5, Score(full, ptr(50.0), nil), 0.001)
}

func TestScore_KeywordComponent(t *testing.T) {
	kws := keyword.BuildKeywords("unas")

	match := &model.DiscoveredSalon{Name: "Manicure Express"}
	noMatch := &model.DiscoveredSalon{Name: "Taller Mecanico"}

	// Name hit is 3 points at weight 2.
	assert.InDelta(t, 6, Score(match, ptr(50.0), kws), 0.001)
	assert.InDelta(t, 0, Score(noMatch, ptr(50.0), kws), 0.001)

	// Without keywords the component is absent entirely.
	assert.InDelta(t, 0, Score(match, ptr(50.0), nil), 0.001)
}

func TestScore_Monotonicity(t *testing.T) {
	base := model.DiscoveredSalon{
		RatingAvg:     ptr(4.0),
		RatingCount:   50,
		InterestCount: 2,
	}
	d := ptr(10.0)

	// Rating up, score up.
	better := base
	better.RatingAvg = ptr(4.5)
	assert.Greater(t, Score(&better, d, nil), Score(&base, d, nil))

	// Review count up, score up.
	better = base
	better.RatingCount = 100
	assert.Greater(t, Score(&better, d, nil), Score(&base, d, nil))

	// Interest up, score up (below the cap).
	better = base
	better.InterestCount = 4
	assert.Greater(t, Score(&better, d, nil), Score(&base, d, nil))

	// Distance up, score down.
	assert.Less(t, Score(&base, ptr(20.0), nil), Score(&base, d, nil))
}

func TestScore_ProximityCannotBeatQuality(t *testing.T) {
	// A at 0 km: rating 3.5, no reviews, no interest.
	a := &model.DiscoveredSalon{
		RatingAvg:    ptr(3.5),
		FeatureImage: "a.jpg",
		Address:      "Calle A",
	}
	// B at 8 km: rating 4.9, 200 reviews, 5 interest signals.
	b := &model.DiscoveredSalon{
		RatingAvg:     ptr(4.9),
		RatingCount:   200,
		InterestCount: 5,
		FeatureImage:  "b.jpg",
		Address:       "Calle B",
	}

	scoreA := Score(a, ptr(0.0), nil)
	scoreB := Score(b, ptr(8.0), nil)
	assert.Greater(t, scoreB, scoreA,
		"rating and review volume must outweigh the proximity gap")
}
