package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Uñas", "unas"},
		{"DEPILACIÓN", "depilacion"},
		{"Corte de Cabello", "corte de cabello"},
		{"pestañas y cejas", "pestanas y cejas"},
		{"plain ascii", "plain ascii"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Normalize(tt.in), tt.in)
	}
}

func TestBuildKeywords_CategoryLookup(t *testing.T) {
	// "unas" maps to the full nails synonym set.
	kws := BuildKeywords("unas")
	require.NotEmpty(t, kws)
	assert.Contains(t, kws, "manicure")
	assert.Contains(t, kws, "pedicure")
	assert.Contains(t, kws, "gelish")

	// Accented query normalizes into the same set.
	assert.Equal(t, kws, BuildKeywords("Uñas"))

	// A phrase containing a synonym still hits the category.
	hair := BuildKeywords("corte de cabello")
	assert.Contains(t, hair, "tinte")
	assert.Contains(t, hair, "balayage")
}

func TestBuildKeywords_Deterministic(t *testing.T) {
	a := BuildKeywords("corte de cabello")
	b := BuildKeywords("corte de cabello")
	assert.Equal(t, a, b)
}

func TestBuildKeywords_Fallback(t *testing.T) {
	kws := BuildKeywords("tratamiento capilar premium")
	assert.Equal(t, []string{"tratamiento", "capilar", "premium"}, kws)
}

func TestBuildKeywords_FallbackDropsShortTokens(t *testing.T) {
	kws := BuildKeywords("xx yy tratamiento de_lujo")
	// Tokens under 3 chars are dropped, underscore splits.
	assert.Equal(t, []string{"tratamiento", "lujo"}, kws)
}

func TestBuildKeywords_FallbackCap(t *testing.T) {
	kws := BuildKeywords("uno dos tres cuatro cinco seis siete")
	assert.Len(t, kws, 5)
}

func TestBuildKeywords_Empty(t *testing.T) {
	assert.Nil(t, BuildKeywords(""))
	assert.Nil(t, BuildKeywords("   "))
}

func TestScoreMatch(t *testing.T) {
	kws := BuildKeywords("unas")

	// Keyword in name (3) and in category (2) stack per field.
	c := MatchFields{
		Name:     "Nail Studio Maria",
		Category: "uñas y manicure",
	}
	score := ScoreMatch(c, kws)
	assert.Positive(t, score)
	// "nails" is not a substring of the name, but "manicure" hits the
	// category and "unas" hits the normalized category too.
	assert.GreaterOrEqual(t, score, 4)

	// No textual overlap scores zero.
	none := MatchFields{Name: "Taller Mecanico Lopez", Category: "automotriz"}
	assert.Zero(t, ScoreMatch(none, kws))
}

func TestScoreMatch_FieldWeights(t *testing.T) {
	kws := []string{"gelish"}

	assert.Equal(t, 3, ScoreMatch(MatchFields{Name: "Gelish House"}, kws))
	assert.Equal(t, 2, ScoreMatch(MatchFields{Category: "gelish"}, kws))
	assert.Equal(t, 1, ScoreMatch(MatchFields{Specialties: []string{"gelish"}}, kws))
	// Present in all three fields scores 3+2+1.
	all := MatchFields{Name: "Gelish House", Category: "gelish", Specialties: []string{"gelish"}}
	assert.Equal(t, 6, ScoreMatch(all, kws))
}

func TestScoreMatch_NoKeywords(t *testing.T) {
	assert.Zero(t, ScoreMatch(MatchFields{Name: "anything"}, nil))
}

func TestMatches(t *testing.T) {
	kws := BuildKeywords("unas")

	assert.True(t, Matches(MatchFields{Name: "Manicure Express"}, kws))
	assert.True(t, Matches(MatchFields{Specialties: []string{"uñas acrílicas"}}, kws))
	assert.False(t, Matches(MatchFields{Name: "Taller Mecanico"}, kws))
	assert.False(t, Matches(MatchFields{Name: "anything"}, nil))
}
