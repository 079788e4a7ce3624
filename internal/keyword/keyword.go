// Package keyword maps free-text service queries to canonical keyword sets
// and scores textual overlap against salon listings. The category table is
// data, not control flow, so new service categories only touch the map.
package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// minTokenLen discards short fallback tokens like "de" or "y".
	minTokenLen = 3
	// maxFallbackTokens caps the fallback keyword list.
	maxFallbackTokens = 5
)

// categoryKeywords maps a canonical service category to its search
// synonyms (Spanish and English, already normalized). A query matches a
// category when the category key appears as a substring of the normalized
// query, or any synonym does.
var categoryKeywords = map[string][]string{
	"nails":    {"unas", "manicure", "pedicure", "nails", "acrilicas", "gelish", "esmaltado"},
	"hair":     {"cabello", "corte", "pelo", "hair", "peinado", "tinte", "balayage", "keratina"},
	"lashes":   {"pestanas", "lashes", "extensiones de pestanas", "lifting"},
	"brows":    {"cejas", "brows", "microblading", "laminado"},
	"makeup":   {"maquillaje", "makeup", "automaquillaje"},
	"waxing":   {"depilacion", "waxing", "cera", "laser"},
	"facial":   {"facial", "limpieza facial", "hidratacion", "dermapen"},
	"body":     {"corporal", "body", "reductivo", "exfoliacion"},
	"massage":  {"masaje", "massage", "relajante", "descontracturante"},
	"barber":   {"barberia", "barba", "barber", "afeitado"},
	"skincare": {"piel", "skincare", "cuidado de la piel", "acne"},
	"spa":      {"spa", "sauna", "vapor", "circuito de agua"},
}

// categoryAliases lets common query phrasings hit a category whose key
// would not otherwise appear as a substring.
var categoryAliases = map[string]string{
	"manicure":   "nails",
	"pedicure":   "nails",
	"unas":       "nails",
	"cabello":    "hair",
	"corte":      "hair",
	"pelo":       "hair",
	"pestanas":   "lashes",
	"cejas":      "brows",
	"maquillaje": "makeup",
	"depilacion": "waxing",
	"masaje":     "massage",
	"barberia":   "barber",
}

// categoryOrder fixes iteration order so BuildKeywords is deterministic.
var categoryOrder = []string{
	"nails", "hair", "lashes", "brows", "makeup", "waxing",
	"facial", "body", "massage", "barber", "skincare", "spa",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases s and strips diacritics ("Uñas" -> "unas").
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// BuildKeywords converts a free-text service query into an ordered keyword
// list. A query matching a known category returns that category's full
// synonym set; otherwise the query is tokenized and the longest-prefix
// tokens are returned, at most maxFallbackTokens.
func BuildKeywords(query string) []string {
	q := Normalize(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	for _, cat := range categoryOrder {
		if strings.Contains(q, cat) {
			return append([]string(nil), categoryKeywords[cat]...)
		}
		for _, syn := range categoryKeywords[cat] {
			if strings.Contains(q, syn) {
				return append([]string(nil), categoryKeywords[cat]...)
			}
		}
	}

	if cat, ok := categoryAliases[q]; ok {
		return append([]string(nil), categoryKeywords[cat]...)
	}

	// Fallback: plain tokens from the query itself.
	var tokens []string
	for _, tok := range strings.FieldsFunc(q, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_'
	}) {
		if len(tok) < minTokenLen {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == maxFallbackTokens {
			break
		}
	}
	return tokens
}

// MatchFields is the candidate text surface scored against keywords.
type MatchFields struct {
	Name        string
	Category    string
	Specialties []string
}

// Field weights for ScoreMatch. Name hits matter most.
const (
	nameWeight      = 3
	categoryWeight  = 2
	specialtyWeight = 1
)

// ScoreMatch awards points per keyword found in each field. A keyword
// present in multiple fields scores once per field.
func ScoreMatch(c MatchFields, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}

	name := Normalize(c.Name)
	category := Normalize(c.Category)
	specialties := Normalize(strings.Join(c.Specialties, " "))

	score := 0
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			score += nameWeight
		}
		if strings.Contains(category, kw) {
			score += categoryWeight
		}
		if strings.Contains(specialties, kw) {
			score += specialtyWeight
		}
	}
	return score
}

// Matches reports whether any keyword appears in the candidate's combined
// name, category, and specialty text.
func Matches(c MatchFields, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	combined := Normalize(c.Name + " " + c.Category + " " + strings.Join(c.Specialties, " "))
	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}
	return false
}
