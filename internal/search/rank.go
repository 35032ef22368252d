package search

import (
	"sort"
	"strings"

	"github.com/spaza-link/combo-catalog/internal/models"
)

// Relevance weights. A direct name hit is the strongest signal, curated
// keyword tags sit between category and description, and item-level hits
// are the weakest: a combo containing "rice" among five items is a worse
// match for "rice" than a combo named "Rice Bundle".
const (
	nameWeight        = 10
	categoryWeight    = 8
	keywordWeight     = 5
	descriptionWeight = 3
	itemWeight        = 2
)

// DefaultLimit is the number of results returned by a ranked search
const DefaultLimit = 6

// Score computes the relevance of a single combo for a query using
// case-insensitive substring matching. Keyword and item weights are
// additive per match. A score of zero means no match at all.
func Score(combo models.Combo, query string) int {
	term := strings.ToLower(query)
	score := 0

	if strings.Contains(strings.ToLower(combo.Name), term) {
		score += nameWeight
	}
	if strings.Contains(strings.ToLower(combo.Category), term) {
		score += categoryWeight
	}
	for _, keyword := range combo.Keywords {
		if strings.Contains(strings.ToLower(keyword), term) {
			score += keywordWeight
		}
	}
	if strings.Contains(strings.ToLower(combo.Description), term) {
		score += descriptionWeight
	}
	for _, item := range combo.Items {
		if strings.Contains(strings.ToLower(item.Name), term) {
			score += itemWeight
		}
	}

	return score
}

// Rank scores every active combo against the query and returns the best
// matches in descending score order, truncated to limit. Inactive combos
// are never surfaced. Ties keep the original catalog order. A
// non-positive limit falls back to DefaultLimit.
func Rank(combos []models.Combo, query string, limit int) []models.Combo {
	if limit <= 0 {
		limit = DefaultLimit
	}

	type match struct {
		combo models.Combo
		score int
	}

	matches := make([]match, 0, len(combos))
	for _, combo := range combos {
		if !combo.IsActive {
			continue
		}
		if score := Score(combo, query); score > 0 {
			matches = append(matches, match{combo: combo, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	ranked := make([]models.Combo, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, m.combo)
	}
	return ranked
}
