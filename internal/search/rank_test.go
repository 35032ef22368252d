package search

import (
	"fmt"
	"testing"

	"github.com/spaza-link/combo-catalog/internal/models"
)

func activeCombo(id int, name string) models.Combo {
	return models.Combo{ID: id, Name: name, IsActive: true}
}

func TestScore_Weights(t *testing.T) {
	tests := []struct {
		name  string
		combo models.Combo
		query string
		want  int
	}{
		{
			name:  "Name match",
			combo: models.Combo{Name: "Rice Bundle"},
			query: "rice",
			want:  10,
		},
		{
			name:  "Category match",
			combo: models.Combo{Name: "Snack Pack", Category: "rice dishes"},
			query: "rice",
			want:  8,
		},
		{
			name:  "Single keyword match",
			combo: models.Combo{Name: "Snack Pack", Keywords: []string{"rice"}},
			query: "rice",
			want:  5,
		},
		{
			name:  "Keyword matches are additive",
			combo: models.Combo{Name: "Snack Pack", Keywords: []string{"rice", "fried rice", "rice cakes"}},
			query: "rice",
			want:  15,
		},
		{
			name:  "Description match",
			combo: models.Combo{Name: "Snack Pack", Description: "with rice on the side"},
			query: "rice",
			want:  3,
		},
		{
			name: "Item matches are additive",
			combo: models.Combo{
				Name: "Family Pack",
				Items: []models.ComboItem{
					{Name: "Rice 2kg"},
					{Name: "Rice 5kg"},
					{Name: "Beans"},
				},
			},
			query: "rice",
			want:  4,
		},
		{
			name: "All rules accumulate",
			combo: models.Combo{
				Name:        "Rice Bundle",
				Category:    "rice",
				Description: "rice for everyone",
				Keywords:    []string{"rice"},
				Items:       []models.ComboItem{{Name: "Rice 2kg"}},
			},
			query: "rice",
			want:  28,
		},
		{
			name:  "Case insensitive",
			combo: models.Combo{Name: "RICE BUNDLE"},
			query: "RiCe",
			want:  10,
		},
		{
			name:  "No match",
			combo: models.Combo{Name: "Cleaning Kit", Description: "soap and bleach"},
			query: "rice",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.combo, tt.query); got != tt.want {
				t.Errorf("Expected score %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRank_Ordering(t *testing.T) {
	combos := []models.Combo{
		{ID: 3, Name: "Family Pack", IsActive: true, Items: []models.ComboItem{{Name: "Rice 2kg"}}},
		{ID: 1, Name: "Rice Bundle", IsActive: true},
		{ID: 2, Name: "Snack Pack", IsActive: true, Keywords: []string{"rice"}},
	}

	ranked := Rank(combos, "rice", DefaultLimit)

	if len(ranked) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(ranked))
	}

	// Scores: Rice Bundle=10, Snack Pack=5, Family Pack=2
	wantOrder := []int{1, 2, 3}
	for i, want := range wantOrder {
		if ranked[i].ID != want {
			t.Errorf("Expected combo %d at position %d, got %d", want, i, ranked[i].ID)
		}
	}
}

func TestRank_ExcludesInactive(t *testing.T) {
	combos := []models.Combo{
		{
			ID:          1,
			Name:        "Rice Bundle",
			Category:    "rice",
			Description: "rice rice rice",
			Keywords:    []string{"rice"},
			Items:       []models.ComboItem{{Name: "Rice 2kg"}},
			IsActive:    false,
		},
		{ID: 2, Name: "Rice Pack", IsActive: true},
	}

	ranked := Rank(combos, "rice", DefaultLimit)

	if len(ranked) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(ranked))
	}
	if ranked[0].ID != 2 {
		t.Errorf("Expected only the active combo, got id %d", ranked[0].ID)
	}
}

func TestRank_ExcludesZeroScores(t *testing.T) {
	combos := []models.Combo{
		activeCombo(1, "Rice Bundle"),
		activeCombo(2, "Cleaning Kit"),
	}

	ranked := Rank(combos, "rice", DefaultLimit)

	if len(ranked) != 1 {
		t.Fatalf("Expected non-matching combos to be dropped, got %d results", len(ranked))
	}
}

func TestRank_TruncatesToLimit(t *testing.T) {
	// 10 matching combos with strictly increasing keyword scores
	var combos []models.Combo
	for i := 1; i <= 10; i++ {
		keywords := make([]string, i)
		for k := range keywords {
			keywords[k] = fmt.Sprintf("rice %d", k)
		}
		combo := activeCombo(i, fmt.Sprintf("Combo %d", i))
		combo.Keywords = keywords
		combos = append(combos, combo)
	}

	ranked := Rank(combos, "rice", DefaultLimit)

	if len(ranked) != 6 {
		t.Fatalf("Expected exactly 6 results, got %d", len(ranked))
	}

	// Highest scored first: combo 10 (10 keywords) down to combo 5
	for i, want := range []int{10, 9, 8, 7, 6, 5} {
		if ranked[i].ID != want {
			t.Errorf("Expected combo %d at position %d, got %d", want, i, ranked[i].ID)
		}
	}
}

func TestRank_StableForTies(t *testing.T) {
	combos := []models.Combo{
		activeCombo(5, "Rice One"),
		activeCombo(2, "Rice Two"),
		activeCombo(9, "Rice Three"),
	}

	ranked := Rank(combos, "rice", DefaultLimit)

	// All score 10: original catalog order must be preserved
	for i, want := range []int{5, 2, 9} {
		if ranked[i].ID != want {
			t.Errorf("Expected catalog order preserved for ties, position %d got %d", i, ranked[i].ID)
		}
	}
}

func TestRank_DefaultLimitFallback(t *testing.T) {
	var combos []models.Combo
	for i := 1; i <= 8; i++ {
		combos = append(combos, activeCombo(i, "Rice"))
	}

	ranked := Rank(combos, "rice", 0)

	if len(ranked) != DefaultLimit {
		t.Errorf("Expected default limit %d, got %d results", DefaultLimit, len(ranked))
	}
}
