package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ComboItem represents a single line item inside a bundled deal
type ComboItem struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Brand              string  `json:"brand,omitempty"`
	Size               string  `json:"size,omitempty"`
	Price              float64 `json:"price"`
	Quantity           int     `json:"quantity"`
	DiscountPercentage float64 `json:"discount_percentage,omitempty"`
}

// Combo represents a bundled-deal offer sold at a combined price
type Combo struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    string      `json:"category"`
	Items       []ComboItem `json:"items"`
	Keywords    []string    `json:"keywords"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ComboDraft is the write payload for create/update operations.
// Server-assigned fields (id, timestamps) are deliberately absent.
type ComboDraft struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Category    string      `json:"category"`
	Items       []ComboItem `json:"items"`
	Keywords    []string    `json:"keywords"`
	IsActive    bool        `json:"is_active"`
}

// ComboList represents the API response for the full catalog listing
type ComboList struct {
	Success    bool     `json:"success"`
	Combos     []Combo  `json:"combos"`
	Total      int      `json:"total"`
	Categories []string `json:"categories"`
	Source     string   `json:"source"`
	Error      string   `json:"error,omitempty"`
}

// ComboResponse represents a single-combo API response
type ComboResponse struct {
	Success bool   `json:"success"`
	Combo   *Combo `json:"combo,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CombosResponse represents a multi-combo API response (search, category)
type CombosResponse struct {
	Success bool    `json:"success"`
	Combos  []Combo `json:"combos"`
	Error   string  `json:"error,omitempty"`
}

// StatusResponse represents an API response carrying only a success flag
type StatusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PriceStats holds aggregate price figures over the catalog
type PriceStats struct {
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
	Range   float64 `json:"range"`
}

// ComboStatistics is a server-computed aggregate over the catalog.
// It is never constructed on the client side.
type ComboStatistics struct {
	TotalCombos    int        `json:"total_combos"`
	ActiveCombos   int        `json:"active_combos"`
	InactiveCombos int        `json:"inactive_combos"`
	Categories     []string   `json:"categories"`
	CategoryCount  int        `json:"category_count"`
	PriceStats     PriceStats `json:"price_stats"`
	LastUpdated    time.Time  `json:"last_updated"`
}

// StatsResponse represents the statistics API response
type StatsResponse struct {
	Success bool             `json:"success"`
	Stats   *ComboStatistics `json:"stats,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Savings describes how a combo's bundled price compares to buying its
// items individually
type Savings struct {
	OriginalPrice     float64 `json:"original_price"`
	Savings           float64 `json:"savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// CalculateSavings computes the difference between the sum of component
// item prices and the combo's bundled price. Negative savings (a combo
// priced above its components) is reported as-is, never clamped.
func CalculateSavings(combo Combo) Savings {
	var original float64
	for _, item := range combo.Items {
		original += item.Price * float64(item.Quantity)
	}

	savings := original - combo.Price

	var pct float64
	if original > 0 {
		pct = round2(savings / original * 100)
	}

	return Savings{
		OriginalPrice:     original,
		Savings:           savings,
		SavingsPercentage: pct,
	}
}

// DisplayCombo is a display-ready projection of a Combo
type DisplayCombo struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Category    string   `json:"category"`
	Items       []string `json:"items"`
	Savings     string   `json:"savings"`
	IsActive    bool     `json:"is_active"`
}

// FormatForDisplay projects a combo into display-ready strings. The
// savings string is empty unless the bundle is genuinely cheaper than
// its components.
func FormatForDisplay(combo Combo) DisplayCombo {
	savings := CalculateSavings(combo)

	items := make([]string, 0, len(combo.Items))
	for _, item := range combo.Items {
		items = append(items, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
	}

	savingsLabel := ""
	if savings.Savings > 0 {
		savingsLabel = fmt.Sprintf("Save R%.2f (%g%%)", savings.Savings, savings.SavingsPercentage)
	}

	return DisplayCombo{
		ID:          combo.ID,
		Name:        combo.Name,
		Description: combo.Description,
		Price:       fmt.Sprintf("R%.2f", combo.Price),
		Category:    titleCase(combo.Category),
		Items:       items,
		Savings:     savingsLabel,
		IsActive:    combo.IsActive,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SeedCombos returns the starter catalog used when the local snapshot
// store is empty.
func SeedCombos() []Combo {
	now := time.Now().UTC()
	return []Combo{
		{
			ID: 1, Name: "Essential Groceries", Price: 45.0, Category: "basic",
			Description: "Daily essentials", IsActive: true,
			Items: []ComboItem{
				{ID: "maize-2kg", Name: "Maize meal 2kg", Price: 22.0, Quantity: 1},
				{ID: "oil-750", Name: "Oil 750ml", Price: 18.0, Quantity: 1},
				{ID: "sugar-1kg", Name: "Sugar 1kg", Price: 12.0, Quantity: 1},
				{ID: "salt-500", Name: "Salt 500g", Price: 6.0, Quantity: 1},
			},
			Keywords:  []string{"basic", "essential", "daily", "staple", "grocery"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: 2, Name: "Family Pack", Price: 120.0, Category: "family",
			Description: "Complete family nutrition", IsActive: true,
			Items: []ComboItem{
				{ID: "meat-1kg", Name: "Meat 1kg", Price: 75.0, Quantity: 1},
				{ID: "veg-mix", Name: "Vegetables", Price: 30.0, Quantity: 1},
				{ID: "bread", Name: "Bread", Price: 15.0, Quantity: 2},
				{ID: "milk-1l", Name: "Milk 1L", Price: 17.0, Quantity: 1},
			},
			Keywords:  []string{"family", "premium", "complete", "nutrition", "meat"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: 3, Name: "Baby Care Bundle", Price: 85.0, Category: "baby",
			Description: "Everything for baby", IsActive: true,
			Items: []ComboItem{
				{ID: "diapers-20", Name: "Diapers 20pk", Price: 55.0, Quantity: 1},
				{ID: "formula", Name: "Baby formula", Price: 28.0, Quantity: 1},
				{ID: "wipes", Name: "Wet wipes", Price: 14.0, Quantity: 1},
			},
			Keywords:  []string{"baby", "infant", "care", "diaper", "formula"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: 4, Name: "Household Cleaning", Price: 65.0, Category: "cleaning",
			Description: "Clean home essentials", IsActive: true,
			Items: []ComboItem{
				{ID: "detergent", Name: "Detergent", Price: 32.0, Quantity: 1},
				{ID: "toilet-paper", Name: "Toilet paper", Price: 24.0, Quantity: 1},
				{ID: "soap", Name: "Soap", Price: 9.0, Quantity: 2},
			},
			Keywords:  []string{"cleaning", "household", "soap", "detergent", "clean"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: 5, Name: "Student Survival Kit", Price: 35.0, Category: "student",
			Description: "Budget student meals", IsActive: true,
			Items: []ComboItem{
				{ID: "noodles", Name: "Instant noodles", Price: 6.0, Quantity: 4},
				{ID: "beans", Name: "Canned beans", Price: 11.0, Quantity: 1},
				{ID: "pb", Name: "Peanut butter", Price: 9.0, Quantity: 1},
			},
			Keywords:  []string{"student", "budget", "cheap", "noodles", "affordable"},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: 6, Name: "Breakfast Special", Price: 40.0, Category: "breakfast",
			Description: "Start your day right", IsActive: true,
			Items: []ComboItem{
				{ID: "cereal", Name: "Cereal", Price: 25.0, Quantity: 1},
				{ID: "eggs-6", Name: "Eggs 6pk", Price: 13.0, Quantity: 1},
				{ID: "coffee", Name: "Coffee", Price: 10.0, Quantity: 1},
			},
			Keywords:  []string{"breakfast", "morning", "cereal", "coffee", "eggs"},
			CreatedAt: now, UpdatedAt: now,
		},
	}
}
