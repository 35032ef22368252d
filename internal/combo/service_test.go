package combo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spaza-link/combo-catalog/internal/cache"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
)

func init() {
	// Initialize logger for tests
	logger.Initialize()
}

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewService(server.URL, cache.NewMemoryStore(cache.DefaultTTL)), server
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func testCatalog() []models.Combo {
	return []models.Combo{
		{ID: 1, Name: "Rice Bundle", Price: 50, Category: "basic", IsActive: true},
		{ID: 2, Name: "Snack Pack", Price: 30, Category: "snacks", Keywords: []string{"rice"}, IsActive: true},
		{ID: 3, Name: "Family Pack", Price: 120, Category: "family", IsActive: true,
			Items: []models.ComboItem{{ID: "rice-2kg", Name: "Rice 2kg", Price: 40, Quantity: 1}}},
	}
}

func TestGetAllCombos_CachesListing(t *testing.T) {
	var hits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		writeJSON(w, http.StatusOK, models.ComboList{
			Success: true, Combos: testCatalog(), Total: 3,
			Categories: []string{"basic", "snacks", "family"}, Source: "database",
		})
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	first, err := svc.GetAllCombos(ctx, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Total != 3 || len(first.Combos) != 3 {
		t.Errorf("Unexpected listing: total=%d combos=%d", first.Total, len(first.Combos))
	}
	if first.Source != "database" {
		t.Errorf("Expected source 'database', got '%s'", first.Source)
	}

	second, err := svc.GetAllCombos(ctx, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(second.Combos) != 3 {
		t.Errorf("Expected cached listing with 3 combos, got %d", len(second.Combos))
	}

	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("Expected 1 network fetch for 2 cached reads, got %d", got)
	}

	// useCache=false always goes to the network
	if _, err := svc.GetAllCombos(ctx, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("Expected cache bypass to fetch, got %d total fetches", got)
	}
}

func TestGetAllCombos_PropagatesFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "boom"})
	})

	svc, _ := newTestService(t, mux)

	if _, err := svc.GetAllCombos(context.Background(), true); err == nil {
		t.Error("Expected error for failed listing fetch")
	}
}

func TestGetComboByID(t *testing.T) {
	var hits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		combo := testCatalog()[0]
		writeJSON(w, http.StatusOK, models.ComboResponse{Success: true, Combo: &combo})
	})
	mux.HandleFunc("/api/combos/99", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "combo not found"})
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	combo := svc.GetComboByID(ctx, 1)
	if combo == nil {
		t.Fatal("Expected combo, got nil")
	}
	if combo.Name != "Rice Bundle" {
		t.Errorf("Unexpected combo name: %s", combo.Name)
	}

	// Second read served from cache
	if svc.GetComboByID(ctx, 1) == nil {
		t.Fatal("Expected cached combo, got nil")
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("Expected 1 network fetch, got %d", got)
	}

	// Missing combo is a nil sentinel, not an error
	if svc.GetComboByID(ctx, 99) != nil {
		t.Error("Expected nil for missing combo")
	}
}

func TestSearchCombos_FailureReturnsEmpty(t *testing.T) {
	svc, server := newTestService(t, http.NotFoundHandler())
	server.Close()

	results := svc.SearchCombos(context.Background(), "rice")
	if results == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestCombosByCategory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/category/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CombosResponse{Success: true, Combos: testCatalog()[:1]})
	})

	svc, _ := newTestService(t, mux)

	combos := svc.CombosByCategory(context.Background(), "basic")
	if len(combos) != 1 {
		t.Fatalf("Expected 1 combo, got %d", len(combos))
	}
	if combos[0].Category != "basic" {
		t.Errorf("Unexpected category: %s", combos[0].Category)
	}
}

func TestStatistics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.StatsResponse{
			Success: true,
			Stats: &models.ComboStatistics{
				TotalCombos: 3, ActiveCombos: 3,
				Categories: []string{"basic", "snacks", "family"}, CategoryCount: 3,
				PriceStats: models.PriceStats{Average: 66.67, Minimum: 30, Maximum: 120, Range: 90},
			},
		})
	})

	svc, _ := newTestService(t, mux)

	stats := svc.Statistics(context.Background())
	if stats == nil {
		t.Fatal("Expected statistics, got nil")
	}
	if stats.TotalCombos != 3 || stats.CategoryCount != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestStatistics_FailureReturnsNil(t *testing.T) {
	svc, server := newTestService(t, http.NotFoundHandler())
	server.Close()

	if svc.Statistics(context.Background()) != nil {
		t.Error("Expected nil statistics on failure")
	}
}

func TestAddCombo_SuccessInvalidatesCache(t *testing.T) {
	var listHits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if r.Header.Get("Authorization") != "Bearer secret" {
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
				return
			}
			combo := models.Combo{ID: 10, Name: "New Deal", IsActive: true}
			writeJSON(w, http.StatusCreated, models.ComboResponse{Success: true, Combo: &combo})
			return
		}
		atomic.AddInt64(&listHits, 1)
		writeJSON(w, http.StatusOK, models.ComboList{Success: true, Combos: testCatalog(), Total: 3})
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	// Prime the listing cache
	if _, err := svc.GetAllCombos(ctx, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	created := svc.AddCombo(ctx, models.ComboDraft{Name: "New Deal", Price: 25, IsActive: true}, "secret")
	if created == nil {
		t.Fatal("Expected created combo, got nil")
	}
	if created.ID != 10 {
		t.Errorf("Expected server-assigned id 10, got %d", created.ID)
	}

	// The write dropped every cached entry: the next read refetches
	if _, err := svc.GetAllCombos(ctx, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := atomic.LoadInt64(&listHits); got != 2 {
		t.Errorf("Expected listing refetch after write, got %d fetches", got)
	}
}

func TestAddCombo_FailureLeavesCacheUntouched(t *testing.T) {
	var listHits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}
		atomic.AddInt64(&listHits, 1)
		writeJSON(w, http.StatusOK, models.ComboList{Success: true, Combos: testCatalog(), Total: 3})
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	if _, err := svc.GetAllCombos(ctx, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if created := svc.AddCombo(ctx, models.ComboDraft{Name: "Nope"}, "bad-token"); created != nil {
		t.Error("Expected nil for rejected write")
	}

	// Previous cache entry must still be valid
	if _, err := svc.GetAllCombos(ctx, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := atomic.LoadInt64(&listHits); got != 1 {
		t.Errorf("Expected failed write to leave cache intact, got %d fetches", got)
	}
}

func TestUpdateCombo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var draft models.ComboDraft
		json.NewDecoder(r.Body).Decode(&draft)
		combo := models.Combo{ID: 1, Name: draft.Name, Price: draft.Price, IsActive: draft.IsActive}
		writeJSON(w, http.StatusOK, models.ComboResponse{Success: true, Combo: &combo})
	})

	svc, _ := newTestService(t, mux)

	updated := svc.UpdateCombo(context.Background(), 1, models.ComboDraft{Name: "Renamed", Price: 55, IsActive: true}, "secret")
	if updated == nil {
		t.Fatal("Expected updated combo, got nil")
	}
	if updated.Name != "Renamed" || updated.Price != 55 {
		t.Errorf("Unexpected updated combo: %+v", updated)
	}
}

func TestDeleteCombo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.StatusResponse{Success: true})
	})
	mux.HandleFunc("/api/combos/2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "combo not found"})
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	if !svc.DeleteCombo(ctx, 1, "secret") {
		t.Error("Expected confirmed delete to return true")
	}
	if svc.DeleteCombo(ctx, 2, "secret") {
		t.Error("Expected failed delete to return false")
	}
}

func TestToggleComboStatus_Idempotent(t *testing.T) {
	active := true
	var listHits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/1/toggle", func(w http.ResponseWriter, r *http.Request) {
		active = !active
		combo := models.Combo{ID: 1, Name: "Rice Bundle", IsActive: active}
		writeJSON(w, http.StatusOK, models.ComboResponse{Success: true, Combo: &combo})
	})
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&listHits, 1)
		writeJSON(w, http.StatusOK, models.ComboList{Success: true, Combos: testCatalog(), Total: 3})
	})

	svc, _ := newTestService(t, mux)
	ctx := context.Background()

	first := svc.ToggleComboStatus(ctx, 1, "secret")
	if first == nil || first.IsActive {
		t.Fatalf("Expected combo toggled inactive, got %+v", first)
	}

	// Cache invalidated by the first toggle
	svc.GetAllCombos(ctx, true)

	second := svc.ToggleComboStatus(ctx, 1, "secret")
	if second == nil || !second.IsActive {
		t.Fatalf("Expected combo restored to active, got %+v", second)
	}

	// And again by the second toggle
	svc.GetAllCombos(ctx, true)

	if got := atomic.LoadInt64(&listHits); got != 2 {
		t.Errorf("Expected both toggles to invalidate the cache, got %d fetches", got)
	}
}

func TestFuzzySearch_PrefersServerResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CombosResponse{Success: true, Combos: testCatalog()[2:]})
	})

	svc, _ := newTestService(t, mux)

	results := svc.FuzzySearch(context.Background(), "family")
	if len(results) != 1 {
		t.Fatalf("Expected server results passed through, got %d", len(results))
	}
	if results[0].ID != 3 {
		t.Errorf("Expected server-ranked combo 3, got %d", results[0].ID)
	}
}

func TestFuzzySearch_FallsBackToLocalRanking(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CombosResponse{Success: true, Combos: []models.Combo{}})
	})
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ComboList{Success: true, Combos: testCatalog(), Total: 3})
	})

	svc, _ := newTestService(t, mux)

	results := svc.FuzzySearch(context.Background(), "rice")

	// Local ranking: name hit (10) > keyword hit (5) > item hit (2)
	if len(results) != 3 {
		t.Fatalf("Expected 3 fallback results, got %d", len(results))
	}
	for i, want := range []int{1, 2, 3} {
		if results[i].ID != want {
			t.Errorf("Expected combo %d at position %d, got %d", want, i, results[i].ID)
		}
	}
}

func TestPopularCombos(t *testing.T) {
	catalog := append(testCatalog(), models.Combo{ID: 4, Name: "Dormant Deal", Price: 500, IsActive: false})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ComboList{Success: true, Combos: catalog, Total: len(catalog)})
	})

	svc, _ := newTestService(t, mux)

	popular := svc.PopularCombos(context.Background(), 2)

	if len(popular) != 2 {
		t.Fatalf("Expected 2 combos, got %d", len(popular))
	}
	// Price descending, inactive combo 4 excluded despite highest price
	if popular[0].ID != 3 || popular[1].ID != 1 {
		t.Errorf("Expected order [3, 1], got [%d, %d]", popular[0].ID, popular[1].ID)
	}
}

func TestCombosByPriceRange_InclusiveBounds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.ComboList{Success: true, Combos: testCatalog(), Total: 3})
	})

	svc, _ := newTestService(t, mux)

	// Bounds land exactly on combo prices 30 and 50
	matched := svc.CombosByPriceRange(context.Background(), 30, 50)

	if len(matched) != 2 {
		t.Fatalf("Expected combos at both boundaries included, got %d", len(matched))
	}
	if matched[0].ID != 1 || matched[1].ID != 2 {
		t.Errorf("Unexpected combos: [%d, %d]", matched[0].ID, matched[1].ID)
	}
}

func TestHealthCheck(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	svc, server := newTestService(t, mux)

	if !svc.HealthCheck(context.Background()) {
		t.Error("Expected healthy backend")
	}

	server.Close()
	if svc.HealthCheck(context.Background()) {
		t.Error("Expected health check to fail against closed server")
	}
}

func TestSetBaseURL_InvalidatesCache(t *testing.T) {
	makeHandler := func(source string) http.Handler {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/combos", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, models.ComboList{Success: true, Source: source})
		})
		return mux
	}

	svc, _ := newTestService(t, makeHandler("env-a"))

	other := httptest.NewServer(makeHandler("env-b"))
	defer other.Close()

	ctx := context.Background()

	first, err := svc.GetAllCombos(ctx, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.Source != "env-a" {
		t.Fatalf("Expected env-a listing, got %s", first.Source)
	}

	svc.SetBaseURL(other.URL)

	if svc.BaseURL() != other.URL {
		t.Errorf("Expected base URL %s, got %s", other.URL, svc.BaseURL())
	}

	second, err := svc.GetAllCombos(ctx, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.Source != "env-b" {
		t.Errorf("Expected fresh fetch from new backend, got source %s", second.Source)
	}
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService("", nil)

	if svc.BaseURL() != DefaultBaseURL {
		t.Errorf("Expected default base URL %s, got %s", DefaultBaseURL, svc.BaseURL())
	}
}
