package combo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/spaza-link/combo-catalog/internal/cache"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"github.com/spaza-link/combo-catalog/internal/search"
	"go.uber.org/zap"
)

// DefaultBaseURL is the combo API host used when none is configured
const DefaultBaseURL = "http://localhost:10000"

// Service is a client for the remote combo catalog API. It caches read
// responses in its Store and drops the entire cache after any successful
// write, so a read can never observe pre-write data.
//
// Reads degrade gracefully: transport failures, non-2xx statuses and
// malformed payloads are logged and converted to nil/empty sentinels.
// GetAllCombos is the exception and surfaces its error, since callers of
// the full listing need to distinguish an empty catalog from a dead
// backend.
type Service struct {
	mu      sync.RWMutex
	baseURL string

	client *http.Client
	store  cache.Store
}

// NewService creates a catalog client. An empty baseURL falls back to
// DefaultBaseURL; a nil store gets an in-memory cache with the default
// TTL.
func NewService(baseURL string, store cache.Store) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if store == nil {
		store = cache.NewMemoryStore(cache.DefaultTTL)
	}
	return &Service{
		baseURL: baseURL,
		client:  &http.Client{},
		store:   store,
	}
}

// BaseURL returns the configured API host
func (s *Service) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

// SetBaseURL points the client at a different backend. The cache is
// dropped so entries from the previous host can never leak across
// environments.
func (s *Service) SetBaseURL(baseURL string) {
	s.mu.Lock()
	s.baseURL = baseURL
	s.mu.Unlock()

	if err := s.store.InvalidateAll(context.Background()); err != nil {
		logger.Log.Warn("Failed to invalidate cache after base URL change", zap.Error(err))
	}
}

// GetAllCombos returns the full catalog listing. With useCache true, a
// fresh cached copy is returned without touching the network and a
// fetched copy is stored for subsequent calls.
func (s *Service) GetAllCombos(ctx context.Context, useCache bool) (*models.ComboList, error) {
	key := cache.Key("/api/combos", nil)

	var list models.ComboList
	if useCache {
		if payload, ok := s.store.Get(ctx, key); ok {
			if err := json.Unmarshal(payload, &list); err == nil {
				return &list, nil
			}
		}
	}

	if err := s.getJSON(ctx, "/api/combos", &list); err != nil {
		return nil, err
	}

	if useCache {
		s.cachePayload(ctx, key, list)
	}
	return &list, nil
}

// GetComboByID returns a single combo, or nil when the lookup fails for
// any reason. A missing detail row is not fatal to list screens that
// prefetch several of them.
func (s *Service) GetComboByID(ctx context.Context, id int) *models.Combo {
	endpoint := fmt.Sprintf("/api/combos/%d", id)
	key := cache.Key(endpoint, nil)

	if payload, ok := s.store.Get(ctx, key); ok {
		var combo models.Combo
		if err := json.Unmarshal(payload, &combo); err == nil {
			return &combo
		}
	}

	var resp models.ComboResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		logger.Log.Warn("Failed to get combo", zap.Int("id", id), zap.Error(err))
		return nil
	}
	if resp.Combo == nil {
		logger.Log.Warn("Combo lookup returned no combo", zap.Int("id", id))
		return nil
	}

	s.cachePayload(ctx, key, resp.Combo)
	return resp.Combo
}

// SearchCombos runs a server-side search. Fetch failures and empty
// result sets look identical to the caller: an empty slice.
func (s *Service) SearchCombos(ctx context.Context, query string) []models.Combo {
	key := cache.Key("/api/combos/search", map[string]string{"q": query})

	if payload, ok := s.store.Get(ctx, key); ok {
		var combos []models.Combo
		if err := json.Unmarshal(payload, &combos); err == nil {
			return combos
		}
	}

	var resp models.CombosResponse
	endpoint := "/api/combos/search?q=" + url.QueryEscape(query)
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		logger.Log.Warn("Failed to search combos", zap.String("query", query), zap.Error(err))
		return []models.Combo{}
	}

	s.cachePayload(ctx, key, resp.Combos)
	return resp.Combos
}

// CombosByCategory lists combos in a category, empty on failure
func (s *Service) CombosByCategory(ctx context.Context, category string) []models.Combo {
	key := cache.Key("/api/combos/category", map[string]string{"category": category})

	if payload, ok := s.store.Get(ctx, key); ok {
		var combos []models.Combo
		if err := json.Unmarshal(payload, &combos); err == nil {
			return combos
		}
	}

	var resp models.CombosResponse
	endpoint := "/api/combos/category/" + url.PathEscape(category)
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		logger.Log.Warn("Failed to get combos by category", zap.String("category", category), zap.Error(err))
		return []models.Combo{}
	}

	s.cachePayload(ctx, key, resp.Combos)
	return resp.Combos
}

// Statistics returns the server-computed catalog aggregate, nil on
// failure
func (s *Service) Statistics(ctx context.Context) *models.ComboStatistics {
	key := cache.Key("/api/combos/stats", nil)

	if payload, ok := s.store.Get(ctx, key); ok {
		var stats models.ComboStatistics
		if err := json.Unmarshal(payload, &stats); err == nil {
			return &stats
		}
	}

	var resp models.StatsResponse
	if err := s.getJSON(ctx, "/api/combos/stats", &resp); err != nil {
		logger.Log.Warn("Failed to get combo statistics", zap.Error(err))
		return nil
	}
	if resp.Stats == nil {
		return nil
	}

	s.cachePayload(ctx, key, resp.Stats)
	return resp.Stats
}

// AddCombo creates a new combo. Requires a bearer token. Returns the
// created combo on success, nil on failure; the cache is only dropped
// when the server confirmed the write.
func (s *Service) AddCombo(ctx context.Context, draft models.ComboDraft, token string) *models.Combo {
	var resp models.ComboResponse
	if err := s.doJSON(ctx, http.MethodPost, "/api/combos", draft, token, &resp); err != nil {
		logger.Log.Warn("Failed to add combo", zap.String("name", draft.Name), zap.Error(err))
		return nil
	}
	if !resp.Success || resp.Combo == nil {
		logger.Log.Warn("Add combo rejected", zap.String("name", draft.Name), zap.String("error", resp.Error))
		return nil
	}

	s.invalidate(ctx)
	return resp.Combo
}

// UpdateCombo replaces a combo's caller-writable fields. Same contract
// as AddCombo.
func (s *Service) UpdateCombo(ctx context.Context, id int, draft models.ComboDraft, token string) *models.Combo {
	endpoint := fmt.Sprintf("/api/combos/%d", id)

	var resp models.ComboResponse
	if err := s.doJSON(ctx, http.MethodPut, endpoint, draft, token, &resp); err != nil {
		logger.Log.Warn("Failed to update combo", zap.Int("id", id), zap.Error(err))
		return nil
	}
	if !resp.Success || resp.Combo == nil {
		logger.Log.Warn("Update combo rejected", zap.Int("id", id), zap.String("error", resp.Error))
		return nil
	}

	s.invalidate(ctx)
	return resp.Combo
}

// DeleteCombo removes a combo. True only on a confirmed delete.
func (s *Service) DeleteCombo(ctx context.Context, id int, token string) bool {
	endpoint := fmt.Sprintf("/api/combos/%d", id)

	var resp models.StatusResponse
	if err := s.doJSON(ctx, http.MethodDelete, endpoint, nil, token, &resp); err != nil {
		logger.Log.Warn("Failed to delete combo", zap.Int("id", id), zap.Error(err))
		return false
	}
	if !resp.Success {
		logger.Log.Warn("Delete combo rejected", zap.Int("id", id), zap.String("error", resp.Error))
		return false
	}

	s.invalidate(ctx)
	return true
}

// ToggleComboStatus flips a combo's active flag server-side and returns
// the updated combo, nil on failure
func (s *Service) ToggleComboStatus(ctx context.Context, id int, token string) *models.Combo {
	endpoint := fmt.Sprintf("/api/combos/%d/toggle", id)

	var resp models.ComboResponse
	if err := s.doJSON(ctx, http.MethodPost, endpoint, nil, token, &resp); err != nil {
		logger.Log.Warn("Failed to toggle combo", zap.Int("id", id), zap.Error(err))
		return nil
	}
	if !resp.Success || resp.Combo == nil {
		logger.Log.Warn("Toggle combo rejected", zap.Int("id", id), zap.String("error", resp.Error))
		return nil
	}

	s.invalidate(ctx)
	return resp.Combo
}

// FuzzySearch asks the server first; when server search is unavailable
// or comes back empty, it ranks the cached full catalog locally.
func (s *Service) FuzzySearch(ctx context.Context, query string) []models.Combo {
	if results := s.SearchCombos(ctx, query); len(results) > 0 {
		return results
	}

	list, err := s.GetAllCombos(ctx, true)
	if err != nil {
		logger.Log.Warn("Fuzzy search fallback failed", zap.String("query", query), zap.Error(err))
		return []models.Combo{}
	}

	return search.Rank(list.Combos, query, search.DefaultLimit)
}

// PopularCombos returns the most popular active combos. Popularity is
// approximated by price descending; no real order signal is wired in
// yet.
func (s *Service) PopularCombos(ctx context.Context, limit int) []models.Combo {
	if limit <= 0 {
		limit = search.DefaultLimit
	}

	list, err := s.GetAllCombos(ctx, true)
	if err != nil {
		logger.Log.Warn("Failed to get popular combos", zap.Error(err))
		return []models.Combo{}
	}

	popular := make([]models.Combo, 0, len(list.Combos))
	for _, combo := range list.Combos {
		if combo.IsActive {
			popular = append(popular, combo)
		}
	}

	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Price > popular[j].Price
	})

	if len(popular) > limit {
		popular = popular[:limit]
	}
	return popular
}

// CombosByPriceRange returns active combos priced within [min, max],
// inclusive on both bounds
func (s *Service) CombosByPriceRange(ctx context.Context, min, max float64) []models.Combo {
	list, err := s.GetAllCombos(ctx, true)
	if err != nil {
		logger.Log.Warn("Failed to get combos by price range", zap.Error(err))
		return []models.Combo{}
	}

	matched := make([]models.Combo, 0, len(list.Combos))
	for _, combo := range list.Combos {
		if combo.IsActive && combo.Price >= min && combo.Price <= max {
			matched = append(matched, combo)
		}
	}
	return matched
}

// HealthCheck reports whether the backend answers its health endpoint
func (s *Service) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL()+"/health", nil)
	if err != nil {
		logger.Log.Warn("Health check failed", zap.Error(err))
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Warn("Health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// getJSON performs an unauthenticated GET and decodes the response body
func (s *Service) getJSON(ctx context.Context, endpoint string, out any) error {
	return s.doJSON(ctx, http.MethodGet, endpoint, nil, "", out)
}

// doJSON performs a request against the configured base URL. A non-2xx
// status is an error like any transport failure; this layer does not
// distinguish failure kinds.
func (s *Service) doJSON(ctx context.Context, method, endpoint string, body any, token string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL()+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s failed: status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// cachePayload stores a value under key, logging rather than failing:
// a cache write problem must never break a successful read
func (s *Service) cachePayload(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("Failed to encode cache payload", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, payload); err != nil {
		logger.Log.Warn("Failed to cache payload", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.store.InvalidateAll(ctx); err != nil {
		logger.Log.Warn("Failed to invalidate cache after write", zap.Error(err))
	}
}
