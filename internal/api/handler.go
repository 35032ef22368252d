package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"github.com/spaza-link/combo-catalog/internal/models"
	"github.com/spaza-link/combo-catalog/internal/repo"
	"github.com/spaza-link/combo-catalog/internal/search"
	"go.uber.org/zap"
)

// Handler serves the combo catalog REST API from the local snapshot
// store. Reads are public; writes require the configured bearer token.
type Handler struct {
	repo       *repo.Repository
	adminToken string
	startTime  time.Time
}

// NewHandler creates a new API handler
func NewHandler(repository *repo.Repository, adminToken string) *Handler {
	return &Handler{
		repo:       repository,
		adminToken: adminToken,
		startTime:  time.Now(),
	}
}

// SetupRouter configures the Chi router with all routes
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)

	r.Route("/api/combos", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/search", h.HandleSearch)
		r.Get("/stats", h.HandleStats)
		r.Get("/category/{category}", h.HandleCategory)
		r.Get("/{id}", h.HandleGet)

		// Writes require the bearer token
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/", h.HandleCreate)
			r.Put("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
			r.Post("/{id}/toggle", h.HandleToggle)
		})
	})

	r.Get("/health", h.HandleHealth)

	return r
}

// HandleList returns the full catalog listing
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	combos, err := h.repo.ListCombos()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list combos", err)
		return
	}

	categories, err := h.repo.Categories()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	if combos == nil {
		combos = []models.Combo{}
	}
	if categories == nil {
		categories = []string{}
	}

	respondJSON(w, http.StatusOK, models.ComboList{
		Success:    true,
		Combos:     combos,
		Total:      len(combos),
		Categories: categories,
		Source:     "database",
	})
}

// HandleGet returns a single combo
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid combo id", err)
		return
	}

	combo, err := h.repo.GetCombo(id)
	if errors.Is(err, repo.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Combo not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get combo", err)
		return
	}

	respondJSON(w, http.StatusOK, models.ComboResponse{Success: true, Combo: combo})
}

// HandleSearch ranks the catalog against the q parameter. Search and
// fallback share one scoring function, so server and client results
// agree.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		respondJSON(w, http.StatusOK, models.CombosResponse{Success: true, Combos: []models.Combo{}})
		return
	}

	combos, err := h.repo.ListCombos()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to search combos", err)
		return
	}

	ranked := search.Rank(combos, query, search.DefaultLimit)
	if ranked == nil {
		ranked = []models.Combo{}
	}

	respondJSON(w, http.StatusOK, models.CombosResponse{Success: true, Combos: ranked})
}

// HandleCategory lists active combos in a category
func (h *Handler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	combos, err := h.repo.ListCombos()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list combos", err)
		return
	}

	matched := []models.Combo{}
	for _, combo := range combos {
		if combo.IsActive && strings.EqualFold(combo.Category, category) {
			matched = append(matched, combo)
		}
	}

	respondJSON(w, http.StatusOK, models.CombosResponse{Success: true, Combos: matched})
}

// HandleStats returns the catalog aggregate
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, models.StatsResponse{Success: true, Stats: stats})
}

// HandleCreate inserts a new combo
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var draft models.ComboDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := validateDraft(draft); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	combo, err := h.repo.CreateCombo(draft)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create combo", err)
		return
	}

	logger.Log.Info("Combo created",
		zap.Int("id", combo.ID),
		zap.String("name", combo.Name),
	)

	respondJSON(w, http.StatusCreated, models.ComboResponse{Success: true, Combo: combo})
}

// HandleUpdate replaces a combo's caller-writable fields
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid combo id", err)
		return
	}

	var draft models.ComboDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := validateDraft(draft); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	combo, err := h.repo.UpdateCombo(id, draft)
	if errors.Is(err, repo.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Combo not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update combo", err)
		return
	}

	respondJSON(w, http.StatusOK, models.ComboResponse{Success: true, Combo: combo})
}

// HandleDelete removes a combo
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid combo id", err)
		return
	}

	err = h.repo.DeleteCombo(id)
	if errors.Is(err, repo.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Combo not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete combo", err)
		return
	}

	logger.Log.Info("Combo deleted", zap.Int("id", id))

	respondJSON(w, http.StatusOK, models.StatusResponse{Success: true})
}

// HandleToggle flips a combo's active flag
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid combo id", err)
		return
	}

	combo, err := h.repo.ToggleCombo(id)
	if errors.Is(err, repo.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Combo not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to toggle combo", err)
		return
	}

	logger.Log.Info("Combo toggled",
		zap.Int("id", id),
		zap.Bool("is_active", combo.IsActive),
	)

	respondJSON(w, http.StatusOK, models.ComboResponse{Success: true, Combo: combo})
}

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := h.repo.Ping(); err != nil {
		dbStatus = "disconnected"
	}

	uptime := time.Since(h.startTime).Round(time.Second).String()

	respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  dbStatus,
		Uptime:    uptime,
	})
}

func validateDraft(draft models.ComboDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return errors.New("Combo name is required")
	}
	if draft.Price < 0 {
		return errors.New("Combo price must not be negative")
	}
	for _, item := range draft.Items {
		if item.Price < 0 {
			return errors.New("Item prices must not be negative")
		}
		if item.Quantity < 1 {
			return errors.New("Item quantities must be at least 1")
		}
	}
	return nil
}

// requireAuth guards write operations with the configured bearer token
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			respondError(w, http.StatusUnauthorized, "Write operations are disabled: no admin token configured", nil)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "Expected 'Bearer <token>' authorization", nil)
			return
		}

		if strings.TrimPrefix(header, "Bearer ") != h.adminToken {
			respondError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("Error encoding JSON response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.Log.Error("Request error",
			zap.String("message", message),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	response := models.ErrorResponse{
		Error: message,
		Code:  status,
	}

	if err != nil {
		response.Message = err.Error()
	}

	respondJSON(w, status, response)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
