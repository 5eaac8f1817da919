package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"market-screener/config"
	"market-screener/models"
	"market-screener/screener"
	"market-screener/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ScreeningService is the pipeline surface the HTTP layer depends on
type ScreeningService interface {
	Screen(ctx context.Context, universe []string, conditions models.ConditionSet) (*models.ScreeningRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error)
	GetLatestRun(ctx context.Context) (*models.ScreeningRun, error)
	GetRunHistory(ctx context.Context, limit int) ([]models.ScreeningRun, error)
}

// HealthChecker reports connectivity of the run-history store
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler handles HTTP API requests
type Handler struct {
	svc    ScreeningService
	health HealthChecker
	cfg    *config.Config
}

// NewHandler creates a new Handler. health may be nil when no run-history
// store is configured.
func NewHandler(svc ScreeningService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{svc: svc, health: health, cfg: cfg}
}

// ErrInvalidAction is returned when a screening request names an action
// other than "screen"
var ErrInvalidAction = errors.New("invalid action")

// ScreenRequest is the body of a screening request
type ScreenRequest struct {
	Action     string              `json:"action"`
	Universe   []string            `json:"universe"`
	Conditions models.ConditionSet `json:"conditions"`
}

// HandleScreen runs a screening pass over the requested universe
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	if req.Action != "screen" {
		h.jsonError(w, ErrInvalidAction.Error(), http.StatusBadRequest)
		return
	}

	run, err := h.svc.Screen(r.Context(), req.Universe, req.Conditions)
	if err != nil {
		if run == nil {
			// Validation failure: the request never became a run
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, run.Result)
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
		},
	}

	if h.health != nil {
		if err := h.health.Health(r.Context()); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["database"] = "not_configured"
	}

	// Add circuit breaker status
	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus

	// Check if any breakers are open (degraded state)
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleGetRuns returns screening run history
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := h.ParseLimitParam(r, 10)

	runs, err := h.svc.GetRunHistory(r.Context(), limit)
	if err != nil {
		if errors.Is(err, screener.ErrRunHistoryUnavailable) {
			h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, runs)
}

// HandleGetLatestRun returns the most recent screening run
func (h *Handler) HandleGetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetLatestRun(r.Context())
	if err != nil {
		if errors.Is(err, screener.ErrRunHistoryUnavailable) {
			h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if run == nil {
		h.jsonResponse(w, map[string]interface{}{"run": nil})
		return
	}

	h.jsonResponse(w, run)
}

// HandleGetRun returns a specific screening run by ID
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.jsonError(w, "invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, screener.ErrRunHistoryUnavailable) {
			h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if run == nil {
		h.jsonError(w, "screening run not found", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, run)
}

// ParseLimitParam parses the limit query parameter
func (h *Handler) ParseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
