package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/service"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// statusTimeout bounds each /status probe.
const statusTimeout = 2 * time.Second

// AppHandler serves the unauthenticated status and stats endpoints.
type AppHandler struct {
	cache       Pinger
	db          Pinger
	userService *service.UserService
	logger      zerolog.Logger
}

// NewAppHandler creates a new AppHandler.
func NewAppHandler(cache, db Pinger, userService *service.UserService, logger zerolog.Logger) *AppHandler {
	return &AppHandler{
		cache:       cache,
		db:          db,
		userService: userService,
		logger:      logger.With().Str("handler", "app").Logger(),
	}
}

// RegisterRoutes registers app routes.
func (h *AppHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
	r.Get("/stats", h.handleStats)
}

// StatusResponse reports backing service reachability.
type StatusResponse struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}

func (h *AppHandler) alive(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	return p.Ping(ctx) == nil
}

func (h *AppHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Redis: h.alive(r.Context(), h.cache),
		DB:    h.alive(r.Context(), h.db),
	})
}

func (h *AppHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
