package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/auth"
	"github.com/prn-tf/alexander-files/internal/service"
)

// AuthHandler issues and revokes session tokens.
type AuthHandler struct {
	sessionService *service.SessionService
	logger         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessionService *service.SessionService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessionService: sessionService,
		logger:         logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers session routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/connect", h.handleConnect)
	r.Get("/disconnect", h.handleDisconnect)
}

// TokenResponse is returned by /connect.
type TokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, err := auth.GetBasicCredentials(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.sessionService.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// handleDisconnect revokes the presented token. It reads X-Token directly so
// that revocation is the single atomic check.
func (h *AuthHandler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	token := auth.GetToken(r)
	if token == "" {
		writeError(w, r, h.logger, auth.ErrMissingToken)
		return
	}

	if err := h.sessionService.Revoke(r.Context(), token); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
