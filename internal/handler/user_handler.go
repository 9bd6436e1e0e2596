package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/auth"
	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/service"
)

// UserHandler handles registration and profile requests.
type UserHandler struct {
	userService *service.UserService
	requireAuth func(http.Handler) http.Handler
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, requireAuth func(http.Handler) http.Handler, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		requireAuth: requireAuth,
		logger:      logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterRoutes registers user routes.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.handleCreate)
	r.With(h.requireAuth).Get("/users/me", h.handleMe)
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	authCtx, err := auth.RequireAuth(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Self(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
