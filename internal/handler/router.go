// Package handler provides HTTP handlers for the Alexander Files API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/auth"
	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/service"
)

// Router wires the API handlers onto a chi mux.
type Router struct {
	appHandler  *AppHandler
	authHandler *AuthHandler
	userHandler *UserHandler
	fileHandler *FileHandler
	metrics     *metrics.Metrics
	metricsPath string
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	SessionService *service.SessionService
	UserService    *service.UserService
	FileService    *service.FileService

	// Cache and DB back the /status probes.
	Cache Pinger
	DB    Pinger

	// Metrics is optional. When set, requests are instrumented and the
	// exposition is served on MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string

	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	requireAuth := auth.RequireToken(config.SessionService, config.Logger)
	optionalAuth := auth.OptionalToken(config.SessionService, config.Logger)

	metricsPath := config.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &Router{
		appHandler:  NewAppHandler(config.Cache, config.DB, config.UserService, config.Logger),
		authHandler: NewAuthHandler(config.SessionService, config.Logger),
		userHandler: NewUserHandler(config.UserService, requireAuth, config.Logger),
		fileHandler: NewFileHandler(FileHandlerConfig{
			FileService:  config.FileService,
			RequireAuth:  requireAuth,
			OptionalAuth: optionalAuth,
			MaxBodySize:  config.MaxBodySize,
			Logger:       config.Logger,
		}),
		metrics:     config.Metrics,
		metricsPath: metricsPath,
		logger:      config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(rt.logger))
	r.Use(middleware.Recoverer)
	r.Use(rt.metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, APIError{Message: "Method not allowed"})
	})

	rt.appHandler.RegisterRoutes(r)
	rt.authHandler.RegisterRoutes(r)
	rt.userHandler.RegisterRoutes(r)
	rt.fileHandler.RegisterRoutes(r)

	if rt.metrics != nil {
		r.Handle(rt.metricsPath, rt.metrics.Handler())
	}

	return r
}
