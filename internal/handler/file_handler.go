package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/auth"
	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/service"
)

// FileHandler handles file record and payload requests.
type FileHandler struct {
	fileService  *service.FileService
	requireAuth  func(http.Handler) http.Handler
	optionalAuth func(http.Handler) http.Handler
	maxBodySize  int64
	logger       zerolog.Logger
}

// FileHandlerConfig contains configuration for the file handler.
type FileHandlerConfig struct {
	FileService  *service.FileService
	RequireAuth  func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
	// MaxBodySize bounds the POST /files body. Zero means unlimited.
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(cfg FileHandlerConfig) *FileHandler {
	return &FileHandler{
		fileService:  cfg.FileService,
		requireAuth:  cfg.RequireAuth,
		optionalAuth: cfg.OptionalAuth,
		maxBodySize:  cfg.MaxBodySize,
		logger:       cfg.Logger.With().Str("handler", "file").Logger(),
	}
}

// RegisterRoutes registers file routes.
func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/files", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/", h.handleCreate)
			r.Get("/", h.handleList)
			r.Put("/{id}/publish", h.handlePublish)
			r.Put("/{id}/unpublish", h.handleUnpublish)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.optionalAuth)
			r.Get("/{id}", h.handleGet)
			r.Get("/{id}/data", h.handleData)
		})
	})
}

// =============================================================================
// Wire Types
// =============================================================================

// ParentID is a parent reference that accepts a JSON string or number.
// 0, "0", null and absent all mean the top level.
type ParentID string

// UnmarshalJSON implements json.Unmarshaler.
func (p *ParentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParentID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = ParentID(n.String())
	return nil
}

// CreateFileRequest is the body of POST /files.
type CreateFileRequest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	ParentID ParentID `json:"parentId"`
	IsPublic bool     `json:"isPublic"`
	Data     string   `json:"data"`
}

// FileResponse is the public view of a file record.
// ParentID is the number 0 for top-level records and the parent's ID otherwise.
type FileResponse struct {
	ID       string      `json:"id"`
	UserID   string      `json:"userId"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	IsPublic bool        `json:"isPublic"`
	ParentID interface{} `json:"parentId"`
}

func toFileResponse(f *domain.File) FileResponse {
	var parentID interface{} = 0
	if f.ParentID != "" {
		parentID = f.ParentID
	}

	return FileResponse{
		ID:       f.ID,
		UserID:   f.OwnerID,
		Name:     f.Name,
		Type:     string(f.Type),
		IsPublic: f.IsPublic,
		ParentID: parentID,
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (h *FileHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req CreateFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	file, err := h.fileService.Create(r.Context(), service.CreateFileInput{
		UserID:   auth.UserID(r.Context()),
		Name:     req.Name,
		Type:     req.Type,
		ParentID: string(req.ParentID),
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

func (h *FileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.Get(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(file))
}

func (h *FileHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// A missing or malformed page is the first page.
	page, _ := strconv.Atoi(query.Get("page"))

	files, err := h.fileService.List(r.Context(), service.ListFilesInput{
		UserID:   auth.UserID(r.Context()),
		ParentID: query.Get("parentId"),
		Page:     page,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FileHandler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h *FileHandler) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *FileHandler) setVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
	file, err := h.fileService.SetVisibility(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), isPublic)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(file))
}

func (h *FileHandler) handleData(w http.ResponseWriter, r *http.Request) {
	var size int
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, h.logger, service.ErrInvalidThumbnailSize)
			return
		}
		size = n
	}

	payload, err := h.fileService.ReadPayload(r.Context(), service.ReadPayloadInput{
		UserID: auth.UserID(r.Context()),
		FileID: chi.URLParam(r, "id"),
		Size:   size,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer payload.Body.Close()

	w.Header().Set("Content-Type", payload.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, payload.Body); err != nil {
		h.logger.Warn().Err(err).Str("file_id", chi.URLParam(r, "id")).Msg("payload copy interrupted")
	}
}
