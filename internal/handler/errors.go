package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/auth"
	"github.com/prn-tf/alexander-files/internal/service"
)

// ErrInvalidBody indicates a request body that is not valid JSON.
var ErrInvalidBody = errors.New("invalid request body")

// APIError is an error response with its HTTP status.
type APIError struct {
	Message        string `json:"error"`
	HTTPStatusCode int    `json:"-"`
}

// Common API errors.
var (
	ErrUnauthorized       = APIError{Message: "Unauthorized", HTTPStatusCode: http.StatusUnauthorized}
	ErrNotFound           = APIError{Message: "Not found", HTTPStatusCode: http.StatusNotFound}
	ErrServiceUnavailable = APIError{Message: "Service unavailable", HTTPStatusCode: http.StatusServiceUnavailable}
	ErrInternal           = APIError{Message: "Internal error", HTTPStatusCode: http.StatusInternalServerError}
)

func badRequest(message string) APIError {
	return APIError{Message: message, HTTPStatusCode: http.StatusBadRequest}
}

// errorMappings maps service and auth errors to API errors, first match wins.
// An ownership failure is reported as 401, not 403.
var errorMappings = []struct {
	err error
	api APIError
}{
	{ErrInvalidBody, badRequest("Invalid request body")},
	{service.ErrMissingEmail, badRequest("Missing email")},
	{service.ErrMissingPassword, badRequest("Missing password")},
	{service.ErrUserAlreadyExists, badRequest("Already exist")},
	{service.ErrMissingName, badRequest("Missing name")},
	{service.ErrMissingType, badRequest("Missing type")},
	{service.ErrMissingData, badRequest("Missing data")},
	{service.ErrParentNotFound, badRequest("Parent not found")},
	{service.ErrParentNotAFolder, badRequest("Parent is not a folder")},
	{service.ErrFolderHasNoContent, badRequest("A folder doesn't have content")},
	{service.ErrInvalidThumbnailSize, badRequest("Invalid size")},

	{service.ErrInvalidCredentials, ErrUnauthorized},
	{service.ErrUnauthorized, ErrUnauthorized},
	{service.ErrUserNotFound, ErrUnauthorized},
	{service.ErrFileAccessDenied, ErrUnauthorized},
	{auth.ErrMissingToken, ErrUnauthorized},
	{auth.ErrInvalidAuthorizationHeader, ErrUnauthorized},
	{auth.ErrMalformedCredentials, ErrUnauthorized},

	{service.ErrFileNotFound, ErrNotFound},

	{service.ErrServiceUnavailable, ErrServiceUnavailable},
	{service.ErrInternalError, ErrInternal},
}

// mapError converts an error to its API error. Unknown errors are internal.
func mapError(err error) APIError {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.api
		}
	}
	return ErrInternal
}

// writeError writes err as a JSON error body, logging server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	apiErr := mapError(err)
	if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Int("status", apiErr.HTTPStatusCode).Msg("request failed")
	}
	writeJSON(w, apiErr.HTTPStatusCode, apiErr)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v. An empty body leaves v unchanged.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidBody, maxErr.Limit)
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
