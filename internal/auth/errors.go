package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prn-tf/alexander-files/internal/service"
)

// Authentication errors.
var (
	// ErrMissingToken indicates the X-Token header is absent.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidAuthorizationHeader indicates the Authorization header is absent or malformed.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrMalformedCredentials indicates the decoded Basic credentials lack an email:password pair.
	ErrMalformedCredentials = errors.New("malformed credentials")
)

// AuthError pairs an authentication failure with its HTTP status and public message.
type AuthError struct {
	// Message is the message exposed to the client.
	Message string

	// HTTPStatus is the HTTP status code.
	HTTPStatus int

	// Err is the underlying error.
	Err error
}

func (e *AuthError) Error() string {
	return e.Message + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError classifies err. An unreachable session cache is 503, never 401.
func NewAuthError(err error) *AuthError {
	switch {
	case errors.Is(err, service.ErrServiceUnavailable):
		return &AuthError{Message: "Service unavailable", HTTPStatus: http.StatusServiceUnavailable, Err: err}
	case errors.Is(err, service.ErrInternalError):
		return &AuthError{Message: "Internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
	default:
		return &AuthError{Message: "Unauthorized", HTTPStatus: http.StatusUnauthorized, Err: err}
	}
}

// WriteError writes err as a JSON error body.
func WriteError(w http.ResponseWriter, err error) {
	authErr := NewAuthError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": authErr.Message})
}
