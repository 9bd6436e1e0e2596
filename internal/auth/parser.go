package auth

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// Header Parsing
// =============================================================================

// GetToken returns the trimmed X-Token header value.
func GetToken(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}

// ParseBasic parses an Authorization header of the form
// "Basic base64(email:password)". The password may contain colons.
func ParseBasic(authHeader string) (email, password string, err error) {
	scheme, encoded, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, BasicScheme) {
		return "", "", ErrInvalidAuthorizationHeader
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid base64", ErrInvalidAuthorizationHeader)
	}

	email, password, ok = strings.Cut(string(decoded), ":")
	if !ok || email == "" || password == "" {
		return "", "", ErrMalformedCredentials
	}

	return email, password, nil
}

// GetBasicCredentials extracts the Basic credentials from a request.
func GetBasicCredentials(r *http.Request) (email, password string, err error) {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return "", "", ErrInvalidAuthorizationHeader
	}
	return ParseBasic(header)
}
