// Package auth binds HTTP requests to session identities for Alexander Files.
// Login uses HTTP Basic credentials; every later call carries an X-Token header.
package auth

// =============================================================================
// Header Constants
// =============================================================================

const (
	// AuthorizationHeader carries the Basic credentials on login.
	AuthorizationHeader = "Authorization"

	// TokenHeader carries the session token on authenticated calls.
	TokenHeader = "X-Token"

	// BasicScheme is the Authorization scheme accepted on login.
	BasicScheme = "Basic"
)
