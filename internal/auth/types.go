package auth

import "context"

// AuthType represents how a request was authenticated.
type AuthType int

const (
	// AuthTypeAnonymous indicates no usable token was presented.
	AuthTypeAnonymous AuthType = iota

	// AuthTypeToken indicates a valid X-Token header.
	AuthTypeToken
)

// String returns the string representation of the auth type.
func (at AuthType) String() string {
	switch at {
	case AuthTypeToken:
		return "Token"
	default:
		return "Anonymous"
	}
}

// =============================================================================
// Context Types
// =============================================================================

// AuthContext contains authentication information attached to a request.
// This is set by the auth middleware after the token resolved.
type AuthContext struct {
	// UserID is the authenticated user's ID.
	UserID string

	// Token is the session token the request presented.
	Token string

	// AuthType is the type of authentication used.
	AuthType AuthType
}

// authContextKey is the context key for AuthContext.
type authContextKey struct{}

// AuthContextKey is the key used to store AuthContext in request context.
var AuthContextKey = authContextKey{}

// WithAuthContext returns a copy of ctx carrying authCtx.
func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, authCtx)
}

// GetAuthContext retrieves the AuthContext from a request context.
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// UserID returns the authenticated user's ID, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if authCtx := GetAuthContext(ctx); authCtx != nil {
		return authCtx.UserID
	}
	return ""
}
