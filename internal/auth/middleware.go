package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/service"
)

// SessionResolver maps a session token to a user ID.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// Config contains configuration for the auth middleware.
type Config struct {
	// AllowAnonymous lets requests without a valid token through with no
	// AuthContext. An unreachable cache still fails the request.
	AllowAnonymous bool
}

// Middleware creates an authentication middleware.
func Middleware(resolver SessionResolver, config Config, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := GetToken(r)

			if token == "" {
				if config.AllowAnonymous {
					next.ServeHTTP(w, r)
					return
				}
				WriteError(w, ErrMissingToken)
				return
			}

			userID, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					logger.Debug().Str("path", r.URL.Path).Msg("token rejected")
					if config.AllowAnonymous {
						next.ServeHTTP(w, r)
						return
					}
				} else {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("token resolution failed")
				}
				WriteError(w, err)
				return
			}

			authCtx := &AuthContext{
				UserID:   userID,
				Token:    token,
				AuthType: AuthTypeToken,
			}
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// RequireToken rejects requests without a valid X-Token.
func RequireToken(resolver SessionResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return Middleware(resolver, Config{}, logger)
}

// OptionalToken resolves X-Token when present and otherwise serves the request anonymously.
func OptionalToken(resolver SessionResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	return Middleware(resolver, Config{AllowAnonymous: true}, logger)
}

// RequireAuth is a helper to get auth context or return error.
func RequireAuth(ctx context.Context) (*AuthContext, error) {
	authCtx := GetAuthContext(ctx)
	if authCtx == nil {
		return nil, ErrMissingToken
	}
	return authCtx, nil
}
