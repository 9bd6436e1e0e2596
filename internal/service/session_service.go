package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// DefaultSessionTTL is how long an issued token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// SessionService issues, resolves and revokes session tokens.
// Tokens live only in the cache as auth_<token> -> user id.
type SessionService struct {
	credentials *CredentialService
	cache       repository.Cache
	ttl         time.Duration
	newToken    func() (string, error)
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// SessionConfig contains SessionService settings.
type SessionConfig struct {
	// TTL is the lifetime of an issued token. Zero means DefaultSessionTTL.
	TTL time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	credentials *CredentialService,
	cache repository.Cache,
	cfg SessionConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *SessionService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &SessionService{
		credentials: credentials,
		cache:       cache,
		ttl:         ttl,
		newToken:    crypto.GenerateSessionToken,
		metrics:     m,
		logger:      logger.With().Str("service", "session").Logger(),
	}
}

var cacheKeys repository.CacheKey

// cacheError separates an unreachable cache from a missing key.
func cacheError(err error) error {
	if errors.Is(err, repository.ErrCacheMiss) {
		return ErrUnauthorized
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

// Login verifies the credentials and issues a new token.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.credentials.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.RecordLogin(false)
		}
		return "", err
	}

	token, err := s.newToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate token")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.cache.Set(ctx, cacheKeys.Session(token), []byte(user.ID), s.ttl); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to store session")
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	s.metrics.RecordLogin(true)
	s.logger.Info().Str("user_id", user.ID).Msg("session created")

	return token, nil
}

// Resolve returns the user id bound to token. The TTL is not refreshed.
func (s *SessionService) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	value, err := s.cache.Get(ctx, cacheKeys.Session(token))
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Error().Err(err).Msg("failed to resolve session")
		}
		return "", cacheError(err)
	}

	return string(value), nil
}

// Revoke deletes the token. Revoking an unknown or already revoked token fails.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}

	if err := s.cache.Delete(ctx, cacheKeys.Session(token)); err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Error().Err(err).Msg("failed to revoke session")
		}
		return cacheError(err)
	}

	s.metrics.RecordLogout()
	return nil
}

// TTL returns the configured token lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
