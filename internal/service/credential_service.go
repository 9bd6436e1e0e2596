package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// CredentialService hashes passwords and verifies email/password pairs.
//
// Digests are unsalted: identical passwords produce identical digests. This
// lets the store match credentials by equality, at the cost of exposing
// password reuse to anyone who can read the users table.
type CredentialService struct {
	userRepo repository.UserRepository
	digest   crypto.PasswordDigest
	logger   zerolog.Logger
}

// NewCredentialService creates a new CredentialService using the named digest.
func NewCredentialService(userRepo repository.UserRepository, algorithm string, logger zerolog.Logger) (*CredentialService, error) {
	digest, err := crypto.NewPasswordDigest(algorithm)
	if err != nil {
		return nil, err
	}

	return &CredentialService{
		userRepo: userRepo,
		digest:   digest,
		logger:   logger.With().Str("service", "credential").Logger(),
	}, nil
}

// Hash returns the deterministic hex digest of password.
func (s *CredentialService) Hash(password string) string {
	return s.digest(password)
}

// Verify returns the user matching email and password.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByCredentials(ctx, email, s.Hash(password))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("email", email).Msg("credentials rejected")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to look up credentials")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return user, nil
}
