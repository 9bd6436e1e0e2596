package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// UserService handles registration and self-service profile lookups.
type UserService struct {
	userRepo    repository.UserRepository
	fileRepo    repository.FileRepository
	credentials *CredentialService
	queue       repository.JobQueue
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewUserService creates a new UserService. queue may be nil.
func NewUserService(
	userRepo repository.UserRepository,
	fileRepo repository.FileRepository,
	credentials *CredentialService,
	queue repository.JobQueue,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		fileRepo:    fileRepo,
		credentials: credentials,
		queue:       queue,
		metrics:     m,
		logger:      logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data needed to register a user.
type RegisterInput struct {
	Email    string
	Password string
}

// Register creates a new user and enqueues its welcome job.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Email == "" {
		return nil, ErrMissingEmail
	}
	if input.Password == "" {
		return nil, ErrMissingPassword
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email '%s'", ErrUserAlreadyExists, input.Email)
	}

	user := domain.NewUser(input.Email, s.credentials.Hash(input.Password))
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique constraint catches registrations racing past the pre-check.
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, fmt.Errorf("%w: email '%s'", ErrUserAlreadyExists, input.Email)
		}
		s.logger.Error().Err(err).Str("email", input.Email).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	s.metrics.RecordRegistration()
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("user registered")

	enqueue(ctx, s.queue, domain.Job{Kind: domain.JobKindUser, UserID: user.ID}, s.metrics, s.logger)

	return user, nil
}

// Self returns the profile of the resolved session identity.
func (s *UserService) Self(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return user, nil
}

// Stats contains record counts.
type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

// Stats returns the number of users and files.
func (s *UserService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count users")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	files, err := s.fileRepo.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count files")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	return &Stats{Users: users, Files: files}, nil
}

// enqueue hands a job to the queue. Failures are logged and counted but never
// returned: the record the job refers to is already durable.
func enqueue(ctx context.Context, queue repository.JobQueue, job domain.Job, m *metrics.Metrics, logger zerolog.Logger) {
	if queue == nil {
		return
	}

	err := queue.Enqueue(ctx, job)
	m.RecordEnqueue(string(job.Kind), err)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("kind", string(job.Kind)).
			Str("file_id", job.FileID).
			Str("user_id", job.UserID).
			Msg("failed to enqueue job")
	}
}
