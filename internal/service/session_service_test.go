package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-files/internal/cache/memory"
	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/repository"
)

type sessionFixture struct {
	users       *MockUserRepository
	credentials *CredentialService
	userSvc     *UserService
	sessions    *SessionService
	queue       *MockJobQueue
	now         time.Time
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		users: NewMockUserRepository(),
		queue: &MockJobQueue{},
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	creds, err := NewCredentialService(f.users, "sha1", zerolog.Nop())
	require.NoError(t, err)
	f.credentials = creds

	cache := memory.NewCache(memory.WithClock(func() time.Time { return f.now }))
	t.Cleanup(cache.Stop)

	f.userSvc = NewUserService(f.users, NewMockFileRepository(), creds, f.queue, nil, zerolog.Nop())
	f.sessions = NewSessionService(creds, cache, SessionConfig{}, nil, zerolog.Nop())
	return f
}

func TestCredentialService_HashIsDeterministic(t *testing.T) {
	creds, err := NewCredentialService(NewMockUserRepository(), "sha1", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, creds.Hash("pw1"), creds.Hash("pw1"))
	assert.NotEqual(t, creds.Hash("pw1"), creds.Hash("pw2"))
	assert.Equal(t, "89cad29e3ebc1035b29b1478a8e70854f25fa2b2", creds.Hash("toto1234!"))

	_, err = NewCredentialService(NewMockUserRepository(), "rot13", zerolog.Nop())
	assert.Error(t, err)
}

func TestCredentialService_VerifyIsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	_, err := f.userSvc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, errUnknown := f.credentials.Verify(ctx, "nobody@x.com", "pw1")
	_, errWrong := f.credentials.Verify(ctx, "a@x.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestCredentialService_StoreFailure(t *testing.T) {
	users := NewMockUserRepository()
	users.getErr = errors.New("connection refused")
	creds, err := NewCredentialService(users, "sha1", zerolog.Nop())
	require.NoError(t, err)

	_, err = creds.Verify(context.Background(), "a@x.com", "pw1")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionService_LoginResolveRevoke(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	user, err := f.userSvc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	token, err := f.sessions.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := f.sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	require.NoError(t, f.sessions.Revoke(ctx, token))

	_, err = f.sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.ErrorIs(t, f.sessions.Revoke(ctx, token), ErrUnauthorized)
}

func TestSessionService_TokensAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	_, err := f.userSvc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	t1, err := f.sessions.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	t2, err := f.sessions.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	require.NoError(t, f.sessions.Revoke(ctx, t1))
	_, err = f.sessions.Resolve(ctx, t2)
	assert.NoError(t, err)
}

func TestSessionService_Expiry(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	_, err := f.userSvc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	token, err := f.sessions.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, f.sessions.TTL())

	f.now = f.now.Add(23 * time.Hour)
	_, err = f.sessions.Resolve(ctx, token)
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	_, err = f.sessions.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionService_BadCredentials(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.sessions.Login(context.Background(), "a@x.com", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionService_EmptyToken(t *testing.T) {
	sessions := NewSessionService(nil, failingCache{}, SessionConfig{}, nil, zerolog.Nop())

	_, err := sessions.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, sessions.Revoke(context.Background(), ""), ErrUnauthorized)
}

func TestSessionService_CacheUnavailableIsNotUnauthorized(t *testing.T) {
	ctx := context.Background()
	users := NewMockUserRepository()
	creds, err := NewCredentialService(users, "sha1", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, domain.NewUser("a@x.com", creds.Hash("pw1"))))

	sessions := NewSessionService(creds, failingCache{}, SessionConfig{TTL: time.Hour}, nil, zerolog.Nop())

	_, err = sessions.Login(ctx, "a@x.com", "pw1")
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	_, err = sessions.Resolve(ctx, "some-token")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	err = sessions.Revoke(ctx, "some-token")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, repository.ErrCacheUnavailable)
}

func TestSessionService_TokenGenerationFailure(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	_, err := f.userSvc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	f.sessions.newToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err = f.sessions.Login(ctx, "a@x.com", "pw1")
	assert.ErrorIs(t, err, ErrInternalError)
}
