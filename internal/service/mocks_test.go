package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/pkg/crypto"
	"github.com/prn-tf/alexander-files/internal/repository"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	nextID    int
	createErr error
	getErr    error
	existsErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByCredentials(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email && u.PasswordHash == passwordHash {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

// MockFileRepository is a mock implementation of repository.FileRepository.
// Records keep insertion order in a slice.
type MockFileRepository struct {
	mu         sync.Mutex
	files      []*domain.File
	thumbnails map[string]*domain.Thumbnail
	createErr  error
	getErr     error
	listErr    error
}

func NewMockFileRepository() *MockFileRepository {
	return &MockFileRepository{thumbnails: make(map[string]*domain.Thumbnail)}
}

func (m *MockFileRepository) find(id string) *domain.File {
	for _, f := range m.files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (m *MockFileRepository) Create(ctx context.Context, file *domain.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if file.ParentID != "" && m.find(file.ParentID) == nil {
		return domain.ErrParentNotFound
	}
	file.ID = fmt.Sprintf("file-%d", len(m.files)+1)
	stored := *file
	m.files = append(m.files, &stored)
	return nil
}

func (m *MockFileRepository) GetByID(ctx context.Context, id string) (*domain.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	if f := m.find(id); f != nil {
		copied := *f
		return &copied, nil
	}
	return nil, domain.ErrFileNotFound
}

func (m *MockFileRepository) List(ctx context.Context, ownerID, parentID string, opts repository.ListOptions) ([]*domain.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	var matched []*domain.File
	for _, f := range m.files {
		if f.OwnerID == ownerID && f.ParentID == parentID {
			matched = append(matched, f)
		}
	}

	if opts.Offset >= len(matched) {
		return []*domain.File{}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[opts.Offset:end], nil
}

func (m *MockFileRepository) UpdateVisibility(ctx context.Context, id string, isPublic bool) (*domain.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.find(id)
	if f == nil {
		return nil, domain.ErrFileNotFound
	}
	f.IsPublic = isPublic
	copied := *f
	return &copied, nil
}

func (m *MockFileRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.files)), nil
}

func thumbKey(fileID string, width int) string {
	return fmt.Sprintf("%s/%d", fileID, width)
}

func (m *MockFileRepository) SaveThumbnail(ctx context.Context, thumb *domain.Thumbnail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(thumb.FileID) == nil {
		return domain.ErrFileNotFound
	}
	m.thumbnails[thumbKey(thumb.FileID, thumb.Width)] = thumb
	return nil
}

func (m *MockFileRepository) GetThumbnail(ctx context.Context, fileID string, width int) (*domain.Thumbnail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.thumbnails[thumbKey(fileID, width)]; ok {
		return t, nil
	}
	return nil, domain.ErrThumbnailNotFound
}

// MockStorage is an in-memory storage.Backend.
type MockStorage struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	storeErr error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{blobs: make(map[string][]byte)}
}

func (m *MockStorage) Store(ctx context.Context, reader io.Reader, size int64) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	ref := crypto.ComputeSHA256(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[ref] = data
	return ref, nil
}

func (m *MockStorage) Retrieve(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[ref]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blobs[ref]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(m.blobs, ref)
	return nil
}

func (m *MockStorage) Exists(ctx context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.blobs[ref]
	return ok, nil
}

// MockJobQueue is a testify mock of repository.JobQueue.
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) Enqueue(ctx context.Context, job domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Job, error) {
	args := m.Called(ctx, timeout)
	job, _ := args.Get(0).(*domain.Job)
	return job, args.Error(1)
}

// failingCache is a repository.Cache whose backend is unreachable.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, repository.ErrCacheUnavailable
}

func (failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return repository.ErrCacheUnavailable
}

func (failingCache) Delete(ctx context.Context, key string) error {
	return repository.ErrCacheUnavailable
}

func (failingCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, repository.ErrCacheUnavailable
}

func (failingCache) Ping(ctx context.Context) error {
	return repository.ErrCacheUnavailable
}
