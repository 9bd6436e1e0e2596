package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/lock"
	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/queue"
)

type workerFixture struct {
	users   *MockUserRepository
	files   *MockFileRepository
	storage *MockStorage
	fileSvc *FileService
	worker  *Worker
}

func newWorkerFixture(t *testing.T, q *queue.Memory) *workerFixture {
	t.Helper()

	f := &workerFixture{
		users:   NewMockUserRepository(),
		files:   NewMockFileRepository(),
		storage: NewMockStorage(),
	}
	if q == nil {
		q = queue.NewMemory(16)
	}
	f.fileSvc = NewFileService(f.files, f.storage, q, FileServiceConfig{}, nil, zerolog.Nop())
	f.worker = NewWorker(q, f.users, f.files, f.storage, metrics.New(), zerolog.Nop(), WorkerConfig{
		Concurrency: 2,
		PollTimeout: 20 * time.Millisecond,
	})
	return f
}

func testPNG(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestResize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 600))

	tests := []struct {
		width      int
		wantHeight int
	}{
		{500, 300},
		{250, 150},
		{100, 60},
	}

	for _, tt := range tests {
		dst := Resize(src, tt.width)
		assert.Equal(t, tt.width, dst.Bounds().Dx())
		assert.Equal(t, tt.wantHeight, dst.Bounds().Dy())
	}

	flat := Resize(image.NewRGBA(image.Rect(0, 0, 1000, 1)), 100)
	assert.Equal(t, 1, flat.Bounds().Dy())

	empty := Resize(image.NewRGBA(image.Rect(0, 0, 0, 1)), 100)
	assert.Equal(t, image.Rect(0, 0, 100, 1), empty.Bounds())
}

// zeroWidthGIF is a well-formed GIF whose only frame is 0x1 pixels.
func zeroWidthGIF() []byte {
	var b []byte
	b = append(b, "GIF89a"...)                     // header
	b = append(b, 1, 0, 1, 0, 0x80, 0, 0)          // 1x1 screen, 2-colour global table
	b = append(b, 0, 0, 0, 0xff, 0xff, 0xff)       // global colour table
	b = append(b, 0x2c, 0, 0, 0, 0, 0, 0, 1, 0, 0) // frame at 0,0 sized 0x1
	b = append(b, 2, 0)                            // LZW minimum code size, no data
	b = append(b, 0x3b)                            // trailer
	return b
}

func TestWorker_RejectsEmptyImage(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t, nil)

	data := zeroWidthGIF()
	require.Len(t, data, 32)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "gif", format)
	require.Equal(t, 1, cfg.Width)

	file, err := f.fileSvc.Create(ctx, CreateFileInput{
		UserID: "u1",
		Name:   "tiny.gif",
		Type:   "image",
		Data:   base64.StdEncoding.EncodeToString(data),
	})
	require.NoError(t, err)

	var processErr error
	require.NotPanics(t, func() {
		processErr = f.worker.Process(ctx, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: "u1"})
	})
	assert.ErrorIs(t, processErr, ErrInvalidImage)
	assert.Empty(t, f.files.thumbnails)
}

// panickingStorage panics on every read.
type panickingStorage struct {
	*MockStorage
}

func (panickingStorage) Retrieve(context.Context, string) (io.ReadCloser, error) {
	panic("storage exploded")
}

func TestWorker_ProcessRecoversPanic(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewMemoryLocker()
	f := newWorkerFixture(t, nil)

	file, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "photo.png", Type: "image", Data: testPNG(t, 20, 10)})
	require.NoError(t, err)

	worker := NewWorker(queue.NewMemory(1), f.users, f.files, panickingStorage{f.storage}, metrics.New(), zerolog.Nop(), WorkerConfig{Locker: locker})

	var processErr error
	require.NotPanics(t, func() {
		processErr = worker.Process(ctx, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: "u1"})
	})
	assert.ErrorIs(t, processErr, ErrJobPanicked)
	assert.ErrorContains(t, processErr, "storage exploded")

	// The file lock was released while unwinding.
	token, err := locker.Acquire(ctx, lock.Keys.Thumbnails(file.ID), time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestWorker_ProcessImage(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t, nil)

	file, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "photo.png", Type: "image", Data: testPNG(t, 600, 400)})
	require.NoError(t, err)

	err = f.worker.Process(ctx, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: "u1"})
	require.NoError(t, err)

	for _, width := range domain.ThumbnailWidths {
		payload, err := f.fileSvc.ReadPayload(ctx, ReadPayloadInput{UserID: "u1", FileID: file.ID, Size: width})
		require.NoError(t, err, "width %d", width)
		assert.Equal(t, "image/png", payload.ContentType)

		img, err := png.Decode(payload.Body)
		payload.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, width, img.Bounds().Dx())
		assert.Equal(t, width*400/600, img.Bounds().Dy())
	}

	// Reprocessing replaces the existing thumbnails.
	require.NoError(t, f.worker.Process(ctx, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: "u1"}))
	assert.Len(t, f.files.thumbnails, len(domain.ThumbnailWidths))
}

func TestWorker_ProcessFileJobs(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t, nil)

	folder, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "docs", Type: "folder"})
	require.NoError(t, err)
	text, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "a.txt", Type: "file", Data: encode("hello")})
	require.NoError(t, err)
	broken, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "broken.png", Type: "image", Data: encode("not an image")})
	require.NoError(t, err)

	tests := []struct {
		name    string
		job     domain.Job
		wantErr error
		anyErr  bool
	}{
		{name: "folder is a no-op", job: domain.Job{Kind: domain.JobKindFile, FileID: folder.ID, UserID: "u1"}},
		{name: "plain file is a no-op", job: domain.Job{Kind: domain.JobKindFile, FileID: text.ID, UserID: "u1"}},
		{name: "missing file id", job: domain.Job{Kind: domain.JobKindFile, UserID: "u1"}, wantErr: ErrMissingFileID},
		{name: "missing user id", job: domain.Job{Kind: domain.JobKindFile, FileID: text.ID}, wantErr: ErrMissingUserID},
		{name: "unknown file", job: domain.Job{Kind: domain.JobKindFile, FileID: "file-404", UserID: "u1"}, wantErr: ErrFileNotFound},
		{name: "owner mismatch", job: domain.Job{Kind: domain.JobKindFile, FileID: text.ID, UserID: "u2"}, wantErr: ErrFileNotFound},
		{name: "undecodable image", job: domain.Job{Kind: domain.JobKindFile, FileID: broken.ID, UserID: "u1"}, anyErr: true},
		{name: "unknown kind", job: domain.Job{Kind: "video", FileID: text.ID, UserID: "u1"}, wantErr: ErrUnknownJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.worker.Process(ctx, tt.job)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}

	assert.Empty(t, f.files.thumbnails)
}

func TestWorker_ProcessUserJobs(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t, nil)

	user := domain.NewUser("a@x.com", "digest")
	require.NoError(t, f.users.Create(ctx, user))

	assert.NoError(t, f.worker.Process(ctx, domain.Job{Kind: domain.JobKindUser, UserID: user.ID}))
	assert.ErrorIs(t, f.worker.Process(ctx, domain.Job{Kind: domain.JobKindUser}), ErrMissingUserID)
	assert.ErrorIs(t, f.worker.Process(ctx, domain.Job{Kind: domain.JobKindUser, UserID: "user-404"}), ErrUserNotFound)
}

func TestWorker_SkipsLockedFile(t *testing.T) {
	ctx := context.Background()
	locker := lock.NewMemoryLocker()
	f := newWorkerFixture(t, nil)
	f.worker = NewWorker(queue.NewMemory(1), f.users, f.files, f.storage, nil, zerolog.Nop(), WorkerConfig{Locker: locker})

	file, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "photo.png", Type: "image", Data: testPNG(t, 200, 100)})
	require.NoError(t, err)

	token, err := locker.Acquire(ctx, lock.Keys.Thumbnails(file.ID), time.Minute)
	require.NoError(t, err)

	require.NoError(t, f.worker.Process(ctx, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: "u1"}))
	assert.Empty(t, f.files.thumbnails)

	require.NoError(t, locker.Release(ctx, lock.Keys.Thumbnails(file.ID), token))
	require.NoError(t, f.worker.Process(ctx, domain.Job{Kind: domain.JobKindFile, FileID: file.ID, UserID: "u1"}))
	assert.Len(t, f.files.thumbnails, len(domain.ThumbnailWidths))

	// The worker released its own lock.
	token, err = locker.Acquire(ctx, lock.Keys.Thumbnails(file.ID), time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestWorker_StartStop(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemory(16)
	f := newWorkerFixture(t, q)

	f.worker.Start(ctx)
	f.worker.Start(ctx)

	// Create enqueues the job the running worker consumes.
	file, err := f.fileSvc.Create(ctx, CreateFileInput{UserID: "u1", Name: "photo.png", Type: "image", Data: testPNG(t, 300, 300)})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := f.files.GetThumbnail(ctx, file.ID, 100)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	f.worker.Stop()
	f.worker.Stop()
	assert.Equal(t, 0, q.Len())
}
