package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/lock"
	"github.com/prn-tf/alexander-files/internal/metrics"
	"github.com/prn-tf/alexander-files/internal/repository"
	"github.com/prn-tf/alexander-files/internal/storage"
)

// WorkerConfig contains configuration for the background worker.
type WorkerConfig struct {
	// Concurrency is the number of goroutines consuming the queue.
	Concurrency int

	// PollTimeout bounds a single blocking dequeue so Stop is noticed promptly.
	PollTimeout time.Duration

	// Locker serializes thumbnail generation per file. Nil means no locking.
	Locker lock.Locker

	// LockTTL bounds how long a crashed consumer can hold a file lock.
	LockTTL time.Duration
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Concurrency: 2,
		PollTimeout: 5 * time.Second,
		LockTTL:     time.Minute,
	}
}

// Worker consumes background jobs: thumbnails for new images and the welcome
// message for new users.
type Worker struct {
	queue    repository.JobQueue
	userRepo repository.UserRepository
	fileRepo repository.FileRepository
	storage  storage.Backend
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	config   WorkerConfig

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	doneChan chan struct{}
}

// NewWorker creates a new Worker.
func NewWorker(
	queue repository.JobQueue,
	userRepo repository.UserRepository,
	fileRepo repository.FileRepository,
	backend storage.Backend,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config WorkerConfig,
) *Worker {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = DefaultWorkerConfig().PollTimeout
	}
	if config.Locker == nil {
		config.Locker = lock.NewNoOpLocker()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultWorkerConfig().LockTTL
	}

	return &Worker{
		queue:    queue,
		userRepo: userRepo,
		fileRepo: fileRepo,
		storage:  backend,
		metrics:  m,
		logger:   logger.With().Str("service", "worker").Logger(),
		config:   config,
	}
}

// Start launches the consumer goroutines.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.doneChan = make(chan struct{})

	w.logger.Info().
		Int("concurrency", w.config.Concurrency).
		Dur("poll_timeout", w.config.PollTimeout).
		Msg("starting worker")

	var wg sync.WaitGroup
	for i := 0; i < w.config.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.runLoop(ctx, id)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneChan)
	}()
}

// Stop cancels the consumers and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel, done := w.cancel, w.doneChan
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info().Msg("worker stopped")
}

// runLoop dequeues and processes jobs until ctx is cancelled.
func (w *Worker) runLoop(ctx context.Context, id int) {
	logger := w.logger.With().Int("consumer", id).Logger()

	for ctx.Err() == nil {
		job, err := w.queue.Dequeue(ctx, w.config.PollTimeout)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrQueueEmpty), ctx.Err() != nil:
			default:
				logger.Error().Err(err).Msg("failed to dequeue job")
				// Back off so an unreachable queue does not spin.
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
			continue
		}

		// Jobs run to completion even when shutdown begins.
		if err := w.Process(context.WithoutCancel(ctx), *job); err != nil {
			logger.Error().
				Err(err).
				Str("kind", string(job.Kind)).
				Str("file_id", job.FileID).
				Str("user_id", job.UserID).
				Msg("job failed")
		}
	}
}

// Process runs a single job. A panic inside the job is returned as ErrJobPanicked.
func (w *Worker) Process(ctx context.Context, job domain.Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Interface("panic", r).
				Str("kind", string(job.Kind)).
				Str("file_id", job.FileID).
				Msg("job panicked")
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
		w.metrics.RecordJob(string(job.Kind), time.Since(start), err)
	}()

	switch job.Kind {
	case domain.JobKindFile:
		err = w.processFile(ctx, job)
	case domain.JobKindUser:
		err = w.processUser(ctx, job)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownJob, job.Kind)
	}
	return err
}

// =============================================================================
// User jobs
// =============================================================================

func (w *Worker) processUser(ctx context.Context, job domain.Job) error {
	if job.UserID == "" {
		return ErrMissingUserID
	}

	user, err := w.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	w.logger.Info().Str("user_id", user.ID).Msgf("Welcome %s!", user.Email)
	return nil
}

// =============================================================================
// File jobs
// =============================================================================

func (w *Worker) processFile(ctx context.Context, job domain.Job) error {
	if job.FileID == "" {
		return ErrMissingFileID
	}
	if job.UserID == "" {
		return ErrMissingUserID
	}

	file, err := w.fileRepo.GetByID(ctx, job.FileID)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if file.OwnerID != job.UserID {
		return ErrFileNotFound
	}

	if file.Type != domain.FileTypeImage {
		return nil
	}

	l := lock.NewLock(w.config.Locker, lock.Keys.Thumbnails(file.ID))
	acquired, err := l.Acquire(ctx, w.config.LockTTL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if !acquired {
		w.logger.Debug().Str("file_id", file.ID).Msg("thumbnails already in progress")
		return nil
	}
	defer func() {
		if err := l.Release(ctx); err != nil {
			w.logger.Warn().Err(err).Str("file_id", file.ID).Msg("failed to release thumbnail lock")
		}
	}()

	return w.generateThumbnails(ctx, file)
}

// generateThumbnails writes one derivative per width in domain.ThumbnailWidths.
func (w *Worker) generateThumbnails(ctx context.Context, file *domain.File) error {
	body, err := w.storage.Retrieve(ctx, file.StorageRef)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", file.ID, err)
	}
	src, format, err := image.Decode(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("failed to decode image %s: %w", file.ID, err)
	}
	if b := src.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: %s is %dx%d", ErrInvalidImage, file.ID, b.Dx(), b.Dy())
	}

	for _, width := range domain.ThumbnailWidths {
		data, err := encodeImage(Resize(src, width), format)
		if err != nil {
			return fmt.Errorf("failed to encode %dpx thumbnail: %w", width, err)
		}

		ref, err := w.storage.Store(ctx, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return fmt.Errorf("failed to store %dpx thumbnail: %w", width, err)
		}

		thumb := &domain.Thumbnail{
			FileID:     file.ID,
			Width:      width,
			StorageRef: ref,
			CreatedAt:  time.Now().UTC(),
		}
		if err := w.fileRepo.SaveThumbnail(ctx, thumb); err != nil {
			return fmt.Errorf("failed to record %dpx thumbnail: %w", width, err)
		}
		w.metrics.RecordThumbnail()
	}

	w.logger.Info().
		Str("file_id", file.ID).
		Str("format", format).
		Ints("widths", domain.ThumbnailWidths).
		Msg("thumbnails generated")

	return nil
}

// Resize scales src to the given width, preserving the aspect ratio.
// An empty src yields a blank image of the given width.
func Resize(src image.Image, width int) image.Image {
	b := src.Bounds()
	height := 1
	if b.Dx() > 0 {
		height = b.Dy() * width / b.Dx()
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// encodeImage encodes img in the named format, falling back to PNG.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
