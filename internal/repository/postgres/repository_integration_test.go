//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-files/internal/config"
	"github.com/prn-tf/alexander-files/internal/domain"
	"github.com/prn-tf/alexander-files/internal/repository"
)

var testCfg config.DatabaseConfig

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to docker: %v\n", err)
		os.Exit(1)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=alexander",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=files_manager",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start postgres: %v\n", err)
		os.Exit(1)
	}
	_ = resource.Expire(120)

	port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))
	testCfg = config.DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            port,
		User:            "alexander",
		Password:        "secret",
		Database:        "files_manager",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	}

	pool.MaxWait = time.Minute
	if err := pool.Retry(func() error {
		db, err := NewDB(context.Background(), testCfg, zerolog.Nop())
		if err != nil {
			return err
		}
		return db.Close()
	}); err != nil {
		fmt.Fprintf(os.Stderr, "postgres never became ready: %v\n", err)
		_ = pool.Purge(resource)
		os.Exit(1)
	}

	code := m.Run()

	_ = pool.Purge(resource)
	os.Exit(code)
}

func openRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	result, err := Open(context.Background(), testCfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { result.Database.Close() })

	return result.Repos
}

func TestPostgres_UsersAndFiles(t *testing.T) {
	ctx := context.Background()
	repos := openRepos(t)

	email := fmt.Sprintf("user-%d@example.com", time.Now().UnixNano())
	user := domain.NewUser(email, "digest")
	require.NoError(t, repos.User.Create(ctx, user))

	err := repos.User.Create(ctx, domain.NewUser(email, "digest"))
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	got, err := repos.User.GetByCredentials(ctx, email, "digest")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	folder := domain.NewFile(user.ID, "docs", domain.FileTypeFolder, "")
	require.NoError(t, repos.File.Create(ctx, folder))

	for i := 0; i < 12; i++ {
		f := domain.NewFile(user.ID, fmt.Sprintf("f%02d", i), domain.FileTypeFile, folder.ID)
		f.StorageRef = "ref"
		require.NoError(t, repos.File.Create(ctx, f))
	}

	page, err := repos.File.List(ctx, user.ID, folder.ID, repository.ListOptions{Offset: 10, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "f10", page[0].Name)

	root, err := repos.File.List(ctx, user.ID, "", repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, root, 1)

	updated, err := repos.File.UpdateVisibility(ctx, folder.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)

	err = repos.File.Create(ctx, domain.NewFile(user.ID, "orphan", domain.FileTypeFile, "missing"))
	assert.ErrorIs(t, err, domain.ErrParentNotFound)

	err = repos.File.Create(ctx, domain.NewFile("no-such-user", "stray", domain.FileTypeFolder, ""))
	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)

	_, err = repos.File.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	require.NoError(t, repos.File.SaveThumbnail(ctx, &domain.Thumbnail{
		FileID: page[0].ID, Width: 100, StorageRef: "thumb", CreatedAt: time.Now().UTC(),
	}))
	thumb, err := repos.File.GetThumbnail(ctx, page[0].ID, 100)
	require.NoError(t, err)
	assert.Equal(t, "thumb", thumb.StorageRef)
}
