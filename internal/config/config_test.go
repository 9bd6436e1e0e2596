package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "sha1", cfg.Auth.PasswordDigest)
	assert.Equal(t, 10, cfg.Files.PageSize)
	assert.Equal(t, "fileQueue", cfg.Queue.Name)
	assert.Equal(t, "filesystem", cfg.Storage.Backend)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ALEXANDER_SERVER_PORT", "8081")
	t.Setenv("ALEXANDER_AUTH_SESSION_TTL", "1h")
	t.Setenv("ALEXANDER_QUEUE_BACKEND", "memory")
	t.Setenv("ALEXANDER_STORAGE_BACKEND", "s3")
	t.Setenv("ALEXANDER_STORAGE_S3_BUCKET", "files")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "memory", cfg.Queue.Backend)
	assert.Equal(t, "files", cfg.Storage.S3.Bucket)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7000
files:
  page_size: 25
auth:
  password_digest: sha3-256
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Files.PageSize)
	assert.Equal(t, "sha3-256", cfg.Auth.PasswordDigest)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 5000},
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Redis:    RedisConfig{Enabled: true},
			Storage:  StorageConfig{Backend: "filesystem", DataDir: "/tmp"},
			Auth:     AuthConfig{SessionTTL: time.Hour, PasswordDigest: "sha1"},
			Files:    FilesConfig{PageSize: 10},
			Queue:    QueueConfig{Backend: "redis", Name: "fileQueue"},
			Worker:   WorkerConfig{Concurrency: 1},
			Logging:  LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "tape" }, wantErr: true},
		{name: "minio without endpoint", mutate: func(c *Config) {
			c.Storage.Backend = "minio"
			c.Storage.S3.Bucket = "files"
		}, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.SessionTTL = 0 }, wantErr: true},
		{name: "unknown digest", mutate: func(c *Config) { c.Auth.PasswordDigest = "md5" }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.Files.PageSize = 0 }, wantErr: true},
		{name: "redis queue without redis", mutate: func(c *Config) { c.Redis.Enabled = false }, wantErr: true},
		{name: "memory queue without redis", mutate: func(c *Config) {
			c.Redis.Enabled = false
			c.Queue.Backend = "memory"
		}},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
