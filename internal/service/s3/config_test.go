package s3

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".s3.env")
	require.NoError(t, os.WriteFile(path, []byte(`
S3_ACCESS_KEY_ID=key
S3_SECRET_ACCESS_KEY=secret
S3_BUCKET=files
S3_USE_PATH_STYLE=true
S3_URL_EXPIRY=5m
`), 0644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Driver)
	assert.Equal(t, "files", cfg.Bucket)
	assert.True(t, cfg.UsePathStyle)
	assert.Equal(t, 5*time.Minute, cfg.URLExpiry)
	assert.Equal(t, "ru-central1", cfg.Region)
}

func TestNewConfigMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := NewConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, "http://localhost:2525/blobs", cfg.MemoryBaseURL)
}

func TestNewConfigRequiresBucket(t *testing.T) {
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")

	t.Setenv("STORAGE_DRIVER", "gcs")
	_, err = NewConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
