package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func baseS3Config() *config.StorageConfig {
	return &config.StorageConfig{
		Driver:          "s3",
		Bucket:          "byom-designs",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKeyID = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretAccessKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseS3Config()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("valid config uses default presign expiry", func(t *testing.T) {
		s, err := NewS3ObjectStorage(baseS3Config())
		require.NoError(t, err)
		assert.Equal(t, "byom-designs", s.GetBucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("options override", func(t *testing.T) {
		s, err := NewS3ObjectStorage(baseS3Config(),
			WithLogger(zaptest.NewLogger(t)),
			WithPresignExpiration(time.Hour),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestS3ObjectStorage_PublicURL(t *testing.T) {
	t.Run("path style", func(t *testing.T) {
		s, err := NewS3ObjectStorage(baseS3Config())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/byom-designs/designs/1/a.png", s.PublicURL("designs/1/a.png"))
	})

	t.Run("virtual host style", func(t *testing.T) {
		cfg := baseS3Config()
		cfg.UsePathStyle = false
		cfg.Endpoint = "s3.eu-west-1.amazonaws.com"
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://byom-designs.s3.eu-west-1.amazonaws.com/a.png", s.PublicURL("a.png"))
	})

	t.Run("public base url wins", func(t *testing.T) {
		cfg := baseS3Config()
		cfg.PublicBaseURL = "https://cdn.example.com/"
		s, err := NewS3ObjectStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.png", s.PublicURL("a.png"))
	})
}

func TestS3ObjectStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(baseS3Config())
	require.NoError(t, err)

	t.Run("empty key", func(t *testing.T) {
		u, _, err := s.GenerateDownloadURL(context.Background(), "", time.Minute)
		require.Error(t, err)
		assert.Empty(t, u)
	})

	t.Run("presigned url", func(t *testing.T) {
		u, expiresAt, err := s.GenerateDownloadURL(context.Background(), "designs/a.png", 0)
		require.NoError(t, err)
		assert.True(t, strings.Contains(u, "localhost:9000"))
		assert.True(t, strings.Contains(u, "byom-designs"))
		assert.True(t, strings.Contains(u, "X-Amz-Signature"))
		assert.True(t, expiresAt.After(time.Now()))
	})
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(baseS3Config())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, s.Upload(ctx, "", []byte("x"), "image/png"))
	assert.Error(t, s.DeleteObject(ctx, ""))
	exists, err := s.ObjectExists(ctx, "")
	assert.Error(t, err)
	assert.False(t, exists)
}
