package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryObjectStorage("")

	t.Run("default base url", func(t *testing.T) {
		assert.Equal(t, "https://storage.example.com/designs/a.png", s.PublicURL("designs/a.png"))
	})

	t.Run("upload and exists", func(t *testing.T) {
		data := []byte{1, 2, 3}
		require.NoError(t, s.Upload(ctx, "designs/a.png", data, "image/png"))
		data[0] = 9

		ok, err := s.ObjectExists(ctx, "designs/a.png")
		require.NoError(t, err)
		assert.True(t, ok)

		obj, ok := s.Get("designs/a.png")
		require.True(t, ok)
		assert.Equal(t, []byte{1, 2, 3}, obj.Data)
		assert.Equal(t, "image/png", obj.ContentType)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("download url", func(t *testing.T) {
		u, exp, err := s.GenerateDownloadURL(ctx, "designs/a.png", time.Hour)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "https://storage.example.com/download/designs/a.png?expires="))
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteObject(ctx, "designs/a.png"))
		ok, err := s.ObjectExists(ctx, "designs/a.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty key", func(t *testing.T) {
		assert.Error(t, s.Upload(ctx, "", nil, ""))
		assert.Error(t, s.DeleteObject(ctx, ""))
		_, err := s.ObjectExists(ctx, "")
		assert.Error(t, err)
		_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, s.Upload(cctx, "k", []byte{1}, "image/png"), context.Canceled)
	})
}
