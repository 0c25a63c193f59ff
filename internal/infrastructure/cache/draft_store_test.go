package cache

import (
	"context"
	"testing"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestInMemoryDraftStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryDraftStore()
	key := byom.DraftKey{OwnerKey: "owner-1", MerchType: byom.MerchHoodie}

	t.Run("load missing", func(t *testing.T) {
		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		draft := &byom.Draft{
			OwnerKey:       key.OwnerKey,
			MerchType:      key.MerchType,
			Payload:        []byte(`{"merchType":"hoodie"}`),
			SelectedAssets: []string{"a.png"},
		}
		require.NoError(t, store.Save(ctx, draft))

		got, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"merchType":"hoodie"}`, string(got.Payload))
		assert.Equal(t, []string{"a.png"}, got.SelectedAssets)
		assert.False(t, got.UpdatedAt.IsZero())

		// stored value is isolated from the caller's slices
		draft.SelectedAssets[0] = "mutated.png"
		got.Payload[0] = 'X'
		again, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.png"}, again.SelectedAssets)
		assert.Equal(t, byte('{'), again.Payload[0])
	})

	t.Run("slots are per merchandise type", func(t *testing.T) {
		_, err := store.Load(ctx, byom.DraftKey{OwnerKey: "owner-1", MerchType: byom.MerchHat})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save overwrites", func(t *testing.T) {
		ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		require.NoError(t, store.Save(ctx, &byom.Draft{
			OwnerKey:  key.OwnerKey,
			MerchType: key.MerchType,
			Payload:   []byte(`{}`),
			UpdatedAt: ts,
		}))
		got, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(got.Payload))
		assert.Empty(t, got.SelectedAssets)
		assert.Equal(t, ts, got.UpdatedAt)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))
		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, store.Delete(ctx, key))
	})
}

func TestRedisDraftStore_Key(t *testing.T) {
	store := NewRedisDraftStore(nil, time.Hour)
	assert.Equal(t, "byom:draft:owner-9:trouser",
		store.key(byom.DraftKey{OwnerKey: "owner-9", MerchType: byom.MerchTrouser}))
}

func TestStoreFactory_FallsBackWhenRedisDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := NewStoreFactory(config.RedisConfig{Enabled: false}, WithLogger(zap.New(core)))
	defer f.Close()

	idem, err := f.CreateIdempotencyStore()
	require.NoError(t, err)
	_, ok := idem.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
	defer idem.Close()

	drafts, err := f.CreateDraftStore(config.DraftsConfig{Backend: "redis"})
	require.NoError(t, err)
	_, ok = drafts.(*InMemoryDraftStore)
	assert.True(t, ok)

	assert.Equal(t, 2, logs.Len())
}

func TestStoreFactory_NoFallback(t *testing.T) {
	f := NewStoreFactory(config.RedisConfig{Enabled: false}, WithInMemoryFallback(false))

	_, err := f.CreateIdempotencyStore()
	assert.Error(t, err)

	_, err = f.CreateDraftStore(config.DraftsConfig{})
	assert.Error(t, err)
}
