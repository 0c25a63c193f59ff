package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Close() error { return nil }

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	inner := &recordingHandler{types: []string{byom.EventTypeDesignRejected}}
	h := NewIdempotentHandler("notifier", inner, store, 0, zap.NewNop())

	ev := newEvent(byom.EventTypeDesignRejected)
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), newEvent(byom.EventTypeDesignRejected)))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, []string{byom.EventTypeDesignRejected}, h.EventTypes())
}

func TestIdempotentHandler_ScopedByName(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	a, b := &recordingHandler{}, &recordingHandler{}
	ha := NewIdempotentHandler("a", a, store, time.Hour, nil)
	hb := NewIdempotentHandler("b", b, store, time.Hour, nil)

	ev := newEvent(byom.EventTypeDesignApproved)
	require.NoError(t, ha.Handle(context.Background(), ev))
	require.NoError(t, hb.Handle(context.Background(), ev))
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	inner := &recordingHandler{err: errors.New("mail relay timeout")}
	h := NewIdempotentHandler("notifier", inner, store, time.Hour, nil)

	ev := newEvent(byom.EventTypeDesignRejected)
	require.Error(t, h.Handle(context.Background(), ev))

	inner.err = nil
	require.NoError(t, h.Handle(context.Background(), ev))
	assert.Equal(t, 2, inner.count())
}

func TestIdempotentHandler_StoreErrorStillHandles(t *testing.T) {
	store := new(mockStore)
	store.On("MarkProcessed", mock.Anything, mock.AnythingOfType("string"), DefaultEventDedupTTL).
		Return(false, errors.New("redis: connection refused"))
	inner := &recordingHandler{}
	h := NewIdempotentHandler("metrics", inner, store, 0, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), newEvent(byom.EventTypeDesignCreated)))
	assert.Equal(t, 1, inner.count())
	store.AssertExpectations(t)
}

func TestIdempotentHandler_ConcurrentDelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	inner := &recordingHandler{}
	h := NewIdempotentHandler("notifier", inner, store, time.Hour, nil)
	ev := newEvent(byom.EventTypeDesignApproved)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), ev)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inner.count())
}
