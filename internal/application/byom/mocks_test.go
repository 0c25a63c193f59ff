package byom

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifData = []byte("GIF89a\x01\x00\x01\x00")
)

// MockDesignRepository is a mock implementation of byom.DesignRepository
type MockDesignRepository struct {
	mock.Mock
}

func (m *MockDesignRepository) FindByID(ctx context.Context, id uuid.UUID) (*byom.Design, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*byom.Design), args.Error(1)
}

func (m *MockDesignRepository) FindAll(ctx context.Context, filter byom.DesignFilter) ([]byom.Design, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byom.Design), args.Error(1)
}

func (m *MockDesignRepository) Count(ctx context.Context, filter byom.DesignFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDesignRepository) Save(ctx context.Context, design *byom.Design) error {
	args := m.Called(ctx, design)
	return args.Error(0)
}

func (m *MockDesignRepository) SaveWithLock(ctx context.Context, design *byom.Design) error {
	args := m.Called(ctx, design)
	return args.Error(0)
}

// MockPricingPolicyRepository is a mock implementation of byom.PricingPolicyRepository
type MockPricingPolicyRepository struct {
	mock.Mock
}

func (m *MockPricingPolicyRepository) FindByID(ctx context.Context, id uuid.UUID) (*byom.PricingPolicy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*byom.PricingPolicy), args.Error(1)
}

func (m *MockPricingPolicyRepository) FindAll(ctx context.Context) ([]byom.PricingPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byom.PricingPolicy), args.Error(1)
}

func (m *MockPricingPolicyRepository) FindActive(ctx context.Context) (*byom.PricingPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*byom.PricingPolicy), args.Error(1)
}

func (m *MockPricingPolicyRepository) Save(ctx context.Context, policy *byom.PricingPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

// MockCartLineRepository is a mock implementation of byom.CartLineRepository
type MockCartLineRepository struct {
	mock.Mock
}

func (m *MockCartLineRepository) Save(ctx context.Context, line *byom.CartLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockCartLineRepository) FindByDesignIDs(ctx context.Context, ids []uuid.UUID) ([]byom.CartLine, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byom.CartLine), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// memoryStorage is an ObjectStorage keeping objects in a map
type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failAfter int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte), failAfter: -1}
}

func (s *memoryStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter == 0 {
		return assertErr("storage unavailable")
	}
	if s.failAfter > 0 {
		s.failAfter--
	}
	s.objects[key] = data
	return nil
}

func (s *memoryStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *memoryStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return s.PublicURL(key) + "?signed", time.Now().Add(expiresIn), nil
}

func (s *memoryStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memoryStorage) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// recordingMetrics remembers transitions and stages
type recordingMetrics struct {
	noopMetrics
	mu          sync.Mutex
	transitions []string
	stages      []string
	failed      []string
}

func (m *recordingMetrics) RecordDesignTransition(_ context.Context, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, status)
}

func (m *recordingMetrics) RecordStage(_ context.Context, stage string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
	if err != nil {
		m.failed = append(m.failed, stage)
	}
}

// Test fixtures

func testPolicy(t *testing.T) *byom.PricingPolicy {
	t.Helper()
	p, err := byom.NewPricingPolicy("Standard", byom.PolicyFees{
		BaseFee:               decimal.NewFromInt(20),
		ImageCustomizationFee: decimal.NewFromFloat(4.5),
		TextsCustomizationFee: decimal.NewFromInt(3),
		FrontFee:              decimal.NewFromInt(5),
		BackFee:               decimal.NewFromInt(6),
		SideFee:               decimal.NewFromInt(2),
	}, "USD", 10)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func testStrategies(t *testing.T) PricingStrategies {
	t.Helper()
	r, err := strategy.NewRegistryWithDefaults(nil, "USD")
	require.NoError(t, err)
	return r
}

func testActor() Actor {
	return Actor{ID: uuid.New(), Email: "owner@example.com"}
}

func testAdmin() Actor {
	return Actor{ID: uuid.New(), Email: "admin@example.com", Admin: true}
}

// configWithText returns a t-shirt with one front text
func configWithText(t *testing.T) byom.Configuration {
	t.Helper()
	cfg := byom.DefaultConfiguration()
	_, err := byom.AddText(&cfg, byom.ZoneFront, byom.TextInput{Content: "GO TEAM"})
	require.NoError(t, err)
	return cfg
}

func testDesign(t *testing.T, owner Actor, cfg byom.Configuration) *byom.Design {
	t.Helper()
	d, err := byom.NewDesign(owner.ID, owner.Email, "My design", cfg)
	require.NoError(t, err)
	d.ClearDomainEvents()
	return d
}
