package strategy

import (
	"errors"
	"sync"
	"testing"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/domain/shared/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPricingStrategy struct {
	strategy.BaseStrategy
	estimate bool
}

func newMockPricingStrategy(name string, estimate bool) *mockPricingStrategy {
	return &mockPricingStrategy{
		BaseStrategy: strategy.NewBaseStrategy(name, strategy.StrategyTypePricing, "Mock pricing strategy"),
		estimate:     estimate,
	}
}

func (s *mockPricingStrategy) Calculate(byom.Configuration, *byom.PricingPolicy) (byom.PriceBreakdown, error) {
	return byom.NewPriceBreakdown(s.Name(), "USD", s.estimate, nil)
}

func (s *mockPricingStrategy) IsEstimate() bool {
	return s.estimate
}

func TestStrategyRegistry_RegisterAndGet(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("a", false)))

	err := r.RegisterPricingStrategy(newMockPricingStrategy("a", false))
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))

	s, err := r.GetPricingStrategy("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.Name())

	_, err = r.GetPricingStrategy("missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = r.GetPricingStrategy("")
	assert.True(t, errors.Is(err, shared.ErrNotFound), "no default set yet")
}

func TestStrategyRegistry_SetDefault(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("a", false)))

	assert.Error(t, r.SetDefault(strategy.StrategyTypePricing, "missing"))
	assert.Error(t, r.SetDefault("bogus", "a"))

	require.NoError(t, r.SetDefault(strategy.StrategyTypePricing, "a"))
	assert.Equal(t, "a", r.GetDefault(strategy.StrategyTypePricing))

	s, err := r.GetPricingStrategy("")
	require.NoError(t, err)
	assert.Equal(t, "a", s.Name())
}

func TestStrategyRegistry_CanonicalRefusesEstimate(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterPricingStrategy(newMockPricingStrategy("guess", true)))
	require.NoError(t, r.SetDefault(strategy.StrategyTypePricing, "guess"))

	_, err := r.Canonical()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults(nil, "USD")
	require.NoError(t, err)

	assert.Equal(t, []string{byom.StrategyCount, byom.StrategyPolicy}, r.ListPricingStrategies())

	canonical, err := r.Canonical()
	require.NoError(t, err)
	assert.Equal(t, byom.StrategyPolicy, canonical.Name())
	assert.False(t, canonical.IsEstimate())

	count, err := r.GetPricingStrategy(byom.StrategyCount)
	require.NoError(t, err)
	assert.True(t, count.IsEstimate())
}

func TestStrategyRegistry_ConcurrentAccess(t *testing.T) {
	r, err := NewRegistryWithDefaults(nil, "USD")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.GetPricingStrategy("")
			_ = r.ListPricingStrategies()
		}()
	}
	wg.Wait()
}
