package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/domain/shared/strategy"
)

// StrategyRegistry manages pricing strategy registrations
type StrategyRegistry struct {
	mu                sync.RWMutex
	pricingStrategies map[string]byom.PricingStrategy
	defaults          map[strategy.StrategyType]string
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		pricingStrategies: make(map[string]byom.PricingStrategy),
		defaults:          make(map[strategy.StrategyType]string),
	}
}

// RegisterPricingStrategy registers a pricing strategy under its name
func (r *StrategyRegistry) RegisterPricingStrategy(s byom.PricingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.pricingStrategies[name]; exists {
		return fmt.Errorf("%w: pricing strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.pricingStrategies[name] = s
	return nil
}

// GetPricingStrategy returns a pricing strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetPricingStrategy(name string) (byom.PricingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaults[strategy.StrategyTypePricing]
		if name == "" {
			return nil, fmt.Errorf("%w: no default pricing strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.pricingStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: pricing strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// ListPricingStrategies returns all registered pricing strategy names
func (r *StrategyRegistry) ListPricingStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pricingStrategies))
	for name := range r.pricingStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefault sets the default strategy of a type. The strategy must be registered.
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch strategyType {
	case strategy.StrategyTypePricing:
		if _, exists := r.pricingStrategies[name]; !exists {
			return fmt.Errorf("%w: pricing strategy '%s' not found", shared.ErrNotFound, name)
		}
	default:
		return fmt.Errorf("%w: unknown strategy type '%s'", shared.ErrInvalidInput, strategyType)
	}
	r.defaults[strategyType] = name
	return nil
}

// GetDefault returns the default strategy name of a type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType]
}

// Canonical returns the default strategy. It refuses estimate-only strategies.
func (r *StrategyRegistry) Canonical() (byom.PricingStrategy, error) {
	s, err := r.GetPricingStrategy("")
	if err != nil {
		return nil, err
	}
	if s.IsEstimate() {
		return nil, fmt.Errorf("%w: default pricing strategy '%s' is estimate-only", shared.ErrInvalidState, s.Name())
	}
	return s, nil
}
