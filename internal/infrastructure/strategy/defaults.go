package strategy

import (
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared/strategy"
	"github.com/merch/byom/internal/infrastructure/strategy/pricing"
)

// NewRegistryWithDefaults registers the policy-based and count-based pricing
// strategies and makes the policy-based one the default. basePrices overrides
// the count-based base price per merchandise type; nil keeps the built-in table.
func NewRegistryWithDefaults(basePrices map[byom.MerchandiseType]int64, currency string) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	if err := r.RegisterPricingStrategy(pricing.NewPolicyPricingStrategy()); err != nil {
		return nil, err
	}
	if err := r.RegisterPricingStrategy(pricing.NewCountPricingStrategy(basePrices, currency)); err != nil {
		return nil, err
	}

	if err := r.SetDefault(strategy.StrategyTypePricing, byom.StrategyPolicy); err != nil {
		return nil, err
	}
	return r, nil
}
