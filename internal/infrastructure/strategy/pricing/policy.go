package pricing

import (
	"fmt"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/domain/shared/strategy"
)

// PolicyPricingStrategy prices a configuration from the admin pricing policy.
// Its total is the purchasable price.
type PolicyPricingStrategy struct {
	strategy.BaseStrategy
}

// NewPolicyPricingStrategy creates the policy-based strategy
func NewPolicyPricingStrategy() *PolicyPricingStrategy {
	return &PolicyPricingStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			byom.StrategyPolicy,
			strategy.StrategyTypePricing,
			"Base fee plus a fee per used zone and one-time text and image customization fees",
		),
	}
}

// Calculate returns base fee + placement fee per used zone + text fee if any
// text + image fee if any asset
func (s *PolicyPricingStrategy) Calculate(cfg byom.Configuration, policy *byom.PricingPolicy) (byom.PriceBreakdown, error) {
	if policy == nil {
		return byom.PriceBreakdown{}, shared.NewDomainError("POLICY_REQUIRED", "Policy-based pricing requires a pricing policy")
	}

	lines := []byom.PriceLine{{Code: "base_fee", Label: "Base fee", Amount: policy.BaseFee}}
	for _, zone := range cfg.UsedZones() {
		lines = append(lines, byom.PriceLine{
			Code:   zone.String() + "_placement",
			Label:  fmt.Sprintf("%s placement", zoneLabel(zone)),
			Amount: policy.PlacementFee(zone),
		})
	}
	if cfg.TextCount() > 0 {
		lines = append(lines, byom.PriceLine{Code: "texts_customization", Label: "Text customization", Amount: policy.TextsCustomizationFee})
	}
	if cfg.AssetCount() > 0 {
		lines = append(lines, byom.PriceLine{Code: "image_customization", Label: "Image customization", Amount: policy.ImageCustomizationFee})
	}
	return byom.NewPriceBreakdown(s.Name(), policy.Currency, false, lines)
}

// IsEstimate returns false: this strategy yields the purchasable total
func (s *PolicyPricingStrategy) IsEstimate() bool {
	return false
}

func zoneLabel(zone byom.PlacementZone) string {
	switch zone {
	case byom.ZoneBack:
		return "Back"
	case byom.ZoneSide:
		return "Side"
	default:
		return "Front"
	}
}
