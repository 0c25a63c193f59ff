package pricing

import (
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// Per-element prices of the count-based estimate
var (
	PricePerText  = decimal.NewFromInt(1000)
	PricePerAsset = decimal.NewFromInt(500)
)

// DefaultBasePrices is the built-in base price table of the estimate
var DefaultBasePrices = map[byom.MerchandiseType]int64{
	byom.MerchTShirt:     15000,
	byom.MerchLongSleeve: 18000,
	byom.MerchHoodie:     28000,
	byom.MerchTrouser:    24000,
	byom.MerchShort:      16000,
	byom.MerchHat:        12000,
}

// CountPricingStrategy estimates a price from element counts. It is for
// display only and never used as a sale price.
type CountPricingStrategy struct {
	strategy.BaseStrategy
	basePrices map[byom.MerchandiseType]decimal.Decimal
	currency   string
}

// NewCountPricingStrategy creates the estimate strategy. Missing entries of
// basePrices fall back to DefaultBasePrices.
func NewCountPricingStrategy(basePrices map[byom.MerchandiseType]int64, currency string) *CountPricingStrategy {
	if currency == "" {
		currency = byom.DefaultCurrency
	}
	prices := make(map[byom.MerchandiseType]decimal.Decimal, len(DefaultBasePrices))
	for mt, p := range DefaultBasePrices {
		prices[mt] = decimal.NewFromInt(p)
	}
	for mt, p := range basePrices {
		if mt.IsValid() && p >= 0 {
			prices[mt] = decimal.NewFromInt(p)
		}
	}
	return &CountPricingStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			byom.StrategyCount,
			strategy.StrategyTypePricing,
			"Estimate: merchandise base price plus a fixed price per text and per image",
		),
		basePrices: prices,
		currency:   currency,
	}
}

// BasePrice returns the base price of a merchandise type
func (s *CountPricingStrategy) BasePrice(mt byom.MerchandiseType) decimal.Decimal {
	if p, ok := s.basePrices[mt]; ok {
		return p
	}
	return s.basePrices[byom.DefaultMerchType]
}

// Calculate returns base price + texts×1000 + assets×500. The policy is ignored.
func (s *CountPricingStrategy) Calculate(cfg byom.Configuration, _ *byom.PricingPolicy) (byom.PriceBreakdown, error) {
	texts := cfg.TextCount()
	assets := cfg.AssetCount()

	lines := []byom.PriceLine{{Code: "base_price", Label: "Base price", Amount: s.BasePrice(cfg.MerchType)}}
	if texts > 0 {
		lines = append(lines, byom.PriceLine{
			Code:   "texts",
			Label:  "Texts",
			Amount: PricePerText.Mul(decimal.NewFromInt(int64(texts))),
		})
	}
	if assets > 0 {
		lines = append(lines, byom.PriceLine{
			Code:   "images",
			Label:  "Images",
			Amount: PricePerAsset.Mul(decimal.NewFromInt(int64(assets))),
		})
	}
	return byom.NewPriceBreakdown(s.Name(), s.currency, true, lines)
}

// IsEstimate returns true
func (s *CountPricingStrategy) IsEstimate() bool {
	return true
}
