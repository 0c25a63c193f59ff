package byom

import (
	"fmt"

	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// Registered pricing strategy names
const (
	StrategyPolicy = "policy"
	StrategyCount  = "count"
)

// PriceLine is one labelled component of a price
type PriceLine struct {
	Code   string          `json:"code"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// PriceBreakdown is a total with the lines it is made of
type PriceBreakdown struct {
	Strategy string          `json:"strategy"`
	Estimate bool            `json:"estimate"`
	Currency string          `json:"currency"`
	Lines    []PriceLine     `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

// NewPriceBreakdown sums lines into a total. Negative lines are rejected.
func NewPriceBreakdown(strategyName, currency string, estimate bool, lines []PriceLine) (PriceBreakdown, error) {
	total := decimal.Zero
	for _, l := range lines {
		if l.Amount.IsNegative() {
			return PriceBreakdown{}, shared.NewDomainError("INVALID_PRICE_LINE", fmt.Sprintf("Price line %s is negative", l.Code))
		}
		total = total.Add(l.Amount)
	}
	if lines == nil {
		lines = []PriceLine{}
	}
	return PriceBreakdown{
		Strategy: strategyName,
		Estimate: estimate,
		Currency: currency,
		Lines:    lines,
		Total:    total,
	}, nil
}

// Verify checks every line is non-negative and the lines sum to the total
func (b PriceBreakdown) Verify() error {
	sum := decimal.Zero
	for _, l := range b.Lines {
		if l.Amount.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE_LINE", fmt.Sprintf("Price line %s is negative", l.Code))
		}
		sum = sum.Add(l.Amount)
	}
	if !sum.Equal(b.Total) {
		return shared.NewDomainError("INVALID_BREAKDOWN", fmt.Sprintf("Lines sum to %s, total is %s", sum, b.Total))
	}
	return nil
}

// IsPurchasable reports whether the breakdown may be used as a sale price
func (b PriceBreakdown) IsPurchasable() bool {
	return !b.Estimate && b.Strategy == StrategyPolicy
}

// PricingStrategy computes a breakdown for a configuration.
// Implementations must be pure over their two arguments.
type PricingStrategy interface {
	strategy.Strategy
	Calculate(cfg Configuration, policy *PricingPolicy) (PriceBreakdown, error)
	// IsEstimate reports whether results are for display only
	IsEstimate() bool
}
