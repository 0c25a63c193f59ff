// Package strategy holds the base types shared by pluggable strategies,
// such as the policy-based and count-based pricing strategies.
package strategy

// StrategyType groups interchangeable strategies; a registry keeps one
// default per type
type StrategyType string

const (
	StrategyTypePricing StrategyType = "pricing"
)

// Strategy is implemented by every registered strategy
type Strategy interface {
	// Name is the registry key, unique within the type
	Name() string
	Type() StrategyType
	// Description is a human readable summary shown in quotes and breakdowns
	Description() string
}

// BaseStrategy implements Strategy for embedding
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
}

// NewBaseStrategy creates a new BaseStrategy
func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{name: name, strategyType: strategyType, description: description}
}

func (s BaseStrategy) Name() string { return s.name }

func (s BaseStrategy) Type() StrategyType { return s.strategyType }

func (s BaseStrategy) Description() string { return s.description }
