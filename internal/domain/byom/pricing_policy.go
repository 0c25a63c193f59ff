package byom

import (
	"fmt"
	"strings"

	"github.com/merch/byom/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultCurrency for policies created without one
const DefaultCurrency = "USD"

// PolicyFees is the fee schedule of a pricing policy
type PolicyFees struct {
	BaseFee               decimal.Decimal
	ImageCustomizationFee decimal.Decimal
	TextsCustomizationFee decimal.Decimal
	FrontFee              decimal.Decimal
	BackFee               decimal.Decimal
	SideFee               decimal.Decimal
}

func (f PolicyFees) validate() error {
	fees := map[string]decimal.Decimal{
		"base_fee":                f.BaseFee,
		"image_customization_fee": f.ImageCustomizationFee,
		"texts_customization_fee": f.TextsCustomizationFee,
		"front_fee":               f.FrontFee,
		"back_fee":                f.BackFee,
		"side_fee":                f.SideFee,
	}
	for name, fee := range fees {
		if fee.IsNegative() {
			return shared.NewDomainError("INVALID_FEE", fmt.Sprintf("%s cannot be negative", name))
		}
	}
	return nil
}

// PricingPolicy is the admin-managed fee schedule used for purchasable totals
type PricingPolicy struct {
	shared.BaseAggregateRoot
	Name string
	PolicyFees
	Currency string
	IsActive bool
	Priority int
}

// NewPricingPolicy creates an active policy
func NewPricingPolicy(name string, fees PolicyFees, currency string, priority int) (*PricingPolicy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Policy name cannot be empty")
	}
	if err := fees.validate(); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	p := &PricingPolicy{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		PolicyFees:        fees,
		Currency:          strings.ToUpper(currency),
		IsActive:          true,
		Priority:          priority,
	}
	p.AddDomainEvent(NewPricingPolicyChangedEvent(p, EventTypePricingPolicyCreated))
	return p, nil
}

// PlacementFee returns the fee of a zone. Unknown zones fall back to the front fee.
func (p *PricingPolicy) PlacementFee(zone PlacementZone) decimal.Decimal {
	switch zone {
	case ZoneBack:
		return p.BackFee
	case ZoneSide:
		return p.SideFee
	default:
		return p.FrontFee
	}
}

// PolicyPatch holds the fields to change. Nil fields are left untouched.
type PolicyPatch struct {
	Name                  *string
	BaseFee               *decimal.Decimal
	ImageCustomizationFee *decimal.Decimal
	TextsCustomizationFee *decimal.Decimal
	FrontFee              *decimal.Decimal
	BackFee               *decimal.Decimal
	SideFee               *decimal.Decimal
	Currency              *string
	IsActive              *bool
	Priority              *int
}

// Patch applies the patch atomically: on a validation error nothing changes
func (p *PricingPolicy) Patch(patch PolicyPatch) error {
	name := p.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return shared.NewDomainError("INVALID_NAME", "Policy name cannot be empty")
		}
	}
	fees := p.PolicyFees
	setFee(&fees.BaseFee, patch.BaseFee)
	setFee(&fees.ImageCustomizationFee, patch.ImageCustomizationFee)
	setFee(&fees.TextsCustomizationFee, patch.TextsCustomizationFee)
	setFee(&fees.FrontFee, patch.FrontFee)
	setFee(&fees.BackFee, patch.BackFee)
	setFee(&fees.SideFee, patch.SideFee)
	if err := fees.validate(); err != nil {
		return err
	}

	p.Name = name
	p.PolicyFees = fees
	if patch.Currency != nil && *patch.Currency != "" {
		p.Currency = strings.ToUpper(*patch.Currency)
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.Priority != nil {
		p.Priority = *patch.Priority
	}
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPricingPolicyChangedEvent(p, EventTypePricingPolicyUpdated))
	return nil
}

func setFee(dst *decimal.Decimal, v *decimal.Decimal) {
	if v != nil {
		*dst = *v
	}
}

// SelectGlobalPolicy picks the authoritative policy: the active one with the
// highest priority, most recently updated on ties.
func SelectGlobalPolicy(policies []PricingPolicy) (*PricingPolicy, error) {
	var best *PricingPolicy
	for i := range policies {
		p := &policies[i]
		if !p.IsActive {
			continue
		}
		if best == nil || p.Priority > best.Priority ||
			(p.Priority == best.Priority && p.UpdatedAt.After(best.UpdatedAt)) {
			best = p
		}
	}
	if best == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No active pricing policy")
	}
	return best, nil
}
