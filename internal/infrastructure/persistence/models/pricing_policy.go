package models

import (
	"github.com/merch/byom/internal/domain/byom"
	"github.com/shopspring/decimal"
)

// PricingPolicyModel is the persistence model for the PricingPolicy aggregate root
type PricingPolicyModel struct {
	AggregateModel
	Name                  string          `gorm:"type:varchar(100);not null"`
	BaseFee               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ImageCustomizationFee decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TextsCustomizationFee decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FrontFee              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BackFee               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SideFee               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency              string          `gorm:"type:varchar(3);not null"`
	IsActive              bool            `gorm:"not null;default:true;index"`
	Priority              int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PricingPolicyModel) TableName() string {
	return "pricing_policies"
}

// ToDomain converts the persistence model to a domain PricingPolicy
func (m *PricingPolicyModel) ToDomain() *byom.PricingPolicy {
	return &byom.PricingPolicy{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		PolicyFees: byom.PolicyFees{
			BaseFee:               m.BaseFee,
			ImageCustomizationFee: m.ImageCustomizationFee,
			TextsCustomizationFee: m.TextsCustomizationFee,
			FrontFee:              m.FrontFee,
			BackFee:               m.BackFee,
			SideFee:               m.SideFee,
		},
		Currency: m.Currency,
		IsActive: m.IsActive,
		Priority: m.Priority,
	}
}

// PricingPolicyModelFromDomain creates a new persistence model from a domain PricingPolicy
func PricingPolicyModelFromDomain(p *byom.PricingPolicy) *PricingPolicyModel {
	m := &PricingPolicyModel{
		Name:                  p.Name,
		BaseFee:               p.BaseFee,
		ImageCustomizationFee: p.ImageCustomizationFee,
		TextsCustomizationFee: p.TextsCustomizationFee,
		FrontFee:              p.FrontFee,
		BackFee:               p.BackFee,
		SideFee:               p.SideFee,
		Currency:              p.Currency,
		IsActive:              p.IsActive,
		Priority:              p.Priority,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
