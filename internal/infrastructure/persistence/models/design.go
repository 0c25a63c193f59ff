package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("byom.models")

// DesignModel is the persistence model for the Design aggregate root
type DesignModel struct {
	AggregateModel
	OwnerID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	OwnerEmail        string     `gorm:"type:varchar(255)"`
	Name              string     `gorm:"type:varchar(200);not null"`
	MerchType         string     `gorm:"type:varchar(20);not null;index"`
	Status            string     `gorm:"type:varchar(20);not null;index"`
	RejectionReason   string     `gorm:"type:text"`
	ConfigurationJSON string     `gorm:"column:configuration;type:jsonb;not null"`
	BreakdownJSON     *string    `gorm:"column:pricing_breakdown;type:jsonb"`
	FilesJSON         string     `gorm:"column:files;type:jsonb;default:'[]'"`
	SubmittedAt       *time.Time `gorm:"index"`
	ReviewedAt        *time.Time
	ReviewedBy        *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DesignModel) TableName() string {
	return "designs"
}

// ToDomain converts the persistence model to a domain Design
func (m *DesignModel) ToDomain() *byom.Design {
	d := &byom.Design{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OwnerID:           m.OwnerID,
		OwnerEmail:        m.OwnerEmail,
		Name:              m.Name,
		Configuration:     byom.ParseConfiguration(m.ConfigurationJSON),
		Status:            byom.DesignStatus(m.Status),
		RejectionReason:   m.RejectionReason,
		Files:             []byom.DesignFile{},
		SubmittedAt:       m.SubmittedAt,
		ReviewedAt:        m.ReviewedAt,
		ReviewedBy:        m.ReviewedBy,
	}

	if m.BreakdownJSON != nil && *m.BreakdownJSON != "" {
		var b byom.PriceBreakdown
		if err := json.Unmarshal([]byte(*m.BreakdownJSON), &b); err != nil {
			modelLogger.Warn("failed to parse pricing_breakdown JSON",
				zap.String("design_id", m.ID.String()),
				zap.Error(err))
		} else {
			d.PricingBreakdown = &b
		}
	}

	if m.FilesJSON != "" && m.FilesJSON != "[]" {
		var files []byom.DesignFile
		if err := json.Unmarshal([]byte(m.FilesJSON), &files); err != nil {
			modelLogger.Warn("failed to parse files JSON",
				zap.String("design_id", m.ID.String()),
				zap.Error(err))
		} else {
			d.Files = files
		}
	}

	return d
}

// FromDomain populates the persistence model from a domain Design
func (m *DesignModel) FromDomain(d *byom.Design) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.OwnerID = d.OwnerID
	m.OwnerEmail = d.OwnerEmail
	m.Name = d.Name
	m.MerchType = d.Configuration.MerchType.String()
	m.Status = d.Status.String()
	m.RejectionReason = d.RejectionReason
	m.SubmittedAt = d.SubmittedAt
	m.ReviewedAt = d.ReviewedAt
	m.ReviewedBy = d.ReviewedBy

	if b, err := byom.MarshalConfiguration(d.Configuration); err == nil {
		m.ConfigurationJSON = string(b)
	} else {
		m.ConfigurationJSON = "{}"
	}

	m.BreakdownJSON = nil
	if d.PricingBreakdown != nil {
		if b, err := json.Marshal(d.PricingBreakdown); err == nil {
			s := string(b)
			m.BreakdownJSON = &s
		}
	}

	m.FilesJSON = "[]"
	if len(d.Files) > 0 {
		if b, err := json.Marshal(d.Files); err == nil {
			m.FilesJSON = string(b)
		}
	}
}

// DesignModelFromDomain creates a new persistence model from a domain Design
func DesignModelFromDomain(d *byom.Design) *DesignModel {
	m := &DesignModel{}
	m.FromDomain(d)
	return m
}

// CartLineModel is the persistence model for cart lines
type CartLineModel struct {
	BaseModel
	DesignID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	MerchType string          `gorm:"type:varchar(20);not null"`
	Size      string          `gorm:"type:varchar(8);not null"`
	Color     string          `gorm:"type:varchar(32)"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency  string          `gorm:"type:varchar(3);not null"`
}

// TableName returns the table name for GORM
func (CartLineModel) TableName() string {
	return "cart_lines"
}

// ToDomain converts the persistence model to a domain CartLine
func (m *CartLineModel) ToDomain() byom.CartLine {
	return byom.CartLine{
		ID:        m.ID,
		DesignID:  m.DesignID,
		OwnerID:   m.OwnerID,
		MerchType: byom.MerchandiseType(m.MerchType),
		Size:      byom.Size(m.Size),
		Color:     m.Color,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		Total:     m.Total,
		Currency:  m.Currency,
		CreatedAt: m.CreatedAt,
	}
}

// CartLineModelFromDomain creates a new persistence model from a domain CartLine
func CartLineModelFromDomain(l *byom.CartLine) *CartLineModel {
	return &CartLineModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.CreatedAt,
		},
		DesignID:  l.DesignID,
		OwnerID:   l.OwnerID,
		MerchType: l.MerchType.String(),
		Size:      l.Size.String(),
		Color:     l.Color,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Total:     l.Total,
		Currency:  l.Currency,
	}
}
