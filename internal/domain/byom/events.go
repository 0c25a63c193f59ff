package byom

import (
	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeDesign        = "Design"
	AggregateTypePricingPolicy = "PricingPolicy"
)

// Event type constants
const (
	EventTypeDesignCreated        = "DesignCreated"
	EventTypeDesignSubmitted      = "DesignSubmitted"
	EventTypeDesignApproved       = "DesignApproved"
	EventTypeDesignRejected       = "DesignRejected"
	EventTypePricingPolicyCreated = "PricingPolicyCreated"
	EventTypePricingPolicyUpdated = "PricingPolicyUpdated"
)

// DesignCreatedEvent is raised when a customer saves a new design
type DesignCreatedEvent struct {
	shared.BaseDomainEvent
	DesignID  uuid.UUID       `json:"design_id"`
	MerchType MerchandiseType `json:"merch_type"`
}

func NewDesignCreatedEvent(d *Design) *DesignCreatedEvent {
	return &DesignCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDesignCreated, AggregateTypeDesign, d.ID, d.OwnerID),
		DesignID:        d.ID,
		MerchType:       d.Configuration.MerchType,
	}
}

// DesignSubmittedEvent is raised when a design enters review
type DesignSubmittedEvent struct {
	shared.BaseDomainEvent
	DesignID   uuid.UUID       `json:"design_id"`
	OwnerEmail string          `json:"owner_email"`
	Total      decimal.Decimal `json:"total"`
}

func NewDesignSubmittedEvent(d *Design) *DesignSubmittedEvent {
	total := decimal.Zero
	if d.PricingBreakdown != nil {
		total = d.PricingBreakdown.Total
	}
	return &DesignSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDesignSubmitted, AggregateTypeDesign, d.ID, d.OwnerID),
		DesignID:        d.ID,
		OwnerEmail:      d.OwnerEmail,
		Total:           total,
	}
}

// DesignApprovedEvent is raised when an admin approves a design
type DesignApprovedEvent struct {
	shared.BaseDomainEvent
	DesignID   uuid.UUID `json:"design_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OwnerEmail string    `json:"owner_email"`
}

func NewDesignApprovedEvent(d *Design) *DesignApprovedEvent {
	return &DesignApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDesignApproved, AggregateTypeDesign, d.ID, reviewerOf(d)),
		DesignID:        d.ID,
		OwnerID:         d.OwnerID,
		OwnerEmail:      d.OwnerEmail,
	}
}

// DesignRejectedEvent is raised when an admin rejects a design
type DesignRejectedEvent struct {
	shared.BaseDomainEvent
	DesignID   uuid.UUID `json:"design_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OwnerEmail string    `json:"owner_email"`
	Reason     string    `json:"reason,omitempty"`
}

func NewDesignRejectedEvent(d *Design) *DesignRejectedEvent {
	return &DesignRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDesignRejected, AggregateTypeDesign, d.ID, reviewerOf(d)),
		DesignID:        d.ID,
		OwnerID:         d.OwnerID,
		OwnerEmail:      d.OwnerEmail,
		Reason:          d.RejectionReason,
	}
}

func reviewerOf(d *Design) uuid.UUID {
	if d.ReviewedBy == nil {
		return uuid.Nil
	}
	return *d.ReviewedBy
}

// PricingPolicyChangedEvent is raised when a policy is created or patched
type PricingPolicyChangedEvent struct {
	shared.BaseDomainEvent
	PolicyID uuid.UUID `json:"policy_id"`
	IsActive bool      `json:"is_active"`
	Priority int       `json:"priority"`
}

func NewPricingPolicyChangedEvent(p *PricingPolicy, eventType string) *PricingPolicyChangedEvent {
	return &PricingPolicyChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePricingPolicy, p.ID, uuid.Nil),
		PolicyID:        p.ID,
		IsActive:        p.IsActive,
		Priority:        p.Priority,
	}
}
