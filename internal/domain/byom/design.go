package byom

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/shared"
)

// DesignStatus is the approval state of a design
type DesignStatus string

const (
	DesignStatusDraft           DesignStatus = "draft"
	DesignStatusPendingApproval DesignStatus = "pending_approval"
	DesignStatusApproved        DesignStatus = "approved"
	DesignStatusRejected        DesignStatus = "rejected"
)

// IsValid checks if the status is known
func (s DesignStatus) IsValid() bool {
	switch s {
	case DesignStatusDraft, DesignStatusPendingApproval, DesignStatusApproved, DesignStatusRejected:
		return true
	}
	return false
}

func (s DesignStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target
func (s DesignStatus) CanTransitionTo(target DesignStatus) bool {
	switch s {
	case DesignStatusDraft, DesignStatusRejected:
		return target == DesignStatusPendingApproval
	case DesignStatusPendingApproval:
		return target == DesignStatusApproved || target == DesignStatusRejected
	case DesignStatusApproved:
		return false
	}
	return false
}

// IsEditable reports whether the configuration may still change
func (s DesignStatus) IsEditable() bool {
	return s == DesignStatusDraft || s == DesignStatusRejected
}

// DesignFile is an uploaded graphic attached to a design
type DesignFile struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	StorageKey   string    `json:"storage_key"`
	URL          string    `json:"url"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
}

// Design is a customer customization going through admin approval
type Design struct {
	shared.BaseAggregateRoot
	OwnerID          uuid.UUID
	OwnerEmail       string
	Name             string
	Configuration    Configuration
	Status           DesignStatus
	RejectionReason  string
	PricingBreakdown *PriceBreakdown
	Files            []DesignFile
	SubmittedAt      *time.Time
	ReviewedAt       *time.Time
	ReviewedBy       *uuid.UUID
}

// NewDesign creates a draft design owned by ownerID
func NewDesign(ownerID uuid.UUID, ownerEmail, name string, cfg Configuration) (*Design, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s %s", cfg.ColorName, cfg.MerchType)
	}
	d := &Design{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		OwnerEmail:        ownerEmail,
		Name:              name,
		Configuration:     cfg.Clone(),
		Status:            DesignStatusDraft,
		Files:             []DesignFile{},
	}
	d.AddDomainEvent(NewDesignCreatedEvent(d))
	return d, nil
}

// IsOwnedBy reports whether userID owns the design
func (d *Design) IsOwnedBy(userID uuid.UUID) bool {
	return d.OwnerID == userID
}

// AttachFile adds an uploaded graphic while the design is editable
func (d *Design) AttachFile(f DesignFile) error {
	if !d.Status.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot attach files to design in %s status", d.Status))
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	d.Files = append(d.Files, f)
	d.Touch()
	return nil
}

// UpdateConfiguration replaces the configuration of an editable design
func (d *Design) UpdateConfiguration(cfg Configuration) error {
	if !d.Status.IsEditable() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit design in %s status", d.Status))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.Configuration = cfg.Clone()
	d.Touch()
	d.IncrementVersion()
	return nil
}

// ErrNothingToSubmit rejects a submission whose zones are all empty
var ErrNothingToSubmit = shared.NewDomainError("VALIDATION_ERROR", "Add at least one text or image before submitting")

// CanSubmit checks the design may enter review, without changing it
func (d *Design) CanSubmit() error {
	if d.Status == DesignStatusPendingApproval || d.Status == DesignStatusApproved {
		return shared.NewDomainError("ALREADY_SUBMITTED", fmt.Sprintf("Design is already %s", d.Status))
	}
	if !d.Configuration.HasContent() {
		return ErrNothingToSubmit
	}
	if !d.Status.CanTransitionTo(DesignStatusPendingApproval) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit design in %s status", d.Status))
	}
	return nil
}

// Submit sends the design to review with the price quoted at submission.
// A resubmitted rejected design loses its previous rejection reason.
func (d *Design) Submit(breakdown PriceBreakdown) error {
	if err := d.CanSubmit(); err != nil {
		return err
	}
	if err := breakdown.Verify(); err != nil {
		return err
	}
	now := time.Now()
	d.Status = DesignStatusPendingApproval
	d.RejectionReason = ""
	d.PricingBreakdown = &breakdown
	d.SubmittedAt = &now
	d.ReviewedAt = nil
	d.ReviewedBy = nil
	d.UpdatedAt = now
	d.IncrementVersion()
	d.AddDomainEvent(NewDesignSubmittedEvent(d))
	return nil
}

// Approve accepts a pending design, fixing the purchasable price
func (d *Design) Approve(reviewerID uuid.UUID, breakdown PriceBreakdown) error {
	if !d.Status.CanTransitionTo(DesignStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve design in %s status", d.Status))
	}
	if !breakdown.IsPurchasable() {
		return shared.NewDomainError("INVALID_BREAKDOWN", "Approval requires a policy-based price")
	}
	if err := breakdown.Verify(); err != nil {
		return err
	}
	d.review(reviewerID, DesignStatusApproved)
	d.PricingBreakdown = &breakdown
	d.AddDomainEvent(NewDesignApprovedEvent(d))
	return nil
}

// Reject refuses a pending design with an optional reason
func (d *Design) Reject(reviewerID uuid.UUID, reason string) error {
	if !d.Status.CanTransitionTo(DesignStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject design in %s status", d.Status))
	}
	d.review(reviewerID, DesignStatusRejected)
	d.RejectionReason = strings.TrimSpace(reason)
	d.AddDomainEvent(NewDesignRejectedEvent(d))
	return nil
}

func (d *Design) review(reviewerID uuid.UUID, status DesignStatus) {
	now := time.Now()
	d.Status = status
	d.ReviewedAt = &now
	d.ReviewedBy = &reviewerID
	d.UpdatedAt = now
	d.IncrementVersion()
}

// ToCartLine materializes an approved design into a cart line priced at
// the approved policy total
func (d *Design) ToCartLine(quantity int) (*CartLine, error) {
	if d.Status != DesignStatusApproved {
		return nil, shared.NewDomainError("INVALID_STATE", "Only approved designs can be added to the cart")
	}
	if d.PricingBreakdown == nil || !d.PricingBreakdown.IsPurchasable() {
		return nil, shared.NewDomainError("INVALID_BREAKDOWN", "Design has no purchasable price")
	}
	return NewCartLine(d, quantity, d.PricingBreakdown.Total, d.PricingBreakdown.Currency)
}
