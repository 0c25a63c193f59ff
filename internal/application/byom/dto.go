package byom

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID    uuid.UUID
	Email string
	Admin bool
}

// OwnerKey is the draft owner key of the actor
func (a Actor) OwnerKey() string {
	return a.ID.String()
}

// CanAccess reports whether the actor may read a design owned by ownerID
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.Admin || a.ID == ownerID
}

// =============================================================================
// Editor session DTOs
// =============================================================================

// OpenSessionRequest opens an editor session for one merchandise type.
// Size and color apply only when no draft exists.
type OpenSessionRequest struct {
	MerchType string `json:"merch_type" binding:"required,merch_type"`
	Size      string `json:"size" binding:"omitempty,oneof=S M L XL XXL"`
	Color     string `json:"color" binding:"omitempty,max=32"`
	ColorName string `json:"color_name" binding:"omitempty,max=64"`
}

// AddTextRequest adds a text element to a zone
type AddTextRequest struct {
	Zone          string   `json:"zone" binding:"required,zone"`
	Content       string   `json:"content" binding:"required,max=200"`
	FontSize      int      `json:"font_size" binding:"omitempty,min=6,max=200"`
	FontFamily    string   `json:"font_family" binding:"omitempty,max=64"`
	Bold          bool     `json:"bold"`
	Italic        bool     `json:"italic"`
	Underline     bool     `json:"underline"`
	Strikethrough bool     `json:"strikethrough"`
	Alignment     string   `json:"alignment" binding:"omitempty,oneof=left center right"`
	Color         string   `json:"color" binding:"omitempty,max=32"`
	LetterSpacing float64  `json:"letter_spacing"`
	LineHeight    float64  `json:"line_height" binding:"omitempty,min=0"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
}

// ToInput converts the request to a placement input
func (r AddTextRequest) ToInput() byom.TextInput {
	return byom.TextInput{
		Content:       r.Content,
		FontSize:      r.FontSize,
		FontFamily:    r.FontFamily,
		Bold:          r.Bold,
		Italic:        r.Italic,
		Underline:     r.Underline,
		Strikethrough: r.Strikethrough,
		Alignment:     r.Alignment,
		Color:         r.Color,
		LetterSpacing: r.LetterSpacing,
		LineHeight:    r.LineHeight,
		X:             r.X,
		Y:             r.Y,
	}
}

// AddAssetRequest places a catalog or uploaded graphic on a zone
type AddAssetRequest struct {
	Zone    string `json:"zone" binding:"required,zone"`
	AssetID string `json:"asset_id" binding:"required,max=128"`
}

// ScaleAssetRequest changes an asset's scale by Delta
type ScaleAssetRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

// PointDTO is a pointer position in canvas pixels
type PointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CanvasDTO is the bounding box of the design surface in pixels
type CanvasDTO struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width" binding:"required,gt=0"`
	Height float64 `json:"height" binding:"required,gt=0"`
}

// BeginDragRequest starts dragging one element
type BeginDragRequest struct {
	Zone      string    `json:"zone" binding:"required,zone"`
	Kind      string    `json:"kind" binding:"required,oneof=text asset"`
	ElementID string    `json:"element_id" binding:"required"`
	Pointer   PointDTO  `json:"pointer"`
	Canvas    CanvasDTO `json:"canvas" binding:"required"`
}

// UpdateDragRequest moves the dragged element to follow the pointer
type UpdateDragRequest struct {
	Pointer PointDTO `json:"pointer"`
}

// PositionResponse is an element position in canvas percent
type PositionResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScaleResponse is an asset's scale after a change
type ScaleResponse struct {
	Scale float64 `json:"scale"`
}

// DragResponse describes the drag in progress
type DragResponse struct {
	Zone      string `json:"zone"`
	Kind      string `json:"kind"`
	ElementID string `json:"element_id"`
}

// SessionResponse is the state of an editor session
type SessionResponse struct {
	ID            uuid.UUID                   `json:"id"`
	MerchType     string                      `json:"merch_type"`
	Configuration byom.TransportConfiguration `json:"configuration"`
	HistoryIndex  int                         `json:"history_index"`
	HistoryLength int                         `json:"history_length"`
	CanUndo       bool                        `json:"can_undo"`
	Drag          *DragResponse               `json:"drag,omitempty"`
	// Restored is true when the session started from a saved draft
	Restored bool      `json:"restored"`
	LastSeen time.Time `json:"last_seen"`
}

// =============================================================================
// Draft DTOs
// =============================================================================

// DraftResponse is the saved work-in-progress of one merchandise type
type DraftResponse struct {
	MerchType      string                      `json:"merch_type"`
	Configuration  byom.TransportConfiguration `json:"configuration"`
	SelectedAssets []string                    `json:"selected_assets"`
	Restored       bool                        `json:"restored"`
	UpdatedAt      *time.Time                  `json:"updated_at,omitempty"`
}

// =============================================================================
// Pricing DTOs
// =============================================================================

// PriceLineResponse is one line of a breakdown
type PriceLineResponse struct {
	Code      string          `json:"code"`
	Label     string          `json:"label"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

// BreakdownResponse is a priced configuration
type BreakdownResponse struct {
	Strategy       string              `json:"strategy"`
	Estimate       bool                `json:"estimate"`
	Currency       string              `json:"currency"`
	Lines          []PriceLineResponse `json:"lines"`
	Total          decimal.Decimal     `json:"total"`
	FormattedTotal string              `json:"formatted_total"`
}

// QuoteRequest prices a configuration in any accepted transport shape
type QuoteRequest struct {
	Configuration json.RawMessage `json:"configuration" binding:"required"`
}

// QuoteResponse carries the purchasable price and the display estimate.
// Canonical is absent when no pricing policy is active.
type QuoteResponse struct {
	Canonical *BreakdownResponse `json:"canonical"`
	Estimate  BreakdownResponse  `json:"estimate"`
}

// ReviewBreakdownResponse compares the price stored at submission with the
// price under the current policy
type ReviewBreakdownResponse struct {
	DesignID  uuid.UUID          `json:"design_id"`
	PolicyID  uuid.UUID          `json:"policy_id"`
	Current   BreakdownResponse  `json:"current"`
	Submitted *BreakdownResponse `json:"submitted,omitempty"`
	Changed   bool               `json:"changed"`
}

// PolicyResponse is a pricing policy
type PolicyResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	BaseFee               decimal.Decimal `json:"base_fee"`
	ImageCustomizationFee decimal.Decimal `json:"image_customization_fee"`
	TextsCustomizationFee decimal.Decimal `json:"texts_customization_fee"`
	FrontFee              decimal.Decimal `json:"front_fee"`
	BackFee               decimal.Decimal `json:"back_fee"`
	SideFee               decimal.Decimal `json:"side_fee"`
	Currency              string          `json:"currency"`
	IsActive              bool            `json:"is_active"`
	Priority              int             `json:"priority"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// CreatePolicyRequest creates a pricing policy
type CreatePolicyRequest struct {
	Name                  string          `json:"name" binding:"required,min=1,max=100"`
	BaseFee               decimal.Decimal `json:"base_fee"`
	ImageCustomizationFee decimal.Decimal `json:"image_customization_fee"`
	TextsCustomizationFee decimal.Decimal `json:"texts_customization_fee"`
	FrontFee              decimal.Decimal `json:"front_fee"`
	BackFee               decimal.Decimal `json:"back_fee"`
	SideFee               decimal.Decimal `json:"side_fee"`
	Currency              string          `json:"currency" binding:"omitempty,len=3"`
	Priority              int             `json:"priority"`
}

// Fees returns the requested fee schedule
func (r CreatePolicyRequest) Fees() byom.PolicyFees {
	return byom.PolicyFees{
		BaseFee:               r.BaseFee,
		ImageCustomizationFee: r.ImageCustomizationFee,
		TextsCustomizationFee: r.TextsCustomizationFee,
		FrontFee:              r.FrontFee,
		BackFee:               r.BackFee,
		SideFee:               r.SideFee,
	}
}

// PatchPolicyRequest changes the given fields of a policy
type PatchPolicyRequest struct {
	Name                  *string          `json:"name" binding:"omitempty,min=1,max=100"`
	BaseFee               *decimal.Decimal `json:"base_fee"`
	ImageCustomizationFee *decimal.Decimal `json:"image_customization_fee"`
	TextsCustomizationFee *decimal.Decimal `json:"texts_customization_fee"`
	FrontFee              *decimal.Decimal `json:"front_fee"`
	BackFee               *decimal.Decimal `json:"back_fee"`
	SideFee               *decimal.Decimal `json:"side_fee"`
	Currency              *string          `json:"currency" binding:"omitempty,len=3"`
	IsActive              *bool            `json:"is_active"`
	Priority              *int             `json:"priority"`
}

// ToPatch converts the request to a domain patch
func (r PatchPolicyRequest) ToPatch() byom.PolicyPatch {
	return byom.PolicyPatch{
		Name:                  r.Name,
		BaseFee:               r.BaseFee,
		ImageCustomizationFee: r.ImageCustomizationFee,
		TextsCustomizationFee: r.TextsCustomizationFee,
		FrontFee:              r.FrontFee,
		BackFee:               r.BackFee,
		SideFee:               r.SideFee,
		Currency:              r.Currency,
		IsActive:              r.IsActive,
		Priority:              r.Priority,
	}
}

// =============================================================================
// Design DTOs
// =============================================================================

// CreateDesignRequest saves a configuration as a draft design
type CreateDesignRequest struct {
	Name          string          `json:"name" form:"name" binding:"max=120"`
	Configuration json.RawMessage `json:"configuration" binding:"required"`
}

// RejectDesignRequest rejects a design with an optional reason
type RejectDesignRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// AddToCartRequest adds quantity units of an approved design to the cart
type AddToCartRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=1000"`
}

// ListDesignsRequest filters design listings
type ListDesignsRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search    string `form:"search" binding:"max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=draft pending_approval approved rejected"`
	MerchType string `form:"merch_type" binding:"omitempty,merch_type"`
}

// ToFilter converts the request to a repository filter
func (r ListDesignsRequest) ToFilter() byom.DesignFilter {
	f := shared.DefaultFilter()
	if r.Page > 0 {
		f.Page = r.Page
	}
	if r.PageSize > 0 {
		f.PageSize = r.PageSize
	}
	if r.OrderBy != "" {
		f.OrderBy = r.OrderBy
	}
	if r.OrderDir != "" {
		f.OrderDir = r.OrderDir
	}
	f.Search = r.Search
	return byom.DesignFilter{
		Filter:    f,
		Status:    byom.DesignStatus(r.Status),
		MerchType: byom.MerchandiseType(r.MerchType),
	}
}

// DesignFileResponse is an uploaded graphic of a design
type DesignFileResponse struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

// DesignResponse is a design
type DesignResponse struct {
	ID              uuid.UUID                   `json:"id"`
	OwnerID         uuid.UUID                   `json:"owner_id"`
	OwnerEmail      string                      `json:"owner_email"`
	Name            string                      `json:"name"`
	Status          string                      `json:"status"`
	Configuration   byom.TransportConfiguration `json:"configuration"`
	RejectionReason string                      `json:"rejection_reason,omitempty"`
	Breakdown       *BreakdownResponse          `json:"pricing_breakdown,omitempty"`
	Files           []DesignFileResponse        `json:"files"`
	SubmittedAt     *time.Time                  `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time                  `json:"reviewed_at,omitempty"`
	ReviewedBy      *uuid.UUID                  `json:"reviewed_by,omitempty"`
	Version         int                         `json:"version"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// CartLineResponse is an approved design in its owner's cart
type CartLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	DesignID       uuid.UUID       `json:"design_id"`
	MerchType      string          `json:"merch_type"`
	Size           string          `json:"size"`
	Color          string          `json:"color"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Total          decimal.Decimal `json:"total"`
	Currency       string          `json:"currency"`
	FormattedTotal string          `json:"formatted_total"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DesignWithOrdersResponse is a design with the cart lines created from it
type DesignWithOrdersResponse struct {
	DesignResponse
	CartLines []CartLineResponse `json:"cart_lines"`
}

// DesignExportRow is one row of the admin design export
type DesignExportRow struct {
	ID          string
	Name        string
	OwnerEmail  string
	Status      string
	MerchType   string
	Size        string
	Color       string
	Texts       int
	Assets      int
	Zones       string
	Total       decimal.Decimal
	Currency    string
	Ordered     int
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	CreatedAt   time.Time
}

// =============================================================================
// Mapping
// =============================================================================

func toBreakdownResponse(b byom.PriceBreakdown, f *PriceFormatter) BreakdownResponse {
	lines := make([]PriceLineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, PriceLineResponse{
			Code:      l.Code,
			Label:     l.Label,
			Amount:    l.Amount,
			Formatted: f.Format(l.Amount, b.Currency),
		})
	}
	return BreakdownResponse{
		Strategy:       b.Strategy,
		Estimate:       b.Estimate,
		Currency:       b.Currency,
		Lines:          lines,
		Total:          b.Total,
		FormattedTotal: f.Format(b.Total, b.Currency),
	}
}

func toPolicyResponse(p *byom.PricingPolicy) *PolicyResponse {
	return &PolicyResponse{
		ID:                    p.ID,
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
		Version:               p.Version,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func toDesignResponse(d *byom.Design, f *PriceFormatter, storage ObjectStorage) DesignResponse {
	files := make([]DesignFileResponse, 0, len(d.Files))
	for _, file := range d.Files {
		r := DesignFileResponse{
			ID:          file.ID,
			FileName:    file.FileName,
			ContentType: file.ContentType,
			Size:        file.Size,
			URL:         file.URL,
		}
		if file.ThumbnailKey != "" && storage != nil {
			r.ThumbnailURL = storage.PublicURL(file.ThumbnailKey)
		}
		files = append(files, r)
	}
	resp := DesignResponse{
		ID:              d.ID,
		OwnerID:         d.OwnerID,
		OwnerEmail:      d.OwnerEmail,
		Name:            d.Name,
		Status:          d.Status.String(),
		Configuration:   byom.ToTransport(d.Configuration),
		RejectionReason: d.RejectionReason,
		Files:           files,
		SubmittedAt:     d.SubmittedAt,
		ReviewedAt:      d.ReviewedAt,
		ReviewedBy:      d.ReviewedBy,
		Version:         d.Version,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.PricingBreakdown != nil {
		b := toBreakdownResponse(*d.PricingBreakdown, f)
		resp.Breakdown = &b
	}
	return resp
}

func toCartLineResponse(l *byom.CartLine, f *PriceFormatter) CartLineResponse {
	return CartLineResponse{
		ID:             l.ID,
		DesignID:       l.DesignID,
		MerchType:      l.MerchType.String(),
		Size:           l.Size.String(),
		Color:          l.Color,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		Total:          l.Total,
		Currency:       l.Currency,
		FormattedTotal: f.Format(l.Total, l.Currency),
		CreatedAt:      l.CreatedAt,
	}
}
