package byom

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/shared"
)

// DesignFilter narrows design listings
type DesignFilter struct {
	shared.Filter
	OwnerID   *uuid.UUID
	Status    DesignStatus
	MerchType MerchandiseType
}

// DesignRepository persists designs
type DesignRepository interface {
	// FindByID finds a design by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Design, error)

	// FindAll lists designs matching the filter, one page at a time
	FindAll(ctx context.Context, filter DesignFilter) ([]Design, error)

	// Count counts designs matching the filter, ignoring pagination
	Count(ctx context.Context, filter DesignFilter) (int64, error)

	// Save creates or fully replaces a design
	Save(ctx context.Context, design *Design) error

	// SaveWithLock updates a design whose version was incremented once since
	// it was loaded. It fails with shared.ErrConcurrencyConflict when the
	// stored version moved on in the meantime.
	SaveWithLock(ctx context.Context, design *Design) error
}

// PricingPolicyRepository persists pricing policies. Policies are never deleted.
type PricingPolicyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PricingPolicy, error)
	FindAll(ctx context.Context) ([]PricingPolicy, error)
	// FindActive returns the global policy: active with the highest priority
	FindActive(ctx context.Context) (*PricingPolicy, error)
	Save(ctx context.Context, policy *PricingPolicy) error
}

// CartLineRepository persists cart lines created from approved designs
type CartLineRepository interface {
	Save(ctx context.Context, line *CartLine) error
	FindByDesignIDs(ctx context.Context, designIDs []uuid.UUID) ([]CartLine, error)
}

// DraftKey identifies one draft: a single slot per merchandise type per owner
type DraftKey struct {
	OwnerKey  string
	MerchType MerchandiseType
}

// Draft is the persisted work-in-progress of one merchandise type
type Draft struct {
	OwnerKey  string
	MerchType MerchandiseType
	// Payload is the transport JSON of the configuration
	Payload        []byte
	SelectedAssets []string
	UpdatedAt      time.Time
}

// Key returns the draft's storage key
func (d Draft) Key() DraftKey {
	return DraftKey{OwnerKey: d.OwnerKey, MerchType: d.MerchType}
}

// DraftRepository is the durable draft store. Load returns shared.ErrNotFound
// when nothing was saved for the key.
type DraftRepository interface {
	Load(ctx context.Context, key DraftKey) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Delete(ctx context.Context, key DraftKey) error
}
