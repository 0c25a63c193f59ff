package byom

import (
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CartLine is an approved design placed in its owner's cart
type CartLine struct {
	ID        uuid.UUID
	DesignID  uuid.UUID
	OwnerID   uuid.UUID
	MerchType MerchandiseType
	Size      Size
	Color     string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// NewCartLine creates a line for quantity units of the design
func NewCartLine(d *Design, quantity int, unitPrice decimal.Decimal, currency string) (*CartLine, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &CartLine{
		ID:        uuid.New(),
		DesignID:  d.ID,
		OwnerID:   d.OwnerID,
		MerchType: d.Configuration.MerchType,
		Size:      d.Configuration.Size,
		Color:     d.Configuration.Color,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Currency:  currency,
		CreatedAt: time.Now(),
	}, nil
}
