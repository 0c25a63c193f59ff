package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartLineRepository implements byom.CartLineRepository using GORM
type GormCartLineRepository struct {
	db *gorm.DB
}

// NewGormCartLineRepository creates a new GormCartLineRepository
func NewGormCartLineRepository(db *gorm.DB) *GormCartLineRepository {
	return &GormCartLineRepository{db: db}
}

// Save inserts a cart line
func (r *GormCartLineRepository) Save(ctx context.Context, line *byom.CartLine) error {
	return r.db.WithContext(ctx).Create(models.CartLineModelFromDomain(line)).Error
}

// FindByDesignIDs returns the cart lines of the given designs, oldest first
func (r *GormCartLineRepository) FindByDesignIDs(ctx context.Context, designIDs []uuid.UUID) ([]byom.CartLine, error) {
	if len(designIDs) == 0 {
		return []byom.CartLine{}, nil
	}
	var lineModels []models.CartLineModel
	if err := r.db.WithContext(ctx).
		Where("design_id IN ?", designIDs).
		Order("created_at ASC").
		Find(&lineModels).Error; err != nil {
		return nil, err
	}

	lines := make([]byom.CartLine, len(lineModels))
	for i, model := range lineModels {
		lines[i] = model.ToDomain()
	}
	return lines, nil
}

var _ byom.CartLineRepository = (*GormCartLineRepository)(nil)
