package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDraftRepository implements byom.DraftRepository on SQLite or PostgreSQL
type GormDraftRepository struct {
	db *gorm.DB
}

// NewGormDraftRepository creates a new GormDraftRepository
func NewGormDraftRepository(db *gorm.DB) *GormDraftRepository {
	return &GormDraftRepository{db: db}
}

// AutoMigrateDrafts creates the draft table when it does not exist
func AutoMigrateDrafts(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.DraftModel{}); err != nil {
		return fmt.Errorf("failed to migrate draft table: %w", err)
	}
	return nil
}

// Load returns the draft stored under key
func (r *GormDraftRepository) Load(ctx context.Context, key byom.DraftKey) (*byom.Draft, error) {
	var model models.DraftModel
	err := r.db.WithContext(ctx).
		Where("owner_key = ? AND merch_type = ?", key.OwnerKey, key.MerchType.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the draft; the last write for a key wins
func (r *GormDraftRepository) Save(ctx context.Context, draft *byom.Draft) error {
	model := models.DraftModelFromDomain(draft)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}, {Name: "merch_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "selected_assets", "updated_at"}),
		}).
		Create(model).Error
}

// Delete removes the draft stored under key. Deleting a missing draft is not an error.
func (r *GormDraftRepository) Delete(ctx context.Context, key byom.DraftKey) error {
	return r.db.WithContext(ctx).
		Where("owner_key = ? AND merch_type = ?", key.OwnerKey, key.MerchType.String()).
		Delete(&models.DraftModel{}).Error
}

var _ byom.DraftRepository = (*GormDraftRepository)(nil)
