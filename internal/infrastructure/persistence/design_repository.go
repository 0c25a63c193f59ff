package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDesignRepository implements byom.DesignRepository using GORM
type GormDesignRepository struct {
	db *gorm.DB
}

// NewGormDesignRepository creates a new GormDesignRepository
func NewGormDesignRepository(db *gorm.DB) *GormDesignRepository {
	return &GormDesignRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormDesignRepository) WithTx(tx *gorm.DB) *GormDesignRepository {
	return &GormDesignRepository{db: tx}
}

// FindByID finds a design by its ID
func (r *GormDesignRepository) FindByID(ctx context.Context, id uuid.UUID) (*byom.Design, error) {
	var model models.DesignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists designs matching the filter
func (r *GormDesignRepository) FindAll(ctx context.Context, filter byom.DesignFilter) ([]byom.Design, error) {
	var designModels []models.DesignModel

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DesignModel{}), filter)
	query = r.applyPagination(query, filter.Filter)

	if err := query.Find(&designModels).Error; err != nil {
		return nil, err
	}

	designs := make([]byom.Design, len(designModels))
	for i, model := range designModels {
		designs[i] = *model.ToDomain()
	}
	return designs, nil
}

// Count counts designs matching the filter
func (r *GormDesignRepository) Count(ctx context.Context, filter byom.DesignFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DesignModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or fully replaces a design
func (r *GormDesignRepository) Save(ctx context.Context, design *byom.Design) error {
	model := models.DesignModelFromDomain(design)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a design with optimistic locking (version check)
func (r *GormDesignRepository) SaveWithLock(ctx context.Context, design *byom.Design) error {
	model := models.DesignModelFromDomain(design)
	result := r.db.WithContext(ctx).
		Model(&models.DesignModel{}).
		Where("id = ? AND version = ?", design.ID, design.Version-1).
		Updates(map[string]any{
			"name":              model.Name,
			"merch_type":        model.MerchType,
			"status":            model.Status,
			"rejection_reason":  model.RejectionReason,
			"configuration":     model.ConfigurationJSON,
			"pricing_breakdown": model.BreakdownJSON,
			"files":             model.FilesJSON,
			"submitted_at":      model.SubmittedAt,
			"reviewed_at":       model.ReviewedAt,
			"reviewed_by":       model.ReviewedBy,
			"version":           model.Version,
			"updated_at":        model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.DesignModel{}).Where("id = ?", design.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainError("CONCURRENCY_CONFLICT", "The design was modified by another request")
	}
	return nil
}

func (r *GormDesignRepository) applyFilter(query *gorm.DB, filter byom.DesignFilter) *gorm.DB {
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MerchType != "" {
		query = query.Where("merch_type = ?", filter.MerchType)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR owner_email ILIKE ?", like, like)
	}
	return query
}

func (r *GormDesignRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = query.Order(designOrder(filter))

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}

var _ byom.DesignRepository = (*GormDesignRepository)(nil)
