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

// GormPricingPolicyRepository implements byom.PricingPolicyRepository using GORM
type GormPricingPolicyRepository struct {
	db *gorm.DB
}

// NewGormPricingPolicyRepository creates a new GormPricingPolicyRepository
func NewGormPricingPolicyRepository(db *gorm.DB) *GormPricingPolicyRepository {
	return &GormPricingPolicyRepository{db: db}
}

// FindByID finds a policy by its ID
func (r *GormPricingPolicyRepository) FindByID(ctx context.Context, id uuid.UUID) (*byom.PricingPolicy, error) {
	var model models.PricingPolicyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists every policy, highest priority first
func (r *GormPricingPolicyRepository) FindAll(ctx context.Context) ([]byom.PricingPolicy, error) {
	var policyModels []models.PricingPolicyModel
	if err := r.db.WithContext(ctx).
		Order("priority DESC, updated_at DESC").
		Find(&policyModels).Error; err != nil {
		return nil, err
	}

	policies := make([]byom.PricingPolicy, len(policyModels))
	for i, model := range policyModels {
		policies[i] = *model.ToDomain()
	}
	return policies, nil
}

// FindActive returns the active policy with the highest priority, the most
// recently updated one on ties
func (r *GormPricingPolicyRepository) FindActive(ctx context.Context) (*byom.PricingPolicy, error) {
	var model models.PricingPolicyModel
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC, updated_at DESC").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a policy
func (r *GormPricingPolicyRepository) Save(ctx context.Context, policy *byom.PricingPolicy) error {
	model := models.PricingPolicyModelFromDomain(policy)
	return r.db.WithContext(ctx).Save(model).Error
}

var _ byom.PricingPolicyRepository = (*GormPricingPolicyRepository)(nil)
