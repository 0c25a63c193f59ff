package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormDesignStatusProvider counts designs per status straight from the
// designs table
type GormDesignStatusProvider struct {
	db *gorm.DB
}

// NewGormDesignStatusProvider creates a new GormDesignStatusProvider
func NewGormDesignStatusProvider(db *gorm.DB) *GormDesignStatusProvider {
	return &GormDesignStatusProvider{db: db}
}

// CountByStatus returns the number of designs in each status
func (p *GormDesignStatusProvider) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string `gorm:"column:status"`
		Total  int64  `gorm:"column:total"`
	}

	var rows []row
	err := p.db.WithContext(ctx).
		Table("designs").
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
