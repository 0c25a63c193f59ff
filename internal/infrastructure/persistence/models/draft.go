package models

import (
	"encoding/json"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"go.uber.org/zap"
)

// DraftModel stores one draft per owner and merchandise type
type DraftModel struct {
	OwnerKey           string    `gorm:"primaryKey;type:varchar(191)"`
	MerchType          string    `gorm:"primaryKey;type:varchar(20)"`
	Payload            string    `gorm:"type:text;not null"`
	SelectedAssetsJSON string    `gorm:"column:selected_assets;type:text;not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DraftModel) TableName() string {
	return "byom_drafts"
}

// ToDomain converts the persistence model to a domain Draft
func (m *DraftModel) ToDomain() *byom.Draft {
	d := &byom.Draft{
		OwnerKey:       m.OwnerKey,
		MerchType:      byom.MerchandiseType(m.MerchType),
		Payload:        []byte(m.Payload),
		SelectedAssets: []string{},
		UpdatedAt:      m.UpdatedAt,
	}
	if m.SelectedAssetsJSON != "" && m.SelectedAssetsJSON != "[]" {
		var assets []string
		if err := json.Unmarshal([]byte(m.SelectedAssetsJSON), &assets); err != nil {
			modelLogger.Warn("failed to parse selected_assets JSON",
				zap.String("owner_key", m.OwnerKey),
				zap.String("merch_type", m.MerchType),
				zap.Error(err))
		} else {
			d.SelectedAssets = assets
		}
	}
	return d
}

// DraftModelFromDomain creates a new persistence model from a domain Draft
func DraftModelFromDomain(d *byom.Draft) *DraftModel {
	m := &DraftModel{
		OwnerKey:           d.OwnerKey,
		MerchType:          d.MerchType.String(),
		Payload:            string(d.Payload),
		SelectedAssetsJSON: "[]",
		UpdatedAt:          d.UpdatedAt,
	}
	if len(d.SelectedAssets) > 0 {
		if b, err := json.Marshal(d.SelectedAssets); err == nil {
			m.SelectedAssetsJSON = string(b)
		}
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	return m
}
