package byom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"go.uber.org/zap"
)

// DraftState is a loaded draft decoded to a configuration
type DraftState struct {
	Configuration  byom.Configuration
	SelectedAssets []string
	// Restored is false when nothing usable was saved and defaults were returned
	Restored  bool
	UpdatedAt *time.Time
}

// DraftService keeps one work-in-progress configuration per merchandise
// type per owner in the durable draft store
type DraftService struct {
	repo   byom.DraftRepository
	logger *zap.Logger
}

// NewDraftService creates a new DraftService
func NewDraftService(repo byom.DraftRepository, logger *zap.Logger) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{repo: repo, logger: logger}
}

// Load reads the draft of merchType. It never fails: a missing, unreadable
// or foreign payload yields the default configuration of merchType.
func (s *DraftService) Load(ctx context.Context, ownerKey string, merchType byom.MerchandiseType) DraftState {
	defaults := DraftState{Configuration: byom.DefaultConfigurationFor(merchType), SelectedAssets: []string{}}

	draft, err := s.repo.Load(ctx, byom.DraftKey{OwnerKey: ownerKey, MerchType: merchType})
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to load draft, starting from defaults",
				zap.String("owner_key", ownerKey),
				zap.String("merch_type", merchType.String()),
				zap.Error(err),
			)
		}
		return defaults
	}

	cfg, ok := byom.ParseConfigurationOK(draft.Payload)
	if !ok || cfg.MerchType != merchType {
		s.logger.Warn("Draft payload unreadable, starting from defaults",
			zap.String("owner_key", ownerKey),
			zap.String("merch_type", merchType.String()),
		)
		return defaults
	}
	updated := draft.UpdatedAt
	return DraftState{
		Configuration:  cfg,
		SelectedAssets: draft.SelectedAssets,
		Restored:       true,
		UpdatedAt:      &updated,
	}
}

// Save overwrites the draft of the configuration's merchandise type
func (s *DraftService) Save(ctx context.Context, ownerKey string, cfg byom.Configuration) error {
	payload, err := byom.MarshalConfiguration(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return s.repo.Save(ctx, &byom.Draft{
		OwnerKey:       ownerKey,
		MerchType:      cfg.MerchType,
		Payload:        payload,
		SelectedAssets: cfg.AssetIDs(),
		UpdatedAt:      time.Now(),
	})
}

// Delete discards the draft of merchType
func (s *DraftService) Delete(ctx context.Context, ownerKey string, merchType byom.MerchandiseType) error {
	return s.repo.Delete(ctx, byom.DraftKey{OwnerKey: ownerKey, MerchType: merchType})
}

// Get returns the draft of merchType as a response
func (s *DraftService) Get(ctx context.Context, actor Actor, merchType byom.MerchandiseType) *DraftResponse {
	st := s.Load(ctx, actor.OwnerKey(), merchType)
	return &DraftResponse{
		MerchType:      merchType.String(),
		Configuration:  byom.ToTransport(st.Configuration),
		SelectedAssets: st.SelectedAssets,
		Restored:       st.Restored,
		UpdatedAt:      st.UpdatedAt,
	}
}
