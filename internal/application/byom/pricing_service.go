package byom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrNoActivePolicy is returned when a purchasable price is needed and no policy is active
var ErrNoActivePolicy = shared.NewDomainError("NO_ACTIVE_POLICY", "No active pricing policy")

// PricingService prices configurations and manages pricing policies
type PricingService struct {
	policies   byom.PricingPolicyRepository
	strategies PricingStrategies
	events     shared.EventPublisher
	formatter  *PriceFormatter
	metrics    WorkflowMetrics
	logger     *zap.Logger
}

// NewPricingService creates a new PricingService
func NewPricingService(
	policies byom.PricingPolicyRepository,
	strategies PricingStrategies,
	events shared.EventPublisher,
	formatter *PriceFormatter,
	logger *zap.Logger,
) *PricingService {
	if formatter == nil {
		formatter = NewPriceFormatter("en-US")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{
		policies:   policies,
		strategies: strategies,
		events:     events,
		formatter:  formatter,
		metrics:    NoopMetrics,
		logger:     logger,
	}
}

// WithMetrics sets the workflow metrics recorder
func (s *PricingService) WithMetrics(m WorkflowMetrics) *PricingService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Formatter returns the display formatter of the service
func (s *PricingService) Formatter() *PriceFormatter {
	return s.formatter
}

// ActivePolicy returns the global policy
func (s *PricingService) ActivePolicy(ctx context.Context) (*byom.PricingPolicy, error) {
	policy, err := s.policies.FindActive(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoActivePolicy
		}
		return nil, fmt.Errorf("failed to load active pricing policy: %w", err)
	}
	return policy, nil
}

// Canonical computes the purchasable price of cfg under the global policy
func (s *PricingService) Canonical(ctx context.Context, cfg byom.Configuration) (byom.PriceBreakdown, *byom.PricingPolicy, error) {
	policy, err := s.ActivePolicy(ctx)
	if err != nil {
		return byom.PriceBreakdown{}, nil, err
	}
	strategy, err := s.strategies.Canonical()
	if err != nil {
		return byom.PriceBreakdown{}, nil, err
	}
	b, err := strategy.Calculate(cfg, policy)
	if err != nil {
		return byom.PriceBreakdown{}, nil, err
	}
	s.metrics.RecordQuote(ctx, b.Strategy, b.Total)
	return b, policy, nil
}

// Estimate computes the display-only count-based price of cfg
func (s *PricingService) Estimate(ctx context.Context, cfg byom.Configuration) (byom.PriceBreakdown, error) {
	strategy, err := s.strategies.GetPricingStrategy(byom.StrategyCount)
	if err != nil {
		return byom.PriceBreakdown{}, err
	}
	b, err := strategy.Calculate(cfg, nil)
	if err != nil {
		return byom.PriceBreakdown{}, err
	}
	s.metrics.RecordQuote(ctx, b.Strategy, b.Total)
	return b, nil
}

// Quote prices cfg both ways. Without an active policy only the estimate is returned.
func (s *PricingService) Quote(ctx context.Context, cfg byom.Configuration) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pricing", "quote",
		attribute.String(telemetry.SpanAttrMerchType, cfg.MerchType.String()))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	estimate, err := s.Estimate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resp := &QuoteResponse{Estimate: toBreakdownResponse(estimate, s.formatter)}

	canonical, _, cErr := s.Canonical(ctx, cfg)
	switch {
	case cErr == nil:
		b := toBreakdownResponse(canonical, s.formatter)
		resp.Canonical = &b
	case errors.Is(cErr, ErrNoActivePolicy):
		s.logger.Debug("No active pricing policy, quoting estimate only")
	default:
		err = cErr
		return nil, err
	}
	return resp, nil
}

// QuoteRaw prices a configuration given in any accepted transport shape
func (s *PricingService) QuoteRaw(ctx context.Context, raw json.RawMessage) (*QuoteResponse, error) {
	return s.Quote(ctx, byom.ParseConfiguration(raw))
}

// GetActivePolicy returns the global policy as a response
func (s *PricingService) GetActivePolicy(ctx context.Context) (*PolicyResponse, error) {
	policy, err := s.ActivePolicy(ctx)
	if err != nil {
		return nil, err
	}
	return toPolicyResponse(policy), nil
}

// CreatePolicy creates an active pricing policy
func (s *PricingService) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*PolicyResponse, error) {
	policy, err := byom.NewPricingPolicy(req.Name, req.Fees(), req.Currency, req.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Save(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to save pricing policy: %w", err)
	}
	s.publish(ctx, policy)

	s.logger.Info("Pricing policy created",
		zap.String("policy_id", policy.ID.String()),
		zap.String("name", policy.Name),
		zap.Int("priority", policy.Priority),
	)
	return toPolicyResponse(policy), nil
}

// PatchPolicy changes the given fields of a policy in place
func (s *PricingService) PatchPolicy(ctx context.Context, id uuid.UUID, req PatchPolicyRequest) (*PolicyResponse, error) {
	policy, err := s.policies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Patch(req.ToPatch()); err != nil {
		return nil, err
	}
	if err := s.policies.Save(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to save pricing policy: %w", err)
	}
	s.publish(ctx, policy)

	s.logger.Info("Pricing policy updated",
		zap.String("policy_id", policy.ID.String()),
		zap.Bool("is_active", policy.IsActive),
		zap.Int("priority", policy.Priority),
	)
	return toPolicyResponse(policy), nil
}

func (s *PricingService) publish(ctx context.Context, agg shared.AggregateRoot) {
	publishPending(ctx, s.events, agg, s.logger)
}

// publishPending hands the aggregate's pending events to the publisher.
// The state change is already saved, so a publish failure is only logged.
func publishPending(ctx context.Context, pub shared.EventPublisher, agg shared.AggregateRoot, logger *zap.Logger) {
	events := agg.PullDomainEvents()
	if pub == nil || len(events) == 0 {
		return
	}
	if err := pub.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events",
			zap.String("aggregate_id", agg.GetID().String()),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
}
