package byom

import (
	"context"
	"errors"
	"testing"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPricingService(t *testing.T) (*PricingService, *MockPricingPolicyRepository, *MockEventPublisher) {
	t.Helper()
	policies := new(MockPricingPolicyRepository)
	events := new(MockEventPublisher)
	svc := NewPricingService(policies, testStrategies(t), events, NewPriceFormatter("en-US"), zap.NewNop())
	return svc, policies, events
}

func TestPricingService_Quote(t *testing.T) {
	ctx := context.Background()
	cfg := configWithText(t)
	_, err := byom.AddAsset(&cfg, byom.ZoneBack, "gopher")
	require.NoError(t, err)

	t.Run("with an active policy", func(t *testing.T) {
		svc, policies, _ := newPricingService(t)
		policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)

		resp, err := svc.Quote(ctx, cfg)

		require.NoError(t, err)
		require.NotNil(t, resp.Canonical)
		// 20 base + 5 front + 6 back + 3 text + 4.5 image
		assert.True(t, resp.Canonical.Total.Equal(decimal.NewFromFloat(38.5)))
		assert.Equal(t, "USD 38.50", resp.Canonical.FormattedTotal)
		assert.False(t, resp.Canonical.Estimate)
		assert.True(t, resp.Estimate.Estimate)
		assert.Equal(t, byom.StrategyCount, resp.Estimate.Strategy)
	})

	t.Run("without a policy only the estimate is returned", func(t *testing.T) {
		svc, policies, _ := newPricingService(t)
		policies.On("FindActive", mock.Anything).Return(nil, shared.ErrNotFound)

		resp, err := svc.Quote(ctx, cfg)

		require.NoError(t, err)
		assert.Nil(t, resp.Canonical)
		assert.True(t, resp.Estimate.Total.IsPositive())
	})

	t.Run("backend failure", func(t *testing.T) {
		svc, policies, _ := newPricingService(t)
		policies.On("FindActive", mock.Anything).Return(nil, errors.New("db down"))

		_, err := svc.Quote(ctx, cfg)

		assert.Error(t, err)
	})

	t.Run("raw transport input", func(t *testing.T) {
		svc, policies, _ := newPricingService(t)
		policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)

		resp, err := svc.QuoteRaw(ctx, []byte(`{"merch_type":"hoodie","front":{"texts":[{"content":"hi"}]}}`))

		require.NoError(t, err)
		assert.True(t, resp.Canonical.Total.Equal(decimal.NewFromInt(28)))
	})
}

func TestPricingService_Policies(t *testing.T) {
	ctx := context.Background()

	t.Run("create publishes the change", func(t *testing.T) {
		svc, policies, events := newPricingService(t)
		policies.On("Save", mock.Anything, mock.AnythingOfType("*byom.PricingPolicy")).Return(nil)
		events.On("Publish", mock.Anything, mock.MatchedBy(func(evs []shared.DomainEvent) bool {
			return len(evs) == 1 && evs[0].EventType() == byom.EventTypePricingPolicyCreated
		})).Return(nil)

		resp, err := svc.CreatePolicy(ctx, CreatePolicyRequest{
			Name:     "Launch",
			BaseFee:  decimal.NewFromInt(15),
			FrontFee: decimal.NewFromInt(2),
			Priority: 5,
		})

		require.NoError(t, err)
		assert.True(t, resp.IsActive)
		assert.Equal(t, "USD", resp.Currency)
		events.AssertExpectations(t)
	})

	t.Run("negative fee is rejected", func(t *testing.T) {
		svc, policies, _ := newPricingService(t)

		_, err := svc.CreatePolicy(ctx, CreatePolicyRequest{Name: "Bad", BaseFee: decimal.NewFromInt(-1)})

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_FEE", de.Code)
		policies.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("patch deactivates", func(t *testing.T) {
		svc, policies, events := newPricingService(t)
		policy := testPolicy(t)
		inactive := false
		policies.On("FindByID", mock.Anything, policy.ID).Return(policy, nil)
		policies.On("Save", mock.Anything, policy).Return(nil)
		events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.PatchPolicy(ctx, policy.ID, PatchPolicyRequest{IsActive: &inactive})

		require.NoError(t, err)
		assert.False(t, resp.IsActive)
		assert.True(t, resp.BaseFee.Equal(decimal.NewFromInt(20)))
	})

	t.Run("active policy missing", func(t *testing.T) {
		svc, policies, _ := newPricingService(t)
		policies.On("FindActive", mock.Anything).Return(nil, shared.ErrNotFound)

		_, err := svc.GetActivePolicy(ctx)

		assert.ErrorIs(t, err, ErrNoActivePolicy)
	})
}

func TestPriceFormatter_Format(t *testing.T) {
	f := NewPriceFormatter("en-US")
	assert.Equal(t, "USD 5,700.00", f.Format(decimal.NewFromInt(5700), "USD"))
	assert.Equal(t, "EUR 0.50", f.Format(decimal.NewFromFloat(0.5), "EUR"))

	fallback := NewPriceFormatter("not a locale!")
	assert.Equal(t, "USD 1.00", fallback.Format(decimal.NewFromInt(1), "USD"))
}
