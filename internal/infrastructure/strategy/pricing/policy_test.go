package pricing

import (
	"testing"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testPolicy(t *testing.T) *byom.PricingPolicy {
	p, err := byom.NewPricingPolicy("Global", byom.PolicyFees{
		BaseFee:               dec(2000),
		FrontFee:              dec(500),
		BackFee:               dec(700),
		SideFee:               dec(0),
		TextsCustomizationFee: dec(1000),
		ImageCustomizationFee: dec(1500),
	}, "USD", 0)
	require.NoError(t, err)
	return p
}

func TestPolicyPricingStrategy_Scenario(t *testing.T) {
	cfg := byom.DefaultConfiguration()
	_, err := byom.AddText(&cfg, byom.ZoneFront, byom.TextInput{Content: "Hello", FontSize: 24})
	require.NoError(t, err)
	_, err = byom.AddAsset(&cfg, byom.ZoneBack, "star")
	require.NoError(t, err)

	b, err := NewPolicyPricingStrategy().Calculate(cfg, testPolicy(t))
	require.NoError(t, err)

	assert.True(t, b.Total.Equal(dec(5700)), "got %s", b.Total)
	assert.False(t, b.Estimate)
	assert.Equal(t, byom.StrategyPolicy, b.Strategy)
	assert.NoError(t, b.Verify())

	codes := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		codes = append(codes, l.Code)
	}
	assert.Equal(t, []string{"base_fee", "front_placement", "back_placement", "texts_customization", "image_customization"}, codes)
}

func TestPolicyPricingStrategy_Cases(t *testing.T) {
	tests := []struct {
		name  string
		build func(cfg *byom.Configuration)
		want  int64
	}{
		{"empty configuration pays base fee", func(*byom.Configuration) {}, 2000},
		{"two texts in one zone pay text fee once", func(cfg *byom.Configuration) {
			_, _ = byom.AddText(cfg, byom.ZoneFront, byom.TextInput{Content: "a"})
			_, _ = byom.AddText(cfg, byom.ZoneFront, byom.TextInput{Content: "b"})
		}, 2000 + 500 + 1000},
		{"assets only", func(cfg *byom.Configuration) {
			_, _ = byom.AddAsset(cfg, byom.ZoneBack, "x")
			_, _ = byom.AddAsset(cfg, byom.ZoneSide, "y")
		}, 2000 + 700 + 0 + 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := byom.DefaultConfiguration()
			tt.build(&cfg)
			b, err := NewPolicyPricingStrategy().Calculate(cfg, testPolicy(t))
			require.NoError(t, err)
			assert.True(t, b.Total.Equal(dec(tt.want)), "got %s", b.Total)
			assert.NoError(t, b.Verify())
		})
	}
}

func TestPolicyPricingStrategy_RequiresPolicy(t *testing.T) {
	_, err := NewPolicyPricingStrategy().Calculate(byom.DefaultConfiguration(), nil)
	assert.Error(t, err)
}

func TestPolicyPricingStrategy_IsPure(t *testing.T) {
	cfg := byom.DefaultConfiguration()
	_, _ = byom.AddText(&cfg, byom.ZoneFront, byom.TextInput{Content: "a"})
	policy := testPolicy(t)
	s := NewPolicyPricingStrategy()

	first, err := s.Calculate(cfg, policy)
	require.NoError(t, err)
	second, err := s.Calculate(cfg, policy)
	require.NoError(t, err)
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, 1, cfg.TextCount())
}
