package pricing

import (
	"testing"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountPricingStrategy_Calculate(t *testing.T) {
	s := NewCountPricingStrategy(nil, "")

	cfg, err := byom.NewConfiguration(byom.MerchHoodie, byom.SizeL, "white", "White")
	require.NoError(t, err)
	_, _ = byom.AddText(cfg, byom.ZoneFront, byom.TextInput{Content: "a"})
	_, _ = byom.AddText(cfg, byom.ZoneBack, byom.TextInput{Content: "b"})
	_, _ = byom.AddAsset(cfg, byom.ZoneSide, "star")

	b, err := s.Calculate(*cfg, nil)
	require.NoError(t, err)
	assert.True(t, b.Estimate)
	assert.False(t, b.IsPurchasable())
	assert.True(t, b.Total.Equal(dec(28000+2*1000+500)), "got %s", b.Total)
	assert.NoError(t, b.Verify())
	assert.Equal(t, byom.DefaultCurrency, b.Currency)
}

func TestCountPricingStrategy_EmptyConfiguration(t *testing.T) {
	s := NewCountPricingStrategy(nil, "EUR")
	b, err := s.Calculate(byom.DefaultConfiguration(), nil)
	require.NoError(t, err)
	assert.Len(t, b.Lines, 1)
	assert.True(t, b.Total.Equal(dec(DefaultBasePrices[byom.MerchTShirt])))
	assert.Equal(t, "EUR", b.Currency)
}

func TestCountPricingStrategy_BasePriceOverrides(t *testing.T) {
	s := NewCountPricingStrategy(map[byom.MerchandiseType]int64{
		byom.MerchHat:   9000,
		"mug":           1,
		byom.MerchShort: -1,
	}, "")

	assert.True(t, s.BasePrice(byom.MerchHat).Equal(dec(9000)))
	assert.True(t, s.BasePrice(byom.MerchShort).Equal(dec(DefaultBasePrices[byom.MerchShort])))
	assert.True(t, s.BasePrice("mug").Equal(dec(DefaultBasePrices[byom.MerchTShirt])))
}
