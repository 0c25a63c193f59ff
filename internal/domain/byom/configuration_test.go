package byom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerchandiseType_IsValid(t *testing.T) {
	tests := []struct {
		merch   MerchandiseType
		isValid bool
	}{
		{MerchTShirt, true},
		{MerchLongSleeve, true},
		{MerchHoodie, true},
		{MerchTrouser, true},
		{MerchShort, true},
		{MerchHat, true},
		{MerchandiseType("mug"), false},
		{MerchandiseType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.merch), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.merch.IsValid())
		})
	}
}

func TestNewConfiguration(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg, err := NewConfiguration(MerchHoodie, "", "", "")
		require.NoError(t, err)
		assert.Equal(t, SizeM, cfg.Size)
		assert.Equal(t, DefaultColor, cfg.Color)
		assert.Equal(t, DefaultColor, cfg.ColorName)
		for _, zone := range AllZones() {
			v, err := cfg.View(zone)
			require.NoError(t, err)
			assert.NotNil(t, v.Texts)
			assert.NotNil(t, v.Assets)
		}
	})

	t.Run("rejects unknown merchandise", func(t *testing.T) {
		_, err := NewConfiguration("mug", SizeM, "white", "White")
		assert.Error(t, err)
	})

	t.Run("rejects unknown size", func(t *testing.T) {
		_, err := NewConfiguration(MerchTShirt, "XS", "white", "White")
		assert.Error(t, err)
	})
}

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration()
	assert.Equal(t, MerchTShirt, cfg.MerchType)
	assert.Equal(t, "black", cfg.Color)
	assert.False(t, cfg.HasContent())
	assert.Empty(t, cfg.UsedZones())
}

func TestConfiguration_View_UnknownZone(t *testing.T) {
	cfg := DefaultConfiguration()
	_, err := cfg.View("sleeve")
	assert.Error(t, err)
}

func TestConfiguration_CloneIsDeep(t *testing.T) {
	cfg := DefaultConfiguration()
	_, err := AddText(&cfg, ZoneFront, TextInput{Content: "hello"})
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.Views.Front.Texts[0].Content = "changed"
	_, err = AddAsset(&clone, ZoneBack, "star")
	require.NoError(t, err)

	assert.Equal(t, "hello", cfg.Views.Front.Texts[0].Content)
	assert.Empty(t, cfg.Views.Back.Assets)
}

func TestConfiguration_CountsAndUsedZones(t *testing.T) {
	cfg := DefaultConfiguration()
	_, _ = AddText(&cfg, ZoneFront, TextInput{Content: "a"})
	_, _ = AddText(&cfg, ZoneSide, TextInput{Content: "b"})
	_, _ = AddAsset(&cfg, ZoneSide, "star")
	_, _ = AddAsset(&cfg, ZoneSide, "star")

	assert.Equal(t, 2, cfg.TextCount())
	assert.Equal(t, 2, cfg.AssetCount())
	assert.Equal(t, []PlacementZone{ZoneFront, ZoneSide}, cfg.UsedZones())
	assert.Equal(t, []string{"star"}, cfg.AssetIDs())
	assert.True(t, cfg.HasContent())
}

func TestConfiguration_Validate(t *testing.T) {
	base := func() Configuration {
		cfg := DefaultConfiguration()
		_, _ = AddText(&cfg, ZoneFront, TextInput{Content: "hi"})
		_, _ = AddAsset(&cfg, ZoneBack, "star")
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("position out of range", func(t *testing.T) {
		cfg := base()
		cfg.Views.Front.Texts[0].X = 101
		assert.Error(t, cfg.Validate())
	})

	t.Run("scale out of range", func(t *testing.T) {
		cfg := base()
		cfg.Views.Back.Assets[0].Scale = 0.1
		assert.Error(t, cfg.Validate())
	})

	t.Run("duplicate element id", func(t *testing.T) {
		cfg := base()
		cfg.Views.Back.Assets[0].ID = cfg.Views.Front.Texts[0].ID
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty text content", func(t *testing.T) {
		cfg := base()
		cfg.Views.Front.Texts[0].Content = ""
		assert.Error(t, cfg.Validate())
	})
}
