package byom

import (
	"fmt"

	"github.com/merch/byom/internal/domain/shared"
)

// Coordinate and scale bounds. Coordinates are percent of the canvas.
const (
	MinCoordinate = 0.0
	MaxCoordinate = 100.0
	MinScale      = 0.5
	MaxScale      = 3.0
	DefaultScale  = 1.0
)

// Defaults used whenever a configuration cannot be recovered
const (
	DefaultMerchType = MerchTShirt
	DefaultSize      = SizeM
	DefaultColor     = "black"
	DefaultColorName = "Black"
)

// CustomText is a text element placed on a zone
type CustomText struct {
	ID            string  `json:"id"`
	Content       string  `json:"content"`
	FontSize      int     `json:"fontSize"`
	FontFamily    string  `json:"fontFamily"`
	Bold          bool    `json:"bold"`
	Italic        bool    `json:"italic"`
	Underline     bool    `json:"underline"`
	Strikethrough bool    `json:"strikethrough"`
	Alignment     string  `json:"alignment"`
	Color         string  `json:"color"`
	LetterSpacing float64 `json:"letterSpacing"`
	LineHeight    float64 `json:"lineHeight"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// CustomAsset is a catalog or uploaded graphic placed on a zone
type CustomAsset struct {
	ID      string  `json:"id"`
	AssetID string  `json:"assetId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Scale   float64 `json:"scale"`
}

// PlacementDesign holds the ordered elements of one zone
type PlacementDesign struct {
	Texts  []CustomText  `json:"texts"`
	Assets []CustomAsset `json:"assets"`
}

// NewPlacementDesign returns an empty zone design
func NewPlacementDesign() PlacementDesign {
	return PlacementDesign{
		Texts:  []CustomText{},
		Assets: []CustomAsset{},
	}
}

// IsEmpty reports whether the zone carries no element
func (p PlacementDesign) IsEmpty() bool {
	return len(p.Texts) == 0 && len(p.Assets) == 0
}

func (p PlacementDesign) clone() PlacementDesign {
	out := PlacementDesign{
		Texts:  make([]CustomText, len(p.Texts)),
		Assets: make([]CustomAsset, len(p.Assets)),
	}
	copy(out.Texts, p.Texts)
	copy(out.Assets, p.Assets)
	return out
}

// Views holds exactly one design per zone
type Views struct {
	Front PlacementDesign `json:"front"`
	Back  PlacementDesign `json:"back"`
	Side  PlacementDesign `json:"side"`
}

// UploadedSticker is a user-provided graphic referenced by assets
type UploadedSticker struct {
	ID     string `json:"id"`
	URL    string `json:"url,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

// Configuration is the canonical customization of one merchandise item
type Configuration struct {
	MerchType        MerchandiseType   `json:"merchType"`
	Size             Size              `json:"size"`
	Color            string            `json:"color"`
	ColorName        string            `json:"colorName"`
	Views            Views             `json:"views"`
	UploadedStickers []UploadedSticker `json:"uploadedStickers,omitempty"`
}

// NewConfiguration creates an empty configuration for a merchandise item
func NewConfiguration(merchType MerchandiseType, size Size, color, colorName string) (*Configuration, error) {
	if !merchType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MERCH_TYPE", fmt.Sprintf("Unsupported merchandise type: %s", merchType))
	}
	if size == "" {
		size = DefaultSize
	}
	if !size.IsValid() {
		return nil, shared.NewDomainError("INVALID_SIZE", fmt.Sprintf("Unsupported size: %s", size))
	}
	if color == "" {
		color = DefaultColor
	}
	if colorName == "" {
		colorName = color
	}
	return &Configuration{
		MerchType: merchType,
		Size:      size,
		Color:     color,
		ColorName: colorName,
		Views: Views{
			Front: NewPlacementDesign(),
			Back:  NewPlacementDesign(),
			Side:  NewPlacementDesign(),
		},
	}, nil
}

// DefaultConfiguration returns the empty tshirt/black configuration
func DefaultConfiguration() Configuration {
	return DefaultConfigurationFor(DefaultMerchType)
}

// DefaultConfigurationFor returns an empty black configuration for the given type
func DefaultConfigurationFor(merchType MerchandiseType) Configuration {
	if !merchType.IsValid() {
		merchType = DefaultMerchType
	}
	cfg, _ := NewConfiguration(merchType, DefaultSize, DefaultColor, DefaultColorName)
	return *cfg
}

// View returns the design of a zone
func (c *Configuration) View(zone PlacementZone) (*PlacementDesign, error) {
	switch zone {
	case ZoneFront:
		return &c.Views.Front, nil
	case ZoneBack:
		return &c.Views.Back, nil
	case ZoneSide:
		return &c.Views.Side, nil
	}
	return nil, shared.NewDomainError("INVALID_ZONE", fmt.Sprintf("Unknown placement zone: %s", zone))
}

// Clone returns a deep copy
func (c Configuration) Clone() Configuration {
	out := c
	out.Views = Views{
		Front: c.Views.Front.clone(),
		Back:  c.Views.Back.clone(),
		Side:  c.Views.Side.clone(),
	}
	if len(c.UploadedStickers) > 0 {
		out.UploadedStickers = make([]UploadedSticker, len(c.UploadedStickers))
		copy(out.UploadedStickers, c.UploadedStickers)
	} else {
		out.UploadedStickers = nil
	}
	return out
}

// zones returns the zone designs in fixed order
func (c *Configuration) zones() []*PlacementDesign {
	return []*PlacementDesign{&c.Views.Front, &c.Views.Back, &c.Views.Side}
}

// HasContent reports whether any zone carries a text or an asset
func (c Configuration) HasContent() bool {
	return c.TextCount() > 0 || c.AssetCount() > 0
}

// TextCount counts texts across all zones
func (c Configuration) TextCount() int {
	n := 0
	for _, z := range c.zones() {
		n += len(z.Texts)
	}
	return n
}

// AssetCount counts assets across all zones
func (c Configuration) AssetCount() int {
	n := 0
	for _, z := range c.zones() {
		n += len(z.Assets)
	}
	return n
}

// UsedZones returns the zones carrying content, in fixed zone order
func (c Configuration) UsedZones() []PlacementZone {
	used := make([]PlacementZone, 0, 3)
	for _, zone := range AllZones() {
		v, _ := c.View(zone)
		if !v.IsEmpty() {
			used = append(used, zone)
		}
	}
	return used
}

// AssetIDs returns the distinct asset ids referenced by the configuration
func (c Configuration) AssetIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, z := range c.zones() {
		for _, a := range z.Assets {
			if _, ok := seen[a.AssetID]; ok {
				continue
			}
			seen[a.AssetID] = struct{}{}
			ids = append(ids, a.AssetID)
		}
	}
	return ids
}

// FindText returns the text with the given id in a zone
func (c *Configuration) FindText(zone PlacementZone, id string) (*CustomText, error) {
	v, err := c.View(zone)
	if err != nil {
		return nil, err
	}
	for i := range v.Texts {
		if v.Texts[i].ID == id {
			return &v.Texts[i], nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Text %s not found in %s", id, zone))
}

// FindAsset returns the asset with the given id in a zone
func (c *Configuration) FindAsset(zone PlacementZone, id string) (*CustomAsset, error) {
	v, err := c.View(zone)
	if err != nil {
		return nil, err
	}
	for i := range v.Assets {
		if v.Assets[i].ID == id {
			return &v.Assets[i], nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Asset %s not found in %s", id, zone))
}

// FindSticker returns the uploaded sticker with the given id
func (c Configuration) FindSticker(id string) (UploadedSticker, bool) {
	for _, s := range c.UploadedStickers {
		if s.ID == id {
			return s, true
		}
	}
	return UploadedSticker{}, false
}

// Validate checks the structural invariants of the configuration
func (c Configuration) Validate() error {
	if !c.MerchType.IsValid() {
		return shared.NewDomainError("INVALID_MERCH_TYPE", fmt.Sprintf("Unsupported merchandise type: %s", c.MerchType))
	}
	if !c.Size.IsValid() {
		return shared.NewDomainError("INVALID_SIZE", fmt.Sprintf("Unsupported size: %s", c.Size))
	}
	ids := make(map[string]struct{})
	for _, zone := range AllZones() {
		v, _ := c.View(zone)
		for _, t := range v.Texts {
			if t.Content == "" {
				return shared.NewDomainError("INVALID_TEXT", "Text content cannot be empty")
			}
			if !inRange(t.X, MinCoordinate, MaxCoordinate) || !inRange(t.Y, MinCoordinate, MaxCoordinate) {
				return shared.NewDomainError("INVALID_POSITION", fmt.Sprintf("Text %s is outside the canvas", t.ID))
			}
			if _, dup := ids[t.ID]; dup {
				return shared.NewDomainError("DUPLICATE_ELEMENT", fmt.Sprintf("Element id %s is used twice", t.ID))
			}
			ids[t.ID] = struct{}{}
		}
		for _, a := range v.Assets {
			if !inRange(a.X, MinCoordinate, MaxCoordinate) || !inRange(a.Y, MinCoordinate, MaxCoordinate) {
				return shared.NewDomainError("INVALID_POSITION", fmt.Sprintf("Asset %s is outside the canvas", a.ID))
			}
			if !inRange(a.Scale, MinScale, MaxScale) {
				return shared.NewDomainError("INVALID_SCALE", fmt.Sprintf("Asset %s scale must be between %.1f and %.1f", a.ID, MinScale, MaxScale))
			}
			if _, dup := ids[a.ID]; dup {
				return shared.NewDomainError("DUPLICATE_ELEMENT", fmt.Sprintf("Element id %s is used twice", a.ID))
			}
			ids[a.ID] = struct{}{}
		}
	}
	return nil
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
