package byom

// MerchandiseType is the garment or accessory being customized
type MerchandiseType string

const (
	MerchTShirt     MerchandiseType = "tshirt"
	MerchLongSleeve MerchandiseType = "longsleeve"
	MerchHoodie     MerchandiseType = "hoodie"
	MerchTrouser    MerchandiseType = "trouser"
	MerchShort      MerchandiseType = "short"
	MerchHat        MerchandiseType = "hat"
)

// IsValid checks if the merchandise type is supported
func (m MerchandiseType) IsValid() bool {
	switch m {
	case MerchTShirt, MerchLongSleeve, MerchHoodie, MerchTrouser, MerchShort, MerchHat:
		return true
	}
	return false
}

func (m MerchandiseType) String() string {
	return string(m)
}

// AllMerchandiseTypes returns every supported merchandise type
func AllMerchandiseTypes() []MerchandiseType {
	return []MerchandiseType{MerchTShirt, MerchLongSleeve, MerchHoodie, MerchTrouser, MerchShort, MerchHat}
}

// Size is the garment size
type Size string

const (
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// IsValid checks if the size is supported
func (s Size) IsValid() bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL, SizeXXL:
		return true
	}
	return false
}

func (s Size) String() string {
	return string(s)
}

// PlacementZone is a printable view of the merchandise
type PlacementZone string

const (
	ZoneFront PlacementZone = "front"
	ZoneBack  PlacementZone = "back"
	ZoneSide  PlacementZone = "side"
)

// IsValid checks if the zone is one of the three views
func (z PlacementZone) IsValid() bool {
	switch z {
	case ZoneFront, ZoneBack, ZoneSide:
		return true
	}
	return false
}

func (z PlacementZone) String() string {
	return string(z)
}

// AllZones returns the zones in their fixed order
func AllZones() []PlacementZone {
	return []PlacementZone{ZoneFront, ZoneBack, ZoneSide}
}

// ElementKind distinguishes placed texts from placed assets
type ElementKind string

const (
	ElementText  ElementKind = "text"
	ElementAsset ElementKind = "asset"
)

// IsValid checks if the kind is known
func (k ElementKind) IsValid() bool {
	return k == ElementText || k == ElementAsset
}
