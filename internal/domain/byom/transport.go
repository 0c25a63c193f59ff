package byom

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// TransportConfiguration is the JSON shape exchanged with clients and drafts
type TransportConfiguration struct {
	MerchType        string            `json:"merchType"`
	Size             string            `json:"size"`
	Color            string            `json:"color"`
	ColorName        string            `json:"colorName"`
	Front            PlacementDesign   `json:"front"`
	Back             PlacementDesign   `json:"back"`
	Side             PlacementDesign   `json:"side"`
	UploadedStickers []UploadedSticker `json:"uploadedStickers,omitempty"`
}

// ToTransport flattens a configuration into its transport shape
func ToTransport(cfg Configuration) TransportConfiguration {
	c := cfg.Clone()
	return TransportConfiguration{
		MerchType:        c.MerchType.String(),
		Size:             c.Size.String(),
		Color:            c.Color,
		ColorName:        c.ColorName,
		Front:            c.Views.Front,
		Back:             c.Views.Back,
		Side:             c.Views.Side,
		UploadedStickers: c.UploadedStickers,
	}
}

// MarshalConfiguration encodes a configuration as transport JSON
func MarshalConfiguration(cfg Configuration) ([]byte, error) {
	return json.Marshal(ToTransport(cfg))
}

// ParseConfiguration decodes a configuration from transport JSON given as a
// string, bytes, a decoded map or a TransportConfiguration. It never fails:
// unreadable input yields DefaultConfiguration, unknown fields are ignored and
// out-of-range positions and scales are clamped.
func ParseConfiguration(raw any) Configuration {
	cfg, _ := ParseConfigurationOK(raw)
	return cfg
}

// ParseConfigurationOK is ParseConfiguration that also reports whether raw
// was a readable configuration. It is false when the result is the default
// configuration standing in for unreadable input or input that names no
// valid merchandise type.
func ParseConfigurationOK(raw any) (Configuration, bool) {
	switch v := raw.(type) {
	case nil:
		return DefaultConfiguration(), false
	case Configuration:
		return sanitize(v.Clone()), true
	case *Configuration:
		if v == nil {
			return DefaultConfiguration(), false
		}
		return sanitize(v.Clone()), true
	case string:
		return parseBytes([]byte(v), 0)
	case []byte:
		return parseBytes(v, 0)
	case json.RawMessage:
		return parseBytes(v, 0)
	case map[string]any:
		return decodeConfiguration(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return DefaultConfiguration(), false
		}
		return parseBytes(b, 0)
	}
}

// parseBytes accepts one level of double encoding ("{\"merchType\":...}")
func parseBytes(b []byte, depth int) (Configuration, bool) {
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return DefaultConfiguration(), false
	}
	switch v := decoded.(type) {
	case map[string]any:
		return decodeConfiguration(v)
	case string:
		if depth == 0 {
			return parseBytes([]byte(v), depth+1)
		}
	}
	return DefaultConfiguration(), false
}

func decodeConfiguration(m map[string]any) (Configuration, bool) {
	cfg := DefaultConfiguration()

	mt := MerchandiseType(strings.ToLower(pickString(m, "merchType", "merch_type", "merchandiseType", "type")))
	known := mt.IsValid()
	if known {
		cfg.MerchType = mt
	}
	if size := Size(strings.ToUpper(pickString(m, "size"))); size.IsValid() {
		cfg.Size = size
	}
	if color := pickString(m, "color", "colour"); color != "" {
		cfg.Color = color
		cfg.ColorName = color
	}
	if name := pickString(m, "colorName", "color_name"); name != "" {
		cfg.ColorName = name
	}

	views, _ := pickAny(m, "views").(map[string]any)
	ids := make(map[string]struct{})
	for _, zone := range AllZones() {
		src := pickAny(m, zone.String())
		if src == nil && views != nil {
			src = views[zone.String()]
		}
		design := decodeZone(src, ids)
		v, _ := cfg.View(zone)
		*v = design
	}
	cfg.UploadedStickers = decodeStickers(pickAny(m, "uploadedStickers", "uploaded_stickers"))
	return cfg, known
}

func decodeZone(src any, ids map[string]struct{}) PlacementDesign {
	design := NewPlacementDesign()
	m, ok := src.(map[string]any)
	if !ok {
		return design
	}
	texts, _ := pickAny(m, "texts").([]any)
	for _, item := range texts {
		tm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		content := pickString(tm, "content", "text")
		if content == "" {
			continue
		}
		design.Texts = append(design.Texts, CustomText{
			ID:            uniqueID(pickString(tm, "id"), ids),
			Content:       content,
			FontSize:      int(math.Round(pickFloat(tm, 0, "fontSize", "font_size"))),
			FontFamily:    pickString(tm, "fontFamily", "font_family"),
			Bold:          pickBool(tm, "bold"),
			Italic:        pickBool(tm, "italic"),
			Underline:     pickBool(tm, "underline"),
			Strikethrough: pickBool(tm, "strikethrough", "strikeThrough"),
			Alignment:     pickString(tm, "alignment", "textAlign", "align"),
			Color:         pickString(tm, "color"),
			LetterSpacing: pickFloat(tm, 0, "letterSpacing", "letter_spacing"),
			LineHeight:    pickFloat(tm, 0, "lineHeight", "line_height"),
			X:             clampCoordinate(pickFloat(tm, CenterCoordinate, "x")),
			Y:             clampCoordinate(pickFloat(tm, CenterCoordinate, "y")),
		})
	}
	assets, _ := pickAny(m, "assets", "images", "stickers").([]any)
	for _, item := range assets {
		am, ok := item.(map[string]any)
		if !ok {
			continue
		}
		assetID := pickString(am, "assetId", "asset_id", "stickerId", "src")
		if assetID == "" {
			continue
		}
		design.Assets = append(design.Assets, CustomAsset{
			ID:      uniqueID(pickString(am, "id"), ids),
			AssetID: assetID,
			X:       clampCoordinate(pickFloat(am, CenterCoordinate, "x")),
			Y:       clampCoordinate(pickFloat(am, CenterCoordinate, "y")),
			Scale:   clampScale(pickFloat(am, DefaultScale, "scale")),
		})
	}
	return design
}

func decodeStickers(src any) []UploadedSticker {
	items, ok := src.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	var out []UploadedSticker
	for _, item := range items {
		sm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s := UploadedSticker{
			ID:     pickString(sm, "id"),
			URL:    pickString(sm, "url", "image"),
			Base64: pickString(sm, "base64", "data"),
		}
		if s.ID == "" || (s.URL == "" && s.Base64 == "") {
			continue
		}
		out = append(out, s)
	}
	return out
}

// sanitize clamps a configuration that arrived already typed
func sanitize(cfg Configuration) Configuration {
	if !cfg.MerchType.IsValid() {
		cfg.MerchType = DefaultMerchType
	}
	if !cfg.Size.IsValid() {
		cfg.Size = DefaultSize
	}
	if cfg.Color == "" {
		cfg.Color = DefaultColor
	}
	if cfg.ColorName == "" {
		cfg.ColorName = cfg.Color
	}
	for _, v := range cfg.zones() {
		if v.Texts == nil {
			v.Texts = []CustomText{}
		}
		if v.Assets == nil {
			v.Assets = []CustomAsset{}
		}
		for i := range v.Texts {
			v.Texts[i].X = clampCoordinate(v.Texts[i].X)
			v.Texts[i].Y = clampCoordinate(v.Texts[i].Y)
		}
		for i := range v.Assets {
			v.Assets[i].X = clampCoordinate(v.Assets[i].X)
			v.Assets[i].Y = clampCoordinate(v.Assets[i].Y)
			v.Assets[i].Scale = clampScale(v.Assets[i].Scale)
		}
	}
	return cfg
}

func uniqueID(id string, seen map[string]struct{}) string {
	if _, dup := seen[id]; id == "" || dup {
		id = newElementID()
	}
	seen[id] = struct{}{}
	return id
}

// pickAny returns the value of the first present key
func pickAny(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func pickFloat(m map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		var f float64
		switch v := m[k].(type) {
		case float64:
			f = v
		case int:
			f = float64(v)
		case json.Number:
			n, err := v.Float64()
			if err != nil {
				continue
			}
			f = n
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			f = n
		default:
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f
	}
	return def
}

func pickBool(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
	}
	return false
}
