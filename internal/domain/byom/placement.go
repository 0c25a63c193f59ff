package byom

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/shared"
)

// Canvas is the bounding box of a zone's design surface in pixels
type Canvas struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a pointer position in the same space as the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate checks the canvas has a positive area
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return shared.NewDomainError("INVALID_CANVAS", "Canvas width and height must be positive")
	}
	return nil
}

// Percent converts a pointer position to percent of the canvas box
func (c Canvas) Percent(p Point) Point {
	return Point{
		X: (p.X - c.Left) / c.Width * 100,
		Y: (p.Y - c.Top) / c.Height * 100,
	}
}

// TextInput describes a text element to add
type TextInput struct {
	Content       string
	FontSize      int
	FontFamily    string
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Alignment     string
	Color         string
	LetterSpacing float64
	LineHeight    float64
	X             *float64
	Y             *float64
}

// Text element defaults
const (
	DefaultFontSize   = 24
	DefaultFontFamily = "Arial"
	DefaultAlignment  = "center"
	DefaultTextColor  = "#000000"
	DefaultLineHeight = 1.2
	CenterCoordinate  = 50.0
)

func clampCoordinate(v float64) float64 {
	if math.IsNaN(v) {
		return CenterCoordinate
	}
	return Clamp(v, MinCoordinate, MaxCoordinate)
}

func clampScale(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultScale
	}
	return Clamp(v, MinScale, MaxScale)
}

func newElementID() string {
	return uuid.NewString()
}

// AddText appends a text element to a zone and returns it
func AddText(cfg *Configuration, zone PlacementZone, in TextInput) (CustomText, error) {
	view, err := cfg.View(zone)
	if err != nil {
		return CustomText{}, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return CustomText{}, shared.NewDomainError("INVALID_TEXT", "Text content cannot be empty")
	}
	text := CustomText{
		ID:            newElementID(),
		Content:       in.Content,
		FontSize:      in.FontSize,
		FontFamily:    in.FontFamily,
		Bold:          in.Bold,
		Italic:        in.Italic,
		Underline:     in.Underline,
		Strikethrough: in.Strikethrough,
		Alignment:     in.Alignment,
		Color:         in.Color,
		LetterSpacing: in.LetterSpacing,
		LineHeight:    in.LineHeight,
		X:             CenterCoordinate,
		Y:             CenterCoordinate,
	}
	if text.FontSize <= 0 {
		text.FontSize = DefaultFontSize
	}
	if text.FontFamily == "" {
		text.FontFamily = DefaultFontFamily
	}
	if text.Alignment == "" {
		text.Alignment = DefaultAlignment
	}
	if text.Color == "" {
		text.Color = DefaultTextColor
	}
	if text.LineHeight <= 0 {
		text.LineHeight = DefaultLineHeight
	}
	if in.X != nil {
		text.X = clampCoordinate(*in.X)
	}
	if in.Y != nil {
		text.Y = clampCoordinate(*in.Y)
	}
	view.Texts = append(view.Texts, text)
	return text, nil
}

// AddAsset appends an asset element at the zone center with scale 1
func AddAsset(cfg *Configuration, zone PlacementZone, assetID string) (CustomAsset, error) {
	view, err := cfg.View(zone)
	if err != nil {
		return CustomAsset{}, err
	}
	if strings.TrimSpace(assetID) == "" {
		return CustomAsset{}, shared.NewDomainError("INVALID_ASSET", "Asset id cannot be empty")
	}
	asset := CustomAsset{
		ID:      newElementID(),
		AssetID: assetID,
		X:       CenterCoordinate,
		Y:       CenterCoordinate,
		Scale:   DefaultScale,
	}
	view.Assets = append(view.Assets, asset)
	return asset, nil
}

// RemoveText deletes a text element from a zone
func RemoveText(cfg *Configuration, zone PlacementZone, id string) error {
	view, err := cfg.View(zone)
	if err != nil {
		return err
	}
	for i := range view.Texts {
		if view.Texts[i].ID == id {
			view.Texts = append(view.Texts[:i], view.Texts[i+1:]...)
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Text not found")
}

// RemoveAsset deletes an asset element from a zone
func RemoveAsset(cfg *Configuration, zone PlacementZone, id string) error {
	view, err := cfg.View(zone)
	if err != nil {
		return err
	}
	for i := range view.Assets {
		if view.Assets[i].ID == id {
			view.Assets = append(view.Assets[:i], view.Assets[i+1:]...)
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Asset not found")
}

// ElementPosition returns the current position of an element
func ElementPosition(cfg *Configuration, zone PlacementZone, kind ElementKind, id string) (Point, error) {
	switch kind {
	case ElementText:
		t, err := cfg.FindText(zone, id)
		if err != nil {
			return Point{}, err
		}
		return Point{X: t.X, Y: t.Y}, nil
	case ElementAsset:
		a, err := cfg.FindAsset(zone, id)
		if err != nil {
			return Point{}, err
		}
		return Point{X: a.X, Y: a.Y}, nil
	}
	return Point{}, shared.NewDomainError("INVALID_ELEMENT_KIND", "Element kind must be text or asset")
}

// MoveElement places an element at (x, y) clamped to the canvas
func MoveElement(cfg *Configuration, zone PlacementZone, kind ElementKind, id string, x, y float64) error {
	x, y = clampCoordinate(x), clampCoordinate(y)
	switch kind {
	case ElementText:
		t, err := cfg.FindText(zone, id)
		if err != nil {
			return err
		}
		t.X, t.Y = x, y
		return nil
	case ElementAsset:
		a, err := cfg.FindAsset(zone, id)
		if err != nil {
			return err
		}
		a.X, a.Y = x, y
		return nil
	}
	return shared.NewDomainError("INVALID_ELEMENT_KIND", "Element kind must be text or asset")
}

// ScaleAsset adds delta to an asset's scale, clamped to [MinScale, MaxScale]
func ScaleAsset(cfg *Configuration, zone PlacementZone, id string, delta float64) (float64, error) {
	a, err := cfg.FindAsset(zone, id)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(delta) {
		return a.Scale, nil
	}
	a.Scale = clampScale(a.Scale + delta)
	return a.Scale, nil
}
