package byom

import (
	"encoding/json"
	"path"
	"strings"
)

// DesignRecord is a design as found in exported or legacy records
type DesignRecord struct {
	ID              string
	UserID          string
	UserEmail       string
	Name            string
	Status          DesignStatus
	RejectionReason string
	Configuration   Configuration
}

// MerchProduct is a customizable catalog product
type MerchProduct struct {
	ID        string
	Name      string
	MerchType MerchandiseType
	Image     string
}

// Sticker is a catalog graphic that can be placed as an asset
type Sticker struct {
	ID    string
	Name  string
	Image string
}

// toMap decodes a record given as a map, string or bytes
func toMap(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case string:
		return toMap([]byte(v))
	case json.RawMessage:
		return toMap([]byte(v))
	case []byte:
		var m map[string]any
		if err := json.Unmarshal(v, &m); err != nil {
			return map[string]any{}
		}
		return m
	case nil:
		return map[string]any{}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return map[string]any{}
		}
		return toMap(b)
	}
}

// CanonicalDesign normalizes a design record. The owner may be an object
// {id, email} or a bare identifier next to a user_email/email field.
func CanonicalDesign(raw any) DesignRecord {
	m := toMap(raw)
	rec := DesignRecord{
		ID:              pickString(m, "id", "uuid"),
		Name:            pickString(m, "name", "title"),
		Status:          DesignStatus(strings.ToLower(pickString(m, "status"))),
		RejectionReason: pickString(m, "rejection_reason", "rejectionReason"),
	}
	if user, ok := pickAny(m, "user", "owner").(map[string]any); ok {
		rec.UserID = pickString(user, "id", "pk", "uuid")
		rec.UserEmail = pickString(user, "email")
	} else {
		rec.UserID = pickString(m, "user", "user_id", "owner", "owner_id")
	}
	if rec.UserEmail == "" {
		rec.UserEmail = pickString(m, "user_email", "email", "owner_email")
	}
	if !rec.Status.IsValid() {
		rec.Status = DesignStatusDraft
	}
	rec.Configuration = ParseConfiguration(pickAny(m, "configuration", "config", "design_data", "design"))
	return rec
}

// CanonicalMerch normalizes a product record. The picture is taken from
// featured_image, image then thumbnail_url.
func CanonicalMerch(raw any) MerchProduct {
	m := toMap(raw)
	p := MerchProduct{
		ID:    pickString(m, "id", "slug"),
		Name:  pickString(m, "name", "title"),
		Image: pickImage(m, "featured_image", "image", "thumbnail_url"),
	}
	if mt := MerchandiseType(strings.ToLower(pickString(m, "merch_type", "merchType", "type", "slug"))); mt.IsValid() {
		p.MerchType = mt
	}
	return p
}

// CanonicalSticker normalizes a sticker catalog record
func CanonicalSticker(raw any) Sticker {
	m := toMap(raw)
	return Sticker{
		ID:    pickString(m, "id", "slug"),
		Name:  pickString(m, "name", "title"),
		Image: pickImage(m, "image", "url", "file"),
	}
}

// pickImage accepts plain URLs and {url|src} objects
func pickImage(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if u := pickString(v, "url", "src"); u != "" {
				return u
			}
		}
	}
	return ""
}

// ResolveStickerURL returns the image of an asset id: the uploaded sticker
// with that id first, then the static catalog path.
func ResolveStickerURL(assetID string, uploaded []UploadedSticker, catalogBase string) string {
	for _, s := range uploaded {
		if s.ID != assetID {
			continue
		}
		if s.URL != "" {
			return s.URL
		}
		if strings.HasPrefix(s.Base64, "data:") {
			return s.Base64
		}
		return "data:image/png;base64," + s.Base64
	}
	name := assetID
	if path.Ext(name) == "" {
		name += ".png"
	}
	return strings.TrimRight(catalogBase, "/") + "/" + name
}
