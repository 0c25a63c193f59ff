package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/proof_sheet.html
var templateFS embed.FS

// MoneyFormatter renders an amount in a currency for display
type MoneyFormatter func(amount decimal.Decimal, currency string) string

// ProofTemplate composes the HTML proof sheet of a design
type ProofTemplate struct {
	tmpl        *template.Template
	catalogBase string
	formatMoney MoneyFormatter
	now         func() time.Time
}

// NewProofTemplate parses the embedded proof sheet. Catalog stickers resolve
// under catalogBase. A nil formatter prints "<currency> <amount>".
func NewProofTemplate(catalogBase string, format MoneyFormatter) (*ProofTemplate, error) {
	if format == nil {
		format = func(amount decimal.Decimal, currency string) string {
			return currency + " " + amount.StringFixed(2)
		}
	}
	caser := cases.Title(language.English)
	tmpl, err := template.New("proof_sheet.html").Funcs(template.FuncMap{
		"title":   caser.String,
		"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"scale":   func(v float64) string { return fmt.Sprintf("%.2fx", v) },
	}).ParseFS(templateFS, "templates/proof_sheet.html")
	if err != nil {
		return nil, fmt.Errorf("parse proof template: %w", err)
	}
	return &ProofTemplate{tmpl: tmpl, catalogBase: catalogBase, formatMoney: format, now: time.Now}, nil
}

type proofAsset struct {
	byom.CustomAsset
	URL template.URL
}

type proofZone struct {
	Zone   string
	Texts  []byom.CustomText
	Assets []proofAsset
}

type proofLine struct {
	Label  string
	Amount string
}

type proofSheet struct {
	DesignID    string
	Name        string
	OwnerEmail  string
	Status      string
	MerchType   string
	Size        string
	Color       string
	ColorName   string
	Zones       []proofZone
	Lines       []proofLine
	Total       string
	Estimate    bool
	Strategy    string
	SubmittedAt string
	GeneratedAt string
}

// Compose renders the proof sheet of design priced with breakdown.
// Zones without elements are left out.
func (p *ProofTemplate) Compose(design *byom.Design, breakdown byom.PriceBreakdown) (string, error) {
	if design == nil {
		return "", fmt.Errorf("compose proof: design is nil")
	}
	cfg := design.Configuration
	sheet := proofSheet{
		DesignID:    design.ID.String(),
		Name:        design.Name,
		OwnerEmail:  design.OwnerEmail,
		Status:      design.Status.String(),
		MerchType:   cfg.MerchType.String(),
		Size:        cfg.Size.String(),
		Color:       cfg.Color,
		ColorName:   cfg.ColorName,
		Total:       p.formatMoney(breakdown.Total, breakdown.Currency),
		Estimate:    breakdown.Estimate,
		Strategy:    breakdown.Strategy,
		GeneratedAt: p.now().UTC().Format(time.RFC3339),
	}
	if design.SubmittedAt != nil {
		sheet.SubmittedAt = design.SubmittedAt.UTC().Format(time.RFC3339)
	}

	for _, zone := range cfg.UsedZones() {
		view, err := cfg.View(zone)
		if err != nil {
			return "", err
		}
		z := proofZone{Zone: zone.String(), Texts: view.Texts}
		for _, a := range view.Assets {
			url := byom.ResolveStickerURL(a.AssetID, cfg.UploadedStickers, p.catalogBase)
			z.Assets = append(z.Assets, proofAsset{CustomAsset: a, URL: imageURL(url)})
		}
		sheet.Zones = append(sheet.Zones, z)
	}
	for _, l := range breakdown.Lines {
		sheet.Lines = append(sheet.Lines, proofLine{Label: l.Label, Amount: p.formatMoney(l.Amount, breakdown.Currency)})
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, sheet); err != nil {
		return "", fmt.Errorf("compose proof: %w", err)
	}
	return buf.String(), nil
}

// imageURL lets inline png/jpeg data through html/template and drops
// anything that is not an http(s), relative or image data URL
func imageURL(u string) template.URL {
	switch {
	case strings.HasPrefix(u, "data:image/png;"), strings.HasPrefix(u, "data:image/jpeg;"):
		return template.URL(u)
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "/"):
		return template.URL(u)
	}
	return ""
}
