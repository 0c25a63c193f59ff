// Package printing renders printable proof sheets for submitted designs.
//
// A proof sheet is composed from an embedded html/template (ProofTemplate)
// and converted to PDF by headless Chrome (ChromeProofRenderer):
//
//	tmpl, err := NewProofTemplate(catalogBase, formatter.Format)
//	if err != nil {
//	    return err
//	}
//	html, err := tmpl.Compose(design, breakdown)
//	if err != nil {
//	    return err
//	}
//	pdf, err := renderer.RenderPDF(ctx, html)
package printing
