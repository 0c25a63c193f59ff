// Package export writes admin reports as spreadsheets.
package export

import (
	"fmt"
	"time"

	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/xuri/excelize/v2"
)

// DesignsSheet is the name of the only sheet of a design export
const DesignsSheet = "Designs"

var designColumns = []struct {
	title string
	width float64
}{
	{"ID", 38},
	{"Name", 28},
	{"Owner", 28},
	{"Status", 18},
	{"Product", 12},
	{"Size", 6},
	{"Color", 14},
	{"Texts", 7},
	{"Images", 7},
	{"Zones", 18},
	{"Total", 12},
	{"Currency", 9},
	{"Ordered", 9},
	{"Submitted", 18},
	{"Reviewed", 18},
	{"Created", 18},
}

// XLSXDesignExporter renders design export rows into an xlsx workbook
type XLSXDesignExporter struct{}

// NewXLSXDesignExporter creates a new XLSXDesignExporter
func NewXLSXDesignExporter() *XLSXDesignExporter {
	return &XLSXDesignExporter{}
}

// ExportDesigns writes rows below a bold header with the header row frozen
func (e *XLSXDesignExporter) ExportDesigns(rows []appbyom.DesignExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DesignsSheet); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(DesignsSheet)
	if err != nil {
		return nil, err
	}
	for i, c := range designColumns {
		if err := sw.SetColWidth(i+1, i+1, c.width); err != nil {
			return nil, err
		}
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	titles := make([]interface{}, len(designColumns))
	for i, c := range designColumns {
		titles[i] = excelize.Cell{StyleID: header, Value: c.title}
	}
	if err := sw.SetRow("A1", titles); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.ID,
			r.Name,
			r.OwnerEmail,
			r.Status,
			r.MerchType,
			r.Size,
			r.Color,
			r.Texts,
			r.Assets,
			r.Zones,
			excelize.Cell{StyleID: money, Value: r.Total.InexactFloat64()},
			r.Currency,
			r.Ordered,
			timestamp(r.SubmittedAt),
			timestamp(r.ReviewedAt),
			timestamp(&r.CreatedAt),
		}
		if err := sw.SetRow(cell, values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

var _ appbyom.DesignExporter = (*XLSXDesignExporter)(nil)
