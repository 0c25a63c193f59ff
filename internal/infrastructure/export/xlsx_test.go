package export

import (
	"bytes"
	"testing"
	"time"

	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXDesignExporter_ExportDesigns(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := []appbyom.DesignExportRow{
		{
			ID:          "d-1",
			Name:        "Team shirt",
			OwnerEmail:  "owner@example.com",
			Status:      "approved",
			MerchType:   "tshirt",
			Size:        "M",
			Color:       "Black",
			Texts:       2,
			Assets:      1,
			Zones:       "front, back",
			Total:       decimal.NewFromFloat(38.5),
			Currency:    "USD",
			Ordered:     3,
			SubmittedAt: &submitted,
			CreatedAt:   submitted.Add(-time.Hour),
		},
		{ID: "d-2", Name: "Blank", Status: "draft", CreatedAt: submitted},
	}

	data, err := NewXLSXDesignExporter().ExportDesigns(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DesignsSheet}, f.GetSheetList())
	got, err := f.GetRows(DesignsSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ID", got[0][0])
	assert.Equal(t, "Created", got[0][15])
	assert.Equal(t, "Team shirt", got[1][1])
	assert.Equal(t, "front, back", got[1][9])
	assert.Equal(t, "38.50", got[1][10])
	assert.Equal(t, "3", got[1][12])
	assert.Equal(t, "2026-03-01 09:30", got[1][13])
	assert.Equal(t, "", got[1][14])
	assert.Equal(t, "2026-03-01 08:30", got[1][15])
	assert.Equal(t, "draft", got[2][3])
}

func TestXLSXDesignExporter_Empty(t *testing.T) {
	data, err := NewXLSXDesignExporter().ExportDesigns(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(DesignsSheet)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
