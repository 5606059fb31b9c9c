package quote

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/mitsumori/internal/models"
)

func sampleQuotation() *models.Quotation {
	return &models.Quotation{
		QuotationID:  "QT-ABCDEF12",
		Date:         "2026-03-14",
		CustomerName: "Initech",
		Validity:     "7 days",
		Items: []models.LineItem{
			{ItemNo: "1001", ProductID: "CH-100", Product: "Ergo Chair", ProductGroup: "Chairs", Supplier: "Acme", Store: "Main",
				Quantity: 4, UnitPrice: 7900, LineTotal: 31600, MatchConfidence: 0.81},
		},
		Pricing: models.Pricing{Subtotal: 31600, TaxRate: 0.18, TaxAmount: 5688, GrandTotal: 37288},
		Terms:   DefaultTerms,
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(sampleQuotation(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Quotation")
	require.NoError(t, err)
	assert.Equal(t, []string{"Quotation", "QT-ABCDEF12"}, rows[0])
	assert.Equal(t, "item_no", rows[5][0])
	assert.Equal(t, "Ergo Chair", rows[6][2])
	assert.Equal(t, "4", rows[6][6])

	var grand string
	for _, r := range rows {
		if len(r) == 2 && r[0] == "Grand total" {
			grand = r[1]
		}
	}
	assert.Equal(t, "37288", grand)
}

func TestExportXLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "q.xlsx")
	require.NoError(t, ExportXLSX(sampleQuotation(), out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Quotation", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Initech", v)
}
